// pkg/source/source.go - the installer registry data source contract.
//
// Every enumeration is paged by index, the way the Windows Installer API exposes
// products, components, clients, features, qualifiers and patches. A call past the
// last item returns ErrNoMoreItems.

package source

import (
	"errors"
	"strings"
	"time"

	"github.com/windowsadmins/msiinv/pkg/installstate"
)

// PermanentProductCode is the all-zero client code that marks a component as permanent.
const PermanentProductCode = "{00000000-0000-0000-0000-000000000000}"

// ErrNoMoreItems signals the normal end of an enumeration.
var ErrNoMoreItems = errors.New("no more items")

// Feature is one entry of a product's feature enumeration.
type Feature struct {
	Name   string `yaml:"name" json:"name"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// FeatureUsage is the optional usage record of a feature.
type FeatureUsage struct {
	UseCount uint32    `yaml:"use_count" json:"use_count"`
	LastUsed time.Time `yaml:"last_used,omitempty" json:"last_used,omitempty"`
}

// Qualifier is a named sub-configuration of a qualified component.
type Qualifier struct {
	Name            string `yaml:"name" json:"name"`
	ApplicationData string `yaml:"application_data,omitempty" json:"application_data,omitempty"`
}

// Patch is a patch package applied to a product.
type Patch struct {
	Code       string `yaml:"code" json:"code"`
	Transforms string `yaml:"transforms,omitempty" json:"transforms,omitempty"`
}

// UserInfo is the registration recorded for a product.
type UserInfo struct {
	User         string `yaml:"user,omitempty" json:"user,omitempty"`
	Organization string `yaml:"organization,omitempty" json:"organization,omitempty"`
	Serial       string `yaml:"serial,omitempty" json:"serial,omitempty"`
}

// Source is the full registry capability set consumed by the inventory.
type Source interface {
	EnumProducts(index int) (string, error)
	EnumComponents(index int) (string, error)
	EnumClients(component string, index int) (string, error)
	EnumFeatures(product string, index int) (Feature, error)
	EnumQualifiers(component string, index int) (Qualifier, error)
	EnumPatches(product string, index int) (Patch, error)

	ProductState(product string) installstate.InstallState
	FeatureState(product, feature string) installstate.InstallState
	FeatureUsage(product, feature string) (FeatureUsage, bool)
	ComponentPath(product, component string) (installstate.InstallState, string)
	ProductProperty(product, property string) (string, bool)
	UserInfo(product string) (UserInfo, bool)
}

// IsPermanent reports whether a client code is the permanent placeholder.
func IsPermanent(code string) bool {
	return strings.EqualFold(code, PermanentProductCode)
}
