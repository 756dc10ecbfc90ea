// pkg/source/snapshot.go - YAML snapshot of an installer registry.
//
// A snapshot is a complete, in-memory Source. It is written by Capture from any other
// Source (normally the live msi.dll binding) and read back with LoadSnapshot, so an
// inventory can be produced away from the machine it describes.

package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/windowsadmins/msiinv/pkg/installstate"
	"gopkg.in/yaml.v3"
)

// SnapshotFeature is a feature of a snapshot product.
type SnapshotFeature struct {
	Name   string                    `yaml:"name"`
	Parent string                    `yaml:"parent,omitempty"`
	State  installstate.InstallState `yaml:"state"`
	Usage  *FeatureUsage             `yaml:"usage,omitempty"`
}

// SnapshotProduct is a registered product.
type SnapshotProduct struct {
	Code       string                    `yaml:"code"`
	State      installstate.InstallState `yaml:"state"`
	Properties map[string]string         `yaml:"properties,omitempty"`
	User       *UserInfo                 `yaml:"user,omitempty"`
	Features   []SnapshotFeature         `yaml:"features,omitempty"`
	Patches    []Patch                   `yaml:"patches,omitempty"`
}

// SnapshotClient is one client entry of a component, with the path the client resolves to.
type SnapshotClient struct {
	Product string                    `yaml:"product"`
	State   installstate.InstallState `yaml:"state,omitempty"`
	Path    string                    `yaml:"path,omitempty"`
}

// SnapshotComponent is a component and its client list.
type SnapshotComponent struct {
	Code       string           `yaml:"code"`
	Clients    []SnapshotClient `yaml:"clients,omitempty"`
	Qualifiers []Qualifier      `yaml:"qualifiers,omitempty"`
}

// Snapshot is a Source backed by plain data.
type Snapshot struct {
	CapturedAt time.Time           `yaml:"captured_at,omitempty"`
	Host       string              `yaml:"host,omitempty"`
	Products   []SnapshotProduct   `yaml:"products"`
	Components []SnapshotComponent `yaml:"components"`

	// Properties of products that are not enumerated, keyed by product code in any case.
	// Orphaned components often point at such products.
	Unregistered map[string]map[string]string `yaml:"unregistered,omitempty"`
}

// LoadSnapshot reads a snapshot from a YAML file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// Save writes the snapshot as YAML.
func (s *Snapshot) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

func (s *Snapshot) product(code string) *SnapshotProduct {
	for i := range s.Products {
		if strings.EqualFold(s.Products[i].Code, code) {
			return &s.Products[i]
		}
	}
	return nil
}

func (s *Snapshot) component(code string) *SnapshotComponent {
	for i := range s.Components {
		if strings.EqualFold(s.Components[i].Code, code) {
			return &s.Components[i]
		}
	}
	return nil
}

func (s *Snapshot) feature(product, name string) *SnapshotFeature {
	p := s.product(product)
	if p == nil {
		return nil
	}
	for i := range p.Features {
		if p.Features[i].Name == name {
			return &p.Features[i]
		}
	}
	return nil
}

func (s *Snapshot) EnumProducts(index int) (string, error) {
	if index < 0 || index >= len(s.Products) {
		return "", ErrNoMoreItems
	}
	return s.Products[index].Code, nil
}

func (s *Snapshot) EnumComponents(index int) (string, error) {
	if index < 0 || index >= len(s.Components) {
		return "", ErrNoMoreItems
	}
	return s.Components[index].Code, nil
}

func (s *Snapshot) EnumClients(component string, index int) (string, error) {
	c := s.component(component)
	if c == nil {
		return "", fmt.Errorf("unknown component %s", component)
	}
	if index < 0 || index >= len(c.Clients) {
		return "", ErrNoMoreItems
	}
	return c.Clients[index].Product, nil
}

func (s *Snapshot) EnumFeatures(product string, index int) (Feature, error) {
	p := s.product(product)
	if p == nil {
		return Feature{}, fmt.Errorf("unknown product %s", product)
	}
	if index < 0 || index >= len(p.Features) {
		return Feature{}, ErrNoMoreItems
	}
	f := p.Features[index]
	return Feature{Name: f.Name, Parent: f.Parent}, nil
}

func (s *Snapshot) EnumQualifiers(component string, index int) (Qualifier, error) {
	c := s.component(component)
	if c == nil {
		return Qualifier{}, fmt.Errorf("unknown component %s", component)
	}
	if index < 0 || index >= len(c.Qualifiers) {
		return Qualifier{}, ErrNoMoreItems
	}
	return c.Qualifiers[index], nil
}

func (s *Snapshot) EnumPatches(product string, index int) (Patch, error) {
	p := s.product(product)
	if p == nil {
		return Patch{}, fmt.Errorf("unknown product %s", product)
	}
	if index < 0 || index >= len(p.Patches) {
		return Patch{}, ErrNoMoreItems
	}
	return p.Patches[index], nil
}

func (s *Snapshot) ProductState(product string) installstate.InstallState {
	if p := s.product(product); p != nil {
		return p.State
	}
	return installstate.Unknown
}

func (s *Snapshot) FeatureState(product, feature string) installstate.InstallState {
	if f := s.feature(product, feature); f != nil {
		return f.State
	}
	return installstate.Unknown
}

func (s *Snapshot) FeatureUsage(product, feature string) (FeatureUsage, bool) {
	if f := s.feature(product, feature); f != nil && f.Usage != nil {
		return *f.Usage, true
	}
	return FeatureUsage{}, false
}

// ComponentPath resolves the path recorded against the first client entry for product.
func (s *Snapshot) ComponentPath(product, component string) (installstate.InstallState, string) {
	c := s.component(component)
	if c == nil {
		return installstate.Unknown, ""
	}
	for _, client := range c.Clients {
		if strings.EqualFold(client.Product, product) {
			return client.State, client.Path
		}
	}
	return installstate.Unknown, ""
}

func (s *Snapshot) ProductProperty(product, property string) (string, bool) {
	if p := s.product(product); p != nil {
		v, ok := p.Properties[property]
		return v, ok
	}
	if props := s.unregistered(product); props != nil {
		v, ok := props[property]
		return v, ok
	}
	return "", false
}

// unregistered finds the properties of an unregistered product. Keys in hand-written
// snapshots may use any case.
func (s *Snapshot) unregistered(product string) map[string]string {
	if props, ok := s.Unregistered[strings.ToUpper(product)]; ok {
		return props
	}
	for code, props := range s.Unregistered {
		if strings.EqualFold(code, product) {
			return props
		}
	}
	return nil
}

func (s *Snapshot) UserInfo(product string) (UserInfo, bool) {
	if p := s.product(product); p != nil && p.User != nil {
		return *p.User, true
	}
	return UserInfo{}, false
}
