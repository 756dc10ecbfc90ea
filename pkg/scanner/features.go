package scanner

import (
	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/source"
)

// FeatureSource is the part of the registry a feature scan reads.
type FeatureSource interface {
	EnumFeatures(product string, index int) (source.Feature, error)
	FeatureState(product, feature string) installstate.InstallState
	FeatureUsage(product, feature string) (source.FeatureUsage, bool)
}

// FeatureEntry is one feature of a product.
type FeatureEntry struct {
	Name   string                    `yaml:"name" json:"name"`
	Parent string                    `yaml:"parent,omitempty" json:"parent,omitempty"`
	State  installstate.InstallState `yaml:"state" json:"state"`
	Usage  *source.FeatureUsage      `yaml:"usage,omitempty" json:"usage,omitempty"`
}

// ProductFeatures is the feature summary of one product.
type ProductFeatures struct {
	Product string             `yaml:"product" json:"product"`
	Entries []FeatureEntry     `yaml:"entries,omitempty" json:"entries,omitempty"`
	Total   int                `yaml:"total" json:"total"`
	States  installstate.Tally `yaml:"states" json:"states"`
}

// FeatureScanner aggregates feature states per product.
type FeatureScanner struct {
	src FeatureSource
	// Usage queries use counts and last-used dates.
	Usage bool
}

// NewFeatureScanner creates a feature scanner.
func NewFeatureScanner(src FeatureSource, usage bool) *FeatureScanner {
	return &FeatureScanner{src: src, Usage: usage}
}

// Scan enumerates the features of product and tallies their states.
func (s *FeatureScanner) Scan(product string) (*ProductFeatures, error) {
	pf := &ProductFeatures{Product: product}

	n, err := source.Enumerate("features of "+product, func(i int) (source.Feature, error) {
		return s.src.EnumFeatures(product, i)
	}, func(f source.Feature) error {
		entry := FeatureEntry{
			Name:   f.Name,
			Parent: f.Parent,
			State:  s.src.FeatureState(product, f.Name),
		}
		if s.Usage {
			if u, ok := s.src.FeatureUsage(product, f.Name); ok {
				entry.Usage = &u
			}
		}
		pf.Entries = append(pf.Entries, entry)
		pf.States.Add(entry.State)
		return nil
	})
	pf.Total = n
	return pf, err
}
