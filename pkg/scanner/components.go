// pkg/scanner/components.go - per-product component scan.
//
// The registry cannot list the components of one product directly, so the scan walks
// every component on the system and keeps those whose client list names the product.

package scanner

import (
	"strings"

	"github.com/windowsadmins/msiinv/pkg/classify"
	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/source"
)

// ComponentSource is the part of the registry a component scan reads.
type ComponentSource interface {
	EnumComponents(index int) (string, error)
	EnumClients(component string, index int) (string, error)
	EnumQualifiers(component string, index int) (source.Qualifier, error)
	ComponentPath(product, component string) (installstate.InstallState, string)
}

// ComponentEntry is one component claimed by the scanned product.
type ComponentEntry struct {
	Component   string                    `yaml:"component" json:"component"`
	ClientCount int                       `yaml:"client_count" json:"client_count"`
	Permanent   bool                      `yaml:"permanent,omitempty" json:"permanent,omitempty"`
	Shared      bool                      `yaml:"shared,omitempty" json:"shared,omitempty"`
	State       installstate.InstallState `yaml:"state" json:"state"`
	Path        string                    `yaml:"path,omitempty" json:"path,omitempty"`
	Qualifiers  []source.Qualifier        `yaml:"qualifiers,omitempty" json:"qualifiers,omitempty"`
}

// Qualified reports whether the component exposed at least one qualifier.
func (e ComponentEntry) Qualified() bool {
	return len(e.Qualifiers) > 0
}

// ProductComponents is the component summary of one product.
type ProductComponents struct {
	Product   string             `yaml:"product" json:"product"`
	Entries   []ComponentEntry   `yaml:"entries,omitempty" json:"entries,omitempty"`
	Total     int                `yaml:"total" json:"total"`
	Shared    int                `yaml:"shared" json:"shared"`
	Permanent int                `yaml:"permanent" json:"permanent"`
	Qualified int                `yaml:"qualified" json:"qualified"`
	States    installstate.Tally `yaml:"states" json:"states"`
	// SystemComponents is how many components this pass saw on the whole system.
	SystemComponents int `yaml:"system_components" json:"system_components"`
}

// ComponentScanner runs per-product component scans.
type ComponentScanner struct {
	src ComponentSource
	// Detail enumerates qualifiers. The qualified counters only move when it is set,
	// because qualifiers are only looked up for components that are listed.
	Detail bool
}

// NewComponentScanner creates a scanner.
func NewComponentScanner(src ComponentSource, detail bool) *ComponentScanner {
	return &ComponentScanner{src: src, Detail: detail}
}

// Scan walks every component on the system and summarises those claimed by product.
// The shared and permanent flags are evaluated by this pass alone.
func (s *ComponentScanner) Scan(product string) (*ProductComponents, error) {
	pc := &ProductComponents{Product: product}

	n, err := source.Enumerate("components", s.src.EnumComponents, func(component string) error {
		entry, claimed, err := s.inspect(product, component)
		if err != nil || !claimed {
			return err
		}
		pc.add(entry)
		return nil
	})
	pc.SystemComponents = n
	return pc, err
}

func (pc *ProductComponents) add(e ComponentEntry) {
	pc.Entries = append(pc.Entries, e)
	pc.Total++
	pc.States.Add(e.State)
	if e.Permanent {
		pc.Permanent++
	}
	if e.Shared {
		pc.Shared++
	}
	if e.Qualified() {
		pc.Qualified++
	}
}

func (s *ComponentScanner) inspect(product, component string) (ComponentEntry, bool, error) {
	entry := ComponentEntry{Component: component}
	claimed := false

	count, err := source.Enumerate("clients of "+component, func(i int) (string, error) {
		return s.src.EnumClients(component, i)
	}, func(client string) error {
		switch {
		case strings.EqualFold(client, product):
			claimed = true
		case source.IsPermanent(client):
			entry.Permanent = true
		}
		return nil
	})
	if err != nil || !claimed {
		return entry, false, err
	}

	entry.ClientCount = count
	entry.Shared = classify.IsShared(count, entry.Permanent)

	entry.State, entry.Path = s.src.ComponentPath(product, component)
	if entry.State == installstate.Absent {
		entry.Path = ""
	}

	if s.Detail {
		entry.Qualifiers, err = source.Collect("qualifiers of "+component, func(i int) (source.Qualifier, error) {
			return s.src.EnumQualifiers(component, i)
		})
		if err != nil {
			return entry, false, err
		}
	}
	return entry, true, nil
}
