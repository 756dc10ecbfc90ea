// pkg/classify/classify.go - global component evaluation.
//
// Every component on the system is cross-referenced against its client list and the
// registered products to decide whether it is orphaned, permanent or shared.

package classify

import (
	"strings"

	"github.com/windowsadmins/msiinv/pkg/filter"
	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/logging"
	"github.com/windowsadmins/msiinv/pkg/source"
)

// Source is the part of the registry the engine reads.
type Source interface {
	EnumProducts(index int) (string, error)
	EnumComponents(index int) (string, error)
	EnumClients(component string, index int) (string, error)
	ProductProperty(product, property string) (string, bool)
}

// PathResolver optionally resolves component paths for listed records.
type PathResolver interface {
	ComponentPath(product, component string) (installstate.InstallState, string)
}

// Client is one entry of a component's client list.
type Client struct {
	Code      string `yaml:"code" json:"code"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	Permanent bool   `yaml:"permanent,omitempty" json:"permanent,omitempty"`
	Live      bool   `yaml:"live,omitempty" json:"live,omitempty"`
}

// Record is the classification of one component.
type Record struct {
	Component          string   `yaml:"component" json:"component"`
	Clients            []Client `yaml:"clients,omitempty" json:"clients,omitempty"`
	ClientCount        int      `yaml:"client_count" json:"client_count"`
	HasPermanentClient bool     `yaml:"permanent" json:"permanent"`
	HasLiveParent      bool     `yaml:"parented" json:"parented"`
	IsShared           bool     `yaml:"shared" json:"shared"`
	// MatchesFilter is true when no filter is active or a client matched it.
	MatchesFilter bool   `yaml:"matches_filter" json:"matches_filter"`
	Path          string `yaml:"path,omitempty" json:"path,omitempty"`
}

// IsOrphaned reports whether no client resolves to a registered product.
func (r Record) IsOrphaned() bool {
	return !r.HasLiveParent
}

// IsPermanentAndParented reports a permanent component that also has a live product.
func (r Record) IsPermanentAndParented() bool {
	return r.HasPermanentClient && r.HasLiveParent
}

// Listed reports whether the record gets its own report line. Orphaned takes
// precedence over shared; a record that is neither is never listed. The product filter
// suppresses the line but never the counts.
func (r Record) Listed(showOrphaned, showShared bool) bool {
	if !r.MatchesFilter {
		return false
	}
	if r.IsOrphaned() {
		return showOrphaned
	}
	if r.IsShared {
		return showShared
	}
	return false
}

// SharedThreshold is the client count a component must exceed to be shared. The
// component's own product takes one slot and the permanent placeholder one more.
func SharedThreshold(permanent bool) int {
	if permanent {
		return 3
	}
	return 2
}

// IsShared applies the shared-component rule.
func IsShared(clientCount int, permanent bool) bool {
	return clientCount > SharedThreshold(permanent)
}

// Totals are the aggregate counters of a global pass. They include every component,
// whether or not the product filter lets it be listed.
type Totals struct {
	Components           int `yaml:"components" json:"components"`
	Unaccounted          int `yaml:"unaccounted" json:"unaccounted"`
	Permanent            int `yaml:"permanent" json:"permanent"`
	PermanentAndParented int `yaml:"permanent_and_parented" json:"permanent_and_parented"`
	Shared               int `yaml:"shared" json:"shared"`
}

// Result is the outcome of one global pass, in enumeration order.
type Result struct {
	Records []Record `yaml:"records" json:"records"`
	Totals  Totals   `yaml:"totals" json:"totals"`
}

// Engine classifies every component of a Source.
type Engine struct {
	src    Source
	filter *filter.ProductFilter
	paths  PathResolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithFilter limits which records are listed.
func WithFilter(f *filter.ProductFilter) Option {
	return func(e *Engine) { e.filter = f }
}

// WithPaths resolves a component path for records that can be listed.
func WithPaths(r PathResolver) Option {
	return func(e *Engine) { e.paths = r }
}

// New creates an Engine.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{src: src}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// productIndex is built from a single product enumeration per run and only answers
// liveness; it never changes which records are produced.
type productIndex map[string]struct{}

func (e *Engine) buildProductIndex() (productIndex, error) {
	idx := make(productIndex)
	_, err := source.Enumerate("products", e.src.EnumProducts, func(code string) error {
		idx[strings.ToUpper(code)] = struct{}{}
		return nil
	})
	return idx, err
}

func (idx productIndex) live(code string) bool {
	_, ok := idx[strings.ToUpper(code)]
	return ok
}

// Run performs the global pass. On a fatal enumeration error the records classified
// so far are returned together with the error.
func (e *Engine) Run() (*Result, error) {
	res := &Result{}

	idx, err := e.buildProductIndex()
	if err != nil {
		return res, err
	}
	logging.Debug("Built product index", "products", len(idx))

	_, err = source.Enumerate("components", e.src.EnumComponents, func(component string) error {
		rec, err := e.classify(component, idx)
		if err != nil {
			return err
		}
		res.add(rec)
		return nil
	})

	logging.Info("Component evaluation complete",
		"components", res.Totals.Components,
		"unaccounted", res.Totals.Unaccounted,
		"permanent", res.Totals.Permanent,
		"permanent_parented", res.Totals.PermanentAndParented,
		"shared", res.Totals.Shared,
	)
	return res, err
}

func (r *Result) add(rec Record) {
	r.Records = append(r.Records, rec)
	r.Totals.Components++
	if rec.IsOrphaned() {
		r.Totals.Unaccounted++
	} else if rec.IsPermanentAndParented() {
		r.Totals.PermanentAndParented++
	}
	if rec.HasPermanentClient {
		r.Totals.Permanent++
	}
	if rec.IsShared {
		r.Totals.Shared++
	}
}

func (e *Engine) classify(component string, idx productIndex) (Record, error) {
	rec := Record{Component: component, MatchesFilter: !e.filter.HasFilter()}

	count, err := source.Enumerate("clients of "+component, func(i int) (string, error) {
		return e.src.EnumClients(component, i)
	}, func(code string) error {
		c := Client{Code: code, Permanent: source.IsPermanent(code)}
		if c.Permanent {
			rec.HasPermanentClient = true
		} else if idx.live(code) {
			c.Live = true
			rec.HasLiveParent = true
		}
		if !c.Permanent {
			if name, ok := e.src.ProductProperty(code, source.PropertyProductName); ok {
				c.Name = name
			}
		}
		if !rec.MatchesFilter && e.filter.MatchesProduct(code, c.Name) {
			rec.MatchesFilter = true
		}
		rec.Clients = append(rec.Clients, c)
		return nil
	})
	if err != nil {
		return rec, err
	}

	rec.ClientCount = count
	rec.IsShared = IsShared(count, rec.HasPermanentClient)

	if e.paths != nil && rec.MatchesFilter && (rec.IsOrphaned() || rec.IsShared) {
		rec.Path = e.resolvePath(rec)
	}
	return rec, nil
}

// resolvePath asks every client for the component path and keeps the last non-empty one.
func (e *Engine) resolvePath(rec Record) string {
	var path string
	for _, c := range rec.Clients {
		if _, p := e.paths.ComponentPath(c.Code, rec.Component); p != "" {
			path = p
		}
	}
	return path
}
