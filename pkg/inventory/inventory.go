// pkg/inventory/inventory.go - runs the product pass, the component evaluation and the
// diagnostic collectors, and assembles everything into a Report.

package inventory

import (
	"errors"
	"strings"
	"time"

	"github.com/windowsadmins/msiinv/pkg/classify"
	"github.com/windowsadmins/msiinv/pkg/eventlog"
	"github.com/windowsadmins/msiinv/pkg/filter"
	"github.com/windowsadmins/msiinv/pkg/hostinfo"
	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/keypath"
	"github.com/windowsadmins/msiinv/pkg/logfiles"
	"github.com/windowsadmins/msiinv/pkg/logging"
	"github.com/windowsadmins/msiinv/pkg/scanner"
	"github.com/windowsadmins/msiinv/pkg/source"
	"github.com/windowsadmins/msiinv/pkg/version"
)

// Options control a run.
type Options struct {
	Level          OutputLevel
	Filter         *filter.ProductFilter
	Platform       hostinfo.Platform
	LogSearchPaths []string
	EventLogLimit  int
}

// Property is one install property reported for a product.
type Property struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
	Value string `yaml:"value" json:"value"`
}

// ProductReport is everything gathered for one product.
type ProductReport struct {
	Code             string                     `yaml:"code" json:"code"`
	Name             string                     `yaml:"name,omitempty" json:"name,omitempty"`
	State            installstate.InstallState  `yaml:"state" json:"state"`
	StateDescription string                     `yaml:"state_description" json:"state_description"`
	Assignment       string                     `yaml:"assignment,omitempty" json:"assignment,omitempty"`
	Version          string                     `yaml:"version,omitempty" json:"version,omitempty"`
	Properties       []Property                 `yaml:"properties,omitempty" json:"properties,omitempty"`
	Installed        bool                       `yaml:"installed" json:"installed"`
	LocalPackage     string                     `yaml:"local_package,omitempty" json:"local_package,omitempty"`
	InstallDate      string                     `yaml:"install_date,omitempty" json:"install_date,omitempty"`
	User             *source.UserInfo           `yaml:"user,omitempty" json:"user,omitempty"`
	Features         *scanner.ProductFeatures   `yaml:"features,omitempty" json:"features,omitempty"`
	Components       *scanner.ProductComponents `yaml:"components,omitempty" json:"components,omitempty"`
	Patches          []source.Patch             `yaml:"patches,omitempty" json:"patches,omitempty"`
}

// Report is the result of a run. Fields belonging to a part of the run the output level
// did not ask for are left empty.
type Report struct {
	Generated time.Time         `yaml:"generated" json:"generated"`
	Platform  hostinfo.Platform `yaml:"platform" json:"platform"`
	Level     OutputLevel       `yaml:"level" json:"level"`
	Filter    []string          `yaml:"filter,omitempty" json:"filter,omitempty"`

	Products []ProductReport `yaml:"products,omitempty" json:"products,omitempty"`
	// ProductCount counts every registered product, including those the filter hides.
	ProductCount int `yaml:"product_count" json:"product_count"`
	// SystemComponents is the component count seen by the product pass.
	SystemComponents int `yaml:"system_components" json:"system_components"`
	// ClaimedComponents sums the per-product component totals.
	ClaimedComponents int `yaml:"claimed_components" json:"claimed_components"`
	// QualifiedComponents sums the per-product qualified counters.
	QualifiedComponents int `yaml:"qualified_components" json:"qualified_components"`

	Evaluation *classify.Result `yaml:"evaluation,omitempty" json:"evaluation,omitempty"`

	// KeyPaths holds metadata for every listed component path.
	KeyPaths map[string]keypath.Info `yaml:"key_paths,omitempty" json:"key_paths,omitempty"`

	LogDirectories []logfiles.Directory `yaml:"log_directories,omitempty" json:"log_directories,omitempty"`
	Events         []eventlog.Event     `yaml:"events,omitempty" json:"events,omitempty"`
	EventsError    string               `yaml:"events_error,omitempty" json:"events_error,omitempty"`

	Elapsed time.Duration `yaml:"elapsed" json:"elapsed"`
}

// Runner produces reports from a Source.
type Runner struct {
	src  source.Source
	opts Options
	now  func() time.Time
}

// NewRunner creates a Runner. A zero Level means Normal.
func NewRunner(src source.Source, opts Options) *Runner {
	opts.Level = opts.Level.WithDefault()
	return &Runner{src: src, opts: opts, now: time.Now}
}

// Run is a shorthand for NewRunner(src, opts).Run().
func Run(src source.Source, opts Options) (*Report, error) {
	return NewRunner(src, opts).Run()
}

// Run performs one inventory. When the data source fails fatally the report gathered
// so far is returned together with the error.
func (r *Runner) Run() (*Report, error) {
	start := r.now()
	level := r.opts.Level
	rep := &Report{
		Generated: start,
		Platform:  r.opts.Platform,
		Level:     level,
		Filter:    r.opts.Filter.Patterns(),
	}
	defer func() { rep.Elapsed = r.now().Sub(start) }()

	logging.Info("Starting inventory", "level", level.String(), "filter", strings.Join(rep.Filter, ","))

	if level.Has(Products) {
		if err := r.productPass(rep); err != nil {
			logging.Error("Product pass aborted", "error", err)
			return rep, err
		}
	}

	if level.Any(ComponentEvaluation) {
		engine := classify.New(r.src, classify.WithFilter(r.opts.Filter), classify.WithPaths(r.src))
		res, err := engine.Run()
		rep.Evaluation = res
		if err != nil {
			logging.Error("Component evaluation aborted", "error", err)
			return rep, err
		}
		for _, rec := range res.Records {
			if rec.Path != "" && rec.Listed(level.Has(OrphanedComponents), level.Has(SharedComponents)) {
				r.inspectKeyPath(rep, rec.Path)
			}
		}
	}

	if level.Has(LoggingInfo) {
		r.collectLogs(rep)
	}
	return rep, nil
}

func (r *Runner) productPass(rep *Report) error {
	level := r.opts.Level
	features := scanner.NewFeatureScanner(r.src, level.Has(FeatureList))
	components := scanner.NewComponentScanner(r.src, level.Has(ComponentList))

	n, err := source.Enumerate("products", r.src.EnumProducts, func(code string) error {
		name, _ := r.src.ProductProperty(code, source.PropertyProductName)
		if !r.opts.Filter.MatchesProduct(code, name) {
			return nil
		}

		pr := r.describeProduct(code, name)

		if level.Has(FeatureStates) {
			pf, err := features.Scan(code)
			pr.Features = pf
			if err != nil {
				rep.Products = append(rep.Products, pr)
				return err
			}
		}

		if level.Has(ComponentCount) {
			pc, err := components.Scan(code)
			pr.Components = pc
			rep.SystemComponents = pc.SystemComponents
			rep.ClaimedComponents += pc.Total
			rep.QualifiedComponents += pc.Qualified
			if err != nil {
				rep.Products = append(rep.Products, pr)
				return err
			}
			if level.Has(ComponentList) {
				for _, e := range pc.Entries {
					if e.Path != "" {
						r.inspectKeyPath(rep, e.Path)
					}
				}
			}
		}

		patches, err := source.Collect("patches of "+code, func(i int) (source.Patch, error) {
			return r.src.EnumPatches(code, i)
		})
		pr.Patches = patches
		rep.Products = append(rep.Products, pr)
		return err
	})
	rep.ProductCount = n

	logging.Info("Product pass complete",
		"products", rep.ProductCount,
		"listed", len(rep.Products),
		"components", rep.SystemComponents,
		"claimed", rep.ClaimedComponents,
	)
	return err
}

// describeProduct gathers the state and registration properties of a product.
func (r *Runner) describeProduct(code, name string) ProductReport {
	state := r.src.ProductState(code)
	pr := ProductReport{
		Code:             code,
		Name:             name,
		State:            state,
		StateDescription: state.ProductDescription(),
		Installed:        state == installstate.Default,
	}
	if !state.IsKnown() && state != installstate.BadConfig && state != installstate.InvalidArg {
		logging.Warn("Unexpected product state", "product", code, "state", int(state))
	}

	if v, ok := r.src.ProductProperty(code, source.PropertyAssignmentType); ok && v != "" {
		pr.Assignment = assignmentName(v)
	}

	for _, p := range source.ReportedProperties {
		if !pr.Installed && !p.Advertised {
			continue
		}
		v, ok := r.src.ProductProperty(code, p.Key)
		if !ok || v == "" {
			continue
		}
		pr.Properties = append(pr.Properties, Property{Key: p.Key, Title: p.Title, Value: v})
		if p.Key == source.PropertyVersionString {
			pr.Version = version.Canonical(v)
		}
	}

	if pr.Installed {
		pr.LocalPackage, _ = r.src.ProductProperty(code, source.PropertyLocalPackage)
		if v, ok := r.src.ProductProperty(code, source.PropertyInstallDate); ok {
			pr.InstallDate = FormatInstallDate(v)
		}
	}

	if r.opts.Level.Has(UserInfo) {
		if u, ok := r.src.UserInfo(code); ok {
			pr.User = &u
		}
	}
	return pr
}

func (r *Runner) inspectKeyPath(rep *Report, path string) {
	if _, done := rep.KeyPaths[path]; done {
		return
	}
	if rep.KeyPaths == nil {
		rep.KeyPaths = make(map[string]keypath.Info)
	}
	rep.KeyPaths[path] = keypath.Inspect(path, r.opts.Platform)
}

func (r *Runner) collectLogs(rep *Report) {
	rep.LogDirectories = logfiles.Locate(r.opts.Platform, r.opts.LogSearchPaths)

	events, err := eventlog.Read(r.opts.EventLogLimit)
	if err != nil {
		if !errors.Is(err, eventlog.ErrUnsupported) {
			logging.Warn("Failed to read installer events", "error", err)
		}
		rep.EventsError = err.Error()
		return
	}
	rep.Events = events
}

func assignmentName(v string) string {
	switch v[0] {
	case '0':
		return "per user"
	case '1':
		return "per machine"
	default:
		return "unknown - internal error"
	}
}

// FormatInstallDate turns the registry's YYYYMMDD install date into YYYY-MM-DD.
// Values that do not parse are returned unchanged.
func FormatInstallDate(v string) string {
	t, err := time.Parse("20060102", strings.TrimSpace(v))
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}
