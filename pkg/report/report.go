// pkg/report/report.go - renders an inventory report as text, YAML or JSON.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/msiinv/pkg/classify"
	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/inventory"
	"github.com/windowsadmins/msiinv/pkg/keypath"
	"github.com/windowsadmins/msiinv/pkg/scanner"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. An empty name means text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", name)
	}
}

// Write renders rep to w in the given format.
func Write(w io.Writer, rep *inventory.Report, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	default:
		return Text(w, rep)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// printer collects the first write error so the rendering code can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Text renders the human readable report. Only the sections the report's output level
// asks for are printed.
func Text(w io.Writer, rep *inventory.Report) error {
	p := &printer{w: w}
	level := rep.Level

	p.printf("%s  %s\n\n", rep.Platform.Hostname, rep.Generated.Local().Format("2006-01-02 15:04:05"))

	if level.Has(inventory.Products) {
		for i := range rep.Products {
			p.product(&rep.Products[i], rep)
		}
		p.printf("%d product%s installed.\n", rep.ProductCount, plural(rep.ProductCount))
		if level.Has(inventory.ComponentCount) {
			p.printf("%d total component%s.\n\n", rep.SystemComponents, plural(rep.SystemComponents))
		}
	}

	if level.Any(inventory.ComponentEvaluation) && rep.Evaluation != nil {
		p.evaluation(rep)
	}

	if level.Has(inventory.LoggingInfo) {
		p.logs(rep)
	}

	if level.Has(inventory.TimeElapsed) {
		p.printf("Time: %.2f seconds\n", rep.Elapsed.Seconds())
	}
	return p.err
}

func (p *printer) product(pr *inventory.ProductReport, rep *inventory.Report) {
	indent := ""
	if pr.Name != "" {
		indent = "\t"
	}
	p.printf("%s\n", pr.Name)
	p.printf("%sProduct code:\t%s\n", indent, pr.Code)
	p.printf("\tProduct state:\t(%d) %s\n", int(pr.State), pr.StateDescription)
	if pr.Assignment != "" {
		p.printf("\tAssignment:\t%s\n", pr.Assignment)
	}
	for _, prop := range pr.Properties {
		p.printf("\t%s:\t%s\n", prop.Title, prop.Value)
	}
	if pr.Installed {
		local := pr.LocalPackage
		if local == "" {
			local = "<missing>"
		}
		p.printf("\tLocal package:\t%s\n", local)
		p.printf("\tInstall date:\t%s\n", pr.InstallDate)
	}
	if u := pr.User; u != nil && (u.User != "" || u.Organization != "") {
		p.printf("\tRegistered to:\t%s", u.User)
		if u.Organization != "" {
			p.printf(", %s", u.Organization)
		}
		p.printf("\n")
		if u.Serial != "" {
			p.printf("\t\tSerial code: %s\n", u.Serial)
		}
	}

	if pr.Features != nil {
		p.features(pr.Features, rep.Level.Has(inventory.FeatureList))
	}
	if pr.Components != nil {
		p.components(pr.Components, rep)
	}

	for _, patch := range pr.Patches {
		p.printf("\tPatch GUID: %s\n", patch.Code)
		if patch.Transforms != "" {
			p.printf("\t\tTransforms: %s\n", patch.Transforms)
		}
	}
	p.printf("\t%d patch package%s.\n\n", len(pr.Patches), plural(len(pr.Patches)))
}

func (p *printer) features(pf *scanner.ProductFeatures, list bool) {
	if list {
		p.printf("\tFeatures for this product:\n")
		for _, f := range pf.Entries {
			p.printf("\t\t%-40s(%s)\n", f.Name, f.State.Short())
			if f.Usage != nil {
				p.printf("\t\t\tUses: %4d", f.Usage.UseCount)
				if !f.Usage.LastUsed.IsZero() {
					p.printf(",\tLast used: %s", f.Usage.LastUsed.Format("2006-01-02"))
				}
				p.printf("\n")
			}
		}
	}
	p.printf("\t%d feature%s.\n", pf.Total, plural(pf.Total))
	p.tally("feature", pf.States)
}

func (p *printer) tally(noun string, t installstate.Tally) {
	for _, s := range installstate.KnownStates() {
		n := t.Count(s)
		p.printf("\t\t%d %s%s %s.\n", n, noun, plural(n), s.Phrase())
	}
	p.printf("\t\t%d %s%s in some other state.\n", t.Other(), noun, plural(t.Other()))
}

func (p *printer) components(pc *scanner.ProductComponents, rep *inventory.Report) {
	list := rep.Level.Has(inventory.ComponentList)
	if list {
		p.printf("\tComponents for this product:\n")
		for _, e := range pc.Entries {
			p.printf("\t%s", e.Component)
			if e.Permanent {
				p.printf(" (permanent)")
			}
			if e.Shared {
				p.printf(" (shared)")
			}
			p.printf(" (%s)\n", e.State.Short())
			if e.Path != "" {
				p.printf("\t\tPath: %s\n", e.Path)
				p.keyPath(rep.KeyPaths, e.Path)
			}
			for _, q := range e.Qualifiers {
				p.printf("\t\tQualifier: %s", q.Name)
				if q.ApplicationData != "" {
					p.printf(", Application data: %s", q.ApplicationData)
				}
				p.printf("\n")
			}
		}
		p.tally("component", pc.States)
	}
	p.printf("\t%d component%s.\n", pc.Total, plural(pc.Total))
	p.printf("\t\t%d qualified.\n", pc.Qualified)
	p.printf("\t\t%d permanent.\n", pc.Permanent)
	p.printf("\t\t%d shared.\n", pc.Shared)
}

func (p *printer) evaluation(rep *inventory.Report) {
	level := rep.Level
	res := rep.Evaluation
	for _, rec := range res.Records {
		if !rec.Listed(level.Has(inventory.OrphanedComponents), level.Has(inventory.SharedComponents)) {
			continue
		}
		p.record(rec, rep.KeyPaths)
	}

	t := res.Totals
	p.printf("\n")
	p.printf("%d component%s without an installed product.\n", t.Unaccounted, plural(t.Unaccounted))
	p.printf("%d permanent component%s with a product currently installed.\n", t.PermanentAndParented, plural(t.PermanentAndParented))
	p.printf("%d permanent component%s.\n", t.Permanent, plural(t.Permanent))
	if level.Has(inventory.ComponentList) {
		p.printf("%d qualified component%s.\n", rep.QualifiedComponents, plural(rep.QualifiedComponents))
	}
	p.printf("%d shared component%s between currently installed applications.\n", t.Shared, plural(t.Shared))
}

func (p *printer) record(rec classify.Record, paths map[string]keypath.Info) {
	if rec.IsOrphaned() {
		p.printf("Component %s has no parent product", rec.Component)
	} else {
		p.printf("Component %s (shared)", rec.Component)
	}
	if rec.HasPermanentClient {
		p.printf(" (permanent)")
	}
	p.printf("\n")

	for _, c := range rec.Clients {
		p.printf("\tProduct code: %s\n", c.Code)
		switch {
		case c.Permanent:
			p.printf("\t\tPermanent product placeholder.\n")
		case c.Name != "":
			p.printf("\t\tName: %s\n", c.Name)
		}
	}
	if rec.Path != "" {
		p.printf("\tComponent path: %s\n", rec.Path)
		p.keyPath(paths, rec.Path)
	}
}

func (p *printer) keyPath(paths map[string]keypath.Info, path string) {
	info, ok := paths[path]
	if !ok {
		return
	}

	switch info.Kind {
	case keypath.KindRegistry:
		if info.Error != "" {
			p.printf("\t\tError checking for key: %s\n", info.Error)
			return
		}
		p.printf("\t\tKey exists")
		if info.Owner != "" {
			p.printf("  Owner: %s", info.Owner)
		}
		p.printf("\n")
		if !info.Modified.IsZero() {
			p.printf("\t\tLast write time: %s\n", stamp(info.Modified))
		}
		return
	case keypath.KindMissing:
		p.printf("\t\tFile or directory not found.\n")
		return
	case keypath.KindUnknown:
		return
	}

	if info.Version != "" {
		p.printf("\t\tVersion: %s", info.Version)
		if info.Language != "" {
			p.printf(",\tLanguage: %s", info.Language)
		}
		p.printf("\n")
	} else if info.Kind == keypath.KindDirectory {
		p.printf("\t\tDirectory exists.\n")
	} else if info.AccessDenied {
		p.printf("\t\tAccess denied reading the file.\n")
	} else if info.VersionErr != "" {
		p.printf("\t\tVersion information unavailable: %s\n", info.VersionErr)
	}
	if info.Owner != "" {
		p.printf("\t\tOwner: %s\n", info.Owner)
	}
	if len(info.Attributes) > 0 {
		p.printf("\t\tAttributes: %s\n", strings.Join(info.Attributes, " "))
	}
	p.printf("\t\t")
	if info.Kind == keypath.KindFile {
		p.printf("Size: %d  ", info.Size)
	}
	if !info.Created.IsZero() {
		p.printf("Created: %s", stamp(info.Created))
	}
	p.printf("\n\t\tChanged: %s\n", stamp(info.Modified))
}

func (p *printer) logs(rep *inventory.Report) {
	for _, dir := range rep.LogDirectories {
		switch dir.Kind {
		case "user":
			p.printf("\nUser log files in ")
		case "machine":
			p.printf("\nMachine logs in ")
		default:
			p.printf("\nLog files in ")
		}
		p.printf("%s:\n", dir.Path)
		for _, f := range dir.Files {
			p.printf("\t%-20s %s\n", f.Name, stamp(f.Modified))
		}
	}

	p.printf("\nEvent log entries:\n")
	if rep.EventsError != "" {
		p.printf("\t%s\n", rep.EventsError)
	}
	for _, e := range rep.Events {
		p.printf("%s Type: %-12s Event ID: 0x%08X Source: %s\n", stamp(e.Time), strings.ToUpper(e.Type), e.EventID, e.Source)
		if e.Message != "" {
			p.printf("\t%s\n", strings.TrimSpace(e.Message))
		}
	}
	p.printf("\n")
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// Summary is a short one-line description of a report, used in log records.
func Summary(rep *inventory.Report) string {
	parts := []string{fmt.Sprintf("%d product%s", rep.ProductCount, plural(rep.ProductCount))}
	if rep.Level.Has(inventory.ComponentCount) {
		parts = append(parts, fmt.Sprintf("%d component%s", rep.SystemComponents, plural(rep.SystemComponents)))
	}
	if rep.Evaluation != nil {
		t := rep.Evaluation.Totals
		parts = append(parts, fmt.Sprintf("%d orphaned", t.Unaccounted), fmt.Sprintf("%d shared", t.Shared))
	}
	return strings.Join(parts, ", ")
}
