// cmd/msiinv/main.go - inventory of Windows Installer products, features and components.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/msiinv/pkg/config"
	"github.com/windowsadmins/msiinv/pkg/filter"
	"github.com/windowsadmins/msiinv/pkg/hostinfo"
	"github.com/windowsadmins/msiinv/pkg/inventory"
	"github.com/windowsadmins/msiinv/pkg/logging"
	"github.com/windowsadmins/msiinv/pkg/msi"
	"github.com/windowsadmins/msiinv/pkg/report"
	"github.com/windowsadmins/msiinv/pkg/source"
	"github.com/windowsadmins/msiinv/pkg/version"
)

var logger *logging.Logger

// outputFlags are the boolean flags that select an output level.
type outputFlags struct {
	products, features, components, counts bool
	orphaned, shared, evaluate             bool
	logs, elapsed                          bool
	reduced, normal, verbose               bool
}

func (o outputFlags) level() inventory.OutputLevel {
	var l inventory.OutputLevel
	set := func(on bool, flags inventory.OutputLevel) {
		if on {
			l |= flags
		}
	}
	set(o.products, inventory.Products)
	set(o.features, inventory.Products|inventory.FeatureStates)
	set(o.components, inventory.Products|inventory.ComponentCount)
	set(o.counts, inventory.Products|inventory.ComponentCount|inventory.FeatureStates)
	set(o.orphaned, inventory.OrphanedComponents)
	set(o.shared, inventory.SharedComponents)
	set(o.evaluate, inventory.ComponentEvaluation)
	set(o.logs, inventory.LoggingInfo)
	set(o.elapsed, inventory.TimeElapsed)
	set(o.reduced, inventory.Reduced)
	set(o.normal, inventory.Normal)
	set(o.verbose, inventory.Verbose)
	return l
}

func main() {
	enableANSIConsole()

	var out outputFlags
	pflag.BoolVarP(&out.products, "products", "p", false, "Product list.")
	pflag.BoolVarP(&out.features, "features", "f", false, "Feature state by product (includes -p).")
	pflag.BoolVarP(&out.components, "components", "q", false, "Component count by product (includes -p).")
	pflag.BoolVar(&out.counts, "counts", false, "Component count and feature states by product (-p -f -q).")
	pflag.BoolVarP(&out.orphaned, "orphaned", "x", false, "Orphaned components.")
	pflag.BoolVarP(&out.shared, "shared", "m", false, "Shared components.")
	pflag.BoolVarP(&out.evaluate, "evaluate", "c", false, "Evaluate components (-x -m).")
	pflag.BoolVarP(&out.logs, "logs", "l", false, "List installer log files and event log entries.")
	pflag.BoolVarP(&out.elapsed, "time", "t", false, "Elapsed time for the run.")
	pflag.BoolVarP(&out.reduced, "reduced", "s", false, "Reduced output (-p -f).")
	pflag.BoolVarP(&out.normal, "normal", "n", false, "Normal output (default).")
	pflag.BoolVarP(&out.verbose, "verbose", "v", false, "Verbose output (normal plus feature and component lists).")

	productFilter := filter.NewProductFilter()
	productFilter.RegisterFlags(pflag.CommandLine)

	snapshotPath := pflag.String("snapshot", "", "Read the installer registry from a snapshot file instead of this machine.")
	capturePath := pflag.String("capture", "", "Write a snapshot of the installer registry to this file and exit.")
	formatName := pflag.String("format", "", "Output format: text, yaml or json.")
	configPath := pflag.String("config", config.ConfigPath, "Path to the configuration file.")
	writeConfig := pflag.String("write-config", "", "Write the effective configuration to this file and exit.")
	debug := pflag.Bool("debug", false, "Write debug entries to the log.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")
	pflag.Parse()

	logger = logging.New(false)

	if *versionFlag {
		if *debug {
			version.PrintFull()
		} else {
			version.Print()
		}
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	if *debug {
		cfg.Debug = true
	}
	if *writeConfig != "" {
		if err := config.SaveConfig(cfg, *writeConfig); err != nil {
			logger.Fatal("Failed to write configuration: %v", err)
		}
		logger.Success("Configuration from %s written to %s", cfg.Origin, *writeConfig)
		os.Exit(0)
	}
	if err := logging.Init(cfg); err != nil {
		logger.Warning("Logging to file disabled: %v", err)
	}
	defer logging.CloseLogger()
	if cfg.Debug {
		logger.Debug("Configuration from %s, logging to %s", cfg.Origin, logging.GetCurrentLogDir())
	}

	level := out.level()
	if level&^inventory.Modifiers == inventory.None {
		configured, err := inventory.ParseLevel(cfg.OutputLevel)
		if err != nil {
			logger.Fatal("Invalid configuration: %v", err)
		}
		level |= configured
	}

	if productFilter.HasFilter() {
		productFilter.SetPatterns(productFilter.Patterns())
	} else {
		productFilter.SetPatterns(cfg.ProductFilter)
	}

	if *formatName == "" {
		*formatName = cfg.OutputFormat
	}
	format, err := report.ParseFormat(*formatName)
	if err != nil {
		logger.Fatal("%v", err)
	}

	if *snapshotPath == "" {
		*snapshotPath = cfg.SnapshotPath
	}

	platform := hostinfo.Detect()
	logging.Info(version.AppName()+" starting",
		"version", version.Version().Version,
		"config", cfg.Origin,
		"platform", platform.Description(),
	)

	mode := "live"
	switch {
	case *capturePath != "":
		mode = "capture"
	case *snapshotPath != "":
		mode = "snapshot"
	}
	if err := logging.StartSession(mode, map[string]interface{}{
		"level":    level.String(),
		"filter":   productFilter.Patterns(),
		"format":   string(format),
		"snapshot": *snapshotPath,
	}); err != nil {
		logging.Warn("Session record disabled", "error", err)
	}

	src, closeSource, err := openSource(*snapshotPath)
	if err != nil {
		logging.Error("Cannot open installer data", "error", err)
		endSession(nil, err)
		logger.Fatal("%v", err)
	}
	defer closeSource()

	if *capturePath != "" {
		code := capture(src, platform, *capturePath)
		closeSource()
		logging.CloseLogger()
		os.Exit(code)
	}

	rep, runErr := inventory.Run(src, inventory.Options{
		Level:          level,
		Filter:         productFilter,
		Platform:       platform,
		LogSearchPaths: cfg.LogSearchPaths,
		EventLogLimit:  cfg.EventLogLimit,
	})

	endSession(rep, runErr)

	if err := report.Write(os.Stdout, rep, format); err != nil {
		logger.Error("Failed to write report: %v", err)
		os.Exit(1)
	}

	if runErr != nil {
		logging.Error("Inventory aborted", "error", runErr, "summary", report.Summary(rep))
		logger.Error("Inventory aborted: %v", runErr)
		closeSource()
		logging.CloseLogger()
		os.Exit(1)
	}
	logging.Info("Inventory complete", "summary", report.Summary(rep), "elapsed", rep.Elapsed.String())
}

// endSession records the outcome of the run in the session file. rep may be nil.
func endSession(rep *inventory.Report, runErr error) {
	status := "completed"
	var summary logging.RunSummary
	if runErr != nil {
		status = "failed"
		summary.Error = runErr.Error()
	}
	if rep != nil {
		summary.Products = rep.ProductCount
		summary.Listed = len(rep.Products)
		summary.Components = rep.SystemComponents
		summary.Duration = rep.Elapsed
		if rep.Evaluation != nil {
			summary.Components = rep.Evaluation.Totals.Components
			summary.Orphaned = rep.Evaluation.Totals.Unaccounted
			summary.Shared = rep.Evaluation.Totals.Shared
		}
	}
	if err := logging.EndSession(status, summary); err != nil {
		logging.Debug("Session record not written", "error", err)
	}
}

// openSource returns the snapshot at path, or the live installer registry when path is empty.
func openSource(path string) (source.Source, func(), error) {
	if path != "" {
		snap, err := source.LoadSnapshot(path)
		if err != nil {
			return nil, nil, err
		}
		logging.Info("Using snapshot", "path", path, "host", snap.Host, "captured", snap.CapturedAt)
		logger.Info("Reading snapshot of %s captured %s", snap.Host, snap.CapturedAt.Format("2006-01-02 15:04"))
		return snap, func() {}, nil
	}

	installer, err := msi.Open()
	if errors.Is(err, msi.ErrUnsupported) {
		return nil, nil, fmt.Errorf("%w; use --snapshot to inventory a captured registry", err)
	}
	if err != nil {
		return nil, nil, err
	}
	return installer, func() { installer.Close() }, nil
}

func capture(src source.Source, platform hostinfo.Platform, path string) int {
	snap, err := source.Capture(src, platform.Hostname)
	if err != nil {
		logging.Error("Capture aborted", "error", err)
		logger.Error("Capture aborted: %v", err)
		endSession(nil, err)
		return 1
	}
	if err := snap.Save(path); err != nil {
		logger.Error("%v", err)
		endSession(nil, err)
		return 1
	}
	if err := logging.EndSession("completed", logging.RunSummary{
		Products:   len(snap.Products),
		Components: len(snap.Components),
	}); err != nil {
		logging.Debug("Session record not written", "error", err)
	}
	logging.Info("Snapshot written", "path", path, "products", len(snap.Products), "components", len(snap.Components))
	logger.Success("Snapshot of %d products and %d components written to %s", len(snap.Products), len(snap.Components), path)
	return 0
}
