// pkg/config/config.go - configuration settings for msiinv.

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML configuration.
const ConfigPath = `C:\ProgramData\msiinv\Inventory.yaml`

// PolicyRegistryPath holds policy-delivered settings used when no YAML file exists.
const PolicyRegistryPath = `SOFTWARE\Policies\msiinv`

// Configuration holds the configurable options for msiinv in YAML format
type Configuration struct {
	LogDir   string `yaml:"LogDir"`
	LogLevel string `yaml:"LogLevel"`
	// LogRetentionDays prunes run log directories older than this; 0 keeps everything.
	LogRetentionDays int      `yaml:"LogRetentionDays"`
	LogKeepAllHours  int      `yaml:"LogKeepAllHours"`
	Debug            bool     `yaml:"Debug"`
	OutputLevel      string   `yaml:"OutputLevel"`  // "normal", "reduced" or "verbose"
	OutputFormat     string   `yaml:"OutputFormat"` // "text", "yaml" or "json"
	ProductFilter    []string `yaml:"ProductFilter"`
	SnapshotPath     string   `yaml:"SnapshotPath"`
	LogSearchPaths   []string `yaml:"LogSearchPaths"` // extra directories searched for msi*.log
	EventLogLimit    int      `yaml:"EventLogLimit"`  // newest MsiInstaller events to report, 0 = all

	// Where the configuration came from; not part of the file.
	Origin string `yaml:"-"`
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		LogDir:           defaultLogDir(),
		LogLevel:         "INFO",
		LogRetentionDays: 30,
		LogKeepAllHours:  24,
		OutputLevel:      "normal",
		OutputFormat:     "text",
		EventLogLimit:    100,
		Origin:           "defaults",
	}
}

func defaultLogDir() string {
	if pd := os.Getenv("ProgramData"); pd != "" {
		return filepath.Join(pd, "msiinv", "logs")
	}
	return filepath.Join(os.TempDir(), "msiinv", "logs")
}

// LoadConfig loads the configuration from path. When the file does not exist it falls
// back to policy settings in the registry, and then to defaults.
func LoadConfig(path string) (*Configuration, error) {
	if path == "" {
		path = ConfigPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := GetDefaultConfig()
		if policyErr := loadPolicy(cfg); policyErr == nil {
			cfg.Origin = "policy"
		} else {
			log.Printf("No configuration at %s and no policy settings (%v); using defaults", path, policyErr)
		}
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}

	return parseConfig(data, path)
}

func parseConfig(data []byte, origin string) (*Configuration, error) {
	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", origin, err)
	}
	cfg.Origin = origin
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir()
	}
	return cfg, cfg.Validate()
}

// SaveConfig writes the configuration as YAML.
func SaveConfig(cfg *Configuration, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks enumerated settings.
func (c *Configuration) Validate() error {
	switch strings.ToLower(c.OutputLevel) {
	case "", "normal", "reduced", "verbose":
	default:
		return fmt.Errorf("invalid OutputLevel %q (want normal, reduced or verbose)", c.OutputLevel)
	}
	switch strings.ToLower(c.OutputFormat) {
	case "", "text", "yaml", "json":
	default:
		return fmt.Errorf("invalid OutputFormat %q (want text, yaml or json)", c.OutputFormat)
	}
	if c.EventLogLimit < 0 {
		return fmt.Errorf("EventLogLimit must not be negative")
	}
	if c.LogRetentionDays < 0 || c.LogKeepAllHours < 0 {
		return fmt.Errorf("log retention settings must not be negative")
	}
	return nil
}
