package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := GetDefaultConfig()
	require.Equal(t, "normal", cfg.OutputLevel)
	require.Equal(t, "text", cfg.OutputFormat)
	require.Equal(t, 100, cfg.EventLogLimit)
	require.NotEmpty(t, cfg.LogDir)
	require.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
LogLevel: DEBUG
OutputLevel: verbose
OutputFormat: yaml
ProductFilter:
  - "{90160000"
  - Visual
LogSearchPaths:
  - D:\Logs
EventLogLimit: 25
`)
	cfg, err := parseConfig(data, "inline")
	require.NoError(t, err)
	require.Equal(t, "inline", cfg.Origin)
	require.Equal(t, "DEBUG", cfg.LogLevel)
	require.Equal(t, "verbose", cfg.OutputLevel)
	require.Equal(t, "yaml", cfg.OutputFormat)
	require.Equal(t, []string{"{90160000", "Visual"}, cfg.ProductFilter)
	require.Equal(t, []string{`D:\Logs`}, cfg.LogSearchPaths)
	require.Equal(t, 25, cfg.EventLogLimit)
	require.NotEmpty(t, cfg.LogDir, "unset values keep their defaults")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Configuration)
	}{
		{"output level", func(c *Configuration) { c.OutputLevel = "loud" }},
		{"output format", func(c *Configuration) { c.OutputFormat = "xml" }},
		{"event limit", func(c *Configuration) { c.EventLogLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.modify(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Inventory.yaml")
	require.NoError(t, os.WriteFile(path, []byte("OutputLevel: [unterminated"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "Inventory.yaml")
	cfg := GetDefaultConfig()
	cfg.OutputFormat = "json"
	cfg.ProductFilter = []string{"Alpha"}
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Origin)
	require.Equal(t, "json", loaded.OutputFormat)
	require.Equal(t, []string{"Alpha"}, loaded.ProductFilter)
}

func TestLoadConfigMissingFileFallsBack(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Contains(t, []string{"defaults", "policy"}, cfg.Origin)
	require.NoError(t, cfg.Validate())
}

func TestLocationsBelongToMsiinv(t *testing.T) {
	require.Equal(t, `SOFTWARE\Policies\msiinv`, PolicyRegistryPath)
	require.Equal(t, `C:\ProgramData\msiinv\Inventory.yaml`, ConfigPath)

	t.Setenv("ProgramData", filepath.Join("D:", "ProgramData"))
	require.Equal(t, filepath.Join("D:", "ProgramData", "msiinv", "logs"), defaultLogDir())
}
