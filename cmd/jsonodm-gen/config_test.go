package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigValidFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "jsonodm.yaml")

	configContent := `
generation:
  output_suffix: "_registry"
  registry: "models.Types"

packages:
  "./internal":
    skip: false
  "./test":
    skip: true
    skip_files: ["legacy.go"]
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	config, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, "_registry", config.Generation.OutputSuffix)
	assert.Equal(t, "models.Types", config.Generation.Registry)
	assert.Empty(t, config.Generation.ImportPath)

	assert.Len(t, config.Packages, 2)
	assert.False(t, config.Packages["./internal"].Skip)
	assert.True(t, config.Packages["./test"].Skip)
	assert.Equal(t, []string{"legacy.go"}, config.Packages["./test"].SkipFiles)

	require.NoError(t, config.Validate())
	assert.Equal(t, "1", config.Version)
	assert.Equal(t, DefaultConfig().Generation.ImportPath, config.Generation.ImportPath)
}

func TestLoadConfigNonExistentFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "jsonodm.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("generation: [unclosed"), 0644))

	_, err := LoadConfig(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "jsonodm.yaml")

	require.NoError(t, SaveConfig(DefaultConfig(), configFile))
	loaded, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Generation, loaded.Generation)
	assert.Equal(t, "1", loaded.Version)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr string
	}{
		{"default", func(*Config) {}, ""},
		{"empty registry takes default", func(c *Config) { c.Generation.Registry = "" }, ""},
		{"unqualified registry", func(c *Config) { c.Generation.Registry = "Types" }, ""},
		{"empty suffix", func(c *Config) { c.Generation.OutputSuffix = "" }, "output_suffix"},
		{"suffix starting with digit", func(c *Config) { c.Generation.OutputSuffix = "1gen" }, "output_suffix"},
		{"test suffix", func(c *Config) { c.Generation.OutputSuffix = "_test" }, "output_suffix"},
		{"registry expression", func(c *Config) { c.Generation.Registry = "a.b.c" }, "registry"},
		{"registry call", func(c *Config) { c.Generation.Registry = "New()" }, "registry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectErr)
		})
	}
}

func TestToCodegenConfig(t *testing.T) {
	gc := DefaultConfig().Generation.ToCodegenConfig("2.0.0")
	assert.Equal(t, "_odm", gc.OutputSuffix)
	assert.Equal(t, "jsonodm.DefaultRegistry", gc.Registry)
	assert.Equal(t, "2.0.0", gc.GeneratorVersion)
}
