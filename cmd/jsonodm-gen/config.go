package main

import (
	"fmt"
	"go/token"
	"os"
	"strings"

	"github.com/hengadev/errsx"
	"gopkg.in/yaml.v3"

	"github.com/kenfreee/doctrine-json-odm/internal/codegen"
)

// Config represents the configuration for the code generator
type Config struct {
	Version    string                   `yaml:"version"`
	Generation GenerationConfig         `yaml:"generation"`
	Packages   map[string]PackageConfig `yaml:"packages"`
}

// GenerationConfig holds general generation settings
type GenerationConfig struct {
	OutputSuffix string `yaml:"output_suffix"`
	// Registry is the expression generated code registers types into.
	Registry   string `yaml:"registry"`
	ImportPath string `yaml:"import_path"`
}

// PackageConfig holds per-package overrides
type PackageConfig struct {
	Skip      bool     `yaml:"skip"`
	SkipFiles []string `yaml:"skip_files"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with empty config, not defaults
	config := &Config{
		Packages: make(map[string]PackageConfig),
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Generation: GenerationConfig{
			OutputSuffix: "_odm",
			Registry:     "jsonodm.DefaultRegistry",
			ImportPath:   codegen.DefaultImportPath,
		},
		Packages: make(map[string]PackageConfig),
	}
}

// Validate checks if the configuration is valid. Empty settings take their
// default value.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Generation.Registry == "" {
		c.Generation.Registry = defaults.Generation.Registry
	}
	if c.Generation.ImportPath == "" {
		c.Generation.ImportPath = defaults.Generation.ImportPath
	}

	var errs errsx.Map
	if c.Generation.OutputSuffix == "" {
		errs.Set("output_suffix", fmt.Errorf("cannot be empty"))
	} else if !isValidOutputSuffix(c.Generation.OutputSuffix) {
		errs.Set("output_suffix", fmt.Errorf("must start with underscore or letter"))
	}
	if c.Generation.OutputSuffix == "_test" {
		errs.Set("output_suffix", fmt.Errorf("would turn generated files into test files"))
	}
	if !isValidRegistryExpr(c.Generation.Registry) {
		errs.Set("registry", fmt.Errorf("must be an identifier or a qualified identifier, got %q", c.Generation.Registry))
	}

	if !errs.IsEmpty() {
		return errs.AsError()
	}
	return nil
}

// isValidOutputSuffix checks if output suffix is valid
func isValidOutputSuffix(s string) bool {
	if s == "" {
		return false
	}
	first := rune(s[0])
	return (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || first == '_'
}

// isValidRegistryExpr accepts "Name" and "pkg.Name"
func isValidRegistryExpr(s string) bool {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return token.IsIdentifier(s)
	}
	return token.IsIdentifier(s[:i]) && token.IsIdentifier(s[i+1:])
}

// ToCodegenConfig converts the YAML config to the codegen GenerationConfig
func (gc GenerationConfig) ToCodegenConfig(version string) codegen.GenerationConfig {
	return codegen.GenerationConfig{
		OutputSuffix:     gc.OutputSuffix,
		Registry:         gc.Registry,
		ImportPath:       gc.ImportPath,
		GeneratorVersion: version,
	}
}
