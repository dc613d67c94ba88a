package jsonodm

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadConfigFromEnvironment loads configuration from environment variables.
//
// Every variable is optional; unset ones take the defaults applied by
// Config.Validate:
//   - JSONODM_FORMAT: default wire format (default: json)
//   - JSONODM_MAX_DEPTH: nesting bound, 0 for none (default: 0)
//   - JSONODM_EXCLUDED_NORMALIZERS: comma separated chain IDs
//     (default: serializer.normalizer.object)
//   - JSONODM_STRICT_TYPES: fail on unknown type names (default: false)
//   - JSONODM_LOG_LEVEL: debug, info, warn, error (default: info)
//   - JSONODM_LOG_FORMAT: json, text (default: json)
//
// Example usage:
//
//	cfg, err := jsonodm.LoadConfigFromEnvironment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := jsonodm.New(cfg)
func LoadConfigFromEnvironment() (Config, error) {
	cfg := Config{
		Format:    os.Getenv(EnvFormat),
		LogLevel:  os.Getenv(EnvLogLevel),
		LogFormat: os.Getenv(EnvLogFormat),
	}

	if v := os.Getenv(EnvMaxDepth); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfiguration, EnvMaxDepth, v)
		}
		cfg.MaxDepth = depth
	}

	if v := os.Getenv(EnvStrictTypes); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s must be a boolean, got %q", ErrInvalidConfiguration, EnvStrictTypes, v)
		}
		cfg.StrictTypes = strict
	}

	if v := os.Getenv(EnvExcludedNormalizers); v != "" {
		for _, id := range strings.Split(v, ",") {
			cfg.ExcludedNormalizers = append(cfg.ExcludedNormalizers, strings.TrimSpace(id))
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromFile loads the variables of a .env file into the process
// environment, without overriding variables already set, then behaves like
// LoadConfigFromEnvironment.
func LoadConfigFromFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		return Config{}, fmt.Errorf("%w: load env file %s: %w", ErrInvalidConfiguration, path, err)
	}
	return LoadConfigFromEnvironment()
}
