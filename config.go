package jsonodm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hengadev/errsx"

	"github.com/kenfreee/doctrine-json-odm/internal/monitoring"
)

// Config holds the settings used by New to assemble a type-preserving
// Serializer.
//
// This struct contains only data. It can be filled from any source (code,
// environment variables, a .env file) and is validated by Validate, which
// also applies defaults.
//
// Example usage:
//
//	cfg := jsonodm.Config{
//	    Format:   jsonodm.FormatJSON,
//	    MaxDepth: 64,
//	}
//
//	s, err := jsonodm.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Format is the codec used when Marshal or Unmarshal get an empty format.
	//
	// Optional field. Default: json
	Format string

	// MaxDepth bounds the nesting depth of objects and collections. Zero
	// leaves graphs unbounded, in which case a cyclic graph exhausts the
	// stack.
	//
	// Optional field. Default: 0
	MaxDepth int

	// ExcludedNormalizers lists native chain IDs dropped when the native and
	// type-tagging chains are merged.
	//
	// Optional field. Default: [serializer.normalizer.object]
	ExcludedNormalizers []string

	// StrictTypes turns unresolvable type names into ErrUnknownType instead
	// of returning the plain mapping.
	//
	// Optional field. Default: false
	StrictTypes bool

	// LogLevel is one of debug, info, warn, error.
	//
	// Optional field. Default: info
	LogLevel string

	// LogFormat is one of json, text.
	//
	// Optional field. Default: json
	LogFormat string

	// Registry resolves type names. Optional field. Default: DefaultRegistry
	Registry *Registry
}

// Validate checks the configuration and applies defaults to optional fields.
// All problems are reported together.
func (c *Config) Validate() error {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if len(c.ExcludedNormalizers) == 0 {
		c.ExcludedNormalizers = []string{DefaultObjectNormalizerID}
	}
	if c.Registry == nil {
		c.Registry = DefaultRegistry
	}

	var errs errsx.Map
	known := []string{FormatJSON, FormatCanonicalJSON, FormatYAML, FormatMsgpack}
	if !slices.Contains(known, c.Format) {
		errs.Set("format", fmt.Errorf("must be one of %s, got %q", strings.Join(known, ", "), c.Format))
	}
	if c.MaxDepth < 0 || c.MaxDepth > MaxDepthLimit {
		errs.Set("max depth", fmt.Errorf("must be between 0 and %d, got %d", MaxDepthLimit, c.MaxDepth))
	}
	for _, id := range c.ExcludedNormalizers {
		if strings.TrimSpace(id) == "" {
			errs.Set("excluded normalizers", fmt.Errorf("IDs cannot be empty"))
			break
		}
	}
	if _, err := monitoring.ParseLogLevel(c.LogLevel); err != nil {
		errs.Set("log level", err)
	}
	if _, err := monitoring.ParseLogFormat(c.LogFormat); err != nil {
		errs.Set("log format", err)
	}

	if !errs.IsEmpty() {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errs.AsError())
	}
	return nil
}

// logger builds the structured logger described by the config. The config
// must have been validated.
func (c *Config) logger(component string) *monitoring.StructuredLogger {
	level, _ := monitoring.ParseLogLevel(c.LogLevel)
	format, _ := monitoring.ParseLogFormat(c.LogFormat)
	return monitoring.NewStructuredLogger(monitoring.LoggerConfig{
		Level:     level,
		Format:    format,
		Component: component,
	})
}
