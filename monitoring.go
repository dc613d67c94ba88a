package jsonodm

import (
	"github.com/kenfreee/doctrine-json-odm/internal/codec"
	"github.com/kenfreee/doctrine-json-odm/internal/monitoring"
)

// Public aliases for the observability, logging and codec types so callers
// can configure a Serializer without importing internal packages.
type (
	ObservabilityHook          = monitoring.ObservabilityHook
	NoOpObservabilityHook      = monitoring.NoOpObservabilityHook
	LoggingObservabilityHook   = monitoring.LoggingObservabilityHook
	MetricsObservabilityHook   = monitoring.MetricsObservabilityHook
	CompositeObservabilityHook = monitoring.CompositeObservabilityHook
	MetricsCollector           = monitoring.MetricsCollector
	InMemoryMetricsCollector   = monitoring.InMemoryMetricsCollector
	Logger                     = monitoring.StructuredLogger
	LoggerConfig               = monitoring.LoggerConfig
	Codec                      = codec.Codec
)

var (
	NewLoggingObservabilityHook   = monitoring.NewLoggingObservabilityHook
	NewMetricsObservabilityHook   = monitoring.NewMetricsObservabilityHook
	NewCompositeObservabilityHook = monitoring.NewCompositeObservabilityHook
	NewInMemoryMetricsCollector   = monitoring.NewInMemoryMetricsCollector
	NewLogger                     = monitoring.NewStructuredLogger
	NewProductionLogger           = monitoring.NewProductionLogger
	NewDevelopmentLogger          = monitoring.NewDevelopmentLogger
)
