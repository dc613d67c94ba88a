package monitoring

import (
	"context"
	"time"
)

// ObservabilityHook receives events from the serializer.
type ObservabilityHook interface {
	// Called before a top-level operation starts
	OnProcessStart(ctx context.Context, operation string, metadata map[string]any)

	// Called after a top-level operation completes (success or failure)
	OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any)

	// Called when errors occur
	OnError(ctx context.Context, operation string, err error, metadata map[string]any)

	// Called when tagged data names a type that cannot be resolved and the
	// plain mapping is returned instead
	OnDegrade(ctx context.Context, typeName string, metadata map[string]any)
}

// NoOpObservabilityHook is a no-op implementation of ObservabilityHook
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnDegrade(ctx context.Context, typeName string, metadata map[string]any) {
}

// LoggingObservabilityHook writes every event to a StructuredLogger
type LoggingObservabilityHook struct {
	logger *StructuredLogger
}

// NewLoggingObservabilityHook creates a logging hook. A nil logger falls back
// to a production JSON logger.
func NewLoggingObservabilityHook(logger *StructuredLogger) *LoggingObservabilityHook {
	if logger == nil {
		logger = NewProductionLogger("serializer")
	}
	return &LoggingObservabilityHook{logger: logger}
}

func (l *LoggingObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	l.logger.WithContext(ctx).WithFields(metadata).Debug("operation started", "operation", operation)
}

func (l *LoggingObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	l.logger.LogOperation(ctx, operation, duration, err, metadata)
}

func (l *LoggingObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	l.logger.WithContext(ctx).WithFields(metadata).Error("operation error", "operation", operation, "error", err)
}

func (l *LoggingObservabilityHook) OnDegrade(ctx context.Context, typeName string, metadata map[string]any) {
	l.logger.WithContext(ctx).WithFields(metadata).Warn("type not resolvable, returning plain data", "type", typeName)
}

// MetricsObservabilityHook counts events into a MetricsCollector
type MetricsObservabilityHook struct {
	collector MetricsCollector
}

// NewMetricsObservabilityHook creates a new metrics observability hook
func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	if collector == nil {
		collector = &NoOpMetricsCollector{}
	}
	return &MetricsObservabilityHook{collector: collector}
}

func (m *MetricsObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	m.collector.IncrementCounter("jsonodm.process.started", tagsFor(operation, metadata))
}

func (m *MetricsObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	tags := tagsFor(operation, metadata)
	if err != nil {
		tags["status"] = "error"
		m.collector.IncrementCounter("jsonodm.process.failed", tags)
	} else {
		tags["status"] = "success"
		m.collector.IncrementCounter("jsonodm.process.succeeded", tags)
	}
	m.collector.RecordTiming("jsonodm.process.duration", duration, tags)
}

func (m *MetricsObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	m.collector.IncrementCounter("jsonodm.errors", map[string]string{"operation": operation})
}

func (m *MetricsObservabilityHook) OnDegrade(ctx context.Context, typeName string, metadata map[string]any) {
	m.collector.IncrementCounter("jsonodm.degraded", map[string]string{"type": typeName})
}

func tagsFor(operation string, metadata map[string]any) map[string]string {
	tags := map[string]string{"operation": operation}
	if format, ok := metadata["format"].(string); ok {
		tags["format"] = format
	}
	return tags
}

// CompositeObservabilityHook fans events out to several hooks
type CompositeObservabilityHook struct {
	hooks []ObservabilityHook
}

// NewCompositeObservabilityHook creates a new composite hook
func NewCompositeObservabilityHook(hooks ...ObservabilityHook) *CompositeObservabilityHook {
	return &CompositeObservabilityHook{hooks: hooks}
}

func (c *CompositeObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessStart(ctx, operation, metadata)
	}
}

func (c *CompositeObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessComplete(ctx, operation, duration, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnError(ctx, operation, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnDegrade(ctx context.Context, typeName string, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnDegrade(ctx, typeName, metadata)
	}
}
