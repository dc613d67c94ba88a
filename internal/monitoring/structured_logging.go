package monitoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"strings"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps debug, info, warn and error (any case) to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatText
)

// ParseLogFormat maps json and text to a LogFormat. "console" is accepted as
// an alias of text.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "text", "console":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q", s)
	}
}

// StructuredLogger is a thin slog wrapper carrying a fixed set of fields
type StructuredLogger struct {
	logger    *slog.Logger
	level     LogLevel
	fields    map[string]any
	component string
}

// LoggerConfig configures the structured logger
type LoggerConfig struct {
	Level     LogLevel
	Format    LogFormat
	Output    io.Writer
	Component string
	Fields    map[string]any
}

// NewStructuredLogger creates a new structured logger with the given configuration
func NewStructuredLogger(config LoggerConfig) *StructuredLogger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	fields := make(map[string]any, len(config.Fields)+2)
	maps.Copy(fields, config.Fields)
	if config.Component != "" {
		fields["component"] = config.Component
	}
	fields["service"] = "jsonodm"

	opts := &slog.HandlerOptions{
		Level:     config.Level.slog(),
		AddSource: config.Level == LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output, opts)
	default:
		handler = slog.NewJSONHandler(config.Output, opts)
	}

	return &StructuredLogger{
		logger:    slog.New(handler),
		level:     config.Level,
		fields:    fields,
		component: config.Component,
	}
}

// WithFields returns a new logger with additional fields
func (l *StructuredLogger) WithFields(fields map[string]any) *StructuredLogger {
	if len(fields) == 0 {
		return l
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	maps.Copy(merged, l.fields)
	maps.Copy(merged, fields)

	return &StructuredLogger{
		logger:    l.logger,
		level:     l.level,
		fields:    merged,
		component: l.component,
	}
}

type contextKey string

// Context keys copied into log records by WithContext.
const (
	TraceIDKey   contextKey = "trace_id"
	RequestIDKey contextKey = "request_id"
)

// WithContext returns a new logger with trace and request ids found in ctx
func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	fields := make(map[string]any, 2)
	if traceID := ctx.Value(TraceIDKey); traceID != nil {
		fields[string(TraceIDKey)] = traceID
	}
	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		fields[string(RequestIDKey)] = requestID
	}
	return l.WithFields(fields)
}

// Debug logs a debug level message with slog style key/value pairs
func (l *StructuredLogger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info level message
func (l *StructuredLogger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning level message
func (l *StructuredLogger) Warn(msg string, args ...any) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error level message
func (l *StructuredLogger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

func (l *StructuredLogger) log(level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}
	attrs := make([]any, 0, 2*len(l.fields)+len(args))
	for k, v := range l.fields {
		attrs = append(attrs, k, v)
	}
	attrs = append(attrs, args...)
	l.logger.Log(context.Background(), level.slog(), msg, attrs...)
}

// LogOperation logs a finished serializer operation with standard fields
func (l *StructuredLogger) LogOperation(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	logger := l.WithContext(ctx).WithFields(metadata)
	args := []any{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		logger.Error("operation failed", append(args, "error", err.Error(), "error_type", fmt.Sprintf("%T", err))...)
		return
	}
	logger.Debug("operation completed", args...)
}

// NewProductionLogger creates a JSON logger at info level
func NewProductionLogger(component string) *StructuredLogger {
	return NewStructuredLogger(LoggerConfig{
		Level:     LevelInfo,
		Format:    FormatJSON,
		Component: component,
		Fields: map[string]any{
			"pid": os.Getpid(),
		},
	})
}

// NewDevelopmentLogger creates a text logger at debug level
func NewDevelopmentLogger(component string) *StructuredLogger {
	return NewStructuredLogger(LoggerConfig{
		Level:     LevelDebug,
		Format:    FormatText,
		Component: component,
	})
}
