package jsonodm

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/kenfreee/doctrine-json-odm/internal/codec"
	"github.com/kenfreee/doctrine-json-odm/internal/fields"
	"github.com/kenfreee/doctrine-json-odm/internal/monitoring"
)

// Serializer is the dispatcher. It tries its chain in order and hands each
// value to the first converter claiming support. Primitives and collections
// are handled in place so converters only ever see objects.
//
// A Serializer is immutable once built and safe for concurrent use.
type Serializer struct {
	entries       []ChainEntry
	normalizers   []Normalizer
	denormalizers []Denormalizer

	codecs        *codec.Set
	defaultFormat string
	hook          monitoring.ObservabilityHook
	logger        *monitoring.StructuredLogger
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer) error

// WithCodecs adds or replaces codecs used by Marshal and Unmarshal.
func WithCodecs(codecs ...Codec) SerializerOption {
	return func(s *Serializer) error {
		for _, c := range codecs {
			if c == nil {
				return fmt.Errorf("%w: codec cannot be nil", ErrInvalidConfiguration)
			}
		}
		s.codecs = s.codecs.With(codecs...)
		return nil
	}
}

// WithDefaultFormat sets the format used when an empty format is given.
func WithDefaultFormat(format string) SerializerOption {
	return func(s *Serializer) error {
		if _, err := s.codecs.Lookup(format); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		s.defaultFormat = format
		return nil
	}
}

// WithObservability sets the hook notified around Marshal and Unmarshal.
func WithObservability(hook ObservabilityHook) SerializerOption {
	return func(s *Serializer) error {
		if hook == nil {
			return fmt.Errorf("%w: observability hook cannot be nil", ErrInvalidConfiguration)
		}
		s.hook = hook
		return nil
	}
}

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *Logger) SerializerOption {
	return func(s *Serializer) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfiguration)
		}
		s.logger = logger
		return nil
	}
}

// NewSerializer builds a dispatcher over entries, in order. Every converter
// implementing SerializerAware receives the new Serializer; the first error
// it reports aborts construction.
func NewSerializer(entries []ChainEntry, opts ...SerializerOption) (*Serializer, error) {
	s := &Serializer{
		entries:       append([]ChainEntry(nil), entries...),
		codecs:        codec.Defaults(),
		defaultFormat: DefaultFormat,
		hook:          &monitoring.NoOpObservabilityHook{},
		logger:        monitoring.NewProductionLogger("serializer"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	for _, e := range s.entries {
		n, isNorm := e.Converter.(Normalizer)
		d, isDenorm := e.Converter.(Denormalizer)
		if !isNorm && !isDenorm {
			return nil, fmt.Errorf("%w: chain entry %q (%T) is neither a normalizer nor a denormalizer", ErrInvalidConfiguration, e.ID, e.Converter)
		}
		if isNorm {
			s.normalizers = append(s.normalizers, n)
		}
		if isDenorm {
			s.denormalizers = append(s.denormalizers, d)
		}
		if aware, ok := e.Converter.(SerializerAware); ok {
			if err := aware.SetSerializer(s); err != nil {
				return nil, fmt.Errorf("chain entry %q: %w", e.ID, err)
			}
		}
	}
	return s, nil
}

// Chain returns a copy of the chain entries in dispatch order.
func (s *Serializer) Chain() []ChainEntry {
	return append([]ChainEntry(nil), s.entries...)
}

// SupportsNormalization reports whether Normalize can handle value.
func (s *Serializer) SupportsNormalization(value any, format string) bool {
	if value == nil {
		return true
	}
	rv, ok := fields.Indirect(reflect.ValueOf(value))
	if !ok {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	if _, ok, _ := fields.Plain(rv); ok {
		return true
	}
	return s.normalizerFor(rv.Interface(), format) != nil
}

// Normalize returns the plain form of value. nil pointers and interfaces
// become nil, primitives are returned as they are, collections are mapped
// element by element and everything else goes to the first normalizer
// claiming support.
func (s *Serializer) Normalize(ctx context.Context, value any, format string) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv, ok := fields.Indirect(reflect.ValueOf(value))
	if !ok {
		return nil, nil
	}

	if rv.Kind() == reflect.Struct {
		n := s.normalizerFor(rv.Interface(), format)
		if n == nil {
			return nil, NewNoNormalizerError(value, format)
		}
		return n.Normalize(ctx, rv.Interface(), format)
	}

	if plain, ok, err := fields.Plain(rv); ok {
		return plain, err
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			v, err := s.Normalize(ctx, rv.Index(i).Interface(), format)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil

	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := fields.StringKey(iter.Key())
			if err != nil {
				return nil, err
			}
			v, err := s.Normalize(ctx, iter.Value().Interface(), format)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = v
		}
		return out, nil
	}

	if n := s.normalizerFor(rv.Interface(), format); n != nil {
		return n.Normalize(ctx, rv.Interface(), format)
	}
	return nil, NewNoNormalizerError(value, format)
}

func (s *Serializer) normalizerFor(value any, format string) Normalizer {
	for _, n := range s.normalizers {
		if n.SupportsNormalization(value, format) {
			return n
		}
	}
	return nil
}

// SupportsDenormalization reports whether a denormalizer of the chain claims
// data.
func (s *Serializer) SupportsDenormalization(data any, typeName, format string) bool {
	return s.denormalizerFor(data, typeName, format) != nil
}

// Denormalize hands data to the first denormalizer claiming support. Data no
// converter claims is returned as it is when it is a primitive.
func (s *Serializer) Denormalize(ctx context.Context, data any, typeName, format string) (any, error) {
	if d := s.denormalizerFor(data, typeName, format); d != nil {
		return d.Denormalize(ctx, data, typeName, format)
	}
	if data == nil {
		return nil, nil
	}
	if _, ok, _ := fields.Plain(reflect.ValueOf(data)); ok {
		return data, nil
	}
	return nil, NewNoDenormalizerError(data, typeName, format)
}

func (s *Serializer) denormalizerFor(data any, typeName, format string) Denormalizer {
	for _, d := range s.denormalizers {
		if d.SupportsDenormalization(data, typeName, format) {
			return d
		}
	}
	return nil
}

func (s *Serializer) format(format string) string {
	if format == "" {
		return s.defaultFormat
	}
	return format
}

// Marshal normalizes v and encodes the result in format.
func (s *Serializer) Marshal(ctx context.Context, v any, format string) (data []byte, err error) {
	format = s.format(format)
	metadata := map[string]any{"format": format, "value_type": fmt.Sprintf("%T", v)}
	done := s.track(ctx, "Marshal", metadata)
	defer func() { done(err) }()

	c, err := s.codecs.Lookup(format)
	if err != nil {
		return nil, err
	}
	plain, err := s.Normalize(ctx, v, format)
	if err != nil {
		return nil, err
	}
	return c.Marshal(plain)
}

// Unmarshal decodes data in format and denormalizes it. typeName is the
// fallback type for untagged data and may be empty.
func (s *Serializer) Unmarshal(ctx context.Context, data []byte, typeName, format string) (out any, err error) {
	format = s.format(format)
	metadata := map[string]any{"format": format, "type": typeName}
	done := s.track(ctx, "Unmarshal", metadata)
	defer func() { done(err) }()

	c, err := s.codecs.Lookup(format)
	if err != nil {
		return nil, err
	}
	plain, err := c.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return s.Denormalize(ctx, plain, typeName, format)
}

// UnmarshalInto decodes data and stores the result in dst, a non-nil
// pointer. The type of dst is the fallback for untagged data.
func (s *Serializer) UnmarshalInto(ctx context.Context, data []byte, dst any, format string) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: destination must be a non-nil pointer, got %T", ErrAssignment, dst)
	}
	var typeName string
	if fields.Deref(rv.Type()).Kind() == reflect.Struct {
		typeName = TypeNameOf(dst)
	}

	v, err := s.Unmarshal(ctx, data, typeName, format)
	if err != nil {
		return err
	}
	return Assign(dst, v)
}

// DenormalizeInto denormalizes plain data and stores the result in dst.
func (s *Serializer) DenormalizeInto(ctx context.Context, data any, dst any, format string) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: destination must be a non-nil pointer, got %T", ErrAssignment, dst)
	}
	var typeName string
	if fields.Deref(rv.Type()).Kind() == reflect.Struct {
		typeName = TypeNameOf(dst)
	}
	v, err := s.Denormalize(ctx, data, typeName, s.format(format))
	if err != nil {
		return err
	}
	return Assign(dst, v)
}

// track reports an operation to the hook and returns the completion func.
func (s *Serializer) track(ctx context.Context, operation string, metadata map[string]any) func(error) {
	start := time.Now()
	s.hook.OnProcessStart(ctx, operation, metadata)
	return func(err error) {
		if err != nil {
			s.hook.OnError(ctx, operation, err, metadata)
			s.logger.WithContext(ctx).Debug("serializer operation failed", "operation", operation, "error", err)
		}
		s.hook.OnProcessComplete(ctx, operation, time.Since(start), err, metadata)
	}
}
