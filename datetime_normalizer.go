package jsonodm

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

var timeType = reflect.TypeFor[time.Time]()

// DateTimeNormalizer converts time.Time values to and from strings in
// Layout, RFC 3339 with nanoseconds unless configured otherwise.
type DateTimeNormalizer struct {
	Layout string
}

// NewDateTimeNormalizer returns a normalizer using time.RFC3339Nano.
func NewDateTimeNormalizer() *DateTimeNormalizer {
	return &DateTimeNormalizer{Layout: time.RFC3339Nano}
}

func (d *DateTimeNormalizer) layout() string {
	if d.Layout == "" {
		return time.RFC3339Nano
	}
	return d.Layout
}

func (d *DateTimeNormalizer) SupportsNormalization(value any, format string) bool {
	if value == nil {
		return false
	}
	rv, ok := fields.Indirect(reflect.ValueOf(value))
	return ok && rv.Type() == timeType
}

func (d *DateTimeNormalizer) Normalize(ctx context.Context, value any, format string) (any, error) {
	rv, ok := fields.Indirect(reflect.ValueOf(value))
	if !ok || rv.Type() != timeType {
		return nil, NewUnsupportedTypeError(fmt.Sprintf("%T", value), OpNormalize)
	}
	return rv.Interface().(time.Time).Format(d.layout()), nil
}

func (d *DateTimeNormalizer) SupportsDenormalization(data any, typeName, format string) bool {
	_, ok := data.(string)
	return ok && typeName == TypeNameOf(time.Time{})
}

func (d *DateTimeNormalizer) Denormalize(ctx context.Context, data any, typeName, format string) (any, error) {
	s, ok := data.(string)
	if !ok {
		return nil, NewNoDenormalizerError(data, typeName, format)
	}
	t, err := time.Parse(d.layout(), s)
	if err != nil {
		return nil, fmt.Errorf("%w: parse time %q: %w", ErrAssignment, s, err)
	}
	return t, nil
}
