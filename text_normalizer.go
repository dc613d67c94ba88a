package jsonodm

import (
	"context"
	"encoding"
	"fmt"
	"reflect"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

// TextNormalizer writes structs implementing encoding.TextMarshaler, such as
// netip.Addr or big.Float, as their text instead of as field maps. No
// denormalizer is needed: field assignment parses strings back through
// encoding.TextUnmarshaler.
type TextNormalizer struct{}

// NewTextNormalizer returns a TextNormalizer.
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{}
}

func (t *TextNormalizer) SupportsNormalization(value any, format string) bool {
	_, ok := textMarshaler(value)
	return ok
}

func (t *TextNormalizer) Normalize(ctx context.Context, value any, format string) (any, error) {
	m, ok := textMarshaler(value)
	if !ok {
		return nil, NewUnsupportedTypeError(fmt.Sprintf("%T", value), OpNormalize)
	}
	text, err := m.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("marshal %T as text: %w", value, err)
	}
	return string(text), nil
}

// textMarshaler returns the TextMarshaler of the struct held by value,
// looking at pointer receivers too.
func textMarshaler(value any) (encoding.TextMarshaler, bool) {
	if value == nil {
		return nil, false
	}
	rv, ok := fields.Indirect(reflect.ValueOf(value))
	if !ok || rv.Kind() != reflect.Struct {
		return nil, false
	}
	m, ok := fields.PointerTo(rv).Interface().(encoding.TextMarshaler)
	return m, ok
}
