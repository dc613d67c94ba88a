package jsonodm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

// PropertyNormalizer is the structural converter. It copies exported fields
// into an untagged map and builds registered types back from maps, without
// knowing about type tags.
//
// In the native chain it is the default object normalizer; the type-tagging
// chain drops it from dispatch and uses it only to instantiate and fill the
// types named by tags.
type PropertyNormalizer struct {
	registry   *Registry
	serializer Normalizer
}

// NewPropertyNormalizer creates a structural converter resolving names in r.
// A nil registry means DefaultRegistry.
func NewPropertyNormalizer(r *Registry) *PropertyNormalizer {
	if r == nil {
		r = DefaultRegistry
	}
	return &PropertyNormalizer{registry: r}
}

// SetSerializer injects the dispatcher used to normalize field values.
func (p *PropertyNormalizer) SetSerializer(s Normalizer) error {
	if s == nil {
		return NewInvalidSerializerError(s)
	}
	p.serializer = s
	return nil
}

// SupportsNormalization accepts structs, directly or behind pointers.
func (p *PropertyNormalizer) SupportsNormalization(value any, format string) bool {
	return fields.IsObject(value)
}

// Normalize returns the exported fields of value. Field values go through
// the dispatcher when one is set and are copied as they are otherwise.
func (p *PropertyNormalizer) Normalize(ctx context.Context, value any, format string) (any, error) {
	rv, ok := fields.Indirect(reflect.ValueOf(value))
	if !ok || rv.Kind() != reflect.Struct {
		return nil, NewUnsupportedTypeError(fmt.Sprintf("%T", value), OpNormalize)
	}
	info, err := p.registry.InfoFor(rv.Interface())
	if err != nil {
		return nil, err
	}
	obj := fields.PointerTo(rv).Interface()

	data := make(map[string]any, len(info.Fields))
	for _, f := range info.Fields {
		if !f.Readable {
			continue
		}
		v := f.Get(obj)
		if p.serializer != nil {
			if v, err = p.serializer.Normalize(ctx, v, format); err != nil {
				return nil, fmt.Errorf("field '%s' of %s: %w", f.Key, info.Name, err)
			}
		}
		data[f.Key] = v
	}
	return data, nil
}

// SupportsDenormalization accepts string keyed maps for registered types.
func (p *PropertyNormalizer) SupportsDenormalization(data any, typeName, format string) bool {
	_, ok := data.(map[string]any)
	return ok && p.registry.IsRegistered(typeName)
}

// Denormalize builds a zero instance of typeName through its factory and
// assigns every key naming one of its fields, whatever the field's
// visibility. Keys without a matching field are ignored.
func (p *PropertyNormalizer) Denormalize(ctx context.Context, data any, typeName, format string) (any, error) {
	info, ok := p.registry.Lookup(typeName)
	if !ok {
		return nil, NewUnknownTypeError(typeName, OpDenormalize)
	}
	m, ok := data.(map[string]any)
	if !ok {
		return nil, NewNoDenormalizerError(data, typeName, format)
	}

	obj := info.New()
	if obj == nil {
		return nil, NewUnreadableTypeError(typeName, OpDenormalize, fmt.Errorf("factory returned nil"))
	}
	for key, value := range m {
		f, ok := info.Field(key)
		if !ok {
			continue
		}
		if err := f.Set(obj, value); err != nil {
			return nil, NewAssignmentError(info.Name, key, err)
		}
	}
	return obj, nil
}
