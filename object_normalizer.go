package jsonodm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
	"github.com/kenfreee/doctrine-json-odm/internal/monitoring"
)

// ObjectNormalizer is the type-tagging converter. Objects normalize to maps
// carrying their concrete type name under TypeKey, at every nesting level;
// on the way back the tag selects the type to rebuild.
//
// Normalization reads exported fields only. Denormalization hands the
// rebuilt field map to the wrapped structural converter, which may set
// fields of any visibility. Non-exported state is therefore not part of a
// round trip.
type ObjectNormalizer struct {
	inner      Denormalizer
	innerAware SerializerAware

	serializer   Normalizer
	denormalizer Denormalizer

	registry *Registry
	maxDepth int
	strict   bool
	hook     monitoring.ObservabilityHook
}

// ObjectNormalizerOption configures an ObjectNormalizer.
type ObjectNormalizerOption func(*ObjectNormalizer) error

// WithRegistry sets the registry used to resolve type names.
// Default: DefaultRegistry.
func WithRegistry(r *Registry) ObjectNormalizerOption {
	return func(o *ObjectNormalizer) error {
		if r == nil {
			return fmt.Errorf("%w: registry cannot be nil", ErrInvalidConfiguration)
		}
		o.registry = r
		return nil
	}
}

// WithMaxDepth bounds the nesting depth of objects and collections. Zero
// means unbounded.
func WithMaxDepth(depth int) ObjectNormalizerOption {
	return func(o *ObjectNormalizer) error {
		if depth < 0 || depth > MaxDepthLimit {
			return fmt.Errorf("%w: max depth must be between 0 and %d, got %d", ErrInvalidConfiguration, MaxDepthLimit, depth)
		}
		o.maxDepth = depth
		return nil
	}
}

// WithStrictTypes makes unresolvable type names fail with ErrUnknownType
// instead of degrading to plain data.
func WithStrictTypes(strict bool) ObjectNormalizerOption {
	return func(o *ObjectNormalizer) error {
		o.strict = strict
		return nil
	}
}

// WithObjectObservability sets the hook notified when data degrades.
func WithObjectObservability(hook monitoring.ObservabilityHook) ObjectNormalizerOption {
	return func(o *ObjectNormalizer) error {
		if hook == nil {
			return fmt.Errorf("%w: observability hook cannot be nil", ErrInvalidConfiguration)
		}
		o.hook = hook
		return nil
	}
}

// NewObjectNormalizer wraps the structural converter inner, which must work
// in both directions.
func NewObjectNormalizer(inner Normalizer, opts ...ObjectNormalizerOption) (*ObjectNormalizer, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: got nil", ErrInvalidNormalizer)
	}
	denorm, ok := inner.(Denormalizer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidNormalizer, inner)
	}

	o := &ObjectNormalizer{
		inner:    denorm,
		registry: DefaultRegistry,
		hook:     &monitoring.NoOpObservabilityHook{},
	}
	o.innerAware, _ = inner.(SerializerAware)
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// SetSerializer injects the dispatcher used for recursion. It must support
// denormalization as well; the reference is passed on to the wrapped
// converter when it asks for one.
func (o *ObjectNormalizer) SetSerializer(s Normalizer) error {
	denorm, ok := s.(Denormalizer)
	if s == nil || !ok {
		return NewInvalidSerializerError(s)
	}
	o.serializer = s
	o.denormalizer = denorm

	if o.innerAware != nil {
		return o.innerAware.SetSerializer(s)
	}
	return nil
}

// SupportsNormalization accepts structs, directly or behind pointers and
// interfaces.
func (o *ObjectNormalizer) SupportsNormalization(value any, format string) bool {
	return fields.IsObject(value)
}

// Normalize returns the exported fields of value, each recursively
// normalized, plus the runtime type name under TypeKey.
func (o *ObjectNormalizer) Normalize(ctx context.Context, value any, format string) (any, error) {
	if o.serializer == nil {
		return nil, ErrSerializerNotSet
	}
	ctx, err := o.descend(ctx, OpNormalize)
	if err != nil {
		return nil, err
	}

	rv, ok := fields.Indirect(reflect.ValueOf(value))
	if !ok || rv.Kind() != reflect.Struct {
		return nil, NewUnsupportedTypeError(fmt.Sprintf("%T", value), OpNormalize)
	}
	info, err := o.registry.InfoFor(rv.Interface())
	if err != nil {
		return nil, err
	}
	obj := fields.PointerTo(rv).Interface()

	data := make(map[string]any, len(info.Fields)+1)
	for _, f := range info.Fields {
		if !f.Readable {
			continue
		}
		v, err := o.normalizedValue(ctx, f.Get(obj), format)
		if err != nil {
			return nil, fmt.Errorf("field '%s' of %s: %w", f.Key, info.Name, err)
		}
		data[f.Key] = v
	}
	return o.associateType(rv.Interface(), data), nil
}

// associateType stamps data with the type name of object.
func (o *ObjectNormalizer) associateType(object any, data map[string]any) map[string]any {
	data[TypeKey] = o.registry.TypeName(object)
	return data
}

// normalizedValue dispatches objects back through the serializer and tags
// the result, maps collections element by element and returns primitives.
func (o *ObjectNormalizer) normalizedValue(ctx context.Context, value any, format string) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv, ok := fields.Indirect(reflect.ValueOf(value))
	if !ok {
		return nil, nil
	}

	if plain, ok, err := fields.Plain(rv); ok {
		return plain, err
	}

	switch rv.Kind() {
	case reflect.Struct:
		n, err := o.serializer.Normalize(ctx, rv.Interface(), format)
		if err != nil {
			return nil, err
		}
		if m, ok := n.(map[string]any); ok {
			return o.associateType(rv.Interface(), m), nil
		}
		return n, nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		ctx, err := o.descend(ctx, OpNormalize)
		if err != nil {
			return nil, err
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			v, err := o.normalizedValue(ctx, rv.Index(i).Interface(), format)
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
		ctx, err := o.descend(ctx, OpNormalize)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := fields.StringKey(iter.Key())
			if err != nil {
				return nil, err
			}
			v, err := o.normalizedValue(ctx, iter.Value().Interface(), format)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = v
		}
		return out, nil
	}

	// Channels, funcs and the like have no plain form; the serializer decides.
	return o.serializer.Normalize(ctx, rv.Interface(), format)
}

// SupportsDenormalization always reports true: Denormalize degrades inputs
// it cannot resolve instead of refusing them.
func (o *ObjectNormalizer) SupportsDenormalization(data any, typeName, format string) bool {
	return true
}

// Denormalize rebuilds data. Live objects are returned as they are, tagged
// maps become instances of their tagged type (or stay plain maps when that
// type is unknown), collections are rebuilt element by element and
// primitives pass through.
func (o *ObjectNormalizer) Denormalize(ctx context.Context, data any, typeName, format string) (any, error) {
	if o.denormalizer == nil {
		return nil, ErrSerializerNotSet
	}
	if data == nil {
		return nil, nil
	}
	if fields.IsObject(data) {
		return data, nil
	}

	if m, ok := data.(map[string]any); ok {
		if tag, tagged := m[TypeKey]; tagged {
			return o.denormalizeTagged(ctx, m, tag, format)
		}
	}

	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		if fields.IsBytes(rv.Type()) {
			return data, nil
		}
		return o.denormalizeMembers(ctx, rv, typeName, format)
	}
	return data, nil
}

func (o *ObjectNormalizer) denormalizeTagged(ctx context.Context, m map[string]any, tag any, format string) (any, error) {
	concrete, _ := tag.(string)

	rest := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k != TypeKey {
			rest[k] = v
		}
	}

	plain, err := o.denormalizeMembers(ctx, reflect.ValueOf(rest), concrete, format)
	if err != nil {
		return nil, err
	}

	if concrete == "" || !o.registry.IsRegistered(concrete) {
		if o.strict {
			return nil, NewUnknownTypeError(fmt.Sprint(tag), OpDenormalize)
		}
		o.hook.OnDegrade(ctx, fmt.Sprint(tag), map[string]any{"format": format})
		return plain, nil
	}

	return o.inner.Denormalize(ctx, plain, concrete, format)
}

// denormalizeMembers denormalizes every element of a collection, each with
// its own type tag when it has one and typeName otherwise. The container
// keeps its shape; typed containers are kept when the results still fit.
func (o *ObjectNormalizer) denormalizeMembers(ctx context.Context, rv reflect.Value, typeName, format string) (any, error) {
	ctx, err := o.descend(ctx, OpDenormalize)
	if err != nil {
		return nil, err
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Interface(), nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			v, err := o.denormalizeMember(ctx, iter.Value().Interface(), typeName, format)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			out[iter.Key().String()] = v
		}
		if rv.Type() == reflect.TypeFor[map[string]any]() {
			return out, nil
		}
		return retype(rv.Type(), out), nil

	default:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			v, err := o.denormalizeMember(ctx, rv.Index(i).Interface(), typeName, format)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = v
		}
		if rv.Type() == reflect.TypeFor[[]any]() {
			return out, nil
		}
		return retype(rv.Type(), out), nil
	}
}

func (o *ObjectNormalizer) denormalizeMember(ctx context.Context, value any, typeName, format string) (any, error) {
	if m, ok := value.(map[string]any); ok {
		if tag, ok := m[TypeKey].(string); ok {
			typeName = tag
		}
	}
	return o.denormalizer.Denormalize(ctx, value, typeName, format)
}

// retype converts a generic collection back to the container type t when
// every element fits, and returns the generic one otherwise.
func retype(t reflect.Type, generic any) any {
	dst := reflect.New(t).Elem()
	if err := fields.Assign(dst, generic); err != nil {
		return generic
	}
	return dst.Interface()
}

type depthKey struct{}

// descend records one more nesting level in ctx and enforces the bound.
func (o *ObjectNormalizer) descend(ctx context.Context, op Operation) (context.Context, error) {
	if o.maxDepth == 0 {
		return ctx, nil
	}
	depth, _ := ctx.Value(depthKey{}).(int)
	depth++
	if depth > o.maxDepth {
		return nil, NewMaxDepthError(o.maxDepth, op)
	}
	return context.WithValue(ctx, depthKey{}, depth), nil
}
