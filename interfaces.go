package jsonodm

import "context"

// Normalizer turns a value into plain data: maps, slices and primitives.
type Normalizer interface {
	// Normalize returns the plain form of value for the given format.
	Normalize(ctx context.Context, value any, format string) (any, error)

	// SupportsNormalization reports whether this normalizer handles value.
	SupportsNormalization(value any, format string) bool
}

// Denormalizer rebuilds a value from plain data.
type Denormalizer interface {
	// Denormalize turns data into a value of the type registered as typeName.
	Denormalize(ctx context.Context, data any, typeName, format string) (any, error)

	// SupportsDenormalization reports whether this denormalizer handles data
	// for the requested type.
	SupportsDenormalization(data any, typeName, format string) bool
}

// NormalizerDenormalizer is implemented by converters working in both
// directions, the Serializer among them.
type NormalizerDenormalizer interface {
	Normalizer
	Denormalizer
}

// SerializerAware is implemented by converters that recurse through the
// dispatcher. The Serializer calls SetSerializer once, when it is built.
type SerializerAware interface {
	SetSerializer(s Normalizer) error
}

var (
	_ NormalizerDenormalizer = (*Serializer)(nil)
	_ NormalizerDenormalizer = (*ObjectNormalizer)(nil)
	_ NormalizerDenormalizer = (*PropertyNormalizer)(nil)
	_ NormalizerDenormalizer = (*DateTimeNormalizer)(nil)
	_ Normalizer             = (*TextNormalizer)(nil)
	_ SerializerAware        = (*ObjectNormalizer)(nil)
	_ SerializerAware        = (*PropertyNormalizer)(nil)
)
