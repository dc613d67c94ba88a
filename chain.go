package jsonodm

import (
	"slices"

	"github.com/samber/lo"
)

// ChainEntry is one converter of a Serializer chain. Converter implements
// Normalizer, Denormalizer or both; ID names it for exclusion.
type ChainEntry struct {
	ID        string
	Converter any
}

// AssembleChain merges the native chain with a custom one: native entries
// whose ID is excluded are dropped and the custom entries follow the rest.
// With no exclusions given, DefaultObjectNormalizerID is excluded.
//
// When either list is empty (the native one after exclusion) custom is
// returned untouched.
func AssembleChain(native, custom []ChainEntry, excluded ...string) []ChainEntry {
	if len(excluded) == 0 {
		excluded = []string{DefaultObjectNormalizerID}
	}

	kept := lo.Reject(native, func(e ChainEntry, _ int) bool {
		return slices.Contains(excluded, e.ID)
	})
	if len(custom) == 0 || len(kept) == 0 {
		return custom
	}
	return append(kept, custom...)
}

// NewNativeChain returns the default chain: time values first, then structs
// with a text form, then the structural object normalizer producing untagged
// maps.
func NewNativeChain(r *Registry) []ChainEntry {
	return []ChainEntry{
		{ID: DateTimeNormalizerID, Converter: NewDateTimeNormalizer()},
		{ID: TextNormalizerID, Converter: NewTextNormalizer()},
		{ID: DefaultObjectNormalizerID, Converter: NewPropertyNormalizer(r)},
	}
}

// NewTypedChain returns the custom chain holding the type-tagging object
// normalizer, wrapping a structural converter over the same registry.
func NewTypedChain(r *Registry, opts ...ObjectNormalizerOption) ([]ChainEntry, error) {
	if r == nil {
		r = DefaultRegistry
	}
	object, err := NewObjectNormalizer(NewPropertyNormalizer(r), append([]ObjectNormalizerOption{WithRegistry(r)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return []ChainEntry{{ID: TypedObjectNormalizerID, Converter: object}}, nil
}
