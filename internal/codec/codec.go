package codec

import (
	"errors"
	"fmt"
	"maps"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Codec converts plain data (maps, slices, primitives) to and from bytes.
// Implementations must decode objects into map[string]any and sequences into
// []any so the result can be fed to a denormalizer.
type Codec interface {
	// Format is the name the codec is looked up by.
	Format() string

	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// Set is an immutable lookup table of codecs keyed by format.
type Set struct {
	codecs map[string]Codec
}

// NewSet builds a Set from codecs. Later codecs replace earlier ones with
// the same format.
func NewSet(codecs ...Codec) *Set {
	s := &Set{codecs: make(map[string]Codec, len(codecs))}
	for _, c := range codecs {
		s.codecs[c.Format()] = c
	}
	return s
}

// Defaults returns the built-in codecs: json, canonical-json, yaml and
// msgpack.
func Defaults() *Set {
	return NewSet(JSONCodec{}, CanonicalJSONCodec{}, YAMLCodec{}, MsgpackCodec{})
}

// With returns a copy of s extended with codecs.
func (s *Set) With(codecs ...Codec) *Set {
	out := &Set{codecs: maps.Clone(s.codecs)}
	for _, c := range codecs {
		out.codecs[c.Format()] = c
	}
	return out
}

// Lookup returns the codec registered for format.
func (s *Set) Lookup(format string) (Codec, error) {
	c, ok := s.codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return c, nil
}
