package codec

import (
	"errors"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// MaxSafeInteger is the largest integer canonical JSON holds exactly. RFC
// 8785 writes every number as an IEEE 754 double.
const MaxSafeInteger = 1<<53 - 1

// ErrIntegerRange is returned when canonical JSON cannot hold an integer
// exactly.
var ErrIntegerRange = errors.New("integer outside the exact range of canonical JSON")

// CanonicalJSONCodec writes RFC 8785 canonical JSON: sorted keys, no
// insignificant whitespace, normalized numbers. Equal graphs produce equal
// bytes, which makes the output usable for digests. Integers beyond
// ±MaxSafeInteger are rejected rather than rounded.
type CanonicalJSONCodec struct{}

var _ Codec = CanonicalJSONCodec{}

func (CanonicalJSONCodec) Format() string { return "canonical-json" }

func (CanonicalJSONCodec) Marshal(v any) ([]byte, error) {
	if err := safeIntegers(v); err != nil {
		return nil, err
	}
	data, err := JSONCodec{}.Marshal(v)
	if err != nil {
		return nil, err
	}
	out, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("could not canonicalize data: %w", err)
	}
	return out, nil
}

func (CanonicalJSONCodec) Unmarshal(data []byte) (any, error) {
	return JSONCodec{}.Unmarshal(data)
}

// safeIntegers walks plain data and fails on the first integer canonical
// JSON would round.
func safeIntegers(v any) error {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			if err := safeIntegers(e); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	case []any:
		for i, e := range t {
			if err := safeIntegers(e); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
	case int:
		return safeInt(int64(t))
	case int64:
		return safeInt(t)
	case uint:
		return safeUint(uint64(t))
	case uint64:
		return safeUint(t)
	case uintptr:
		return safeUint(uint64(t))
	}
	return nil
}

func safeInt(n int64) error {
	if n > MaxSafeInteger || n < -MaxSafeInteger {
		return fmt.Errorf("%w: %d", ErrIntegerRange, n)
	}
	return nil
}

func safeUint(n uint64) error {
	if n > MaxSafeInteger {
		return fmt.Errorf("%w: %d", ErrIntegerRange, n)
	}
	return nil
}
