package jsonodm

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainIDs(entries []ChainEntry) []string {
	return lo.Map(entries, func(e ChainEntry, _ int) string { return e.ID })
}

func TestAssembleChain(t *testing.T) {
	r := NewRegistry()
	native := NewNativeChain(r)
	typed, err := NewTypedChain(r)
	require.NoError(t, err)

	tests := []struct {
		name     string
		native   []ChainEntry
		custom   []ChainEntry
		excluded []string
		want     []string
	}{
		{
			name:   "default exclusion",
			native: native,
			custom: typed,
			want:   []string{DateTimeNormalizerID, TextNormalizerID, TypedObjectNormalizerID},
		},
		{
			name:     "explicit exclusion",
			native:   native,
			custom:   typed,
			excluded: []string{DateTimeNormalizerID},
			want:     []string{TextNormalizerID, DefaultObjectNormalizerID, TypedObjectNormalizerID},
		},
		{
			name:     "unknown IDs are ignored",
			native:   native,
			custom:   typed,
			excluded: []string{"nothing.here", DefaultObjectNormalizerID},
			want:     []string{DateTimeNormalizerID, TextNormalizerID, TypedObjectNormalizerID},
		},
		{
			name:   "empty native",
			native: nil,
			custom: typed,
			want:   []string{TypedObjectNormalizerID},
		},
		{
			name:     "native fully excluded",
			native:   native,
			custom:   typed,
			excluded: []string{DateTimeNormalizerID, TextNormalizerID, DefaultObjectNormalizerID},
			want:     []string{TypedObjectNormalizerID},
		},
		{
			name:   "empty custom",
			native: native,
			custom: nil,
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleChain(tt.native, tt.custom, tt.excluded...)
			assert.Equal(t, tt.want, chainIDs(got))
		})
	}

	assert.Equal(t, []string{DateTimeNormalizerID, TextNormalizerID, DefaultObjectNormalizerID}, chainIDs(native), "native chain untouched")
}

func TestNewTypedChain(t *testing.T) {
	typed, err := NewTypedChain(nil)
	require.NoError(t, err)
	require.Len(t, typed, 1)
	object, ok := typed[0].Converter.(*ObjectNormalizer)
	require.True(t, ok)
	assert.Same(t, DefaultRegistry, object.registry)

	_, err = NewTypedChain(NewRegistry(), WithMaxDepth(-1))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewChainFromConfig(t *testing.T) {
	s := newTestSerializer(t, Config{})
	assert.Equal(t, []string{DateTimeNormalizerID, TextNormalizerID, TypedObjectNormalizerID}, chainIDs(s.Chain()))

	s = newTestSerializer(t, Config{ExcludedNormalizers: []string{DateTimeNormalizerID, TextNormalizerID, DefaultObjectNormalizerID}})
	assert.Equal(t, []string{TypedObjectNormalizerID}, chainIDs(s.Chain()))
}
