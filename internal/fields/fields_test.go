package fields

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Visible string
	Renamed int    `odm:"renamed"`
	Options string `odm:",omitempty"`
	Skipped string `odm:"-"`
	hidden  bool
}

type inner struct{ N int }

type embedding struct {
	inner
	Name string
}

func TestOf(t *testing.T) {
	fs, err := Of(reflect.TypeFor[*sample]())
	require.NoError(t, err)

	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"Visible", "renamed", "Options", "hidden"}, keys)
	assert.True(t, fs[0].Exported)
	assert.False(t, fs[3].Exported)
	assert.Equal(t, "Renamed", fs[1].GoName)
	assert.Equal(t, 4, fs[3].Index)

	t.Run("embedded structs are single fields", func(t *testing.T) {
		fs, err := Of(reflect.TypeFor[embedding]())
		require.NoError(t, err)
		require.Len(t, fs, 2)
		assert.Equal(t, "inner", fs[0].Key)
		assert.False(t, fs[0].Exported)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Of(reflect.TypeFor[int]())
		assert.ErrorIs(t, err, ErrNotStruct)

		_, err = Of(reflect.TypeFor[struct {
			T string `odm:"#type"`
		}]())
		assert.ErrorIs(t, err, ErrReservedField)

		_, err = Of(reflect.TypeFor[struct {
			A string `odm:"x"`
			B string `odm:"x"`
		}]())
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func TestSettable(t *testing.T) {
	var s sample
	fs, err := Of(reflect.TypeOf(s))
	require.NoError(t, err)

	v := reflect.ValueOf(&s).Elem()
	Settable(v, fs[3]).SetBool(true)
	Settable(v, fs[0]).SetString("x")
	assert.True(t, s.hidden)
	assert.Equal(t, "x", s.Visible)
}

func TestIndirect(t *testing.T) {
	n := 3
	p := &n
	v, ok := Indirect(reflect.ValueOf(&p))
	require.True(t, ok)
	assert.Equal(t, 3, v.Interface())

	var nilPtr *int
	_, ok = Indirect(reflect.ValueOf(nilPtr))
	assert.False(t, ok)
}

func TestIsObject(t *testing.T) {
	assert.True(t, IsObject(sample{}))
	assert.True(t, IsObject(&sample{}))
	assert.False(t, IsObject((*sample)(nil)))
	assert.False(t, IsObject(map[string]any{}))
	assert.False(t, IsObject(nil))
	assert.False(t, IsObject("x"))
}

func TestPlain(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
		plain bool
	}{
		{"string", "a", "a", true},
		{"int", 1, 1, true},
		{"float", 1.5, 1.5, true},
		{"bool", true, true, true},
		{"bytes", []byte("ab"), []byte("ab"), true},
		{"text marshaler", net.IPv4(10, 0, 0, 1), "10.0.0.1", true},
		{"duration", 2 * time.Second, 2 * time.Second, true},
		{"struct", sample{}, nil, false},
		{"slice", []int{1}, nil, false},
		{"map", map[string]int{}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Plain(reflect.ValueOf(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.plain, ok)
			if tt.plain {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "github.com/kenfreee/doctrine-json-odm/internal/fields.sample", TypeName(reflect.TypeFor[**sample]()))
	assert.Equal(t, "time.Time", TypeName(reflect.TypeFor[time.Time]()))
	assert.Equal(t, "string", TypeName(reflect.TypeFor[string]()))
	assert.Equal(t, "[]int", TypeName(reflect.TypeFor[[]int]()))
}

func TestStringKey(t *testing.T) {
	tests := []struct {
		key  any
		want string
	}{
		{"k", "k"},
		{-3, "-3"},
		{uint(4), "4"},
		{1.5, "1.5"},
		{true, "true"},
		{net.IPv4(127, 0, 0, 1), "127.0.0.1"},
	}
	for _, tt := range tests {
		got, err := StringKey(reflect.ValueOf(tt.key))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := StringKey(reflect.ValueOf([1]int{1}))
	assert.ErrorIs(t, err, ErrIncompatible)
}
