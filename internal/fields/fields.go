package fields

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

// TagName is the struct tag consulted for field keys.
const TagName = "odm"

// ReservedKey is the key holding the type name in tagged values. A field
// mapping onto it is rejected.
const ReservedKey = "#type"

var (
	ErrNotStruct     = errors.New("not a struct type")
	ErrReservedField = errors.New("field uses the reserved type key")
	ErrDuplicateKey  = errors.New("duplicate field key")
)

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Field describes one struct field as seen by the normalizers.
type Field struct {
	// Key is the name used in plain data.
	Key string
	// GoName is the declared Go field name.
	GoName string
	// Index is the position of the field in its struct.
	Index int
	// Exported reports whether the field is publicly readable.
	Exported bool
	Type     reflect.Type
}

// Of lists the fields of struct type t in declaration order. Fields tagged
// `odm:"-"` are left out. Embedded structs are not flattened: they are
// fields keyed by their type name, and an embedded unexported type is an
// unexported field whose promoted fields are never written.
func Of(t reflect.Type) ([]Field, error) {
	t = Deref(t)
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	out := make([]Field, 0, t.NumField())
	seen := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		key := sf.Name
		if tag, ok := sf.Tag.Lookup(TagName); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				key = name
			}
		}
		if key == ReservedKey {
			return nil, fmt.Errorf("%w: %s.%s", ErrReservedField, t, sf.Name)
		}
		if other, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %q used by %s.%s and %s.%s", ErrDuplicateKey, key, t, other, t, sf.Name)
		}
		seen[key] = sf.Name

		out = append(out, Field{
			Key:      key,
			GoName:   sf.Name,
			Index:    i,
			Exported: sf.IsExported(),
			Type:     sf.Type,
		})
	}
	return out, nil
}

// Settable returns field f of the addressable struct value v, made settable
// even when the field is unexported.
func Settable(v reflect.Value, f Field) reflect.Value {
	fv := v.Field(f.Index)
	if fv.CanSet() {
		return fv
	}
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
}

// Deref strips pointer layers from t.
func Deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Indirect strips interfaces and pointers from v. The returned flag is false
// when a nil was met on the way.
func Indirect(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

// IsObject reports whether v holds a struct, possibly behind pointers.
func IsObject(v any) bool {
	if v == nil {
		return false
	}
	rv, ok := Indirect(reflect.ValueOf(v))
	return ok && rv.Kind() == reflect.Struct
}

// IsBytes reports whether t is a byte slice.
func IsBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// Plain returns the plain form of a scalar value: booleans, strings, numbers
// and byte slices as they are, non-struct encoding.TextMarshaler values as
// their text. The flag is false for structs, collections and other kinds.
func Plain(v reflect.Value) (any, bool, error) {
	if v.Kind() != reflect.Struct && v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, true, err
		}
		return string(text), true, nil
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return v.Interface(), true, nil
	case reflect.Slice:
		if IsBytes(v.Type()) {
			return v.Bytes(), true, nil
		}
	}
	return nil, false, nil
}

// PointerTo returns a pointer to the struct held by v. Addressable values
// are referenced in place, others are copied.
func PointerTo(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

// TypeName returns the fully-qualified name of t with pointers stripped:
// "<import path>.<Name>", the bare name for predeclared types and the type
// literal for unnamed types.
func TypeName(t reflect.Type) string {
	t = Deref(t)
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
