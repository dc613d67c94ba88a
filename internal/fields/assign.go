package fields

import (
	"encoding"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/goccy/go-json"
)

var ErrIncompatible = errors.New("incompatible value")

var numberType = reflect.TypeFor[json.Number]()

// Assign stores src into dst, converting plain data where the destination
// calls for it: numbers between kinds, *T and T, typed slices, arrays and
// maps from generic collections, structs from string keyed maps, text into
// encoding.TextUnmarshaler, base64 text into byte slices and json.Number
// literals into numeric kinds. A nil src sets the zero value. dst must be
// settable.
func Assign(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	return assign(dst, reflect.ValueOf(src))
}

func assign(dst, sv reflect.Value) error {
	for sv.Kind() == reflect.Interface {
		if sv.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		sv = sv.Elem()
	}

	dt, st := dst.Type(), sv.Type()
	// Rebuilt objects arrive as *T. An interface with methods that T itself
	// satisfies gets the value T, the way such interfaces are usually filled.
	if dt.Kind() == reflect.Interface && dt.NumMethod() > 0 &&
		sv.Kind() == reflect.Pointer && !sv.IsNil() &&
		st.Elem().Kind() == reflect.Struct && st.Elem().Implements(dt) {
		dst.Set(sv.Elem())
		return nil
	}
	if st.AssignableTo(dt) {
		dst.Set(sv)
		return nil
	}

	if sv.Kind() == reflect.Pointer {
		if sv.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		if dt.Kind() != reflect.Pointer {
			return assign(dst, sv.Elem())
		}
	}

	if dt.Kind() == reflect.Pointer {
		nv := reflect.New(dt.Elem())
		if err := assign(nv.Elem(), sv); err != nil {
			return err
		}
		dst.Set(nv)
		return nil
	}

	if sv.Kind() == reflect.String && reflect.PointerTo(dt).Implements(textUnmarshalerType) {
		nv := reflect.New(dt)
		if err := nv.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(sv.String())); err != nil {
			return fmt.Errorf("%w: parse %q as %s: %v", ErrIncompatible, sv.String(), dt, err)
		}
		dst.Set(nv.Elem())
		return nil
	}

	if st == numberType && isNumeric(dt.Kind()) {
		nv, err := parseNumber(sv.String())
		if err != nil {
			return err
		}
		sv, st = nv, nv.Type()
	}

	switch dt.Kind() {
	case reflect.Interface:
		if reflect.PointerTo(st).Implements(dt) {
			dst.Set(PointerTo(sv))
			return nil
		}
	case reflect.Bool:
		if sv.Kind() == reflect.Bool {
			dst.SetBool(sv.Bool())
			return nil
		}
	case reflect.String:
		if sv.Kind() == reflect.String {
			dst.SetString(sv.String())
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return assignInt(dst, sv)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return assignUint(dst, sv)
	case reflect.Float32, reflect.Float64:
		return assignFloat(dst, sv)
	case reflect.Slice:
		return assignSlice(dst, sv)
	case reflect.Array:
		return assignArray(dst, sv)
	case reflect.Map:
		return assignMap(dst, sv)
	case reflect.Struct:
		if sv.Kind() == reflect.Map && sv.Type().Key().Kind() == reflect.String {
			return assignStruct(dst, sv)
		}
	}
	return incompatible(st, dt)
}

func incompatible(st, dt reflect.Type) error {
	return fmt.Errorf("%w: cannot assign %s to %s", ErrIncompatible, st, dt)
}

func isNumeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// parseNumber reads a JSON number literal as int64, uint64 or float64,
// whichever holds it exactly first.
func parseNumber(s string) (reflect.Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return reflect.ValueOf(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return reflect.ValueOf(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %q is not a number", ErrIncompatible, s)
	}
	return reflect.ValueOf(f), nil
}

func assignInt(dst, sv reflect.Value) error {
	var n int64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = sv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := sv.Uint()
		if u > math.MaxInt64 {
			return fmt.Errorf("%w: %d overflows %s", ErrIncompatible, u, dst.Type())
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return fmt.Errorf("%w: %v is not an integer for %s", ErrIncompatible, f, dst.Type())
		}
		n = int64(f)
	default:
		return incompatible(sv.Type(), dst.Type())
	}
	if dst.OverflowInt(n) {
		return fmt.Errorf("%w: %d overflows %s", ErrIncompatible, n, dst.Type())
	}
	dst.SetInt(n)
	return nil
}

func assignUint(dst, sv reflect.Value) error {
	var u uint64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := sv.Int()
		if n < 0 {
			return fmt.Errorf("%w: %d is negative for %s", ErrIncompatible, n, dst.Type())
		}
		u = uint64(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u = sv.Uint()
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return fmt.Errorf("%w: %v is not an unsigned integer for %s", ErrIncompatible, f, dst.Type())
		}
		u = uint64(f)
	default:
		return incompatible(sv.Type(), dst.Type())
	}
	if dst.OverflowUint(u) {
		return fmt.Errorf("%w: %d overflows %s", ErrIncompatible, u, dst.Type())
	}
	dst.SetUint(u)
	return nil
}

func assignFloat(dst, sv reflect.Value) error {
	var f float64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(sv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f = float64(sv.Uint())
	case reflect.Float32, reflect.Float64:
		f = sv.Float()
	default:
		return incompatible(sv.Type(), dst.Type())
	}
	if dst.OverflowFloat(f) {
		return fmt.Errorf("%w: %v overflows %s", ErrIncompatible, f, dst.Type())
	}
	dst.SetFloat(f)
	return nil
}

func assignSlice(dst, sv reflect.Value) error {
	dt := dst.Type()
	if IsBytes(dt) && sv.Kind() == reflect.String {
		b, err := base64.StdEncoding.DecodeString(sv.String())
		if err != nil {
			return fmt.Errorf("%w: decode base64 for %s: %v", ErrIncompatible, dt, err)
		}
		dst.SetBytes(b)
		return nil
	}
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return incompatible(sv.Type(), dt)
	}
	if sv.Kind() == reflect.Slice && sv.IsNil() {
		dst.Set(reflect.Zero(dt))
		return nil
	}

	out := reflect.MakeSlice(dt, sv.Len(), sv.Len())
	for i := range sv.Len() {
		if err := assign(out.Index(i), sv.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func assignArray(dst, sv reflect.Value) error {
	dt := dst.Type()
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return incompatible(sv.Type(), dt)
	}
	if sv.Len() > dt.Len() {
		return fmt.Errorf("%w: %d elements do not fit %s", ErrIncompatible, sv.Len(), dt)
	}

	out := reflect.New(dt).Elem()
	for i := range sv.Len() {
		if err := assign(out.Index(i), sv.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func assignMap(dst, sv reflect.Value) error {
	dt := dst.Type()
	if sv.Kind() != reflect.Map {
		return incompatible(sv.Type(), dt)
	}
	if sv.IsNil() {
		dst.Set(reflect.Zero(dt))
		return nil
	}

	out := reflect.MakeMapWithSize(dt, sv.Len())
	iter := sv.MapRange()
	for iter.Next() {
		key := reflect.New(dt.Key()).Elem()
		if err := assignKey(key, iter.Key()); err != nil {
			return err
		}
		elem := reflect.New(dt.Elem()).Elem()
		if err := assign(elem, iter.Value()); err != nil {
			return fmt.Errorf("key %v: %w", iter.Key(), err)
		}
		out.SetMapIndex(key, elem)
	}
	dst.Set(out)
	return nil
}

func assignStruct(dst, sv reflect.Value) error {
	fs, err := Of(dst.Type())
	if err != nil {
		return err
	}
	out := reflect.New(dst.Type()).Elem()
	for _, f := range fs {
		v := sv.MapIndex(reflect.ValueOf(f.Key).Convert(sv.Type().Key()))
		if !v.IsValid() {
			continue
		}
		if err := assign(Settable(out, f), v); err != nil {
			return fmt.Errorf("field %s: %w", f.Key, err)
		}
	}
	dst.Set(out)
	return nil
}

func assignKey(dst, sv reflect.Value) error {
	for sv.Kind() == reflect.Interface && !sv.IsNil() {
		sv = sv.Elem()
	}
	if sv.Kind() != reflect.String {
		return assign(dst, sv)
	}

	s := sv.String()
	kt := dst.Type()
	if reflect.PointerTo(kt).Implements(textUnmarshalerType) {
		return assign(dst, sv)
	}
	switch kt.Kind() {
	case reflect.String:
		dst.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || dst.OverflowInt(n) {
			return fmt.Errorf("%w: map key %q for %s", ErrIncompatible, s, kt)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil || dst.OverflowUint(u) {
			return fmt.Errorf("%w: map key %q for %s", ErrIncompatible, s, kt)
		}
		dst.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || dst.OverflowFloat(f) {
			return fmt.Errorf("%w: map key %q for %s", ErrIncompatible, s, kt)
		}
		dst.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%w: map key %q for %s", ErrIncompatible, s, kt)
		}
		dst.SetBool(b)
	case reflect.Interface:
		return assign(dst, sv)
	default:
		return incompatible(sv.Type(), kt)
	}
	return nil
}

// StringKey renders a map key for plain data.
func StringKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Type().Implements(textMarshalerType) {
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return string(text), nil
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(k.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	}
	return "", fmt.Errorf("%w: unsupported map key type %s", ErrIncompatible, k.Type())
}
