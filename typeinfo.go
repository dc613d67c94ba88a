package jsonodm

import (
	"fmt"
	"reflect"

	"github.com/hengadev/errsx"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

// Field is the structural accessor of one struct field.
//
// Get and Set receive a pointer to the struct. Get is nil for fields that
// are not publicly readable; those fields are never normalized but can still
// be restored by Set.
type Field struct {
	Key      string
	Readable bool
	Get      func(obj any) any
	Set      func(obj any, value any) error
}

// TypeInfo describes a registered type: its name, a factory returning a
// pointer to a zero value and its field accessors. The factory must not run
// any initialization logic of its own; denormalization populates the
// returned instance field by field.
type TypeInfo struct {
	Name   string
	New    func() any
	Fields []Field

	goType reflect.Type
	index  map[string]int
}

// Field returns the accessor for key.
func (ti TypeInfo) Field(key string) (Field, bool) {
	if ti.index != nil {
		i, ok := ti.index[key]
		if !ok {
			return Field{}, false
		}
		return ti.Fields[i], true
	}
	for _, f := range ti.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// GoType returns the struct type described by ti.
func (ti TypeInfo) GoType() reflect.Type {
	return ti.goType
}

// TypeInfoOf derives the type information of the struct behind prototype
// through reflection, under its fully-qualified name.
func TypeInfoOf(prototype any) (TypeInfo, error) {
	if prototype == nil {
		return TypeInfo{}, NewUnsupportedTypeError("<nil>", OpRegister)
	}
	t := fields.Deref(reflect.TypeOf(prototype))
	if t.Kind() != reflect.Struct {
		return TypeInfo{}, NewUnsupportedTypeError(t.String(), OpRegister)
	}
	return typeInfoFor(t, fields.TypeName(t))
}

func typeInfoFor(t reflect.Type, name string) (TypeInfo, error) {
	fs, err := fields.Of(t)
	if err != nil {
		return TypeInfo{}, NewUnreadableTypeError(name, OpRegister, err)
	}

	info := TypeInfo{
		Name:   name,
		New:    func() any { return reflect.New(t).Interface() },
		Fields: make([]Field, 0, len(fs)),
		goType: t,
		index:  make(map[string]int, len(fs)),
	}
	for _, f := range fs {
		field := Field{
			Key:      f.Key,
			Readable: f.Exported,
			Set: func(obj any, value any) error {
				v := reflect.ValueOf(obj).Elem()
				return fields.Assign(fields.Settable(v, f), value)
			},
		}
		if f.Exported {
			field.Get = func(obj any) any {
				return reflect.ValueOf(obj).Elem().Field(f.Index).Interface()
			}
		}
		info.index[f.Key] = len(info.Fields)
		info.Fields = append(info.Fields, field)
	}
	return info, nil
}

// prepare validates a hand-written or generated TypeInfo and fills in its
// derived state.
func prepare(info TypeInfo) (TypeInfo, error) {
	var errs errsx.Map
	if info.Name == "" {
		errs.Set("name", fmt.Errorf("type name is required"))
	}
	if info.New == nil {
		errs.Set("factory", fmt.Errorf("New factory is required"))
	} else {
		proto := info.New()
		t := reflect.TypeOf(proto)
		if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
			errs.Set("factory", fmt.Errorf("New must return a pointer to a struct, got %T", proto))
		} else {
			info.goType = t.Elem()
		}
	}

	info.index = make(map[string]int, len(info.Fields))
	for i, f := range info.Fields {
		switch {
		case f.Key == TypeKey:
			errs.Set(fmt.Sprintf("field %d", i), ErrReservedField)
		case f.Set == nil:
			errs.Set(fmt.Sprintf("field '%s'", f.Key), fmt.Errorf("Set accessor is required"))
		case f.Readable && f.Get == nil:
			errs.Set(fmt.Sprintf("field '%s'", f.Key), fmt.Errorf("readable field needs a Get accessor"))
		}
		if _, dup := info.index[f.Key]; dup {
			errs.Set(fmt.Sprintf("field '%s'", f.Key), fields.ErrDuplicateKey)
		}
		info.index[f.Key] = i
	}

	if !errs.IsEmpty() {
		return TypeInfo{}, NewUnreadableTypeError(info.Name, OpRegister, errs.AsError())
	}
	return info, nil
}

// Assign stores value into the variable dst points to, converting plain data
// (numbers, collections, text, nested maps) to the destination type. It is
// the setter used by reflection-derived and generated accessors alike.
func Assign(dst any, value any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: destination must be a non-nil pointer, got %T", ErrAssignment, dst)
	}
	if err := fields.Assign(rv.Elem(), value); err != nil {
		return fmt.Errorf("%w: %w", ErrAssignment, err)
	}
	return nil
}
