package jsonodm

import (
	"reflect"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

// DefaultRegistry is the process-wide registry used when no other is
// configured. Generated registration code targets it from init functions.
var DefaultRegistry = NewRegistry()

// Registry maps type names to constructible types. It is meant to be filled
// once at startup and only read afterwards; lookups are safe for concurrent
// use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]TypeInfo
	byType map[reflect.Type]string

	// derived caches reflection-derived info of unregistered structs, which
	// can still be normalized.
	derived sync.Map
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]TypeInfo),
		byType: make(map[reflect.Type]string),
	}
}

// Register registers the struct behind prototype under its fully-qualified
// name, deriving its accessors through reflection.
func (r *Registry) Register(prototype any) error {
	return r.RegisterWithAlias(prototype)
}

// RegisterWithAlias registers prototype under its fully-qualified name plus
// the given aliases. Only the fully-qualified name is written to tagged
// data; aliases are accepted when reading, e.g. for renamed types.
func (r *Registry) RegisterWithAlias(prototype any, aliases ...string) error {
	info, err := TypeInfoOf(prototype)
	if err != nil {
		return err
	}
	return r.add(info, aliases)
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(prototypes ...any) {
	for _, p := range prototypes {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// RegisterTypeInfo registers accessors written by hand or by jsonodm-gen.
func (r *Registry) RegisterTypeInfo(info TypeInfo, aliases ...string) error {
	info, err := prepare(info)
	if err != nil {
		return err
	}
	return r.add(info, aliases)
}

// MustRegisterTypeInfo is like RegisterTypeInfo but panics on error.
func (r *Registry) MustRegisterTypeInfo(info TypeInfo, aliases ...string) {
	if err := r.RegisterTypeInfo(info, aliases...); err != nil {
		panic(err)
	}
}

func (r *Registry) add(info TypeInfo, aliases []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{info.Name}, aliases...)
	for _, name := range names {
		if _, exists := r.byName[name]; exists {
			return NewDuplicateTypeError(name)
		}
	}
	if _, exists := r.byType[info.goType]; exists {
		return NewDuplicateTypeError(info.goType.String())
	}

	for _, name := range names {
		r.byName[name] = info
	}
	r.byType[info.goType] = info.Name
	return nil
}

// Lookup returns the type registered under name or one of its aliases.
func (r *Registry) Lookup(name string) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.byName[name]
	return info, ok
}

// IsRegistered reports whether name resolves to a type.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, aliases included, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := lo.Keys(r.byName)
	slices.Sort(names)
	return names
}

// InfoFor returns the type information for the runtime type of v: the
// registered entry when there is one, reflection-derived info otherwise.
func (r *Registry) InfoFor(v any) (TypeInfo, error) {
	if v == nil {
		return TypeInfo{}, NewUnsupportedTypeError("<nil>", OpNormalize)
	}
	t := fields.Deref(reflect.TypeOf(v))
	if t.Kind() != reflect.Struct {
		return TypeInfo{}, NewUnsupportedTypeError(t.String(), OpNormalize)
	}

	r.mu.RLock()
	name, ok := r.byType[t]
	var info TypeInfo
	if ok {
		info = r.byName[name]
	}
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	if cached, ok := r.derived.Load(t); ok {
		return cached.(TypeInfo), nil
	}
	info, err := typeInfoFor(t, fields.TypeName(t))
	if err != nil {
		return TypeInfo{}, err
	}
	r.derived.Store(t, info)
	return info, nil
}

// TypeName returns the name written to the type tag for v.
func (r *Registry) TypeName(v any) string {
	if v == nil {
		return ""
	}
	t := fields.Deref(reflect.TypeOf(v))
	r.mu.RLock()
	name, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return name
	}
	return fields.TypeName(t)
}

// TypeNameOf returns the fully-qualified name of the runtime type of v,
// pointers stripped: "<import path>.<Name>".
func TypeNameOf(v any) string {
	if v == nil {
		return ""
	}
	return fields.TypeName(reflect.TypeOf(v))
}
