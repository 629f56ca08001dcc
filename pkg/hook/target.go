package hook

import (
	"fmt"
	"reflect"
	"weak"
)

// Target is a destination a ValueBinding assigns into.
//
// A Target may also implement Alive() bool; once it reports false, emissions
// into it are skipped. Targets implementing Owned tie their bindings to the
// owner's lifetime.
type Target interface {
	Assign(key string, value any) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(key string, value any) error

// Assign implements Target.
func (f TargetFunc) Assign(key string, value any) error {
	return f(key, value)
}

// MapTarget assigns into a plain map.
type MapTarget map[string]any

// Assign implements Target.
func (m MapTarget) Assign(key string, value any) error {
	m[key] = value
	return nil
}

// StoreTarget assigns into another store, notifying that store's bindings.
func StoreTarget(s *Store[string]) Target {
	return TargetFunc(s.Set)
}

type fieldTarget struct {
	v reflect.Value
}

// FieldTarget assigns into the exported fields of the struct ptr points to.
// The destination key is the field name. Values must be assignable to the
// field's type; nil assigns the zero value.
func FieldTarget(ptr any) (Target, error) {
	const op = "hook.FieldTarget"
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, newUsageError(op, ErrInvalidTarget, fmt.Sprintf("%T", ptr))
	}
	return &fieldTarget{v: v.Elem()}, nil
}

// Assign implements Target.
func (t *fieldTarget) Assign(key string, value any) error {
	f := t.v.FieldByName(key)
	if !f.IsValid() {
		return fmt.Errorf("no field %q in %s", key, t.v.Type())
	}
	if !f.CanSet() {
		return fmt.Errorf("field %q of %s is not settable", key, t.v.Type())
	}
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(f.Type()) {
		return fmt.Errorf("cannot assign %T to field %q of type %s", value, key, f.Type())
	}
	f.Set(rv)
	return nil
}

type weakTarget[T any] struct {
	ptr    weak.Pointer[T]
	assign func(*T, string, any) error
}

// WeakTarget is a non-owning destination. It does not keep ptr reachable;
// once the runtime collects *ptr, emissions are skipped and the value
// bindings built on it are released. assign must not capture ptr.
func WeakTarget[T any](ptr *T, assign func(dst *T, key string, value any) error) Target {
	return &weakTarget[T]{ptr: weak.Make(ptr), assign: assign}
}

// Alive reports whether the destination has not been collected.
func (w *weakTarget[T]) Alive() bool {
	return w.ptr.Value() != nil
}

// Assign implements Target. Assigning into a collected destination is a
// no-op.
func (w *weakTarget[T]) Assign(key string, value any) error {
	p := w.ptr.Value()
	if p == nil {
		return nil
	}
	return w.assign(p, key, value)
}

func (w *weakTarget[T]) attachLifecycle(r *Registrar, b Binding) {
	if p := w.ptr.Value(); p != nil {
		AttachObject(r, p, b)
	}
}

type ownedTarget struct {
	Target
	owner *Owner
}

// OwnedTarget ties t to owner: value bindings into the result are
// destroyed when owner is disposed, and skip emissions afterwards.
func OwnedTarget(t Target, owner *Owner) Target {
	return &ownedTarget{Target: t, owner: owner}
}

// Owner implements Owned.
func (t *ownedTarget) Owner() *Owner {
	return t.owner
}

// Alive reports whether the owner is still live.
func (t *ownedTarget) Alive() bool {
	return !t.owner.IsDisposed()
}
