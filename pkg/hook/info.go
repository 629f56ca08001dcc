package hook

import (
	"fmt"
	"reflect"
)

// Combinator derives a binding's value from the current values of its keys,
// passed in key order. Absent keys are passed as nil.
type Combinator func(values ...any) any

// Info describes a reactive subscription target: a store, one or more of
// its keys and an optional combinator. Info is immutable. Creating one does
// not subscribe anything; subscription happens when a binding is built from
// it.
type Info[K comparable] struct {
	store   *Store[K]
	keys    []K
	combine Combinator
}

// Key describes a binding on a single key of s, delivering its value as is.
func Key[K comparable](s *Store[K], key K) (*Info[K], error) {
	if s == nil {
		return nil, newUsageError("hook.Key", ErrNotStore, "nil store")
	}
	return &Info[K]{store: s, keys: []K{key}}, nil
}

// Computed describes a binding on keys of s whose value is fn applied to
// the current values of keys, in order.
//
// fn is either a Combinator or any function taking exactly len(keys)
// parameters (or a variadic one) and returning one value, optionally
// followed by an error. The latter is adapted by reflection: each value is
// passed as the parameter's type, nil becoming its zero value, and a
// non-nil error fails the emission like a panic.
func Computed[K comparable](s *Store[K], fn any, keys ...K) (*Info[K], error) {
	const op = "hook.Computed"
	if s == nil {
		return nil, newUsageError(op, ErrNotStore, "nil store")
	}
	if len(keys) == 0 {
		return nil, newUsageError(op, ErrNoKeys, "")
	}
	combine, err := adaptCombinator(op, fn, len(keys))
	if err != nil {
		return nil, err
	}
	return &Info[K]{store: s, keys: append([]K(nil), keys...), combine: combine}, nil
}

// BindFromKeys is the variadic form of Key and Computed:
//
//	BindFromKeys[string](s, "title")
//	BindFromKeys[string](s, "views", func(v int) string { return strconv.Itoa(v) })
//	BindFromKeys[string](s, "a", "b", func(a, b int) int { return a + b })
//
// handle must be a *Store[K]. When at least two arguments are given and the
// last one is a function, it is the combinator and the rest are keys.
// Otherwise exactly one key must be given.
func BindFromKeys[K comparable](handle any, args ...any) (*Info[K], error) {
	const op = "hook.BindFromKeys"

	s, ok := handle.(*Store[K])
	if !ok || s == nil {
		return nil, newUsageError(op, ErrNotStore, fmt.Sprintf("%T", handle))
	}
	if len(args) == 0 {
		return nil, newUsageError(op, ErrNoKeys, "")
	}

	var fn any
	keyArgs := args
	if len(args) >= 2 && isFunc(args[len(args)-1]) {
		fn = args[len(args)-1]
		keyArgs = args[:len(args)-1]
	}

	keys := make([]K, 0, len(keyArgs))
	for i, a := range keyArgs {
		if isFunc(a) {
			if len(keyArgs) == 1 {
				return nil, newUsageError(op, ErrNoKeys, "combinator without keys")
			}
			return nil, newUsageError(op, ErrArity, fmt.Sprintf("argument %d is a function", i))
		}
		k, ok := a.(K)
		if !ok {
			return nil, newUsageError(op, ErrKeyType, fmt.Sprintf("argument %d is %T", i, a))
		}
		keys = append(keys, k)
	}

	if fn == nil {
		if len(keys) != 1 {
			return nil, newUsageError(op, ErrArity, fmt.Sprintf("%d keys without a combinator", len(keys)))
		}
		return &Info[K]{store: s, keys: keys}, nil
	}

	combine, err := adaptCombinator(op, fn, len(keys))
	if err != nil {
		return nil, err
	}
	return &Info[K]{store: s, keys: keys, combine: combine}, nil
}

// Store returns the store this Info observes.
func (i *Info[K]) Store() *Store[K] {
	return i.store
}

// Keys returns a copy of the observed keys.
func (i *Info[K]) Keys() []K {
	return append([]K(nil), i.keys...)
}

// HasCombinator reports whether the value is derived by a combinator.
func (i *Info[K]) HasCombinator() bool {
	return i.combine != nil
}

// CurrentValue computes the value a binding built from i would deliver now.
// It has no side effects. A panicking combinator panics here.
func (i *Info[K]) CurrentValue() any {
	values := i.read()
	if i.combine != nil {
		return i.combine(values...)
	}
	return values[0]
}

// compute is CurrentValue with combinator panics turned into errors.
func (i *Info[K]) compute() (v any, err error) {
	values := i.read()
	if i.combine == nil {
		return values[0], nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("combinator panicked: %v", r)
		}
	}()
	return i.combine(values...), nil
}

func (i *Info[K]) read() []any {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	values := make([]any, len(i.keys))
	for n, k := range i.keys {
		values[n] = i.store.values[k]
	}
	return values
}

// addSubscriber subscribes b to every key of i.
func (i *Info[K]) addSubscriber(b Binding) {
	i.store.subscribe(i.keys, b)
}

// removeSubscriber unsubscribes b from every key of i.
func (i *Info[K]) removeSubscriber(b Binding) {
	i.store.unsubscribe(i.keys, b)
}

// BindToValue creates a binding that assigns the current value to
// dest[key] on every write to an observed key. It does not emit; call Emit
// for an initial push. It panics with a *UsageError if dest is nil.
func (i *Info[K]) BindToValue(dest Target, key string) *ValueBinding[K] {
	if dest == nil {
		panic(newUsageError("hook.Info.BindToValue", ErrNilTarget, key))
	}
	return newValueBinding(i, dest, key)
}

// BindToCallback creates a binding that calls fn with the current value on
// every write to an observed key. It does not emit; call Emit for an
// initial push. It panics with a *UsageError if fn is nil.
func (i *Info[K]) BindToCallback(fn func(any)) *CallbackBinding[K] {
	if fn == nil {
		panic(newUsageError("hook.Info.BindToCallback", ErrNilCallback, ""))
	}
	return newCallbackBinding(i, fn)
}

// BindValue implements Source.
func (i *Info[K]) BindValue(dest Target, key string) Binding {
	return i.BindToValue(dest, key)
}

// BindFunc implements Source.
func (i *Info[K]) BindFunc(fn func(any), owner *Owner) Binding {
	b := i.BindToCallback(fn)
	if owner != nil {
		b.BindDestroy(owner)
	}
	return b
}

func (i *Info[K]) keyStrings() []string {
	out := make([]string, len(i.keys))
	for n, k := range i.keys {
		out[n] = fmt.Sprint(k)
	}
	return out
}

func isFunc(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

// adaptCombinator turns fn into a Combinator for n keys.
func adaptCombinator(op string, fn any, n int) (Combinator, error) {
	switch f := fn.(type) {
	case nil:
		return nil, newUsageError(op, ErrArity, "nil combinator")
	case Combinator:
		if f == nil {
			return nil, newUsageError(op, ErrArity, "nil combinator")
		}
		return f, nil
	case func(...any) any:
		if f == nil {
			return nil, newUsageError(op, ErrArity, "nil combinator")
		}
		return Combinator(f), nil
	}

	v := reflect.ValueOf(fn)
	if v.Kind() == reflect.Func && v.IsNil() {
		return nil, newUsageError(op, ErrArity, fmt.Sprintf("nil %T combinator", fn))
	}
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, newUsageError(op, ErrArity, fmt.Sprintf("combinator is %T", fn))
	}
	withErr := t.NumOut() == 2 && t.Out(1) == errorType
	if t.NumOut() != 1 && !withErr {
		return nil, newUsageError(op, ErrArity, fmt.Sprintf("combinator returns %d values", t.NumOut()))
	}
	if t.IsVariadic() {
		if n < t.NumIn()-1 {
			return nil, newUsageError(op, ErrArity, fmt.Sprintf("%d keys for %s", n, t))
		}
	} else if t.NumIn() != n {
		return nil, newUsageError(op, ErrArity, fmt.Sprintf("%d keys for %s", n, t))
	}

	return func(values ...any) any {
		args := make([]reflect.Value, len(values))
		for idx, val := range values {
			args[idx] = argValue(val, paramType(t, idx))
		}
		out := v.Call(args)
		if withErr && !out[1].IsNil() {
			panic(out[1].Interface())
		}
		return out[0].Interface()
	}, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func paramType(t reflect.Type, idx int) reflect.Type {
	if t.IsVariadic() && idx >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(idx)
}

func argValue(val any, want reflect.Type) reflect.Value {
	if val == nil {
		return reflect.Zero(want)
	}
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(want) {
		return rv
	}
	panic(fmt.Sprintf("value %v (%T) is not assignable to %s", val, val, want))
}
