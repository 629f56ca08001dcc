// Package hookbind provides the public API for the hookbind engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/hookbind"
//
// Usage:
//
//	store, _ := hookbind.Wrap[string](map[string]any{"title": "Intro"})
//	info, _ := hookbind.BindFromKeys[string](store, "title")
//	info.BindToCallback(func(v any) { fmt.Println(v) }).BindDestroy(owner)
package hookbind

import (
	"github.com/vango-dev/hookbind/pkg/hook"
)

// =============================================================================
// Entry points (re-export from pkg/hook)
// =============================================================================

// Wrap turns a map[K]any (or nil) into an observable store.
//
// Example:
//
//	store, err := hookbind.Wrap[string](map[string]any{"count": 0})
//	store.Set("count", 1) // notifies every binding on "count"
func Wrap[K comparable](obj any, opts ...StoreOption) (*Store[K], error) {
	return hook.Wrap[K](obj, opts...)
}

// MustWrap is like Wrap but panics on error.
func MustWrap[K comparable](m map[K]any, opts ...StoreOption) *Store[K] {
	return hook.MustWrap(m, opts...)
}

// BindFromKeys describes a binding on one or more keys of a store. When
// two or more arguments are given and the last is a function, it combines
// the key values into one.
//
// Example:
//
//	title, _ := hookbind.BindFromKeys[string](store, "title")
//	sum, _ := hookbind.BindFromKeys[string](store, "a", "b", func(a, b int) int {
//	    return a + b
//	})
func BindFromKeys[K comparable](handle any, args ...any) (*Info[K], error) {
	return hook.BindFromKeys[K](handle, args...)
}

// Key describes a binding on a single key.
func Key[K comparable](s *Store[K], key K) (*Info[K], error) {
	return hook.Key(s, key)
}

// Computed describes a binding whose value is fn applied to keys.
func Computed[K comparable](s *Store[K], fn any, keys ...K) (*Info[K], error) {
	return hook.Computed(s, fn, keys...)
}

// Map1 adapts a typed function of one key's value into a Combinator.
func Map1[A, R any](fn func(A) R) Combinator { return hook.Map1(fn) }

// Map2 adapts a typed function of two keys' values into a Combinator.
func Map2[A, B, R any](fn func(A, B) R) Combinator { return hook.Map2(fn) }

// Map3 adapts a typed function of three keys' values into a Combinator.
func Map3[A, B, C, R any](fn func(A, B, C) R) Combinator { return hook.Map3(fn) }

// NewOwner creates a lifetime scope for bindings.
var NewOwner = hook.NewOwner

// NewRegistrar creates an isolated lifecycle registrar.
var NewRegistrar = hook.NewRegistrar

// =============================================================================
// Types
// =============================================================================

type Store[K comparable] = hook.Store[K]
type Info[K comparable] = hook.Info[K]
type ValueBinding[K comparable] = hook.ValueBinding[K]
type CallbackBinding[K comparable] = hook.CallbackBinding[K]
type Binding = hook.Binding
type Source = hook.Source
type Owner = hook.Owner
type Registrar = hook.Registrar
type Target = hook.Target
type TargetFunc = hook.TargetFunc
type MapTarget = hook.MapTarget
type Combinator = hook.Combinator
type Observer = hook.Observer
type StoreOption = hook.StoreOption

// Store options
var WithName = hook.WithName
var WithRegistrar = hook.WithRegistrar
var WithObserver = hook.WithObserver
var WithLogger = hook.WithLogger

// WithValidator installs a write guard on a store.
func WithValidator[K comparable](fn func(op hook.Op, key K, value any) error) StoreOption {
	return hook.WithValidator(fn)
}

// Targets
var FieldTarget = hook.FieldTarget
var StoreTarget = hook.StoreTarget
var OwnedTarget = hook.OwnedTarget

// =============================================================================
// Errors
// =============================================================================

var (
	ErrAlreadyWrapped    = hook.ErrAlreadyWrapped
	ErrUnsupportedSource = hook.ErrUnsupportedSource
	ErrNotStore          = hook.ErrNotStore
	ErrNoKeys            = hook.ErrNoKeys
	ErrArity             = hook.ErrArity
	ErrKeyType           = hook.ErrKeyType
	ErrNilTarget         = hook.ErrNilTarget
	ErrNilCallback       = hook.ErrNilCallback
	ErrInvalidTarget     = hook.ErrInvalidTarget
	ErrWriteRejected     = hook.ErrWriteRejected
)
