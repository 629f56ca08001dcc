// Package hook provides the hook-binding engine for hookbind.
//
// The engine lets view nodes subscribe to writes on plain data containers
// without manual wiring. It has four parts:
//
//   - Store[K] wraps a map so reads pass through untouched while writes and
//     deletes are intercepted and reported to the bindings subscribed to the
//     written key.
//   - Info[K] describes what to observe: one or more keys of a store and an
//     optional combinator deriving a single value from them.
//   - ValueBinding and CallbackBinding push the derived value into a
//     destination field or a callback every time a subscribed key is written.
//   - Registrar and Owner tie the destruction of bindings to the end of life
//     of the objects that use them, so subscriptions never outlive their
//     consumers.
//
// # Usage
//
//	s, _ := hook.Wrap[string](map[string]any{"count": 0})
//	info, _ := hook.Key(s, "count")
//
//	owner := hook.NewOwner(nil)
//	info.BindToCallback(func(v any) {
//	    fmt.Println("count is", v)
//	}).BindDestroy(owner)
//
//	s.Set("count", 1) // prints "count is 1"
//	owner.Dispose()   // binding destroyed
//	s.Set("count", 2) // nothing printed
//
// Combinators derive a value from several keys:
//
//	sum, _ := hook.Computed(s, func(a, b int) int { return a + b }, "a", "b")
//
// # Delivery
//
// Every successful write emits all bindings subscribed to the key
// synchronously, before Set returns. There is no batching and no ordering
// guarantee between subscribers of the same key. Deleting a key destroys its
// bindings instead of emitting them.
//
// A failing subscriber (an assignment error or a panicking callback) is
// logged and reported to the configured Observer; it never stops the other
// subscribers of the same write and never reaches the writer.
//
// # Lifecycle
//
// Bindings attached to an Owner are destroyed when every owner they were
// attached to has been disposed. Bindings attached to an arbitrary object
// with AttachObject or BindDestroyObject are released when the runtime
// collects that object. A binding that is never attached anywhere lives
// until Destroy is called; with DebugMode enabled such callback bindings
// are tracked and can be listed with Registrar.Unbound.
//
// # Thread Safety
//
// The engine is meant to be driven from one logical thread of control.
// Stores and the registrar still guard their tables with mutexes, so
// collection-driven cleanups and debug readers from other goroutines never
// observe torn state. Emission always runs outside store locks.
package hook
