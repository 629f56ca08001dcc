package hook

// Kind distinguishes the two binding variants.
type Kind uint8

const (
	KindValue Kind = iota + 1
	KindCallback
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Binding is a live subscription to one or more store keys.
// Bindings are created by Info.BindToValue and Info.BindToCallback.
type Binding interface {
	// ID returns a unique identifier for this binding.
	ID() uint64

	// Kind reports whether this is a value or a callback binding.
	Kind() Kind

	// Emit recomputes the bound value and delivers it.
	Emit()

	// Destroy unsubscribes the binding. It is idempotent.
	Destroy()

	// Destroyed reports whether Destroy has run.
	Destroyed() bool

	destroy(reason DestroyReason)
}

// Source is the type-erased view of an Info, used by layers that accept
// bindings on any store key type.
type Source interface {
	// CurrentValue computes the value the binding would deliver now.
	CurrentValue() any

	// BindValue creates a value binding assigning into dest[key].
	BindValue(dest Target, key string) Binding

	// BindFunc creates a callback binding attached to owner.
	BindFunc(fn func(any), owner *Owner) Binding
}

// Owned is implemented by destinations whose lifetime is an Owner scope.
// A value binding into an Owned destination is destroyed with that scope.
type Owned interface {
	Owner() *Owner
}

// lifecycleAttacher is implemented by destinations that tie bindings to
// their own lifetime in some other way, e.g. weak targets.
type lifecycleAttacher interface {
	attachLifecycle(r *Registrar, b Binding)
}

// liveness is implemented by destinations that can disappear.
type liveness interface {
	Alive() bool
}
