package hook

import (
	"sync/atomic"
)

// ValueBinding assigns the bound value into a single key of a destination
// on every write to an observed key.
type ValueBinding[K comparable] struct {
	id        uint64
	info      *Info[K]
	target    Target
	key       string
	destroyed atomic.Bool
}

func newValueBinding[K comparable](info *Info[K], target Target, key string) *ValueBinding[K] {
	b := &ValueBinding[K]{
		id:     nextID(),
		info:   info,
		target: target,
		key:    key,
	}
	info.addSubscriber(b)

	r := info.store.registrar
	switch t := target.(type) {
	case Owned:
		if o := t.Owner(); o != nil {
			r.Attach(o, b)
		}
	case lifecycleAttacher:
		t.attachLifecycle(r, b)
	}

	info.store.obs().OnBind(BindEvent{
		BindingID: b.id,
		Kind:      KindValue,
		StoreID:   info.store.id,
		Store:     info.store.name,
		Keys:      info.keyStrings(),
	})
	return b
}

// ID returns the unique identifier for this binding.
func (b *ValueBinding[K]) ID() uint64 {
	return b.id
}

// Kind returns KindValue.
func (b *ValueBinding[K]) Kind() Kind {
	return KindValue
}

// Info returns the descriptor this binding was built from.
func (b *ValueBinding[K]) Info() *Info[K] {
	return b.info
}

// Key returns the destination key.
func (b *ValueBinding[K]) Key() string {
	return b.key
}

// Emit assigns the current value to the destination. A destination that is
// gone makes this a no-op. Assignment failures are reported, not returned.
// Emit still works after Destroy, for callers that push values manually.
func (b *ValueBinding[K]) Emit() {
	s := b.info.store
	ev := EmitEvent{BindingID: b.id, Kind: KindValue, StoreID: s.id, Store: s.name}

	if l, ok := b.target.(liveness); ok && !l.Alive() {
		ev.Skipped = true
		if DebugMode {
			s.log().Debug("hook: value binding target gone", "binding", b.id, "key", b.key)
		}
		s.obs().OnEmit(ev)
		return
	}

	if err := b.assign(); err != nil {
		ev.Err = err
		s.log().Error("hook: binding emit failed",
			"binding", b.id,
			"kind", KindValue.String(),
			"store", s.name,
			"code", err.Code(),
			"error", err,
		)
	}
	s.obs().OnEmit(ev)
}

func (b *ValueBinding[K]) assign() (cerr *CallbackError) {
	defer func() {
		if r := recover(); r != nil {
			cerr = &CallbackError{BindingID: b.id, Kind: KindValue, Key: b.key, Panic: r}
		}
	}()

	v, err := b.info.compute()
	if err != nil {
		return &CallbackError{BindingID: b.id, Kind: KindValue, Key: b.key, Err: err, InCombinator: true}
	}
	if err := b.target.Assign(b.key, v); err != nil {
		return &CallbackError{BindingID: b.id, Kind: KindValue, Key: b.key, Err: err}
	}
	return nil
}

// Destroy unsubscribes the binding and cancels its lifecycle bookkeeping.
// It is idempotent.
func (b *ValueBinding[K]) Destroy() {
	b.destroy(ReasonExplicit)
}

// Destroyed reports whether the binding has been destroyed.
func (b *ValueBinding[K]) Destroyed() bool {
	return b.destroyed.Load()
}

func (b *ValueBinding[K]) destroy(reason DestroyReason) {
	if b.destroyed.Swap(true) {
		return
	}
	s := b.info.store
	b.info.removeSubscriber(b)
	s.registrar.DetachEarly(b)
	s.obs().OnDestroy(DestroyEvent{
		BindingID: b.id,
		Kind:      KindValue,
		StoreID:   s.id,
		Store:     s.name,
		Reason:    reason,
	})
}
