package hook

import (
	"sync"
	"sync/atomic"
	"weak"
)

// callbackSlot boxes a callback so it can be referenced weakly.
type callbackSlot struct {
	fn func(any)
}

// CallbackBinding calls a function with the bound value on every write to
// an observed key.
//
// Until BindDestroy is called the binding holds its callback strongly.
// BindDestroy hands the strong reference to the owner and keeps only a
// weak one, so the callback lives exactly as long as some owner does.
type CallbackBinding[K comparable] struct {
	id   uint64
	info *Info[K]

	// mu protects strong and weak.
	mu     sync.Mutex
	strong *callbackSlot
	weak   weak.Pointer[callbackSlot]

	destroyed atomic.Bool
}

func newCallbackBinding[K comparable](info *Info[K], fn func(any)) *CallbackBinding[K] {
	slot := &callbackSlot{fn: fn}
	b := &CallbackBinding[K]{
		id:     nextID(),
		info:   info,
		strong: slot,
		weak:   weak.Make(slot),
	}
	info.addSubscriber(b)
	info.store.registrar.markUnbound(b)

	info.store.obs().OnBind(BindEvent{
		BindingID: b.id,
		Kind:      KindCallback,
		StoreID:   info.store.id,
		Store:     info.store.name,
		Keys:      info.keyStrings(),
	})
	return b
}

// ID returns the unique identifier for this binding.
func (b *CallbackBinding[K]) ID() uint64 {
	return b.id
}

// Kind returns KindCallback.
func (b *CallbackBinding[K]) Kind() Kind {
	return KindCallback
}

// Info returns the descriptor this binding was built from.
func (b *CallbackBinding[K]) Info() *Info[K] {
	return b.info
}

// BindDestroy ties the binding to owner: the owner keeps the callback
// alive, and the binding is destroyed once every owner it was attached to
// has been disposed. It may be called with several owners. Returns b.
func (b *CallbackBinding[K]) BindDestroy(owner *Owner) *CallbackBinding[K] {
	if owner == nil || b.Destroyed() {
		return b
	}

	b.mu.Lock()
	slot := b.strong
	if slot == nil {
		slot = b.weak.Value()
	}
	b.strong = nil
	b.mu.Unlock()

	if slot != nil {
		owner.retain(slot)
	}
	r := b.info.store.registrar
	r.markBound(b)
	r.Attach(owner, b)
	return b
}

// BindDestroyObject ties b to the lifetime of obj: b is released when the
// runtime collects obj. The registration keeps the callback alive until
// then, even after every owner given to BindDestroy is disposed, so the
// callback must not reference obj.
func BindDestroyObject[K comparable, T any](b *CallbackBinding[K], obj *T) *CallbackBinding[K] {
	if obj == nil || b.Destroyed() {
		return b
	}
	b.mu.Lock()
	slot := b.strong
	if slot == nil {
		slot = b.weak.Value()
	}
	b.mu.Unlock()

	r := b.info.store.registrar
	r.markBound(b)
	attachObject(r, obj, Binding(b), slot)
	return b
}

// Emit calls the callback with the current value. A collected callback
// makes this a no-op. Panics are recovered and reported, never propagated.
func (b *CallbackBinding[K]) Emit() {
	s := b.info.store
	ev := EmitEvent{BindingID: b.id, Kind: KindCallback, StoreID: s.id, Store: s.name}

	slot := b.slot()
	if slot == nil {
		ev.Skipped = true
		if DebugMode {
			s.log().Debug("hook: callback collected", "binding", b.id)
		}
		s.obs().OnEmit(ev)
		return
	}

	if err := b.call(slot); err != nil {
		ev.Err = err
		s.log().Error("hook: binding emit failed",
			"binding", b.id,
			"kind", KindCallback.String(),
			"store", s.name,
			"code", err.Code(),
			"error", err,
		)
	}
	s.obs().OnEmit(ev)
}

func (b *CallbackBinding[K]) slot() *callbackSlot {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.strong != nil {
		return b.strong
	}
	return b.weak.Value()
}

func (b *CallbackBinding[K]) call(slot *callbackSlot) (cerr *CallbackError) {
	defer func() {
		if r := recover(); r != nil {
			cerr = &CallbackError{BindingID: b.id, Kind: KindCallback, Panic: r}
		}
	}()

	v, err := b.info.compute()
	if err != nil {
		return &CallbackError{BindingID: b.id, Kind: KindCallback, Err: err, InCombinator: true}
	}
	slot.fn(v)
	return nil
}

// Destroy unsubscribes the binding, cancels its lifecycle bookkeeping and
// drops it from the unbound set. It is idempotent.
func (b *CallbackBinding[K]) Destroy() {
	b.destroy(ReasonExplicit)
}

// Destroyed reports whether the binding has been destroyed.
func (b *CallbackBinding[K]) Destroyed() bool {
	return b.destroyed.Load()
}

func (b *CallbackBinding[K]) destroy(reason DestroyReason) {
	if b.destroyed.Swap(true) {
		return
	}
	s := b.info.store
	b.info.removeSubscriber(b)
	s.registrar.DetachEarly(b)
	s.registrar.markBound(b)
	s.obs().OnDestroy(DestroyEvent{
		BindingID: b.id,
		Kind:      KindCallback,
		StoreID:   s.id,
		Store:     s.name,
		Reason:    reason,
	})
}
