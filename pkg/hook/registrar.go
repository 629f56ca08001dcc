package hook

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"

	herrors "github.com/vango-dev/hookbind/internal/errors"
)

// Registrar ties the destruction of bindings to the end of life of their
// owners. For every attached binding it keeps the number of owners still
// holding it; when an owner goes away the count drops, and the binding is
// destroyed when the last owner is gone.
//
// Owners are either explicit *Owner scopes (released on Dispose) or
// arbitrary heap objects (released when the runtime collects them).
type Registrar struct {
	mu sync.Mutex

	// counts maps a binding ID to its outstanding-owner count.
	counts map[uint64]int

	// cancels holds, per binding, the functions that undo its pending
	// owner registrations.
	cancels map[uint64][]func()

	// unbound tracks callback bindings never given an owner. Only
	// populated in DebugMode.
	unbound map[uint64]Binding
}

// NewRegistrar creates an empty registrar.
func NewRegistrar() *Registrar {
	return &Registrar{
		counts:  make(map[uint64]int),
		cancels: make(map[uint64][]func()),
		unbound: make(map[uint64]Binding),
	}
}

var defaultRegistrar = NewRegistrar()

// DefaultRegistrar returns the process-wide registrar used by stores that
// were not given one with WithRegistrar.
func DefaultRegistrar() *Registrar {
	return defaultRegistrar
}

// Attach records that target must be released when owner is disposed and
// increments target's outstanding-owner count. Destroyed bindings are
// ignored.
func (r *Registrar) Attach(owner *Owner, target Binding) {
	if owner == nil || target == nil || target.Destroyed() {
		return
	}
	id := target.ID()

	r.mu.Lock()
	r.counts[id]++
	r.mu.Unlock()

	// A disposed owner runs the release immediately.
	cancel := owner.OnCleanup(func() { r.release(target) })
	r.track(id, cancel)
}

// AttachObject records that target must be released when the runtime
// collects obj, and increments target's outstanding-owner count. target
// must not keep obj reachable, or obj is never collected.
func AttachObject[T any](r *Registrar, obj *T, target Binding) {
	attachObject(r, obj, target, nil)
}

// objectRef is the cleanup argument of an object registration. keep stays
// reachable until obj is collected or the registration is cancelled.
type objectRef struct {
	target Binding
	keep   any
}

func attachObject[T any](r *Registrar, obj *T, target Binding, keep any) {
	if r == nil || obj == nil || target == nil || target.Destroyed() {
		return
	}
	id := target.ID()

	r.mu.Lock()
	r.counts[id]++
	r.mu.Unlock()

	c := runtime.AddCleanup(obj, func(ref objectRef) { r.release(ref.target) }, objectRef{target: target, keep: keep})
	r.track(id, c.Stop)
}

func (r *Registrar) track(id uint64, cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, live := r.counts[id]; live {
		r.cancels[id] = append(r.cancels[id], cancel)
	}
}

// DetachEarly cancels every pending owner registration of target and
// forgets its count. Bindings call it from Destroy so that an explicit
// destruction neither keeps them reachable from their owners nor lets a
// later owner release destroy them twice.
func (r *Registrar) DetachEarly(target Binding) {
	if target == nil {
		return
	}
	id := target.ID()

	r.mu.Lock()
	cancels := r.cancels[id]
	delete(r.cancels, id)
	delete(r.counts, id)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// release is the finalize handler run when one owner of target goes away.
// With two or more owners outstanding the count is decremented; otherwise
// target is destroyed.
func (r *Registrar) release(target Binding) {
	id := target.ID()

	r.mu.Lock()
	n, ok := r.counts[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	if n >= 2 {
		r.counts[id] = n - 1
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	target.destroy(ReasonOwnerReleased)
}

// Count returns the outstanding-owner count of target.
func (r *Registrar) Count(target Binding) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[target.ID()]
}

// Tracked returns the number of bindings with at least one owner.
func (r *Registrar) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.counts)
}

func (r *Registrar) markUnbound(b Binding) {
	if !DebugMode {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unbound[b.ID()] = b
}

func (r *Registrar) markBound(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unbound, b.ID())
}

// Unbound returns the callback bindings that were created in DebugMode and
// never attached to an owner nor destroyed, in creation order. Such
// bindings never auto-destroy.
func (r *Registrar) Unbound() []Binding {
	r.mu.Lock()
	out := make([]Binding, 0, len(r.unbound))
	for _, b := range r.unbound {
		out = append(out, b)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// UnboundCount returns len(Unbound()).
func (r *Registrar) UnboundCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unbound)
}

// ReportUnbound logs every unbound callback binding at warn level and
// returns how many there were.
func (r *Registrar) ReportUnbound(logger *slog.Logger) int {
	if logger == nil {
		logger = Logger()
	}
	unbound := r.Unbound()
	tmpl, _ := herrors.Lookup("H070")
	for _, b := range unbound {
		logger.Warn("hook: "+tmpl.Message, "binding", b.ID(), "code", "H070")
	}
	return len(unbound)
}
