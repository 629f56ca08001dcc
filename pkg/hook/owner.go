package hook

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Owner is an explicit lifetime scope for bindings. When an Owner is
// disposed, its child owners are disposed and its cleanups run, which
// releases every binding attached to it.
//
// Owners form a hierarchy mirroring the view tree: disposing a node's owner
// retires the bindings of the whole subtree.
type Owner struct {
	id uint64

	// parent is nil for a root owner.
	parent *Owner

	// mu protects children, cleanups and retained.
	mu       sync.Mutex
	children []*Owner

	// cleanups are keyed by a per-owner sequence number so that they can be
	// cancelled individually and run in reverse registration order.
	cleanups   map[uint64]func()
	cleanupSeq uint64

	// retained keeps values alive for the lifetime of the owner.
	retained []any

	disposed atomic.Bool
}

// NewOwner creates a new Owner with the given parent.
// If parent is nil, creates a root Owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:       nextID(),
		parent:   parent,
		cleanups: make(map[uint64]func()),
	}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil if this is a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// addChild registers a child Owner. A child added to a disposed parent is
// disposed right away.
func (o *Owner) addChild(child *Owner) {
	o.mu.Lock()
	if o.disposed.Load() {
		o.mu.Unlock()
		child.Dispose()
		return
	}
	o.children = append(o.children, child)
	o.mu.Unlock()
}

func (o *Owner) removeChild(child *Owner) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run when this Owner is disposed and returns a
// function that unregisters it. On an already disposed Owner, fn runs
// immediately.
func (o *Owner) OnCleanup(fn func()) (cancel func()) {
	o.mu.Lock()
	if o.disposed.Load() {
		o.mu.Unlock()
		fn()
		return func() {}
	}
	o.cleanupSeq++
	seq := o.cleanupSeq
	o.cleanups[seq] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.cleanups, seq)
		o.mu.Unlock()
	}
}

// Cleanups returns the number of registered cleanups.
func (o *Owner) Cleanups() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.cleanups)
}

// retain keeps v reachable until the Owner is disposed.
func (o *Owner) retain(v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed.Load() {
		return
	}
	o.retained = append(o.retained, v)
}

// Dispose disposes this Owner and all its children, then runs its cleanups.
// Children are disposed in reverse order (last created first) and cleanups
// run in reverse registration order. Dispose is idempotent.
func (o *Owner) Dispose() {
	o.mu.Lock()
	if o.disposed.Swap(true) {
		o.mu.Unlock()
		return
	}
	children := o.children
	o.children = nil
	cleanups := o.cleanups
	o.cleanups = make(map[uint64]func())
	o.retained = nil
	o.mu.Unlock()

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	seqs := make([]uint64, 0, len(cleanups))
	for seq := range cleanups {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] > seqs[j] })
	for _, seq := range seqs {
		cleanups[seq]()
	}
}
