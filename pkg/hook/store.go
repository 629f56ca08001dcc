package hook

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sort"
	"sync"
	"weak"
)

// wrappedMaps records the backing maps owned by live stores, keyed by map
// address, as *mapClaim values. Entries are dropped when their store is
// closed or its cleanup runs. A map address can be reused once the old store
// is unreachable, which may happen before that cleanup; the claim's weak
// liveness check lets a new map take over such an entry.
var wrappedMaps sync.Map

type mapClaim struct {
	id    uint64
	alive func() bool
}

// claimMap records c as the owner of the map at p. It fails while another
// live store holds p.
func claimMap(p uintptr, c *mapClaim) bool {
	for {
		old, loaded := wrappedMaps.LoadOrStore(p, c)
		if !loaded {
			return true
		}
		prev := old.(*mapClaim)
		if prev.alive() {
			return false
		}
		if wrappedMaps.CompareAndSwap(p, prev, c) {
			return true
		}
	}
}

// wrapped is the marker implemented by every Store instantiation.
type wrapped interface {
	isHookStore()
}

// Store is an observable map. Reads pass through to the backing map; writes
// and deletes are intercepted and reported to the bindings subscribed to
// the written key.
type Store[K comparable] struct {
	id   uint64
	name string

	// mu protects values and subs.
	mu     sync.RWMutex
	values map[K]any

	// subs maps a key to the bindings subscribed to it. A key is present
	// only while at least one binding subscribes to it.
	subs map[K]map[uint64]Binding

	backing   uintptr
	claim     *mapClaim
	validator func(Op, K, any) error
	registrar *Registrar
	observer  Observer
	logger    *slog.Logger
}

func (s *Store[K]) isHookStore() {}

// Wrap turns obj into an observable store.
//
// obj must be a map[K]any (nil creates an empty store). The map is adopted,
// not copied: writing to it directly afterwards bypasses notification.
// Wrapping a store, or a map that a live store already wraps, fails with
// ErrAlreadyWrapped.
func Wrap[K comparable](obj any, opts ...StoreOption) (*Store[K], error) {
	const op = "hook.Wrap"

	var values map[K]any
	switch src := obj.(type) {
	case wrapped:
		return nil, newUsageError(op, ErrAlreadyWrapped, fmt.Sprintf("%T", obj))
	case nil:
		values = make(map[K]any)
	case map[K]any:
		values = src
		if values == nil {
			values = make(map[K]any)
		}
	default:
		return nil, newUsageError(op, ErrUnsupportedSource, fmt.Sprintf("%T", obj))
	}

	var cfg storeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store[K]{
		id:        nextID(),
		name:      cfg.name,
		values:    values,
		subs:      make(map[K]map[uint64]Binding),
		registrar: cfg.registrar,
		observer:  cfg.observer,
		logger:    cfg.logger,
	}
	if cfg.validator != nil {
		fn, ok := cfg.validator.(func(Op, K, any) error)
		if !ok {
			return nil, newUsageError(op, ErrKeyType, fmt.Sprintf("validator %T", cfg.validator))
		}
		s.validator = fn
	}
	if s.name == "" {
		s.name = fmt.Sprintf("store-%d", s.id)
	}
	if s.registrar == nil {
		s.registrar = DefaultRegistrar()
	}

	s.backing = reflect.ValueOf(values).Pointer()
	wp := weak.Make(s)
	s.claim = &mapClaim{id: s.id, alive: func() bool { return wp.Value() != nil }}
	if !claimMap(s.backing, s.claim) {
		return nil, newUsageError(op, ErrAlreadyWrapped, "backing map is owned by another store")
	}
	claim, backing := s.claim, s.backing
	runtime.AddCleanup(s, func(p uintptr) {
		wrappedMaps.CompareAndDelete(p, claim)
	}, backing)

	return s, nil
}

// MustWrap is like Wrap but panics on error.
func MustWrap[K comparable](m map[K]any, opts ...StoreOption) *Store[K] {
	s, err := Wrap[K](m, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the unique identifier for this store.
func (s *Store[K]) ID() uint64 {
	return s.id
}

// Name returns the store name.
func (s *Store[K]) Name() string {
	return s.name
}

// Registrar returns the lifecycle registrar used by this store's bindings.
func (s *Store[K]) Registrar() *Registrar {
	return s.registrar
}

// Get returns the value stored under key.
func (s *Store[K]) Get(key K) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil.
func (s *Store[K]) Value(key K) any {
	v, _ := s.Get(key)
	return v
}

// Has reports whether key is present.
func (s *Store[K]) Has(key K) bool {
	_, ok := s.Get(key)
	return ok
}

// Len returns the number of keys in the store.
func (s *Store[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Keys returns the keys of the store in unspecified order.
func (s *Store[K]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]K, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a copy of the store's values.
func (s *Store[K]) Snapshot() map[K]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[K]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Set stores value under key and emits every binding subscribed to key.
// All subscribers have run when Set returns. A write with an unchanged
// value still notifies.
func (s *Store[K]) Set(key K, value any) error {
	if err := s.validate(OpSet, key, value); err != nil {
		return err
	}

	s.mu.Lock()
	s.values[key] = value
	subs := s.subscribersLocked(key)
	s.mu.Unlock()

	s.fanOut(OpSet, key, subs)
	return nil
}

// Update replaces the value under key with fn(old). fn runs without any
// store lock held, so the read and the write are not atomic with respect to
// other goroutines.
func (s *Store[K]) Update(key K, fn func(old any) any) error {
	return s.Set(key, fn(s.Value(key)))
}

// Delete removes key and destroys every binding subscribed to it. Bindings
// are destroyed even when key was absent.
func (s *Store[K]) Delete(key K) error {
	if err := s.validate(OpDelete, key, nil); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.values, key)
	subs := s.subscribersLocked(key)
	delete(s.subs, key)
	s.mu.Unlock()

	s.fanOut(OpDelete, key, subs)
	return nil
}

// Close destroys every binding on the store and releases the backing map so
// it can be wrapped again. The store stays readable and writable.
func (s *Store[K]) Close() {
	s.mu.Lock()
	var all []Binding
	seen := make(map[uint64]bool)
	for _, set := range s.subs {
		for id, b := range set {
			if !seen[id] {
				seen[id] = true
				all = append(all, b)
			}
		}
	}
	s.subs = make(map[K]map[uint64]Binding)
	s.mu.Unlock()

	sortBindings(all)
	for _, b := range all {
		b.destroy(ReasonStoreClosed)
	}
	wrappedMaps.CompareAndDelete(s.backing, s.claim)
}

// Subscribers returns the number of bindings subscribed to key.
func (s *Store[K]) Subscribers(key K) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[key])
}

// SubscribedKeys returns the keys that currently have subscribers.
func (s *Store[K]) SubscribedKeys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]K, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	return keys
}

// subscribe adds b to the subscriber set of every key.
func (s *Store[K]) subscribe(keys []K, b Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		set := s.subs[k]
		if set == nil {
			set = make(map[uint64]Binding)
			s.subs[k] = set
		}
		set[b.ID()] = b
	}
}

// unsubscribe removes b from every key, pruning emptied sets.
func (s *Store[K]) unsubscribe(keys []K, b Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		set := s.subs[k]
		if set == nil {
			continue
		}
		delete(set, b.ID())
		if len(set) == 0 {
			delete(s.subs, k)
		}
	}
}

// subscribersLocked copies the subscriber set of key. Caller holds mu.
func (s *Store[K]) subscribersLocked(key K) []Binding {
	set := s.subs[key]
	if len(set) == 0 {
		return nil
	}
	out := make([]Binding, 0, len(set))
	for _, b := range set {
		out = append(out, b)
	}
	sortBindings(out)
	return out
}

// fanOut delivers a write to a snapshot of the key's subscribers. Bindings
// destroyed by an earlier subscriber of the same write are skipped.
func (s *Store[K]) fanOut(op Op, key K, subs []Binding) {
	done := s.obs().OnWrite(WriteEvent{
		StoreID:     s.id,
		Store:       s.name,
		Key:         fmt.Sprint(key),
		Op:          op,
		Subscribers: len(subs),
	})

	for _, b := range subs {
		if op == OpDelete {
			b.destroy(ReasonKeyDeleted)
			continue
		}
		if b.Destroyed() {
			continue
		}
		b.Emit()
	}

	if done != nil {
		done()
	}
}

func (s *Store[K]) validate(op Op, key K, value any) error {
	if s.validator == nil {
		return nil
	}
	if err := s.validator(op, key, value); err != nil {
		return fmt.Errorf("%w: %s %v: %w", ErrWriteRejected, op, key, err)
	}
	return nil
}

func (s *Store[K]) obs() Observer {
	if s.observer != nil {
		return s.observer
	}
	return defaultObserver()
}

func (s *Store[K]) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return Logger()
}

func sortBindings(bs []Binding) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].ID() < bs[j].ID() })
}
