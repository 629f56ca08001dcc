package hook

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRegistrarExactCounting(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{})
	r := s.Registrar()
	cb := mustKey(t, s, "k").BindToCallback(func(any) {})

	owners := []*Owner{NewOwner(nil), NewOwner(nil), NewOwner(nil)}
	for _, o := range owners {
		cb.BindDestroy(o)
	}
	if got := r.Count(cb); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}

	for i, o := range owners {
		o.Dispose()
		last := i == len(owners)-1
		if cb.Destroyed() != last {
			t.Fatalf("after disposing owner %d: Destroyed() = %v, want %v", i, cb.Destroyed(), last)
		}
	}
	if r.Tracked() != 0 {
		t.Errorf("Tracked() = %d, want 0", r.Tracked())
	}
}

func TestRegistrarSameOwnerTwice(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{})
	cb := mustKey(t, s, "k").BindToCallback(func(any) {})

	owner := NewOwner(nil)
	cb.BindDestroy(owner).BindDestroy(owner)
	if got := s.Registrar().Count(cb); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}

	// Both registrations are released by the single Dispose.
	owner.Dispose()
	if !cb.Destroyed() {
		t.Error("binding should be destroyed")
	}
}

func TestRegistrarIgnoresDestroyed(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{})
	cb := mustKey(t, s, "k").BindToCallback(func(any) {})
	cb.Destroy()

	r := s.Registrar()
	r.Attach(NewOwner(nil), cb)
	AttachObject(r, &struct{ n int }{}, Binding(cb))
	if r.Tracked() != 0 {
		t.Errorf("Tracked() = %d, want 0", r.Tracked())
	}
}

func TestRegistrarReleaseAfterDetachIsNoop(t *testing.T) {
	var events eventLog
	s, _ := newTestStore(t, map[string]any{}, WithObserver(&events))
	r := s.Registrar()
	cb := mustKey(t, s, "k").BindToCallback(func(any) {})

	r.DetachEarly(cb)
	r.release(cb)
	if cb.Destroyed() {
		t.Error("release of an untracked binding destroyed it")
	}
}

func TestRegistrarUnboundTracking(t *testing.T) {
	DebugMode = true
	defer func() { DebugMode = false }()

	s, _ := newTestStore(t, map[string]any{})
	r := s.Registrar()

	loose := mustKey(t, s, "a").BindToCallback(func(any) {})
	owned := mustKey(t, s, "b").BindToCallback(func(any) {}).BindDestroy(NewOwner(nil))
	dropped := mustKey(t, s, "c").BindToCallback(func(any) {})
	dropped.Destroy()

	unbound := r.Unbound()
	if len(unbound) != 1 || unbound[0].ID() != loose.ID() {
		t.Fatalf("Unbound() = %v, want only binding %d", unbound, loose.ID())
	}
	if r.UnboundCount() != 1 {
		t.Errorf("UnboundCount() = %d, want 1", r.UnboundCount())
	}
	_ = owned

	var buf bytes.Buffer
	n := r.ReportUnbound(slog.New(slog.NewTextHandler(&buf, nil)))
	if n != 1 {
		t.Errorf("ReportUnbound() = %d, want 1", n)
	}
	if !strings.Contains(buf.String(), "code=H070") {
		t.Errorf("report missing code:\n%s", buf.String())
	}

	loose.Destroy()
	if r.UnboundCount() != 0 {
		t.Errorf("UnboundCount() = %d after Destroy, want 0", r.UnboundCount())
	}
}

func TestRegistrarUnboundOffByDefault(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{})
	cb := mustKey(t, s, "a").BindToCallback(func(any) {})
	defer cb.Destroy()

	if n := s.Registrar().UnboundCount(); n != 0 {
		t.Errorf("UnboundCount() = %d outside debug mode, want 0", n)
	}
}

func TestDefaultRegistrar(t *testing.T) {
	s, err := Wrap[string](map[string]any{})
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	defer s.Close()
	if s.Registrar() != DefaultRegistrar() {
		t.Error("store without WithRegistrar should use the default registrar")
	}
}
