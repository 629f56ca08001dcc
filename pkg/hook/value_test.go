package hook

import (
	"errors"
	"strings"
	"testing"
)

func TestValueBindingAssigns(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{"a": 1, "b": 2})
	sum, err := Computed(s, func(a, b int) int { return a + b }, "a", "b")
	if err != nil {
		t.Fatalf("Computed() error: %v", err)
	}

	dest := MapTarget{}
	b := sum.BindToValue(dest, "total")
	defer b.Destroy()

	if _, ok := dest["total"]; ok {
		t.Fatal("binding emitted on creation")
	}
	b.Emit()
	if dest["total"] != 3 {
		t.Errorf("dest[total] = %v, want 3", dest["total"])
	}

	s.Set("a", 5)
	if dest["total"] != 7 {
		t.Errorf("dest[total] = %v, want 7", dest["total"])
	}
	s.Set("b", 10)
	if dest["total"] != 15 {
		t.Errorf("dest[total] = %v, want 15", dest["total"])
	}

	if b.Key() != "total" || b.Info() != sum || b.Kind() != KindValue {
		t.Error("accessors returned unexpected values")
	}
}

func TestValueBindingDestroy(t *testing.T) {
	var events eventLog
	s, _ := newTestStore(t, map[string]any{"a": 1}, WithObserver(&events))
	dest := MapTarget{}
	b := mustKey(t, s, "a").BindToValue(dest, "a")

	b.Destroy()
	b.Destroy()

	if !b.Destroyed() {
		t.Fatal("Destroyed() = false after Destroy")
	}
	if len(events.destroys) != 1 {
		t.Errorf("got %d destroy events, want 1", len(events.destroys))
	}

	s.Set("a", 2)
	if _, ok := dest["a"]; ok {
		t.Error("destroyed binding assigned a value")
	}

	// Manual pushes still work after destruction.
	b.Emit()
	if dest["a"] != 2 {
		t.Errorf("dest[a] = %v, want 2 after manual Emit", dest["a"])
	}
}

func TestValueBindingAssignError(t *testing.T) {
	var events eventLog
	s, logs := newTestStore(t, map[string]any{"a": 1}, WithObserver(&events))

	failing := TargetFunc(func(key string, value any) error {
		return errors.New("destination is read-only")
	})
	dest := MapTarget{}
	bad := mustKey(t, s, "a").BindToValue(failing, "a")
	good := mustKey(t, s, "a").BindToValue(dest, "a")
	defer bad.Destroy()
	defer good.Destroy()

	if err := s.Set("a", 2); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if dest["a"] != 2 {
		t.Errorf("healthy binding got %v, want 2", dest["a"])
	}

	var cerr *CallbackError
	if len(events.emits) != 2 || !errors.As(events.emits[0].Err, &cerr) {
		t.Fatalf("emits = %+v, want the first to carry a *CallbackError", events.emits)
	}
	if cerr.Code() != "H051" || cerr.Key != "a" || cerr.BindingID != bad.ID() {
		t.Errorf("CallbackError = %+v", cerr)
	}
	if !strings.Contains(logs.String(), "destination is read-only") {
		t.Errorf("assignment failure not logged:\n%s", logs.String())
	}
}

func TestValueBindingCombinatorFailure(t *testing.T) {
	var events eventLog
	s, _ := newTestStore(t, map[string]any{"a": 1}, WithObserver(&events))
	info, _ := Computed(s, func(a int) int { return 10 / a }, "a")

	dest := MapTarget{}
	b := info.BindToValue(dest, "q")
	defer b.Destroy()

	s.Set("a", 0)
	if _, ok := dest["q"]; ok {
		t.Error("failed combinator still assigned")
	}
	var cerr *CallbackError
	if len(events.emits) != 1 || !errors.As(events.emits[0].Err, &cerr) || !cerr.InCombinator {
		t.Fatalf("emits = %+v, want a combinator failure", events.emits)
	}
	if cerr.Code() != "H052" {
		t.Errorf("Code() = %q, want H052", cerr.Code())
	}
}

func TestValueBindingIntoStore(t *testing.T) {
	src, _ := newTestStore(t, map[string]any{"first": "Ada", "last": "Lovelace"})
	dst, _ := newTestStore(t, map[string]any{})

	full, _ := Computed(src, func(f, l string) string { return f + " " + l }, "first", "last")
	b := full.BindToValue(StoreTarget(dst), "name")
	defer b.Destroy()

	var rec recorder
	cb := mustKey(t, dst, "name").BindToCallback(rec.push)
	defer cb.Destroy()

	src.Set("first", "Augusta")
	if dst.Value("name") != "Augusta Lovelace" {
		t.Errorf("dst[name] = %v", dst.Value("name"))
	}
	if got := rec.get(); len(got) != 1 || got[0] != "Augusta Lovelace" {
		t.Errorf("chained store subscriber got %v", got)
	}
}

func TestValueBindingOwnedTarget(t *testing.T) {
	var events eventLog
	s, _ := newTestStore(t, map[string]any{"a": 1}, WithObserver(&events))
	owner := NewOwner(nil)

	dest := MapTarget{}
	b := mustKey(t, s, "a").BindToValue(OwnedTarget(dest, owner), "a")
	if got := s.Registrar().Count(b); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}

	s.Set("a", 2)
	owner.Dispose()

	if !b.Destroyed() {
		t.Fatal("value binding should die with its target's owner")
	}
	if events.destroys[0].Reason != ReasonOwnerReleased {
		t.Errorf("Reason = %v, want owner_released", events.destroys[0].Reason)
	}

	// A manual push into a disposed target is skipped.
	b.Emit()
	if dest["a"] != 2 {
		t.Errorf("dest[a] = %v, want 2", dest["a"])
	}
	last := events.emits[len(events.emits)-1]
	if !last.Skipped {
		t.Error("emit into disposed target should be skipped")
	}
}
