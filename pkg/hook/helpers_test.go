package hook

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
)

// newTestStore wraps m with an isolated registrar and a capturing logger.
func newTestStore(t *testing.T, m map[string]any, opts ...StoreOption) (*Store[string], *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := []StoreOption{WithRegistrar(NewRegistrar()), WithLogger(logger), WithObserver(NopObserver{})}
	s, err := Wrap[string](m, append(base, opts...)...)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	return s, &buf
}

func mustKey(t *testing.T, s *Store[string], key string) *Info[string] {
	t.Helper()
	info, err := Key(s, key)
	if err != nil {
		t.Fatalf("Key(%q) error: %v", key, err)
	}
	return info
}

// recorder collects callback values.
type recorder struct {
	mu     sync.Mutex
	values []any
}

func (r *recorder) push(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) get() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.values...)
}

// eventLog is an Observer recording everything it sees.
type eventLog struct {
	mu       sync.Mutex
	writes   []WriteEvent
	emits    []EmitEvent
	destroys []DestroyEvent
	binds    []BindEvent
	done     int
}

func (l *eventLog) OnWrite(ev WriteEvent) func() {
	l.mu.Lock()
	l.writes = append(l.writes, ev)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.done++
		l.mu.Unlock()
	}
}

func (l *eventLog) OnEmit(ev EmitEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.emits = append(l.emits, ev)
}

func (l *eventLog) OnDestroy(ev DestroyEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.destroys = append(l.destroys, ev)
}

func (l *eventLog) OnBind(ev BindEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.binds = append(l.binds, ev)
}
