package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	herrors "github.com/vango-dev/hookbind/internal/errors"
	"github.com/vango-dev/hookbind/pkg/hook"
)

// Config configures the inspector.
type Config struct {
	// Gatherer serves /metrics.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// Registrar is reported on /debug/unbound.
	// Default: hook.DefaultRegistrar()
	Registrar *hook.Registrar

	// AllowedOrigins lists extra origins allowed to open watch websockets.
	// "*" allows every origin. Same-origin requests are always allowed.
	AllowedOrigins []string

	// Logger receives connection logs.
	// Default: hook.Logger()
	Logger *slog.Logger

	// WriteTimeout bounds each websocket frame write.
	// Default: 10s
	WriteTimeout time.Duration

	// Buffer is the number of frames queued per watch connection before
	// new frames are dropped.
	// Default: 64
	Buffer int
}

// Option configures the inspector.
type Option func(*Config)

// WithGatherer sets the Prometheus gatherer served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Config) {
		c.Gatherer = g
	}
}

// WithRegistrar sets the registrar reported on /debug/unbound.
func WithRegistrar(r *hook.Registrar) Option {
	return func(c *Config) {
		c.Registrar = r
	}
}

// WithAllowedOrigins sets the extra origins allowed to open websockets.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *Config) {
		c.AllowedOrigins = origins
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithBuffer sets the per-connection frame queue length.
func WithBuffer(n int) Option {
	return func(c *Config) {
		c.Buffer = n
	}
}

// Server is the debug inspector.
type Server struct {
	config   Config
	registry *Registry
	router   chi.Router
	upgrader websocket.Upgrader

	conns atomic.Int64
}

// New creates an inspector serving the stores of registry.
func New(registry *Registry, opts ...Option) *Server {
	config := Config{
		Gatherer:     prometheus.DefaultGatherer,
		Registrar:    hook.DefaultRegistrar(),
		WriteTimeout: 10 * time.Second,
		Buffer:       64,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = hook.Logger()
	}
	if config.Buffer <= 0 {
		config.Buffer = 1
	}

	s := &Server{
		config:   config,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigins(config.AllowedOrigins),
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/debug/stores", s.handleStores)
	r.Get("/debug/stores/{name}", s.handleStore)
	r.Get("/debug/unbound", s.handleUnbound)
	r.Get("/ws/stores/{name}/{key}", s.handleWatch)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Connections returns the number of open watch connections.
func (s *Server) Connections() int {
	return int(s.conns.Load())
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.config.Logger.Info("inspector listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StoreInfo is an entry of /debug/stores.
type StoreInfo struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Keys        []string       `json:"keys"`
	Subscribers map[string]int `json:"subscribers"`
}

// UnboundInfo is the body of /debug/unbound.
type UnboundInfo struct {
	Count int      `json:"count"`
	IDs   []uint64 `json:"ids"`
}

func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	out := make([]StoreInfo, 0)
	for _, name := range s.registry.Names() {
		st, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		keys := st.Keys()
		sort.Strings(keys)
		subs := make(map[string]int)
		for _, k := range st.SubscribedKeys() {
			subs[k] = st.Subscribers(k)
		}
		out = append(out, StoreInfo{ID: st.ID(), Name: name, Keys: keys, Subscribers: subs})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	st, ok := s.registry.Get(name)
	if !ok {
		unknownStore(w, "inspect.store", name)
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) handleUnbound(w http.ResponseWriter, r *http.Request) {
	unbound := s.config.Registrar.Unbound()
	info := UnboundInfo{Count: len(unbound), IDs: make([]uint64, len(unbound))}
	for i, b := range unbound {
		info.IDs[i] = b.ID()
	}
	writeJSON(w, http.StatusOK, info)
}

// unknownStore answers 404 with an H095 error body.
func unknownStore(w http.ResponseWriter, op, name string) {
	writeJSON(w, http.StatusNotFound, herrors.New("H095").
		WithOp(op).
		WithDetail("no store named "+strconv.Quote(name)+" is registered"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
