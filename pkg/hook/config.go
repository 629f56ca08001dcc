package hook

import (
	"log/slog"
	"sync/atomic"
)

// DebugMode enables development-time diagnostics.
// When true:
//   - Callback bindings that were never attached to an owner are tracked in
//     the registrar's unbound set
//   - Skipped emissions are logged at debug level
//
// Set this at startup, before any binding is created.
var DebugMode bool

var (
	packageLogger   atomic.Pointer[slog.Logger]
	packageObserver atomic.Pointer[observerHolder]
)

type observerHolder struct {
	obs Observer
}

// SetLogger sets the logger used by stores that were not given one with
// WithLogger. Passing nil restores slog.Default().
func SetLogger(l *slog.Logger) {
	packageLogger.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	if l := packageLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// SetObserver sets the observer used by stores that were not given one with
// WithObserver. Passing nil disables package-level observation.
func SetObserver(o Observer) {
	if o == nil {
		packageObserver.Store(nil)
		return
	}
	packageObserver.Store(&observerHolder{obs: o})
}

func defaultObserver() Observer {
	if h := packageObserver.Load(); h != nil {
		return h.obs
	}
	return NopObserver{}
}

// StoreOption configures a Store created by Wrap.
type StoreOption func(*storeConfig)

type storeConfig struct {
	name      string
	registrar *Registrar
	observer  Observer
	logger    *slog.Logger
	validator any
}

// WithName names the store for logs, metrics and the debug inspector.
func WithName(name string) StoreOption {
	return func(c *storeConfig) {
		c.name = name
	}
}

// WithRegistrar sets the lifecycle registrar used by the store's bindings.
// Default: DefaultRegistrar().
func WithRegistrar(r *Registrar) StoreOption {
	return func(c *storeConfig) {
		c.registrar = r
	}
}

// WithObserver sets the observer notified of the store's writes, emissions
// and destructions. Default: the package observer (see SetObserver).
func WithObserver(o Observer) StoreOption {
	return func(c *storeConfig) {
		c.observer = o
	}
}

// WithLogger sets the logger used to report failing bindings.
// Default: the package logger (see SetLogger).
func WithLogger(l *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = l
	}
}

// WithValidator installs a write guard. The validator runs before every Set
// and Delete; a non-nil error rejects the write, leaves the value unchanged
// and notifies nobody. The key type of fn must match the store's key type.
func WithValidator[K comparable](fn func(op Op, key K, value any) error) StoreOption {
	return func(c *storeConfig) {
		c.validator = fn
	}
}
