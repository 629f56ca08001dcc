package hook

import (
	"errors"
	"fmt"

	herrors "github.com/vango-dev/hookbind/internal/errors"
)

// Usage errors. They are returned wrapped in a *UsageError.
var (
	ErrAlreadyWrapped    = errors.New("hook: store already wrapped")
	ErrUnsupportedSource = errors.New("hook: unsupported store source")
	ErrNotStore          = errors.New("hook: values can only be bound from stores")
	ErrNoKeys            = errors.New("hook: no keys given")
	ErrArity             = errors.New("hook: key and combinator arity mismatch")
	ErrKeyType           = errors.New("hook: key has the wrong type")
	ErrNilTarget         = errors.New("hook: nil binding target")
	ErrNilCallback       = errors.New("hook: nil callback")
	ErrInvalidTarget     = errors.New("hook: invalid field target")
)

// ErrWriteRejected is returned by Set, Update and Delete when the store's
// validator refuses the write.
var ErrWriteRejected = errors.New("hook: write rejected")

var usageCodes = map[error]string{
	ErrAlreadyWrapped:    "H001",
	ErrUnsupportedSource: "H002",
	ErrNotStore:          "H003",
	ErrNoKeys:            "H004",
	ErrArity:             "H005",
	ErrKeyType:           "H006",
	ErrNilTarget:         "H007",
	ErrNilCallback:       "H008",
	ErrWriteRejected:     "H009",
	ErrInvalidTarget:     "H010",
}

// UsageError reports misuse of the engine API. It is fatal to the call that
// returned it and to nothing else.
type UsageError struct {
	// Op is the failing API call, e.g. "hook.Wrap".
	Op string

	// Err is one of the Err* sentinels of this package.
	Err error

	// Detail adds call-specific context, e.g. the offending type.
	Detail string
}

func newUsageError(op string, err error, detail string) *UsageError {
	return &UsageError{Op: op, Err: err, Detail: detail}
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the sentinel for errors.Is support.
func (e *UsageError) Unwrap() error {
	return e.Err
}

// Code returns the registered error code, e.g. "H001".
func (e *UsageError) Code() string {
	return usageCodes[e.Err]
}

// Describe returns the structured, printable form of the error.
func (e *UsageError) Describe() *herrors.HookError {
	he := herrors.New(e.Code()).WithOp(e.Op)
	if e.Detail != "" {
		he = he.WithDetail(he.Detail + " Got: " + e.Detail + ".")
	}
	return he
}

// CallbackError reports a subscriber that failed while a value was being
// delivered. It is logged and passed to the Observer, never returned to the
// writer.
type CallbackError struct {
	// BindingID identifies the failing binding.
	BindingID uint64

	// Kind is the kind of the failing binding.
	Kind Kind

	// Key is the destination key of a value binding, empty for callbacks.
	Key string

	// Err is the error returned by the destination, if any.
	Err error

	// Panic is the recovered panic value, if the subscriber panicked.
	Panic any

	// InCombinator is true when the binding's combinator failed before
	// anything was delivered.
	InCombinator bool
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	what := "callback"
	if e.Kind == KindValue {
		what = fmt.Sprintf("assignment to %q", e.Key)
	}
	if e.InCombinator {
		what = "combinator"
	}
	if e.Panic != nil {
		return fmt.Sprintf("hook: binding %d: %s panicked: %v", e.BindingID, what, e.Panic)
	}
	return fmt.Sprintf("hook: binding %d: %s failed: %v", e.BindingID, what, e.Err)
}

// Unwrap returns the underlying error.
func (e *CallbackError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// Code returns the registered error code.
func (e *CallbackError) Code() string {
	switch {
	case e.InCombinator:
		return "H052"
	case e.Kind == KindValue:
		return "H051"
	default:
		return "H050"
	}
}

// Describe returns the structured, printable form of the error.
func (e *CallbackError) Describe() *herrors.HookError {
	return herrors.New(e.Code()).Wrap(e)
}
