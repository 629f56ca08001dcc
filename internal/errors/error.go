package errors

import (
	"encoding/json"
	"errors"
)

// Category groups error codes.
type Category string

const (
	CategoryUsage     Category = "usage"
	CategoryCallback  Category = "callback"
	CategoryLifecycle Category = "lifecycle"
	CategoryConfig    Category = "config"
	CategoryInspect   Category = "inspect"
	CategoryBench     Category = "bench"
)

// HookError is an error carrying a registered code.
type HookError struct {
	// Code identifies the template, e.g. "H001".
	Code string

	Category Category

	// Message is the one-line summary from the template.
	Message string

	// Detail explains the failure. New fills it from the template;
	// WithDetail replaces it with something specific.
	Detail string

	// Op names the failing call, e.g. "hook.Wrap".
	Op string

	// Suggestion is a fix hint.
	Suggestion string

	DocURL string

	// Wrapped is the cause, if any.
	Wrapped error
}

// Error renders "code: op: message: cause", omitting empty parts.
func (e *HookError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *HookError) Unwrap() error {
	return e.Wrapped
}

// WithOp records the failing operation.
func (e *HookError) WithOp(op string) *HookError {
	e.Op = op
	return e
}

// WithSuggestion adds a fix hint.
func (e *HookError) WithSuggestion(s string) *HookError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the template detail.
func (e *HookError) WithDetail(d string) *HookError {
	e.Detail = d
	return e
}

// Wrap records the cause.
func (e *HookError) Wrap(err error) *HookError {
	e.Wrapped = err
	return e
}

// New creates a HookError from a registered code. Unregistered codes give
// an "Unknown error" with no category.
func New(code string) *HookError {
	t, ok := registry[code]
	if !ok {
		return &HookError{Code: code, Message: "Unknown error"}
	}
	return &HookError{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		Detail:   t.Detail,
		DocURL:   t.DocURL,
	}
}

// CodeOf returns the code of the first HookError in err's chain, or "".
func CodeOf(err error) string {
	var he *HookError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category,omitempty"`
	Message    string   `json:"message"`
	Op         string   `json:"op,omitempty"`
	Detail     string   `json:"detail,omitempty"`
	Cause      string   `json:"cause,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	DocURL     string   `json:"doc_url,omitempty"`
}

// MarshalJSON encodes the error for HTTP responses and JSON logs. The cause
// is flattened to its message.
func (e *HookError) MarshalJSON() ([]byte, error) {
	je := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Op:         e.Op,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		je.Cause = e.Wrapped.Error()
	}
	return json.Marshal(je)
}
