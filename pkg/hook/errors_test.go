package hook

import (
	"errors"
	"strings"
	"testing"
)

func TestUsageErrorDescribe(t *testing.T) {
	err := newUsageError("hook.Wrap", ErrUnsupportedSource, "int")

	if got := err.Error(); got != "hook.Wrap: hook: unsupported store source (int)" {
		t.Errorf("Error() = %q", got)
	}
	if err.Code() != "H002" {
		t.Errorf("Code() = %q, want H002", err.Code())
	}
	he := err.Describe()
	if he.Code != "H002" || he.Op != "hook.Wrap" {
		t.Errorf("Describe() = %+v", he)
	}
	if !strings.HasSuffix(he.Detail, " Got: int.") {
		t.Errorf("Describe().Detail = %q, want call detail appended", he.Detail)
	}
}

func TestEveryUsageSentinelHasCode(t *testing.T) {
	for sentinel, code := range usageCodes {
		if code == "" {
			t.Errorf("%v has no code", sentinel)
		}
		if !errors.Is(newUsageError("op", sentinel, ""), sentinel) {
			t.Errorf("UsageError does not unwrap to %v", sentinel)
		}
	}
}

func TestCallbackErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *CallbackError
		want string
		code string
	}{
		{"callback panic", &CallbackError{BindingID: 1, Kind: KindCallback, Panic: "x"}, "callback panicked: x", "H050"},
		{"assign failure", &CallbackError{BindingID: 2, Kind: KindValue, Key: "Title", Err: errors.New("nope")}, `assignment to "Title" failed: nope`, "H051"},
		{"combinator", &CallbackError{BindingID: 3, Kind: KindValue, InCombinator: true, Err: errors.New("bad")}, "combinator failed: bad", "H052"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("Error() = %q, want containing %q", tt.err.Error(), tt.want)
			}
			if tt.err.Code() != tt.code {
				t.Errorf("Code() = %q, want %q", tt.err.Code(), tt.code)
			}
			if tt.err.Describe().Code != tt.code {
				t.Errorf("Describe().Code = %q, want %q", tt.err.Describe().Code, tt.code)
			}
		})
	}
}
