package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		code    string
		wantMsg string
		wantCat Category
	}{
		{"H001", "Store already wrapped", CategoryUsage},
		{"H050", "Binding callback failed", CategoryCallback},
		{"H070", "Unmanaged callback binding", CategoryLifecycle},
		{"H091", "Invalid configuration value", CategoryConfig},
		{"H095", "Unknown store", CategoryInspect},
		{"H101", "Bindings outlived their owners", CategoryBench},
		{"H999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestHookError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *HookError
		want string
	}{
		{"with op", New("H003").WithOp("hook.BindFromKeys"), "H003: hook.BindFromKeys: Values can only be bound from stores"},
		{"no op", New("H004"), "H004: No keys given"},
		{"plain", &HookError{Message: "test error"}, "test error"},
		{"cause", New("H050").Wrap(stderrors.New("boom")), "H050: Binding callback failed: boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHookError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("H050").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestCodeOf(t *testing.T) {
	err := New("H005")
	outer := stderrors.Join(stderrors.New("ctx"), err)
	if got := CodeOf(outer); got != "H005" {
		t.Errorf("CodeOf = %q, want H005", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestFormat(t *testing.T) {
	Colors = false
	defer func() { Colors = true }()

	out := New("H001").
		WithOp("hook.Wrap").
		WithSuggestion("Keep the first store").
		Wrap(stderrors.New("map already observed")).
		Format()

	for _, want := range []string{
		"ERROR H001 [usage] Store already wrapped",
		"  at hook.Wrap",
		"cause: map already observed",
		"hint:  Keep the first store",
		"docs:  https://hookbind.dev/docs/errors/H001",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("Format() with Colors off contains escapes:\n%q", out)
	}
}

func TestFprint(t *testing.T) {
	Colors = false
	defer func() { Colors = true }()

	var b strings.Builder
	Fprint(&b, stderrors.Join(New("H100")))
	if !strings.Contains(b.String(), "ERROR H100 [bench] Invalid bench size") {
		t.Errorf("Fprint(HookError) = %q", b.String())
	}

	b.Reset()
	Fprint(&b, stderrors.New("plain failure"))
	if got := b.String(); got != "\nERROR plain failure\n" {
		t.Errorf("Fprint(plain) = %q", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("H009").WithOp("hook.Set").Wrap(stderrors.New("read-only"))

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("Marshal: %v", jerr)
	}
	var decoded map[string]any
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("invalid JSON %s: %v", data, jerr)
	}
	for key, want := range map[string]string{
		"code":     "H009",
		"category": "usage",
		"op":       "hook.Set",
		"cause":    "read-only",
	} {
		if decoded[key] != want {
			t.Errorf("%s = %v, want %q", key, decoded[key], want)
		}
	}
	if _, ok := decoded["suggestion"]; ok {
		t.Error("empty suggestion should be omitted")
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"one two three four five six", 10, []string{"one two", "three four", "five six"}},
		{"a verylongwordhere b", 5, []string{"a", "verylongwordhere", "b"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	codes := Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("Codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		tmpl, _ := Lookup(code)
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
		if !strings.HasSuffix(tmpl.DocURL, "/"+code) {
			t.Errorf("%s: DocURL = %q", code, tmpl.DocURL)
		}
	}
	if _, ok := Lookup("H999"); ok {
		t.Error("H999 should not be registered")
	}
}

type describedErr struct{}

func (describedErr) Error() string { return "described" }

func (describedErr) Describe() *HookError { return New("H006").WithOp("hook.BindFromKeys") }

func TestFprintDescriber(t *testing.T) {
	Colors = false
	defer func() { Colors = true }()

	var b strings.Builder
	Fprint(&b, describedErr{})
	out := b.String()
	if !strings.Contains(out, "ERROR H006 [usage] Key has the wrong type") || !strings.Contains(out, "at hook.BindFromKeys") {
		t.Errorf("Fprint(Describer) = %q", out)
	}
}
