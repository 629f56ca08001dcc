package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

// Colors controls ANSI escapes in Format and Fprint.
var Colors = true

func paint(code, text string) string {
	if !Colors {
		return text
	}
	return code + text + ansiReset
}

// Format renders the error as a multi-line block for terminals:
//
//	ERROR H001 [usage] Store already wrapped
//	  at hook.Wrap
//
//	  <detail, wrapped at 72 columns>
//
//	  cause: ...
//	  hint:  ...
//	  docs:  https://...
func (e *HookError) Format() string {
	var b strings.Builder

	head := "ERROR"
	if e.Code != "" {
		head += " " + e.Code
	}
	b.WriteString("\n" + paint(ansiRed+ansiBold, head))
	if e.Category != "" {
		b.WriteString(" [" + string(e.Category) + "]")
	}
	b.WriteString(" " + paint(ansiBold, e.Message) + "\n")
	if e.Op != "" {
		b.WriteString("  at " + paint(ansiCyan, e.Op) + "\n")
	}

	if lines := wrapText(e.Detail, 72); len(lines) > 0 {
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString("  " + line + "\n")
		}
	}

	var tail []string
	if e.Wrapped != nil {
		tail = append(tail, paint(ansiGray, "cause:")+" "+e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		tail = append(tail, paint(ansiCyan, "hint: ")+" "+e.Suggestion)
	}
	if e.DocURL != "" {
		tail = append(tail, paint(ansiGray, "docs: ")+" "+e.DocURL)
	}
	if len(tail) > 0 {
		b.WriteString("\n")
		for _, line := range tail {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

// wrapText splits text into lines of at most width columns, breaking on
// spaces. A single word longer than width gets its own line.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

// Describer is implemented by errors of other packages that map onto a
// registered code.
type Describer interface {
	Describe() *HookError
}

// Fprint writes err to w. A HookError or Describer anywhere in the chain is
// rendered with Format.
func Fprint(w io.Writer, err error) {
	var he *HookError
	if errors.As(err, &he) {
		fmt.Fprint(w, he.Format())
		return
	}
	var d Describer
	if errors.As(err, &d) {
		fmt.Fprint(w, d.Describe().Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", paint(ansiRed+ansiBold, "ERROR"), err.Error())
}
