package view

import (
	"strconv"
	"strings"
)

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	return escape(s, false)
}

// escapeAttr escapes text for safe inclusion in HTML attribute values.
// Whitespace that could break attribute parsing is escaped too.
func escapeAttr(s string) string {
	return escape(s, true)
}

func escape(s string, attr bool) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n', '\r', '\t':
			if !attr {
				buf.WriteRune(r)
				continue
			}
			buf.WriteString("&#" + strconv.Itoa(int(r)) + ";")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
