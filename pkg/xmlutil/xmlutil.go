// Package xmlutil provides XML escaping utilities for prompt injection prevention.
package xmlutil

import (
	"encoding/xml"
	"strings"
)

// whitespace restores the line structure that xml.EscapeText encodes.
var whitespace = strings.NewReplacer("&#xA;", "\n", "&#x9;", "\t", "&#xD;", "\r")

// Escape replaces characters with special meaning in XML to prevent
// prompt injection when embedding untrusted text in XML-delimited prompts.
// Newlines and tabs are kept literal so page layout survives.
func Escape(s string) string {
	var buf strings.Builder
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		// EscapeText only fails on invalid UTF-8; return original on error.
		return s
	}
	return whitespace.Replace(buf.String())
}

// Wrap escapes content and encloses it in <name>...</name> on its own lines.
func Wrap(name, content string) string {
	var buf strings.Builder
	buf.Grow(len(content) + 2*len(name) + 8)
	buf.WriteString("<" + name + ">\n")
	buf.WriteString(Escape(content))
	buf.WriteString("\n</" + name + ">")
	return buf.String()
}
