package textutil

import (
	"html"
	"strings"
)

// attributeReplacer escapes in a single pass, which is equivalent to replacing
// & first and the remaining characters afterwards.
var attributeReplacer = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeAttribute escapes text for use inside a double-quoted HTML attribute.
func EscapeAttribute(text string) string {
	return attributeReplacer.Replace(text)
}

// UnescapeAttribute reverses EscapeAttribute and decodes any other HTML
// character references present in the attribute value.
func UnescapeAttribute(value string) string {
	if !strings.Contains(value, "&") {
		return value
	}
	return html.UnescapeString(value)
}
