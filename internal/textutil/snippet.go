package textutil

import "strings"

var whitespaceReplacer = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")

// Snippet collapses whitespace in content and truncates it to limit runes,
// appending "..." when truncated. Empty input yields "<empty>".
func Snippet(content string, limit int) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(whitespaceReplacer.Replace(trimmed)), " ")
	if limit <= 0 {
		return clean
	}
	runes := []rune(clean)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
