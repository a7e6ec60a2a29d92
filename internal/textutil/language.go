package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// englishNames resolves tags to English display names ("fr" -> "French").
var englishNames = display.English.Languages()

// NormalizeLanguage converts a free-form language label into a canonical
// BCP 47 tag string plus an English display name. Labels that are already
// display names ("Japanese") are matched case-insensitively against the
// supported set. Unknown labels are returned trimmed with ok=false so callers
// can still pass them through to a model.
func NormalizeLanguage(label string) (tag string, name string, ok bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", "", false
	}
	candidate := strings.ReplaceAll(label, "_", "-")
	if parsed, err := language.Parse(candidate); err == nil && parsed != language.Und {
		return parsed.String(), englishNames.Name(parsed), true
	}
	for _, supported := range display.Supported.Tags() {
		if strings.EqualFold(englishNames.Name(supported), label) {
			return supported.String(), englishNames.Name(supported), true
		}
	}
	return label, label, false
}

// Title capitalises each word of value using language-neutral casing rules.
func Title(value string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(value))
}
