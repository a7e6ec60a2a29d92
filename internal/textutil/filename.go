package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
)

// reservedRunes cannot appear in a file name on at least one supported OS.
const reservedRunes = `/\:*?"<>|`

// FileStem reduces a free-form name to something usable as a file name stem.
// Reserved and control characters become spaces and whitespace runs collapse,
// so "Show: Pilot?" becomes "Show Pilot".
func FileStem(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(reservedRunes, r) {
			return ' '
		}
		return r
	}, name)
	return strings.Join(strings.Fields(mapped), " ")
}

// Slug lowercases value and joins its letter and digit runs with single
// hyphens. Values with no letters or digits yield "untitled".
func Slug(value string) string {
	var b strings.Builder
	pending := false
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('-')
			pending = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// ArchiveFileName names an exported archive entry "<fileid>-<title slug><ext>",
// for example "lc-003-pilot-episode.json".
func ArchiveFileName(fileID, title, ext string) string {
	return Slug(fileID) + "-" + Slug(title) + ext
}

// TranslatedFileName names a translation of source "<stem>.<tag><ext>", for
// example "pilot.pt-br.srt" for source "/in/pilot.srt" and tag "pt-BR".
func TranslatedFileName(source, tag, ext string) string {
	base := filepath.Base(source)
	stem := FileStem(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" || stem == "." {
		stem = "translation"
	}
	return stem + "." + Slug(tag) + ext
}
