package archive

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type is the closed set of archive categories.
type Type string

const (
	TypeStory        Type = "story"
	TypeRecap        Type = "recap"
	TypeTranscript   Type = "transcript"
	TypeLocalization Type = "localization"
	TypeVoice        Type = "voice"
	TypeThumbnail    Type = "thumbnail"
	TypeClip         Type = "clip"
	TypeContent      Type = "content"
)

var typePrefixes = map[Type]string{
	TypeStory:        "ST",
	TypeRecap:        "RC",
	TypeTranscript:   "TR",
	TypeLocalization: "LC",
	TypeVoice:        "VO",
	TypeThumbnail:    "TH",
	TypeClip:         "CL",
	TypeContent:      "CT",
}

// Types lists every archive type in display order.
func Types() []Type {
	return []Type{
		TypeStory, TypeRecap, TypeTranscript, TypeLocalization,
		TypeVoice, TypeThumbnail, TypeClip, TypeContent,
	}
}

// ParseType accepts a type name or its two-letter prefix, case-insensitively.
func ParseType(value string) (Type, error) {
	value = strings.TrimSpace(value)
	if t := Type(strings.ToLower(value)); t.Valid() {
		return t, nil
	}
	for t, prefix := range typePrefixes {
		if strings.EqualFold(prefix, value) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown archive type %q", value)
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	_, ok := typePrefixes[t]
	return ok
}

// Prefix returns the two-letter FileID prefix, or "" for unknown types.
func (t Type) Prefix() string {
	return typePrefixes[t]
}

// Entry is one immutable archived record.
type Entry struct {
	ID        string          `json:"id"`
	FileID    string          `json:"fileId"`
	Type      Type            `json:"type"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Language  string          `json:"language"`
	ToolID    string          `json:"toolId"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// SaveRequest carries the caller-supplied fields of a new entry.
type SaveRequest struct {
	Type     Type
	Title    string
	Content  json.RawMessage
	Language string
	ToolID   string
	Metadata map[string]any
}

func formatFileID(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}
