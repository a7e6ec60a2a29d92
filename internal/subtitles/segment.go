package subtitles

import "strings"

// Segment is one timed span of speech. Order within a slice is playback order.
type Segment struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Text      string `json:"text"`
	Speaker   string `json:"speaker,omitempty"`
}

// Result is a transcription as models return it.
type Result struct {
	FullText string    `json:"fullText"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// JoinText concatenates segment text with single spaces.
func (r Result) JoinText() string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Normalize canonicalises timestamps, trims text and speaker labels, and
// fills FullText from the segments when the model left it empty.
func (r *Result) Normalize() {
	for i := range r.Segments {
		seg := &r.Segments[i]
		seg.StartTime = NormalizeTimestamp(seg.StartTime)
		seg.EndTime = NormalizeTimestamp(seg.EndTime)
		seg.Text = strings.TrimSpace(seg.Text)
		seg.Speaker = strings.TrimSpace(seg.Speaker)
	}
	r.Language = strings.TrimSpace(r.Language)
	if strings.TrimSpace(r.FullText) == "" {
		r.FullText = r.JoinText()
	}
}
