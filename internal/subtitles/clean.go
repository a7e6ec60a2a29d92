package subtitles

import (
	"regexp"
	"strings"
)

var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)opensubtitles`),
	regexp.MustCompile(`(?i)subtitles? by`),
	regexp.MustCompile(`(?i)synced? and corrected`),
	regexp.MustCompile(`(?i)advertise (your|yours?) product`),
	regexp.MustCompile(`(?i)amara\.org`),
	regexp.MustCompile(`(?i)http(s)?://`),
	regexp.MustCompile(`(?i)\bwww\.`),
	regexp.MustCompile(`(?i)\bsubscene\b`),
	regexp.MustCompile(`(?i)\byts\b`),
	regexp.MustCompile(`(?i)\byify\b`),
}

// CleanStats reports the effects of Clean.
type CleanStats struct {
	RemovedCues int
}

// Clean drops advertisement and credit cues (a common transcription
// hallucination) and collapses internal whitespace in the remaining text.
// The input slice is not modified.
func Clean(segments []Segment) ([]Segment, CleanStats) {
	cleaned := make([]Segment, 0, len(segments))
	var stats CleanStats
	for _, seg := range segments {
		if isAdvertisement(seg.Text) {
			stats.RemovedCues++
			continue
		}
		seg.Text = strings.Join(strings.Fields(seg.Text), " ")
		seg.Speaker = strings.TrimSpace(seg.Speaker)
		cleaned = append(cleaned, seg)
	}
	return cleaned, stats
}

func isAdvertisement(text string) bool {
	payload := strings.TrimSpace(text)
	if payload == "" {
		return false
	}
	for _, pattern := range adPatterns {
		if pattern.MatchString(payload) {
			return true
		}
	}
	return false
}
