package subtitles

import (
	"fmt"
	"strings"
)

// Issue codes reported by Validate.
const (
	IssueEmpty            = "empty_subtitle"
	IssueInvalidTimestamp = "invalid_timestamp"
	IssueInvertedTiming   = "inverted_timing"
	IssueOverlap          = "overlap"
	IssueEmptyText        = "empty_text"
)

// Validate checks a segment sequence for timing and content problems.
// Returns a list of issues found; empty slice means validation passed.
func Validate(segments []Segment) []string {
	if len(segments) == 0 {
		return []string{IssueEmpty}
	}

	var issues []string
	var prevEnd string
	for i, seg := range segments {
		n := i + 1
		start, errStart := ParseTimestamp(seg.StartTime)
		end, errEnd := ParseTimestamp(seg.EndTime)
		switch {
		case errStart != nil || errEnd != nil:
			issues = append(issues, fmt.Sprintf("%s: segment %d", IssueInvalidTimestamp, n))
		case start > end:
			issues = append(issues, fmt.Sprintf("%s: segment %d (%s > %s)", IssueInvertedTiming, n, seg.StartTime, seg.EndTime))
		default:
			if prevEnd != "" {
				if prev, err := ParseTimestamp(prevEnd); err == nil && start < prev {
					issues = append(issues, fmt.Sprintf("%s: segment %d starts before segment %d ends", IssueOverlap, n, n-1))
				}
			}
		}
		if errEnd == nil {
			prevEnd = seg.EndTime
		}
		if strings.TrimSpace(seg.Text) == "" {
			issues = append(issues, fmt.Sprintf("%s: segment %d", IssueEmptyText, n))
		}
	}
	return issues
}
