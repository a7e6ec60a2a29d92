package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	blockSeparator = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	timeLine       = regexp.MustCompile(`(\d{2}:\d{2}:\d{2})[,. ](\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2})[,. ](\d{3})`)
	timestampValue = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[,. ](\d{1,3})$`)

	bracketSpeaker = regexp.MustCompile(`^\[([^\]]+)\]:\s+(.+)$`)
	bareSpeaker    = regexp.MustCompile(`^([^:]+):\s+(.+)$`)
)

// Parse decodes SRT text into segments. Blocks that are structurally invalid
// are skipped.
func Parse(content string) []Segment {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return nil
	}

	var segments []Segment
	for _, block := range blockSeparator.Split(normalized, -1) {
		if seg, ok := parseBlock(block); ok {
			segments = append(segments, seg)
		}
	}
	return segments
}

func parseBlock(block string) (Segment, bool) {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) < 3 {
		return Segment{}, false
	}

	timeIdx := -1
	for i, line := range lines {
		if strings.Contains(line, "-->") {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return Segment{}, false
	}
	match := timeLine.FindStringSubmatch(lines[timeIdx])
	if match == nil {
		return Segment{}, false
	}
	start := match[1] + "." + match[2]
	end := match[3] + "." + match[4]
	if start > end {
		return Segment{}, false
	}

	raw := strings.TrimSpace(strings.Join(lines[timeIdx+1:], " "))
	speaker, text := splitSpeaker(raw)
	if text == "" {
		return Segment{}, false
	}
	return Segment{StartTime: start, EndTime: end, Text: text, Speaker: speaker}, true
}

func splitSpeaker(raw string) (string, string) {
	if m := bracketSpeaker.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := bareSpeaker.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", raw
}

// Format encodes segments as SRT, numbering cues from 1 in slice order.
// Speaker labels are emitted as a "[Speaker]: " prefix when includeSpeakers
// is set.
func Format(segments []Segment, includeSpeakers bool) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n", i+1, wireTimestamp(seg.StartTime), wireTimestamp(seg.EndTime))
		if includeSpeakers && seg.Speaker != "" {
			b.WriteString("[" + seg.Speaker + "]: ")
		}
		b.WriteString(seg.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func wireTimestamp(value string) string {
	return strings.Replace(NormalizeTimestamp(value), ".", ",", 1)
}

// NormalizeTimestamp rewrites a timestamp using any of the accepted
// millisecond separators into HH:MM:SS.mmm. Unrecognised input is returned
// trimmed but otherwise unchanged.
func NormalizeTimestamp(value string) string {
	value = strings.TrimSpace(value)
	m := timestampValue.FindStringSubmatch(value)
	if m == nil || len(m[1]) != 2 || len(m[4]) != 3 {
		return value
	}
	return m[1] + ":" + m[2] + ":" + m[3] + "." + m[4]
}

// ParseTimestamp converts an SRT or canonical timestamp to a duration.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	m := timestampValue.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	millis, _ := strconv.Atoi(m[4] + strings.Repeat("0", 3-len(m[4])))
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// FormatTimestamp renders d as HH:MM:SS.mmm. Negative durations clamp to zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	millis := total % 1000
	total /= 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", total/3600, (total/60)%60, total%60, millis)
}

// Bounds returns the earliest start and latest end across segments whose
// timestamps parse. ok is false when none do.
func Bounds(segments []Segment) (first, last time.Duration, ok bool) {
	for _, seg := range segments {
		start, errStart := ParseTimestamp(seg.StartTime)
		end, errEnd := ParseTimestamp(seg.EndTime)
		if errStart != nil || errEnd != nil {
			continue
		}
		if !ok || start < first {
			first = start
		}
		if !ok || end > last {
			last = end
		}
		ok = true
	}
	return first, last, ok
}
