package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"subforge/internal/subtitles"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Segments builds n consecutive one-second segments with distinct text.
func Segments(n int) []subtitles.Segment {
	segments := make([]subtitles.Segment, n)
	for i := range segments {
		segments[i] = subtitles.Segment{
			StartTime: subtitles.FormatTimestamp(time.Duration(i) * time.Second),
			EndTime:   subtitles.FormatTimestamp(time.Duration(i+1) * time.Second),
			Text:      "line " + strconv.Itoa(i+1),
		}
	}
	return segments
}

// WriteSRT writes segments as an SRT file and returns the path.
func WriteSRT(t testing.TB, path string, segments []subtitles.Segment) string {
	t.Helper()

	if err := subtitles.WriteFile(path, segments, true); err != nil {
		t.Fatalf("write srt %s: %v", path, err)
	}
	return path
}
