package subtitles

import (
	"fmt"
	"os"

	"subforge/internal/fileutil"
)

// ReadFile parses the SRT file at path.
func ReadFile(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return Parse(string(data)), nil
}

// WriteFile formats segments as SRT and writes them atomically to path.
func WriteFile(path string, segments []Segment, includeSpeakers bool) error {
	if err := fileutil.WriteFileAtomic(path, []byte(Format(segments, includeSpeakers)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}
