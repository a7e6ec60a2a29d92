// Package subtitles converts between SRT text and ordered, timed segments.
//
// Segments keep timestamps as strings in the canonical HH:MM:SS.mmm form;
// SRT output uses the comma separator. Parse is tolerant: malformed blocks
// are skipped so partial files still yield their valid cues. Validate and
// Clean cover the post-processing model transcripts usually need.
package subtitles
