package translation

import (
	"context"

	"subforge/internal/subtitles"
)

// Request is one chunk handed to a Translator.
type Request struct {
	Segments       []subtitles.Segment
	TargetLanguage string
	Tone           Tone
}

// Translator translates one chunk. Implementations must return exactly one
// segment per input segment, in order, and should only change Text and
// Speaker.
type Translator interface {
	TranslateChunk(ctx context.Context, req Request) ([]subtitles.Segment, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, req Request) ([]subtitles.Segment, error)

// TranslateChunk calls f.
func (f TranslatorFunc) TranslateChunk(ctx context.Context, req Request) ([]subtitles.Segment, error) {
	return f(ctx, req)
}
