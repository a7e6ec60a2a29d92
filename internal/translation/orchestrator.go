package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/subtitles"
)

// DefaultChunkSize is the number of segments sent per translation call.
const DefaultChunkSize = 12

var (
	// ErrTranslation marks batch-fatal translation failures.
	ErrTranslation = fmt.Errorf("%w: translation failed", services.ErrExternal)
	// ErrLengthMismatch reports a chunk result whose length differs from its input.
	ErrLengthMismatch = errors.New("translated segment count does not match input")
)

// ChunkError identifies the chunk that aborted a batch. Index is 1-based.
type ChunkError struct {
	Index int
	Total int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("translation failed at chunk %d/%d: %v", e.Index, e.Total, e.Err)
}

func (e *ChunkError) Unwrap() []error {
	return []error{ErrTranslation, e.Err}
}

// Progress is reported after every completed chunk.
type Progress struct {
	Percent        int
	ChunksDone     int
	ChunksTotal    int
	SegmentsDone   int
	SegmentsTotal  int
	TargetLanguage string
}

// ProgressFunc receives progress updates. It runs on the caller's goroutine.
type ProgressFunc func(Progress)

// Options configures an Orchestrator.
type Options struct {
	ChunkSize int
	Logger    *slog.Logger
}

// Orchestrator splits segment sequences into chunks and translates them in order.
type Orchestrator struct {
	translator Translator
	chunkSize  int
	logger     *slog.Logger
}

// NewOrchestrator constructs an Orchestrator around translator.
func NewOrchestrator(translator Translator, opts Options) *Orchestrator {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Orchestrator{
		translator: translator,
		chunkSize:  size,
		logger:     logging.NewComponentLogger(opts.Logger, "translation"),
	}
}

// ChunkSize reports the configured chunk size.
func (o *Orchestrator) ChunkSize() int {
	return o.chunkSize
}

// Translate returns segments with translated text and the original timing.
// The result has the same length and order as the input. On any failure no
// segments are returned.
func (o *Orchestrator) Translate(ctx context.Context, segments []subtitles.Segment, targetLanguage string, tone Tone, progress ProgressFunc) ([]subtitles.Segment, error) {
	targetLanguage = strings.TrimSpace(targetLanguage)
	if targetLanguage == "" {
		return nil, services.Wrap(services.ErrValidation, "translation", "translate", "target language required", nil)
	}
	if len(segments) == 0 {
		return []subtitles.Segment{}, nil
	}

	chunks := Partition(segments, o.chunkSize)
	total := len(chunks)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("translation started",
		logging.String("target_language", targetLanguage),
		logging.String("tone", string(tone)),
		logging.Int("segments", len(segments)),
		logging.Int(logging.FieldChunkCount, total),
	)

	result := make([]subtitles.Segment, 0, len(segments))
	for i, chunk := range chunks {
		index := i + 1
		if err := ctx.Err(); err != nil {
			logger.Info("translation cancelled",
				logging.Int("chunks_done", i),
				logging.Int(logging.FieldChunkCount, total),
			)
			return nil, fmt.Errorf("translation cancelled before chunk %d/%d: %w", index, total, err)
		}

		chunkCtx := services.WithChunk(ctx, index, total)
		translated, err := o.translator.TranslateChunk(chunkCtx, Request{
			Segments:       cloneSegments(chunk),
			TargetLanguage: targetLanguage,
			Tone:           tone,
		})
		if err == nil && len(translated) != len(chunk) {
			err = fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(translated), len(chunk))
		}
		if err != nil {
			logging.WarnWithContext(logging.WithContext(chunkCtx, o.logger), "translation chunk failed", "translation_chunk_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "retry, or reduce the chunk size"),
				logging.String(logging.FieldImpact, "translation aborted; no segments returned"),
			)
			return nil, &ChunkError{Index: index, Total: total, Err: err}
		}

		result = append(result, o.restamp(chunkCtx, chunk, translated)...)
		if progress != nil {
			progress(Progress{
				Percent:        percent(index, total),
				ChunksDone:     index,
				ChunksTotal:    total,
				SegmentsDone:   len(result),
				SegmentsTotal:  len(segments),
				TargetLanguage: targetLanguage,
			})
		}
	}

	logger.Info("translation completed",
		logging.Int("segments", len(result)),
		logging.Int(logging.FieldChunkCount, total),
	)
	return result, nil
}

// restamp copies source timing onto translated segments and keeps the source
// text or speaker where the translator left them blank.
func (o *Orchestrator) restamp(ctx context.Context, source, translated []subtitles.Segment) []subtitles.Segment {
	out := make([]subtitles.Segment, len(source))
	var retimed, blank int
	for i, src := range source {
		seg := translated[i]
		if seg.StartTime != src.StartTime || seg.EndTime != src.EndTime {
			retimed++
		}
		seg.StartTime, seg.EndTime = src.StartTime, src.EndTime
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			seg.Text = src.Text
			blank++
		}
		seg.Speaker = strings.TrimSpace(seg.Speaker)
		if seg.Speaker == "" {
			seg.Speaker = src.Speaker
		}
		out[i] = seg
	}
	if retimed > 0 || blank > 0 {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "translator altered protected fields", "translation_fields_restored",
			logging.Int("retimed_segments", retimed),
			logging.Int("blank_segments", blank),
			logging.String(logging.FieldErrorHint, "check the translation prompt or model"),
			logging.String(logging.FieldImpact, "source timing kept; blank lines left untranslated"),
		)
	}
	return out
}

// Partition splits segments into contiguous chunks of at most size elements.
// The chunks share the input's backing array.
func Partition(segments []subtitles.Segment, size int) [][]subtitles.Segment {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]subtitles.Segment, 0, (len(segments)+size-1)/size)
	for start := 0; start < len(segments); start += size {
		end := min(start+size, len(segments))
		chunks = append(chunks, segments[start:end:end])
	}
	return chunks
}

// percent rounds up so the final chunk always reports 100.
func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return (100*done + total - 1) / total
}

func cloneSegments(segments []subtitles.Segment) []subtitles.Segment {
	out := make([]subtitles.Segment, len(segments))
	copy(out, segments)
	return out
}
