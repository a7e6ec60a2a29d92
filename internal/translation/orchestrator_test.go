package translation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"subforge/internal/services"
	"subforge/internal/subtitles"
)

func makeSegments(n int) []subtitles.Segment {
	segments := make([]subtitles.Segment, n)
	for i := range segments {
		segments[i] = subtitles.Segment{
			StartTime: subtitles.FormatTimestamp(time.Duration(i) * time.Second),
			EndTime:   subtitles.FormatTimestamp(time.Duration(i+1) * time.Second),
			Text:      fmt.Sprintf("line %d", i+1),
		}
	}
	return segments
}

// upperTranslator uppercases text and records chunk sizes.
type upperTranslator struct {
	calls []int
}

func (u *upperTranslator) TranslateChunk(_ context.Context, req Request) ([]subtitles.Segment, error) {
	u.calls = append(u.calls, len(req.Segments))
	out := make([]subtitles.Segment, len(req.Segments))
	for i, seg := range req.Segments {
		seg.Text = strings.ToUpper(seg.Text)
		out[i] = seg
	}
	return out, nil
}

func TestTranslateChunksAndProgress(t *testing.T) {
	translator := &upperTranslator{}
	orch := NewOrchestrator(translator, Options{ChunkSize: 12})
	input := makeSegments(25)

	var progress []int
	out, err := orch.Translate(context.Background(), input, "fr", ToneNeutral, func(p Progress) {
		progress = append(progress, p.Percent)
	})
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if !reflect.DeepEqual(translator.calls, []int{12, 12, 1}) {
		t.Fatalf("chunk sizes = %v", translator.calls)
	}
	if !reflect.DeepEqual(progress, []int{34, 67, 100}) {
		t.Fatalf("progress = %v", progress)
	}
	if len(out) != len(input) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(input))
	}
	for i := range input {
		if out[i].StartTime != input[i].StartTime || out[i].EndTime != input[i].EndTime {
			t.Fatalf("timing changed at %d: %+v vs %+v", i, out[i], input[i])
		}
		if out[i].Text != strings.ToUpper(input[i].Text) {
			t.Fatalf("text not translated at %d: %q", i, out[i].Text)
		}
	}
}

func TestTranslateDefaultChunkSize(t *testing.T) {
	translator := &upperTranslator{}
	orch := NewOrchestrator(translator, Options{})
	if orch.ChunkSize() != DefaultChunkSize {
		t.Fatalf("ChunkSize = %d", orch.ChunkSize())
	}
	if _, err := orch.Translate(context.Background(), makeSegments(24), "de", ToneFormal, nil); err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if !reflect.DeepEqual(translator.calls, []int{12, 12}) {
		t.Fatalf("chunk sizes = %v", translator.calls)
	}
}

func TestTranslateEmptyInput(t *testing.T) {
	called := false
	orch := NewOrchestrator(TranslatorFunc(func(context.Context, Request) ([]subtitles.Segment, error) {
		called = true
		return nil, nil
	}), Options{})
	out, err := orch.Translate(context.Background(), nil, "fr", ToneNeutral, func(Progress) {
		t.Fatal("progress should not be reported for empty input")
	})
	if err != nil || len(out) != 0 || called {
		t.Fatalf("unexpected result: %v, %v, called=%v", out, err, called)
	}
}

func TestTranslateRequiresLanguage(t *testing.T) {
	orch := NewOrchestrator(&upperTranslator{}, Options{})
	_, err := orch.Translate(context.Background(), makeSegments(1), " ", ToneNeutral, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTranslateAbortsOnChunkFailure(t *testing.T) {
	boom := errors.New("provider unavailable")
	var calls int
	orch := NewOrchestrator(TranslatorFunc(func(_ context.Context, req Request) ([]subtitles.Segment, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return req.Segments, nil
	}), Options{ChunkSize: 5})

	var progress []int
	out, err := orch.Translate(context.Background(), makeSegments(15), "es", ToneCasual, func(p Progress) {
		progress = append(progress, p.Percent)
	})
	if out != nil {
		t.Fatalf("expected no partial result, got %d segments", len(out))
	}
	if calls != 2 {
		t.Fatalf("expected remaining chunks to be skipped, got %d calls", calls)
	}
	if !errors.Is(err, ErrTranslation) || !errors.Is(err, boom) || !errors.Is(err, services.ErrExternal) {
		t.Fatalf("unexpected error chain: %v", err)
	}
	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) || chunkErr.Index != 2 || chunkErr.Total != 3 {
		t.Fatalf("expected ChunkError 2/3, got %#v", chunkErr)
	}
	if !strings.Contains(err.Error(), "translation failed at chunk 2/3") {
		t.Fatalf("unexpected message: %v", err)
	}
	if !reflect.DeepEqual(progress, []int{34}) {
		t.Fatalf("progress = %v", progress)
	}
}

func TestTranslateLengthMismatch(t *testing.T) {
	orch := NewOrchestrator(TranslatorFunc(func(_ context.Context, req Request) ([]subtitles.Segment, error) {
		return req.Segments[:len(req.Segments)-1], nil
	}), Options{ChunkSize: 4})

	_, err := orch.Translate(context.Background(), makeSegments(4), "it", ToneNeutral, nil)
	if !errors.Is(err, ErrLengthMismatch) || !errors.Is(err, ErrTranslation) {
		t.Fatalf("expected length mismatch translation error, got %v", err)
	}
}

func TestTranslateRestoresTiming(t *testing.T) {
	orch := NewOrchestrator(TranslatorFunc(func(_ context.Context, req Request) ([]subtitles.Segment, error) {
		out := make([]subtitles.Segment, len(req.Segments))
		for i := range req.Segments {
			out[i] = subtitles.Segment{StartTime: "99:00:00.000", EndTime: "99:00:01.000", Text: ""}
		}
		out[0].Text = "hola"
		return out, nil
	}), Options{})

	input := makeSegments(2)
	input[1].Speaker = "Ana"
	out, err := orch.Translate(context.Background(), input, "es", ToneNeutral, nil)
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	for i := range input {
		if out[i].StartTime != input[i].StartTime || out[i].EndTime != input[i].EndTime {
			t.Fatalf("timing not restored at %d: %+v", i, out[i])
		}
	}
	if out[0].Text != "hola" || out[1].Text != input[1].Text || out[1].Speaker != "Ana" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestTranslateStopsBetweenChunksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	orch := NewOrchestrator(TranslatorFunc(func(chunkCtx context.Context, req Request) ([]subtitles.Segment, error) {
		calls++
		pos, ok := services.ChunkFromContext(chunkCtx)
		if !ok || pos.Index != calls || pos.Total != 3 {
			t.Errorf("unexpected chunk position %+v (ok=%v)", pos, ok)
		}
		cancel()
		return req.Segments, nil
	}), Options{ChunkSize: 2})

	out, err := orch.Translate(ctx, makeSegments(6), "fr", ToneNeutral, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTranslation) {
		t.Fatalf("cancellation should not be reported as a translation failure: %v", err)
	}
	if out != nil || calls != 1 {
		t.Fatalf("expected one completed chunk and no result, got calls=%d out=%v", calls, out)
	}
}

func TestTranslateDoesNotMutateInput(t *testing.T) {
	orch := NewOrchestrator(&upperTranslator{}, Options{ChunkSize: 3})
	input := makeSegments(4)
	snapshot := append([]subtitles.Segment(nil), input...)
	if _, err := orch.Translate(context.Background(), input, "fr", ToneNeutral, nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(input, snapshot) {
		t.Fatal("input segments were modified")
	}
}

func TestPartition(t *testing.T) {
	chunks := Partition(makeSegments(7), 3)
	var sizes []int
	for _, chunk := range chunks {
		sizes = append(sizes, len(chunk))
	}
	if !reflect.DeepEqual(sizes, []int{3, 3, 1}) {
		t.Fatalf("sizes = %v", sizes)
	}
	if len(Partition(nil, 3)) != 0 {
		t.Fatal("expected no chunks for empty input")
	}
}

func TestPercent(t *testing.T) {
	cases := []struct{ done, total, want int }{
		{1, 3, 34}, {2, 3, 67}, {3, 3, 100}, {1, 1, 100}, {1, 4, 25}, {1, 6, 17},
	}
	for _, c := range cases {
		if got := percent(c.done, c.total); got != c.want {
			t.Fatalf("percent(%d,%d) = %d, want %d", c.done, c.total, got, c.want)
		}
	}
}

func TestParseTone(t *testing.T) {
	if tone, err := ParseTone(" Cinematic "); err != nil || tone != ToneCinematic {
		t.Fatalf("ParseTone = %v, %v", tone, err)
	}
	if tone, err := ParseTone(""); err != nil || tone != ToneNeutral {
		t.Fatalf("ParseTone(empty) = %v, %v", tone, err)
	}
	if _, err := ParseTone("sarcastic"); err == nil {
		t.Fatal("expected unknown tone to fail")
	}
	for _, tone := range Tones() {
		if tone.Instruction() == "" {
			t.Fatalf("tone %q has no instruction", tone)
		}
	}
}
