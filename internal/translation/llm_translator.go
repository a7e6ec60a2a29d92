package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"subforge/internal/llmjson"
	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/subtitles"
	"subforge/internal/textutil"
)

// Completer is the subset of the chat client the translator needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMTranslator translates chunks with a chat completion model.
type LLMTranslator struct {
	client    Completer
	extractor *llmjson.Extractor
	logger    *slog.Logger
}

// NewLLMTranslator builds a translator. A nil extractor uses greedy defaults.
func NewLLMTranslator(client Completer, extractor *llmjson.Extractor, logger *slog.Logger) *LLMTranslator {
	if extractor == nil {
		extractor = llmjson.New(llmjson.Options{Logger: logger})
	}
	return &LLMTranslator{
		client:    client,
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "llm-translator"),
	}
}

const systemPromptTemplate = `You translate subtitle segments into %s.
%s
You receive a JSON array of segments with startTime, endTime, text, and optional speaker.
Return JSON of the form {"segments": [...]} with exactly %d segments in the same order.
Translate only text (and speaker names when they are not proper names).
Copy startTime and endTime unchanged. Do not merge, split, drop, or add segments.`

// TranslateChunk implements Translator.
func (t *LLMTranslator) TranslateChunk(ctx context.Context, req Request) ([]subtitles.Segment, error) {
	if t.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "translation", "translate chunk", "llm client unavailable", nil)
	}
	_, languageName, _ := textutil.NormalizeLanguage(req.TargetLanguage)
	systemPrompt := fmt.Sprintf(systemPromptTemplate, languageName, req.Tone.Instruction(), len(req.Segments))

	body, err := json.Marshal(req.Segments)
	if err != nil {
		return nil, fmt.Errorf("encode chunk: %w", err)
	}
	content, err := t.client.CompleteJSON(ctx, systemPrompt, string(body))
	if err != nil {
		return nil, err
	}

	segments, err := t.decode(content)
	if err != nil {
		logging.WithContext(ctx, t.logger).Debug("translation reply rejected",
			logging.String("snippet", textutil.Snippet(content, 200)),
			logging.Error(err),
		)
		return nil, err
	}
	return segments, nil
}

// decode accepts either a bare array or an object with a segments field.
func (t *LLMTranslator) decode(content string) ([]subtitles.Segment, error) {
	raw, _, ok := t.extractor.ExtractRaw(content)
	if !ok {
		return nil, llmjson.ErrNoJSON
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var segments []subtitles.Segment
		if err := json.Unmarshal(raw, &segments); err != nil {
			return nil, services.Wrap(services.ErrValidation, "translation", "decode reply", "segment array malformed", err)
		}
		return segments, nil
	}
	var envelope struct {
		Segments []subtitles.Segment `json:"segments"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, services.Wrap(services.ErrValidation, "translation", "decode reply", "segment envelope malformed", err)
	}
	if envelope.Segments == nil {
		return nil, services.Wrap(services.ErrValidation, "translation", "decode reply", "reply has no segments field", nil)
	}
	return envelope.Segments, nil
}
