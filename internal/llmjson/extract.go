package llmjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/textutil"
)

// Mode selects how the bracket attempt chooses its candidate substring.
type Mode int

const (
	// ModeGreedy takes the first opener through the last matching closer in
	// the whole text. A candidate that over-captures two values fails unless
	// Options.AllowTrailing is set.
	ModeGreedy Mode = iota
	// ModeBalanced takes the first opener through its balanced closer.
	ModeBalanced
)

const defaultSnippetLimit = 100

// ErrNoJSON is returned by Decode when every attempt failed.
var ErrNoJSON = fmt.Errorf("%w: model output could not be interpreted as JSON", services.ErrValidation)

// ParseMode converts a configuration value into a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "greedy":
		return ModeGreedy, nil
	case "balanced":
		return ModeBalanced, nil
	default:
		return ModeGreedy, fmt.Errorf("unknown extraction mode %q", value)
	}
}

func (m Mode) String() string {
	if m == ModeBalanced {
		return "balanced"
	}
	return "greedy"
}

// Options configures an Extractor.
type Options struct {
	Mode Mode
	// AllowTrailing adds the prefix attempt, which accepts the first complete
	// value of the bracket candidate and ignores any text after it.
	AllowTrailing bool
	SnippetLimit  int
	Logger        *slog.Logger
}

// Extractor recovers JSON values from model output. It is safe for concurrent use.
type Extractor struct {
	mode         Mode
	snippetLimit int
	logger       *slog.Logger
	attempts     []attempt
}

// attempt is one step of the cascade. run receives the trimmed input and
// reports the raw JSON it recovered, if any.
type attempt struct {
	name string
	run  func(trimmed string) (json.RawMessage, bool)
}

// New constructs an Extractor.
func New(opts Options) *Extractor {
	limit := opts.SnippetLimit
	if limit <= 0 {
		limit = defaultSnippetLimit
	}
	e := &Extractor{
		mode:         opts.Mode,
		snippetLimit: limit,
		logger:       logging.NewComponentLogger(opts.Logger, "llmjson"),
	}
	e.attempts = []attempt{
		{name: "fenced", run: fromFences},
		{name: "bracket", run: e.fromBracket},
		{name: "sanitized", run: e.fromSanitizedBracket},
	}
	if opts.AllowTrailing {
		e.attempts = append(e.attempts, attempt{name: "prefix", run: e.fromBracketPrefix})
	}
	e.attempts = append(e.attempts, attempt{name: "verbatim", run: parse})
	return e
}

var defaultExtractor = New(Options{})

// Extract runs the default greedy extractor. See Extractor.Extract.
func Extract(text string) (any, bool) {
	return defaultExtractor.Extract(text)
}

// Decode runs the default greedy extractor. See Extractor.Decode.
func Decode(text string, target any) error {
	return defaultExtractor.Decode(text, target)
}

// Strategies lists the attempt names in cascade order.
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.attempts))
	for i, a := range e.attempts {
		names[i] = a.name
	}
	return names
}

// ExtractRaw returns the raw JSON recovered from text together with the name
// of the attempt that produced it.
func (e *Extractor) ExtractRaw(text string) (json.RawMessage, string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, "", false
	}
	for _, a := range e.attempts {
		if raw, ok := a.run(trimmed); ok {
			return raw, a.name, true
		}
	}
	logging.WarnWithContext(e.logger, "no json found in model output", "json_extraction_failed",
		logging.String("snippet", textutil.Snippet(trimmed, e.snippetLimit)),
		logging.Int("length", len(trimmed)),
		logging.String(logging.FieldErrorHint, "inspect the model response or retry the request"),
		logging.String(logging.FieldImpact, "caller receives no structured value"),
	)
	return nil, "", false
}

// Extract returns the decoded JSON value (map[string]any, []any, string,
// float64, bool, or nil for a literal null) and whether one was found.
func (e *Extractor) Extract(text string) (any, bool) {
	raw, _, ok := e.ExtractRaw(text)
	if !ok {
		return nil, false
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false
	}
	return value, true
}

// Decode extracts JSON from text and unmarshals it into target.
func (e *Extractor) Decode(text string, target any) error {
	raw, strategy, ok := e.ExtractRaw(text)
	if !ok {
		return ErrNoJSON
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode %s payload: %w (payload snippet: %s)",
			services.ErrValidation, strategy, err, textutil.Snippet(string(raw), e.snippetLimit))
	}
	return nil
}

func parse(candidate string) (json.RawMessage, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

// fencePattern matches ``` blocks with an optional language tag on the
// opening line.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")

func fromFences(trimmed string) (json.RawMessage, bool) {
	for _, match := range fencePattern.FindAllStringSubmatch(trimmed, -1) {
		if raw, ok := parse(match[1]); ok {
			return raw, true
		}
	}
	return nil, false
}

func (e *Extractor) fromBracket(trimmed string) (json.RawMessage, bool) {
	candidate, ok := e.candidate(trimmed)
	if !ok {
		return nil, false
	}
	return parse(candidate)
}

func (e *Extractor) fromSanitizedBracket(trimmed string) (json.RawMessage, bool) {
	candidate, ok := e.candidate(trimmed)
	if !ok {
		return nil, false
	}
	sanitized := sanitize(candidate)
	if sanitized == candidate {
		return nil, false
	}
	return parse(sanitized)
}

func (e *Extractor) fromBracketPrefix(trimmed string) (json.RawMessage, bool) {
	candidate, ok := e.candidate(trimmed)
	if !ok {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(candidate))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	return raw, true
}

func (e *Extractor) candidate(text string) (string, bool) {
	if e.mode == ModeBalanced {
		if candidate, ok := balancedCandidate(text); ok {
			return candidate, true
		}
	}
	return greedyCandidate(text)
}

// greedyCandidate picks the object or array whose opener appears first (and
// has a later closer), then spans to the last closer of that kind.
func greedyCandidate(text string) (string, bool) {
	objStart, objEnd := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}')
	arrStart, arrEnd := strings.IndexByte(text, '['), strings.LastIndexByte(text, ']')
	objOK := objStart >= 0 && objEnd > objStart
	arrOK := arrStart >= 0 && arrEnd > arrStart

	switch {
	case objOK && arrOK:
		if objStart < arrStart {
			return text[objStart : objEnd+1], true
		}
		return text[arrStart : arrEnd+1], true
	case objOK:
		return text[objStart : objEnd+1], true
	case arrOK:
		return text[arrStart : arrEnd+1], true
	default:
		return "", false
	}
}

// balancedCandidate returns the first opener through its matching closer,
// skipping brackets that appear inside string literals.
func balancedCandidate(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// sanitize re-escapes raw newlines, carriage returns, and tabs that appear
// inside string literals and turns \' (not a JSON escape) into a bare quote.
func sanitize(candidate string) string {
	var b strings.Builder
	b.Grow(len(candidate) + 16)
	inString := false
	for i := 0; i < len(candidate); i++ {
		c := candidate[i]
		if c == '\\' && i+1 < len(candidate) {
			next := candidate[i+1]
			if next == '\'' {
				b.WriteByte('\'')
				i++
				continue
			}
			b.WriteByte(c)
			if inString {
				b.WriteByte(next)
				i++
			}
			continue
		}
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inString = false
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			if i+1 < len(candidate) && candidate[i+1] == '\n' {
				i++
			}
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
