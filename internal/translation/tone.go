package translation

import (
	"fmt"
	"strings"
)

// Tone is a closed set of style profiles for translated dialogue.
type Tone string

const (
	ToneNeutral   Tone = "neutral"
	ToneFormal    Tone = "formal"
	ToneCasual    Tone = "casual"
	ToneCinematic Tone = "cinematic"
	TonePlayful   Tone = "playful"
)

var toneInstructions = map[Tone]string{
	ToneNeutral:   "Translate faithfully in a neutral register. Preserve meaning and keep lines roughly the same length as the source.",
	ToneFormal:    "Use a formal, polite register. Avoid slang and contractions and prefer complete sentences.",
	ToneCasual:    "Use relaxed, conversational language the way native speakers talk to friends. Contractions and light slang are fine.",
	ToneCinematic: "Write like a professional film subtitler: concise, natural, and easy to read at a glance. Favour brevity over literal wording.",
	TonePlayful:   "Keep the tone light and witty. Adapt jokes and idioms so they land in the target language rather than translating them literally.",
}

// Tones lists every supported tone in display order.
func Tones() []Tone {
	return []Tone{ToneNeutral, ToneFormal, ToneCasual, ToneCinematic, TonePlayful}
}

// ParseTone converts a label into a Tone. Empty input yields ToneNeutral.
func ParseTone(value string) (Tone, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ToneNeutral, nil
	}
	tone := Tone(value)
	if _, ok := toneInstructions[tone]; !ok {
		return "", fmt.Errorf("unknown tone %q (expected one of %s)", value, joinTones())
	}
	return tone, nil
}

// Instruction returns the fixed prompt instruction for the tone.
func (t Tone) Instruction() string {
	if instruction, ok := toneInstructions[t]; ok {
		return instruction
	}
	return toneInstructions[ToneNeutral]
}

func joinTones() string {
	tones := Tones()
	names := make([]string, len(tones))
	for i, tone := range tones {
		names[i] = string(tone)
	}
	return strings.Join(names, ", ")
}
