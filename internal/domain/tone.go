package domain

import (
	"fmt"
	"strings"
)

// Tone is the voice requested for a generated post.
type Tone string

// Supported tones.
const (
	ToneProfessional Tone = "professional"
	ToneWitty        Tone = "witty"
	ToneBold         Tone = "bold"
	ToneHumble       Tone = "humble"
)

// DefaultTone is used when the form omits the tone field.
const DefaultTone = ToneProfessional

// Tones returns the supported tones in display order.
func Tones() []Tone {
	return []Tone{ToneProfessional, ToneWitty, ToneBold, ToneHumble}
}

// ParseTone validates a raw tone value. Empty input falls back to DefaultTone.
func ParseTone(s string) (Tone, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultTone, nil
	}
	for _, t := range Tones() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTone, s)
}

// Title returns the tone label shown in the form.
func (t Tone) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}
