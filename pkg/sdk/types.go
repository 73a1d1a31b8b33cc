package postgen

import (
	"time"

	"github.com/kailas-cloud/postgen/internal/domain"
)

// Tone is the voice of a generated post.
type Tone string

// Supported tones.
const (
	ToneProfessional = Tone(domain.ToneProfessional)
	ToneWitty        = Tone(domain.ToneWitty)
	ToneBold         = Tone(domain.ToneBold)
	ToneHumble       = Tone(domain.ToneHumble)
)

// Tones returns all supported tones in display order.
func Tones() []Tone {
	dt := domain.Tones()
	out := make([]Tone, len(dt))
	for i, t := range dt {
		out[i] = Tone(t)
	}
	return out
}

// GenerateRequest is one generation attempt.
type GenerateRequest struct {
	// ClientID identifies the caller for quota purposes, typically its IP address.
	ClientID string
	Idea     string
	// Tone defaults to ToneProfessional when empty.
	Tone     Tone
	Password string
}

// Decision explains how the quota gate treated a request.
type Decision string

// Decision values.
const (
	DecisionFree            Decision = "free"
	DecisionBypass          Decision = "bypass"
	DecisionUnlimited       Decision = "unlimited"
	DecisionUpgradeRequired Decision = "upgrade required"
	DecisionInvalidInput    Decision = "invalid input"
)

// Post is a generated post.
type Post struct {
	ID        string
	Text      string
	Tone      Tone
	Model     string
	CreatedAt time.Time
}

// GenerateResult is returned for every attempt, including failed ones.
// Post is nil unless generation succeeded.
type GenerateResult struct {
	Post *Post
	// Remaining is the free generations left before this request was counted.
	Remaining int
	Decision  Decision
}
