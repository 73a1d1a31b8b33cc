package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIdea signals a blank idea submission.
	ErrEmptyIdea = errors.New("please enter an idea")
	// ErrInvalidTone signals a tone outside the supported set.
	ErrInvalidTone = errors.New("invalid tone")
	// ErrQuotaExceeded signals an exhausted free quota without a valid bypass password.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrGenerationProvider signals a text generation provider failure.
	ErrGenerationProvider = errors.New("generation provider error")
	// ErrGenerationTimeout signals that the provider did not answer in time.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrGenerationEmpty signals a provider response without choices.
	ErrGenerationEmpty = errors.New("empty generation response")
	// ErrRateLimited signals a provider-side rate limit.
	ErrRateLimited = errors.New("rate limited")
)

// QuotaExceededError wraps ErrQuotaExceeded with the upgrade link shown to the caller.
type QuotaExceededError struct {
	Remaining  int
	UpgradeURL string
}

func (e *QuotaExceededError) Error() string {
	if e.UpgradeURL == "" {
		return "Upgrade to Pro to keep generating posts"
	}
	return fmt.Sprintf("Upgrade to Pro: %s", e.UpgradeURL)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyIdea) || errors.Is(err, ErrInvalidTone)
}

// IsRetryable reports whether the failed generation may succeed if the caller submits again.
// Nothing retries automatically.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrGenerationTimeout) || errors.Is(err, ErrRateLimited)
}

// UpstreamError is a failed call to the generation provider, rendered verbatim to the caller.
// StatusCode is zero for transport failures.
type UpstreamError struct {
	StatusCode int
	Message    string
	// Cause classifies the failure (ErrGenerationTimeout, ErrRateLimited, ErrGenerationEmpty), may be nil.
	Cause error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("Error %d: %s", e.StatusCode, e.Message)
	}
	return "Connection failed: " + e.Message
}

func (e *UpstreamError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrGenerationProvider}
	}
	return []error{ErrGenerationProvider, e.Cause}
}
