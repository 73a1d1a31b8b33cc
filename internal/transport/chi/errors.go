package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/postgen/internal/domain"
)

// ErrorCode is a machine-readable error identifier in JSON responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeQuotaExceeded    ErrorCode = "quota_exceeded"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeProviderTimeout  ErrorCode = "generation_timeout"
	ErrorCodeProviderError    ErrorCode = "generation_provider_error"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable,omitempty"`
	// Remaining is set on generation endpoints.
	Remaining *int `json:"remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// classify maps a generation error to an HTTP status and code.
func classify(err error) (int, ErrorCode) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, ErrorCodeValidationFailed
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusPaymentRequired, ErrorCodeQuotaExceeded
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorCodeRateLimited
	case errors.Is(err, domain.ErrGenerationTimeout):
		return http.StatusGatewayTimeout, ErrorCodeProviderTimeout
	case errors.Is(err, domain.ErrGenerationProvider):
		return http.StatusBadGateway, ErrorCodeProviderError
	default:
		return http.StatusInternalServerError, ErrorCodeInternalError
	}
}

// userMessage returns the text shown to the caller. Upstream failures are shown verbatim.
func userMessage(err error) string {
	var qe *domain.QuotaExceededError
	if errors.As(err, &qe) {
		return qe.Error()
	}
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	switch {
	case errors.Is(err, domain.ErrEmptyIdea):
		return "Please enter an idea."
	case errors.Is(err, domain.ErrInvalidTone):
		return "Please pick one of the listed tones."
	default:
		return "Something went wrong. Please try again."
	}
}
