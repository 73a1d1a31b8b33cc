package postgen

import "github.com/kailas-cloud/postgen/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyIdea          = domain.ErrEmptyIdea
	ErrInvalidTone        = domain.ErrInvalidTone
	ErrQuotaExceeded      = domain.ErrQuotaExceeded
	ErrGenerationProvider = domain.ErrGenerationProvider
	ErrGenerationTimeout  = domain.ErrGenerationTimeout
	ErrRateLimited        = domain.ErrRateLimited
)

// QuotaExceededError carries the upgrade link. Match with errors.As.
type QuotaExceededError = domain.QuotaExceededError

// UpstreamError is a failed provider call. StatusCode is zero for transport failures.
type UpstreamError = domain.UpstreamError

// IsRetryable reports whether resubmitting the same request may succeed.
func IsRetryable(err error) bool {
	return domain.IsRetryable(err)
}
