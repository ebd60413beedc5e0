package editing

import "errors"

// Common errors returned by the editing service implementations.
var (
	// ErrRateLimited is returned when the provider rejects a request
	// with a rate-limit condition (HTTP 429 or equivalent). It is
	// transient: the batch scheduler handles it with a cooldown and a
	// requeue rather than marking the record failed.
	ErrRateLimited = errors.New("rate limited by image service")

	// ErrContentBlocked is returned when the provider blocks the
	// request or response through its safety filters.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrEmptyResponse is returned when the provider answers without
	// usable content (no candidates, or no image part in an edit call).
	ErrEmptyResponse = errors.New("empty response from image service")

	// ErrInvalidImage is returned when an image payload is malformed
	// and cannot be submitted.
	ErrInvalidImage = errors.New("invalid image payload")

	// ErrInvalidConfig is returned when the service configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid editing service configuration")
)

// IsRateLimit reports whether the error is the transient rate-limit
// condition. Everything else is treated as a generic per-record
// failure.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
