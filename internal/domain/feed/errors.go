package feed

import "errors"

// ---------------------------------------------------------------------------
// Feed Errors
// ---------------------------------------------------------------------------

var (
	// Transport errors, classified for the retry contract.
	// Retryable: the vendor API may succeed on a later attempt.
	ErrFeedUnavailable = errors.New("feed: vendor API temporarily unavailable")
	ErrFeedRateLimited = errors.New("feed: vendor API rate limited")

	// Terminal: retrying the same request cannot succeed.
	ErrFeedAuthFailed      = errors.New("feed: vendor API authentication failed")
	ErrFeedRequestRejected = errors.New("feed: vendor API rejected the request")
	ErrFeedInvalidResponse = errors.New("feed: invalid vendor API response")

	// Adapter resolution errors
	ErrAdapterNotRegistered = errors.New("feed: no adapter registered for API type")
	ErrAdapterInvalidConfig = errors.New("feed: invalid adapter configuration")
)

// IsRetryable reports whether a fetch error is worth retrying.
// HTTP 429 and 5xx responses and transient network failures map onto
// ErrFeedRateLimited/ErrFeedUnavailable; everything else is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrFeedUnavailable) || errors.Is(err, ErrFeedRateLimited)
}
