package monzo

import (
	"errors"
	"fmt"
)

// RateLimitError indicates the API kept returning 429 after the retry
// budget was exhausted.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("monzo: rate limit exceeded after %d attempts; wait a minute and retry", e.Attempts)
}

// ServiceUnavailableError indicates the Monzo API kept failing with a
// server error after the retry budget was exhausted.
type ServiceUnavailableError struct {
	StatusCode int
	Attempts   int
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("monzo: api.monzo.com unavailable (status %d after %d attempts)", e.StatusCode, e.Attempts)
}

// APIError represents any other Monzo API error response. Not retried.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("monzo: API error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("monzo: API error %d (URL: %s)", e.StatusCode, e.URL)
}

// IsRateLimited checks if the error indicates an exhausted rate limit.
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// IsUnavailable checks if the error indicates a persistent server failure.
func IsUnavailable(err error) bool {
	var suErr *ServiceUnavailableError
	return errors.As(err, &suErr)
}
