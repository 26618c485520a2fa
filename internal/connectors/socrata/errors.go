package socrata

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

// Socrata-specific errors.
var (
	// ErrMissingUpdateTime indicates the metadata carried no rowsUpdatedAt.
	ErrMissingUpdateTime = errors.New("socrata: dataset metadata has no rowsUpdatedAt")

	// ErrUnexpectedPayload indicates a response body of the wrong shape.
	ErrUnexpectedPayload = errors.New("socrata: unexpected response payload")
)

// RateLimitError represents a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
	URL        string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("socrata: rate limit exceeded, retry after %s (URL: %s)", e.RetryAfter, e.URL)
}

// Unwrap lets callers match domain.ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// APIError represents a non-success Socrata API response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("socrata: API error %d (%s): %s (URL: %s)", e.StatusCode, e.Code, e.Message, e.URL)
	}
	return fmt.Sprintf("socrata: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap maps 404 to domain.ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// IsNotFound checks if the error indicates the dataset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized checks if the error indicates a rejected token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
