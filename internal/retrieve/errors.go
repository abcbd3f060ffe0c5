package retrieve

import (
	"errors"
	"fmt"
)

// Common errors returned by the retrieval client.
var (
	// ErrNotFound indicates the identifier resolved to nothing.
	ErrNotFound = errors.New("identifier not found")

	// ErrRateLimited indicates the provider asked us to slow down.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrNetworkError indicates a connectivity issue.
	ErrNetworkError = errors.New("network error reaching provider")

	// ErrInvalidResponse indicates an unusable provider response.
	ErrInvalidResponse = errors.New("invalid response from provider")

	// ErrNotPDF indicates a downloaded file failed the PDF sniff.
	ErrNotPDF = errors.New("downloaded file is not a PDF")
)

// APIError carries the HTTP status of a failed provider request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
