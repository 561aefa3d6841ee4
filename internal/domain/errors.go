package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrListingNotFound indicates the requested listing does not exist
	ErrListingNotFound = errors.New("listing not found")

	// ErrServerOffline indicates the listing server is unreachable
	ErrServerOffline = errors.New("listing server is unreachable")

	// ErrAuthFailed indicates the server rejected our credentials
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrInvalidQuery indicates a listing query that cannot be executed
	ErrInvalidQuery = errors.New("invalid listing query")

	// ErrInvalidCursor indicates a cursor token that could not be decoded
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInvalidListing indicates a listing missing required fields
	ErrInvalidListing = errors.New("invalid listing")

	// ErrNotOwner indicates a write to a listing owned by someone else
	ErrNotOwner = errors.New("listing is owned by another user")

	// ErrInvalidCredentials indicates a failed sign-in
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserExists indicates sign-up with an email already registered
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound indicates the requested account does not exist
	ErrUserNotFound = errors.New("user not found")
)

// FetchError is returned by listing fetches. Retryable failures leave the
// caller free to issue the same request again.
type FetchError struct {
	Op        string // "initialize" or "load next"
	Err       error
	Retryable bool
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError classifies err and wraps it
func NewFetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Err: err, Retryable: classifyRetryable(err)}
}

// IsRetryable reports whether err is a fetch failure worth retrying
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return classifyRetryable(err)
}

func classifyRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAuthFailed),
		errors.Is(err, ErrInvalidQuery),
		errors.Is(err, ErrInvalidCursor),
		errors.Is(err, context.Canceled):
		return false
	default:
		// Offline, timeouts and unexpected server errors
		return true
	}
}
