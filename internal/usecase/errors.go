package usecase

import "errors"

// Service-level failures. Domain errors from package competition pass
// through wrapped; these cover what the domain cannot know.
var (
	// ErrInvalidInput is a request that failed decoding or validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound wraps a missing competition, match or team lookup.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized is a missing or wrong admin token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDependencyUnavailable marks the store or event stream as down.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
