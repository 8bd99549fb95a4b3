package types

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the retrieval engine
var (
	// ErrValidation is returned for bad input, before any backend call
	ErrValidation = errors.New("invalid request")
	// ErrInvalidRank means a hit carried a rank below 1
	ErrInvalidRank = errors.New("rank must be >= 1")
	// ErrUnknownBackend means a hit named a backend outside the closed set
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrMissingIdentity means a hit had neither ID nor title
	ErrMissingIdentity = errors.New("hit has no identity")

	// ErrBackendUnavailable marks a backend that could not be reached
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendTimeout marks a backend call that exceeded its budget
	ErrBackendTimeout = errors.New("backend timeout")
	// ErrBackendQuery marks a malformed backend request
	ErrBackendQuery = errors.New("malformed backend query")

	// ErrNoBackendAvailable means every selected backend was open or failed
	ErrNoBackendAvailable = errors.New("no backend available")
	// ErrTimeout means the overall request deadline was exceeded
	ErrTimeout = errors.New("request deadline exceeded")
)

// NoBackendAvailableError reports which backends were attempted and why each
// was skipped or failed, plus a suggested wait before retrying.
type NoBackendAvailableError struct {
	Attempted  map[Backend]SourceStatus
	RetryAfter time.Duration
}

func (e *NoBackendAvailableError) Error() string {
	return fmt.Sprintf("no backend available (attempted %d, retry after %s)",
		len(e.Attempted), e.RetryAfter)
}

// Unwrap lets callers match with errors.Is(err, ErrNoBackendAvailable)
func (e *NoBackendAvailableError) Unwrap() error {
	return ErrNoBackendAvailable
}
