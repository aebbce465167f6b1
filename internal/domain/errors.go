package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Components wrap these sentinels with context via
// fmt.Errorf("...: %w", err); the API layer maps them to HTTP status codes
// and nothing else inspects status codes directly.
var (
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrRateLimited  = errors.New("too many requests")
)

// UpstreamError reports a failure from the external catalog. Status carries
// the upstream HTTP status code so the gateway can mirror it to callers.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog upstream returned %d", e.Status)
	}
	return fmt.Sprintf("catalog upstream returned %d: %s", e.Status, e.Message)
}
