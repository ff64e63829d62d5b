package api

import (
	"context"
	"errors"
)

var (
	// ErrInvalidGrid marks a malformed beat grid. Scoring cannot
	// proceed without a valid grid, so this is fatal to session start.
	ErrInvalidGrid = errors.New("api: malformed beat grid")

	ErrSessionNotFound = errors.New("api: unknown session")
)

// Provider is the session-generation collaborator: the HTTP client
// against a remote service, or the in-process local implementation.
type Provider interface {
	Start(ctx context.Context, req StartRequest) (*StartResponse, error)
	Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error)
}

// ValidateGrid enforces a non-empty, non-negative, strictly increasing
// beat sequence.
func ValidateGrid(beatTimes []float64) error {
	if len(beatTimes) == 0 {
		return ErrInvalidGrid
	}
	if beatTimes[0] < 0 {
		return ErrInvalidGrid
	}
	for i := 1; i < len(beatTimes); i++ {
		if beatTimes[i] <= beatTimes[i-1] {
			return ErrInvalidGrid
		}
	}
	return nil
}
