package service

import (
	"errors"
	"fmt"
	"time"
)

// Engine error taxonomy. Handlers map these onto HTTP statuses.
var (
	// ErrOutOfBounds is returned when a coordinate falls outside the board extent
	ErrOutOfBounds = errors.New("coordinates outside board extent")

	// ErrInvalidColor is returned when a color is not part of the palette
	ErrInvalidColor = errors.New("unknown palette color")

	// ErrInvalidDimensions is returned when board dimensions are not positive multiples of the chunk size
	ErrInvalidDimensions = errors.New("board dimensions must be positive multiples of the chunk size")

	// ErrBoardNotFound is returned when a board is not found
	ErrBoardNotFound = errors.New("board not found")

	// ErrChunkNotFound is returned when a pixel's chunk does not exist,
	// e.g. a stale client referencing a region removed by a shrink
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrBoardNotActive is returned when placements are rejected because the board is not active
	ErrBoardNotActive = errors.New("board is not active")

	// ErrBoardBusy is returned when a placement collides with an in-flight resize; retryable
	ErrBoardBusy = errors.New("board is busy")

	// ErrBoardFinished is returned when a write or resize hits a finished board
	ErrBoardFinished = errors.New("board is finished")

	// ErrInvalidTransition is returned for a disallowed status change
	ErrInvalidTransition = errors.New("invalid board status transition")

	// ErrRateLimited matches RateLimitError via errors.Is
	ErrRateLimited = errors.New("placement rate limited")
)

// RateLimitError is a placement denial carrying the remaining cooldown.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("placement rate limited, retry in %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
