package model

import (
	"time"

	"github.com/google/uuid"
)

type BoardStatus string

const (
	StatusCreating  BoardStatus = "creating"
	StatusActive    BoardStatus = "active"
	StatusNonActive BoardStatus = "non-active"
	StatusFinished  BoardStatus = "finished"
)

// CanTransitionTo reports whether a board may move from s to next.
// "finished" is terminal.
func (s BoardStatus) CanTransitionTo(next BoardStatus) bool {
	if s == StatusFinished {
		return false
	}
	switch next {
	case StatusActive:
		return s == StatusCreating || s == StatusNonActive
	case StatusNonActive:
		return s == StatusActive
	case StatusFinished:
		return true
	}
	return false
}

type Board struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name    string    `gorm:"not null"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null"`

	Width     int `gorm:"not null"`
	Height    int `gorm:"not null"`
	ChunkSize int `gorm:"not null"`

	// PlacementDelay is the minimum wait between two placements by the
	// same user, in milliseconds. Convert through PlacementDelayDuration;
	// nothing else may interpret the raw value.
	PlacementDelay int64 `gorm:"not null"`

	Status     BoardStatus `gorm:"type:varchar(16);not null;default:'creating';index"`
	EndingDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Board) PlacementDelayDuration() time.Duration {
	return time.Duration(b.PlacementDelay) * time.Millisecond
}

// Contains reports whether the global coordinate lies inside the board extent.
func (b *Board) Contains(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}
