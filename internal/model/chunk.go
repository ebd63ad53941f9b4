package model

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one fixed-size tile of a board. X and Y are the chunk origin in
// global pixel units (multiples of the board's chunk size). Data packs two
// 4-bit palette indices per byte in row-major local order, so its length is
// chunkSize²/2.
type Chunk struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chunks_board_pos"`
	X       int       `gorm:"not null;uniqueIndex:idx_chunks_board_pos"`
	Y       int       `gorm:"not null;uniqueIndex:idx_chunks_board_pos"`

	Data        []byte `gorm:"type:bytea;not null"`
	LastUpdated time.Time
}

func (Chunk) TableName() string {
	return "chunks"
}
