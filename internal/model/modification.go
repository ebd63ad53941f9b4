package model

import (
	"time"

	"github.com/google/uuid"
)

// PixelModification is one ledger row: who painted which pixel, when, and with
// what color. The ledger is append-only; the full history is kept so the
// heatmap can count repeated paints of the same coordinate.
type PixelModification struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID uuid.UUID `gorm:"type:uuid;not null;index:idx_mods_board_pos;index:idx_mods_board_user"`
	X       int       `gorm:"not null;index:idx_mods_board_pos"`
	Y       int       `gorm:"not null;index:idx_mods_board_pos"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index:idx_mods_board_user"`

	// Color is the canonical palette hex string, e.g. "#E50000".
	Color     string    `gorm:"type:varchar(7);not null"`
	Timestamp time.Time `gorm:"not null;index"`
}

func (PixelModification) TableName() string {
	return "pixel_modifications"
}

// CoordinateCount is the scan target for the per-coordinate ledger aggregation.
type CoordinateCount struct {
	X     int
	Y     int
	Count int64
}
