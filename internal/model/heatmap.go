package model

import (
	"time"

	"github.com/google/uuid"
)

type HeatmapCell struct {
	X                 int   `json:"x"`
	Y                 int   `json:"y"`
	ModificationCount int64 `json:"modificationCount"`
}

// HeatmapSnapshot is a generated heatmap kept for reuse until it goes stale.
type HeatmapSnapshot struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID     uuid.UUID `gorm:"type:uuid;not null;index:idx_heatmaps_board_generated"`
	GeneratedAt time.Time `gorm:"not null;index:idx_heatmaps_board_generated"`

	Cells              []HeatmapCell `gorm:"serializer:json;type:jsonb"`
	TotalModifications int64         `gorm:"not null;default:0"`
	MaxModifications   int64         `gorm:"not null;default:0"`
}

func (HeatmapSnapshot) TableName() string {
	return "heatmap_snapshots"
}
