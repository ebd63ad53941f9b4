package repository

import (
	"context"
	"errors"

	"pixelboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HeatmapRepository struct {
	db *gorm.DB
}

func NewHeatmapRepository(db *gorm.DB) *HeatmapRepository {
	return &HeatmapRepository{db: db}
}

func (r *HeatmapRepository) Save(ctx context.Context, snapshot *model.HeatmapSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// LatestByBoard returns the most recently generated snapshot for a board, or
// (nil, nil) when none has been generated yet.
func (r *HeatmapRepository) LatestByBoard(ctx context.Context, boardID uuid.UUID) (*model.HeatmapSnapshot, error) {
	var snapshot model.HeatmapSnapshot
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("generated_at DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *HeatmapRepository) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.HeatmapSnapshot{}).Error
}
