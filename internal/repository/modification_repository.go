package repository

import (
	"context"
	"errors"

	"pixelboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModificationRepository struct {
	db *gorm.DB
}

func NewModificationRepository(db *gorm.DB) *ModificationRepository {
	return &ModificationRepository{db: db}
}

func (r *ModificationRepository) Append(ctx context.Context, mod *model.PixelModification) error {
	return r.db.WithContext(ctx).Create(mod).Error
}

// LatestByUser returns the user's most recent placement on the board, or
// (nil, nil) when the user has never placed there.
func (r *ModificationRepository) LatestByUser(ctx context.Context, boardID, userID uuid.UUID) (*model.PixelModification, error) {
	var mod model.PixelModification
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Order("timestamp DESC").
		First(&mod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mod, nil
}

// LatestAt returns the most recent placement at a coordinate, or (nil, nil)
// when the pixel has never been painted.
func (r *ModificationRepository) LatestAt(ctx context.Context, boardID uuid.UUID, x, y int) (*model.PixelModification, error) {
	var mod model.PixelModification
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND x = ? AND y = ?", boardID, x, y).
		Order("timestamp DESC").
		First(&mod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mod, nil
}

// History returns the board's full ledger in chronological order.
func (r *ModificationRepository) History(ctx context.Context, boardID uuid.UUID) ([]model.PixelModification, error) {
	var mods []model.PixelModification
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("timestamp ASC").
		Find(&mods).Error
	return mods, err
}

// CountByCoordinate groups the ledger by coordinate and counts placements.
func (r *ModificationRepository) CountByCoordinate(ctx context.Context, boardID uuid.UUID) ([]model.CoordinateCount, error) {
	var counts []model.CoordinateCount
	err := r.db.WithContext(ctx).
		Model(&model.PixelModification{}).
		Select("x, y, COUNT(*) AS count").
		Where("board_id = ?", boardID).
		Group("x, y").
		Scan(&counts).Error
	return counts, err
}

func (r *ModificationRepository) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.PixelModification{}).Error
}
