package repository

import (
	"context"
	"errors"
	"time"

	"pixelboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// CreateBatch inserts chunks, silently skipping coordinates that already
// exist. Provisioning is idempotent per (board, x, y).
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "board_id"}, {Name: "x"}, {Name: "y"}},
		DoNothing: true,
	}).Create(&chunks).Error
}

func (r *ChunkRepository) GetByPosition(ctx context.Context, boardID uuid.UUID, x, y int) (*model.Chunk, error) {
	var chunk model.Chunk
	if err := r.db.WithContext(ctx).Where("board_id = ? AND x = ? AND y = ?", boardID, x, y).First(&chunk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

func (r *ChunkRepository) UpdateData(ctx context.Context, boardID uuid.UUID, x, y int, data []byte) error {
	return r.db.WithContext(ctx).Model(&model.Chunk{}).
		Where("board_id = ? AND x = ? AND y = ?", boardID, x, y).
		Updates(map[string]interface{}{"data": data, "last_updated": time.Now()}).Error
}

// DeleteOutside removes every chunk whose origin falls outside the given
// extent. Used when a board shrinks.
func (r *ChunkRepository) DeleteOutside(ctx context.Context, boardID uuid.UUID, width, height int) error {
	return r.db.WithContext(ctx).
		Where("board_id = ? AND (x >= ? OR y >= ?)", boardID, width, height).
		Delete(&model.Chunk{}).Error
}

func (r *ChunkRepository) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.Chunk{}).Error
}
