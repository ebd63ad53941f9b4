package repository

import (
	"context"
	"errors"

	"pixelboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Create(board).Error
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil to indicate that the board was not found
		}
		return nil, err
	}
	return &board, nil
}

func (r *BoardRepository) List(ctx context.Context) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) ListByStatus(ctx context.Context, status model.BoardStatus) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at DESC").Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Save(board).Error
}

func (r *BoardRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BoardStatus) error {
	return r.db.WithContext(ctx).Model(&model.Board{}).Where("id = ?", id).Update("status", status).Error
}

func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Board{}).Error
}

func (r *BoardRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Board{}).Count(&count).Error
	return count, err
}

func (r *BoardRepository) CountByStatus(ctx context.Context, status model.BoardStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Board{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
