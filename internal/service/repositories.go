package service

import (
	"context"

	"pixelboard/internal/model"

	"github.com/google/uuid"
)

// Repository contracts consumed by the services. The GORM implementations
// live in internal/repository; tests substitute in-memory fakes.

type BoardRepository interface {
	Create(ctx context.Context, board *model.Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	List(ctx context.Context) ([]model.Board, error)
	ListByStatus(ctx context.Context, status model.BoardStatus) ([]model.Board, error)
	Update(ctx context.Context, board *model.Board) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BoardStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.BoardStatus) (int64, error)
}

type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []model.Chunk) error
	GetByPosition(ctx context.Context, boardID uuid.UUID, x, y int) (*model.Chunk, error)
	UpdateData(ctx context.Context, boardID uuid.UUID, x, y int, data []byte) error
	DeleteOutside(ctx context.Context, boardID uuid.UUID, width, height int) error
	DeleteByBoard(ctx context.Context, boardID uuid.UUID) error
}

type ModificationRepository interface {
	Append(ctx context.Context, mod *model.PixelModification) error
	LatestByUser(ctx context.Context, boardID, userID uuid.UUID) (*model.PixelModification, error)
	LatestAt(ctx context.Context, boardID uuid.UUID, x, y int) (*model.PixelModification, error)
	History(ctx context.Context, boardID uuid.UUID) ([]model.PixelModification, error)
	CountByCoordinate(ctx context.Context, boardID uuid.UUID) ([]model.CoordinateCount, error)
	DeleteByBoard(ctx context.Context, boardID uuid.UUID) error
}

type HeatmapRepository interface {
	Save(ctx context.Context, snapshot *model.HeatmapSnapshot) error
	LatestByBoard(ctx context.Context, boardID uuid.UUID) (*model.HeatmapSnapshot, error)
	DeleteByBoard(ctx context.Context, boardID uuid.UUID) error
}

// Publisher fans a confirmed pixel change out to a board's subscribers.
// Implemented by the websocket hub; must never block the caller.
type Publisher interface {
	Publish(boardID uuid.UUID, x, y int, color string)
}
