package service

import (
	"context"
	"time"

	"pixelboard/internal/model"

	"github.com/google/uuid"
)

// BoardService drives the board state machine and the chunk provisioning
// that goes with it: creating -> active -> {non-active <-> active} -> finished.
type BoardService struct {
	boards   BoardRepository
	store    *ChunkStore
	mods     ModificationRepository
	heatmaps HeatmapRepository
	locks    *BoardLocks
	now      func() time.Time
}

func NewBoardService(boards BoardRepository, store *ChunkStore, mods ModificationRepository, heatmaps HeatmapRepository, locks *BoardLocks) *BoardService {
	return &BoardService{
		boards:   boards,
		store:    store,
		mods:     mods,
		heatmaps: heatmaps,
		locks:    locks,
		now:      time.Now,
	}
}

type CreateBoardParams struct {
	Name           string
	OwnerID        uuid.UUID
	Width          int
	Height         int
	ChunkSize      int
	PlacementDelay int64 // milliseconds
	EndingDate     *time.Time
}

func validateDimensions(width, height, chunkSize int) error {
	if chunkSize <= 0 || width <= 0 || height <= 0 {
		return ErrInvalidDimensions
	}
	if width%chunkSize != 0 || height%chunkSize != 0 {
		return ErrInvalidDimensions
	}
	return nil
}

// Create persists the board in "creating", provisions its chunk grid, then
// activates it. No placement is accepted until activation.
func (s *BoardService) Create(ctx context.Context, p CreateBoardParams) (*model.Board, error) {
	if err := validateDimensions(p.Width, p.Height, p.ChunkSize); err != nil {
		return nil, err
	}

	board := &model.Board{
		ID:             uuid.New(),
		Name:           p.Name,
		OwnerID:        p.OwnerID,
		Width:          p.Width,
		Height:         p.Height,
		ChunkSize:      p.ChunkSize,
		PlacementDelay: p.PlacementDelay,
		Status:         model.StatusCreating,
		EndingDate:     p.EndingDate,
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, err
	}
	if err := s.store.Provision(ctx, board); err != nil {
		return nil, err
	}
	if err := s.boards.UpdateStatus(ctx, board.ID, model.StatusActive); err != nil {
		return nil, err
	}
	board.Status = model.StatusActive
	return board, nil
}

func (s *BoardService) Get(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	board, err := s.boards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}
	return board, nil
}

func (s *BoardService) List(ctx context.Context) ([]model.Board, error) {
	return s.boards.List(ctx)
}

func (s *BoardService) ListByStatus(ctx context.Context, status model.BoardStatus) ([]model.Board, error) {
	return s.boards.ListByStatus(ctx, status)
}

// SetStatus applies a status transition. Finished boards reject everything.
func (s *BoardService) SetStatus(ctx context.Context, id uuid.UUID, next model.BoardStatus) (*model.Board, error) {
	board, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if board.Status == model.StatusFinished {
		return nil, ErrBoardFinished
	}
	if !board.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	if err := s.boards.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	board.Status = next
	return board, nil
}

// Resize reshapes the board under its write lock, so in-flight placements
// can never target a chunk being deleted. Placements arriving during the
// resize fail with ErrBoardBusy.
func (s *BoardService) Resize(ctx context.Context, id uuid.UUID, newWidth, newHeight int) (*model.Board, error) {
	board, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if board.Status == model.StatusFinished {
		return nil, ErrBoardFinished
	}
	if err := validateDimensions(newWidth, newHeight, board.ChunkSize); err != nil {
		return nil, err
	}

	lock := s.locks.Get(board.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Resize(ctx, board, newWidth, newHeight); err != nil {
		return nil, err
	}
	board.Width = newWidth
	board.Height = newHeight
	if err := s.boards.Update(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

// TimeLeft reports the time until the board's ending date. A board whose
// ending date has elapsed is lazily transitioned to finished and the
// transition persisted. The bool is false when the board never ends.
func (s *BoardService) TimeLeft(ctx context.Context, id uuid.UUID) (time.Duration, bool, error) {
	board, err := s.Get(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if board.EndingDate == nil {
		return 0, false, nil
	}

	left := board.EndingDate.Sub(s.now())
	if left <= 0 {
		if board.Status != model.StatusFinished {
			if err := s.boards.UpdateStatus(ctx, id, model.StatusFinished); err != nil {
				return 0, true, err
			}
		}
		return 0, true, nil
	}
	return left, true, nil
}

// Delete removes the board and everything it owns: chunks, ledger, heatmaps.
func (s *BoardService) Delete(ctx context.Context, id uuid.UUID) error {
	board, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	lock := s.locks.Get(board.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteBoard(ctx, id); err != nil {
		return err
	}
	if err := s.mods.DeleteByBoard(ctx, id); err != nil {
		return err
	}
	if err := s.heatmaps.DeleteByBoard(ctx, id); err != nil {
		return err
	}
	if err := s.boards.Delete(ctx, id); err != nil {
		return err
	}
	s.locks.Forget(id)
	return nil
}

type BoardStats struct {
	TotalBoards  int64
	ActiveBoards int64
}

func (s *BoardService) Stats(ctx context.Context) (BoardStats, error) {
	total, err := s.boards.Count(ctx)
	if err != nil {
		return BoardStats{}, err
	}
	active, err := s.boards.CountByStatus(ctx, model.StatusActive)
	if err != nil {
		return BoardStats{}, err
	}
	return BoardStats{TotalBoards: total, ActiveBoards: active}, nil
}
