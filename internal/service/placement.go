package service

import (
	"context"
	"errors"
	"log"
	"time"

	"pixelboard/internal/model"
	"pixelboard/internal/pixel"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
)

var placementsTotal = metrics.NewCounter("pixelboard_placements_total")

// PlacementGate decides whether a user may place a pixel on a board right
// now, based on the board's cooldown and the user's latest ledger entry. The
// check is not linearized with the subsequent write: two concurrent requests
// from the same user may both pass, costing at most one extra ledger row.
type PlacementGate struct {
	mods ModificationRepository
	now  func() time.Time
}

func NewPlacementGate(mods ModificationRepository) *PlacementGate {
	return &PlacementGate{mods: mods, now: time.Now}
}

// Check returns nil when the user may place, ErrBoardNotActive when the board
// rejects writes, or a RateLimitError carrying the remaining wait.
func (g *PlacementGate) Check(ctx context.Context, userID uuid.UUID, board *model.Board) error {
	if board.Status != model.StatusActive {
		return ErrBoardNotActive
	}
	last, err := g.mods.LatestByUser(ctx, board.ID, userID)
	if err != nil {
		return err
	}
	if last == nil {
		return nil
	}
	elapsed := g.now().Sub(last.Timestamp)
	if delay := board.PlacementDelayDuration(); elapsed < delay {
		return &RateLimitError{RetryAfter: delay - elapsed}
	}
	return nil
}

// PlaceRequest is a validated-on-entry placement command.
type PlaceRequest struct {
	BoardID uuid.UUID
	X       int
	Y       int
	Color   string
	UserID  uuid.UUID
}

// PlacementService runs the placement flow: status gate, busy gate, color
// validation, cooldown, chunk write, ledger append, broadcast.
type PlacementService struct {
	boards BoardRepository
	store  *ChunkStore
	mods   ModificationRepository
	gate   *PlacementGate
	hub    Publisher
	locks  *BoardLocks
	now    func() time.Time
}

func NewPlacementService(boards BoardRepository, store *ChunkStore, mods ModificationRepository, gate *PlacementGate, hub Publisher, locks *BoardLocks) *PlacementService {
	return &PlacementService{
		boards: boards,
		store:  store,
		mods:   mods,
		gate:   gate,
		hub:    hub,
		locks:  locks,
		now:    time.Now,
	}
}

// Place paints one pixel. On success the confirmed change has already been
// broadcast to the board's subscribers, including the originator.
func (s *PlacementService) Place(ctx context.Context, req PlaceRequest) (*model.PixelModification, error) {
	board, err := s.boards.GetByID(ctx, req.BoardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}

	colorIdx, ok := pixel.IndexOf(req.Color)
	if !ok {
		return nil, ErrInvalidColor
	}
	if !board.Contains(req.X, req.Y) {
		return nil, ErrOutOfBounds
	}

	// A resize holds the write side; fail fast instead of queueing behind it.
	lock := s.locks.Get(board.ID)
	if !lock.TryRLock() {
		return nil, ErrBoardBusy
	}
	defer lock.RUnlock()

	if err := s.gate.Check(ctx, req.UserID, board); err != nil {
		return nil, err
	}

	if err := s.store.SetPixel(ctx, board, req.X, req.Y, colorIdx); err != nil {
		return nil, err
	}

	entry := &model.PixelModification{
		ID:        uuid.New(),
		BoardID:   board.ID,
		X:         req.X,
		Y:         req.Y,
		UserID:    req.UserID,
		Color:     pixel.Hex(colorIdx),
		Timestamp: s.now(),
	}
	if err := s.mods.Append(ctx, entry); err != nil {
		// The pixel is already durable; losing the ledger row only loses
		// attribution for this one write. Never revert the color.
		log.Printf("[placement] ledger append failed for board %s (%d,%d): %v", board.ID, req.X, req.Y, err)
	}

	s.hub.Publish(board.ID, req.X, req.Y, entry.Color)
	placementsTotal.Inc()
	return entry, nil
}

// LastAuthor returns the latest ledger entry for a pixel, or (nil, nil) when
// the pixel has never been painted or its attribution was lost.
func (s *PlacementService) LastAuthor(ctx context.Context, boardID uuid.UUID, x, y int) (*model.PixelModification, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}
	if !board.Contains(x, y) {
		return nil, ErrOutOfBounds
	}
	return s.mods.LatestAt(ctx, boardID, x, y)
}

// Cooldown returns the remaining wait before the user may place again.
// Zero means the user may place now.
func (s *PlacementService) Cooldown(ctx context.Context, boardID, userID uuid.UUID) (time.Duration, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return 0, err
	}
	if board == nil {
		return 0, ErrBoardNotFound
	}

	err = s.gate.Check(ctx, userID, board)
	if err == nil {
		return 0, nil
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter, nil
	}
	return 0, err
}
