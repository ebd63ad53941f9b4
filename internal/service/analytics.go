package service

import (
	"context"
	"log"
	"time"

	"pixelboard/internal/model"

	"github.com/google/uuid"
)

// AnalyticsService derives the heatmap and the replay from the ledger. It is
// read-only, never takes chunk locks, and tolerates a ledger that is being
// appended to concurrently: results are "as of roughly now".
type AnalyticsService struct {
	boards   BoardRepository
	mods     ModificationRepository
	heatmaps HeatmapRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewAnalyticsService(boards BoardRepository, mods ModificationRepository, heatmaps HeatmapRepository, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{
		boards:   boards,
		mods:     mods,
		heatmaps: heatmaps,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Heatmap returns a per-coordinate modification count snapshot. A snapshot
// younger than the TTL is reused unless force is set. When regeneration
// fails, the last cached snapshot is returned instead of the error.
func (s *AnalyticsService) Heatmap(ctx context.Context, boardID uuid.UUID, force bool) (*model.HeatmapSnapshot, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}

	latest, err := s.heatmaps.LatestByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !force && latest != nil && s.now().Sub(latest.GeneratedAt) < s.ttl {
		return latest, nil
	}

	snapshot, err := s.generate(ctx, boardID)
	if err != nil {
		if latest != nil {
			log.Printf("[analytics] heatmap regeneration failed for board %s, serving cached: %v", boardID, err)
			return latest, nil
		}
		return nil, err
	}
	return snapshot, nil
}

func (s *AnalyticsService) generate(ctx context.Context, boardID uuid.UUID) (*model.HeatmapSnapshot, error) {
	counts, err := s.mods.CountByCoordinate(ctx, boardID)
	if err != nil {
		return nil, err
	}

	cells := make([]model.HeatmapCell, 0, len(counts))
	var total, maxCount int64
	for _, c := range counts {
		cells = append(cells, model.HeatmapCell{X: c.X, Y: c.Y, ModificationCount: c.Count})
		total += c.Count
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}

	snapshot := &model.HeatmapSnapshot{
		ID:                 uuid.New(),
		BoardID:            boardID,
		GeneratedAt:        s.now(),
		Cells:              cells,
		TotalModifications: total,
		MaxModifications:   maxCount,
	}
	if err := s.heatmaps.Save(ctx, snapshot); err != nil {
		// The snapshot itself is still good; only the cache write failed.
		log.Printf("[analytics] failed to persist heatmap for board %s: %v", boardID, err)
	}
	return snapshot, nil
}

// ReplayEntry is one placement in playback order.
type ReplayEntry struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Color     string    `json:"color"`
	UserID    uuid.UUID `json:"userId"`
	Timestamp time.Time `json:"timestamp"`

	// RelativeTimeNormalized is in [0,1]: 0 for the first placement, 1 for
	// the last. When every entry shares one timestamp, entries are spaced
	// by ledger index so playback positions never collide.
	RelativeTimeNormalized float64 `json:"relativeTimeNormalized"`
}

// Replay returns the board's history in chronological order with normalized
// playback positions.
func (s *AnalyticsService) Replay(ctx context.Context, boardID uuid.UUID) ([]ReplayEntry, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}

	mods, err := s.mods.History(ctx, boardID)
	if err != nil {
		return nil, err
	}

	entries := make([]ReplayEntry, len(mods))
	if len(mods) == 0 {
		return entries, nil
	}

	first := mods[0].Timestamp
	total := mods[len(mods)-1].Timestamp.Sub(first)
	for i, m := range mods {
		var normalized float64
		switch {
		case len(mods) == 1:
			normalized = 0
		case total == 0:
			normalized = float64(i) / float64(len(mods)-1)
		default:
			normalized = float64(m.Timestamp.Sub(first)) / float64(total)
		}
		entries[i] = ReplayEntry{
			X:                      m.X,
			Y:                      m.Y,
			Color:                  m.Color,
			UserID:                 m.UserID,
			Timestamp:              m.Timestamp,
			RelativeTimeNormalized: normalized,
		}
	}
	return entries, nil
}
