package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"pixelboard/internal/model"
	"pixelboard/internal/pixel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeBoardRepo struct {
	mu     sync.Mutex
	boards map[uuid.UUID]*model.Board
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{boards: make(map[uuid.UUID]*model.Board)}
}

func (f *fakeBoardRepo) Create(ctx context.Context, board *model.Board) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *board
	f.boards[board.ID] = &cp
	return nil
}

func (f *fakeBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.boards[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBoardRepo) List(ctx context.Context) ([]model.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Board, 0, len(f.boards))
	for _, b := range f.boards {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBoardRepo) ListByStatus(ctx context.Context, status model.BoardStatus) ([]model.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Board
	for _, b := range f.boards {
		if b.Status == status {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBoardRepo) Update(ctx context.Context, board *model.Board) error {
	return f.Create(ctx, board)
}

func (f *fakeBoardRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BoardStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.boards[id]; ok {
		b.Status = status
	}
	return nil
}

func (f *fakeBoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.boards, id)
	return nil
}

func (f *fakeBoardRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.boards)), nil
}

func (f *fakeBoardRepo) CountByStatus(ctx context.Context, status model.BoardStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.boards {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeModRepo struct {
	mu        sync.Mutex
	mods      []model.PixelModification
	appendErr error
	countErr  error
}

func (f *fakeModRepo) Append(ctx context.Context, mod *model.PixelModification) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mods = append(f.mods, *mod)
	return nil
}

func (f *fakeModRepo) LatestByUser(ctx context.Context, boardID, userID uuid.UUID) (*model.PixelModification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.PixelModification
	for i := range f.mods {
		m := &f.mods[i]
		if m.BoardID != boardID || m.UserID != userID {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeModRepo) LatestAt(ctx context.Context, boardID uuid.UUID, x, y int) (*model.PixelModification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.PixelModification
	for i := range f.mods {
		m := &f.mods[i]
		if m.BoardID != boardID || m.X != x || m.Y != y {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeModRepo) History(ctx context.Context, boardID uuid.UUID) ([]model.PixelModification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PixelModification
	for _, m := range f.mods {
		if m.BoardID == boardID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeModRepo) CountByCoordinate(ctx context.Context, boardID uuid.UUID) ([]model.CoordinateCount, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[[2]int]int64)
	for _, m := range f.mods {
		if m.BoardID == boardID {
			counts[[2]int{m.X, m.Y}]++
		}
	}
	out := make([]model.CoordinateCount, 0, len(counts))
	for pos, n := range counts {
		out = append(out, model.CoordinateCount{X: pos[0], Y: pos[1], Count: n})
	}
	return out, nil
}

func (f *fakeModRepo) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.mods[:0]
	for _, m := range f.mods {
		if m.BoardID != boardID {
			kept = append(kept, m)
		}
	}
	f.mods = kept
	return nil
}

type publishedPixel struct {
	boardID uuid.UUID
	x, y    int
	color   string
}

type fakeHub struct {
	mu        sync.Mutex
	published []publishedPixel
}

func (f *fakeHub) Publish(boardID uuid.UUID, x, y int, color string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedPixel{boardID, x, y, color})
}

type placementEnv struct {
	boards  *fakeBoardRepo
	chunks  *fakeChunkRepo
	mods    *fakeModRepo
	hub     *fakeHub
	locks   *BoardLocks
	store   *ChunkStore
	gate    *PlacementGate
	service *PlacementService
}

func newPlacementEnv() *placementEnv {
	env := &placementEnv{
		boards: newFakeBoardRepo(),
		chunks: newFakeChunkRepo(),
		mods:   &fakeModRepo{},
		hub:    &fakeHub{},
		locks:  NewBoardLocks(),
	}
	env.store = NewChunkStore(env.chunks)
	env.gate = NewPlacementGate(env.mods)
	env.service = NewPlacementService(env.boards, env.store, env.mods, env.gate, env.hub, env.locks)
	return env
}

func (e *placementEnv) addBoard(t *testing.T, board *model.Board) {
	t.Helper()
	ctx := context.Background()
	assert.NoError(t, e.boards.Create(ctx, board))
	assert.NoError(t, e.store.Provision(ctx, board))
}

func TestPlacementGate_FirstPlacementAllowed(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	board.PlacementDelay = 30000

	err := env.gate.Check(context.Background(), uuid.New(), board)
	assert.NoError(t, err)
}

func TestPlacementGate_CooldownCycle(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	board.PlacementDelay = 30000
	userID := uuid.New()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	env.mods.mods = append(env.mods.mods, model.PixelModification{
		ID: uuid.New(), BoardID: board.ID, X: 1, Y: 1,
		UserID: userID, Color: "#E50000", Timestamp: t0,
	})

	// 10s in: denied with 20s left.
	env.gate.now = func() time.Time { return t0.Add(10 * time.Second) }
	err := env.gate.Check(context.Background(), userID, board)
	assert.ErrorIs(t, err, ErrRateLimited)
	var rle *RateLimitError
	assert.ErrorAs(t, err, &rle)
	assert.Equal(t, 20*time.Second, rle.RetryAfter)

	// Exactly at the delay: allowed again.
	env.gate.now = func() time.Time { return t0.Add(30 * time.Second) }
	assert.NoError(t, env.gate.Check(context.Background(), userID, board))

	// Another user was never gated.
	env.gate.now = func() time.Time { return t0.Add(time.Second) }
	assert.NoError(t, env.gate.Check(context.Background(), uuid.New(), board))
}

func TestPlacementGate_InactiveBoard(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	board.Status = model.StatusNonActive

	err := env.gate.Check(context.Background(), uuid.New(), board)
	assert.ErrorIs(t, err, ErrBoardNotActive)
}

func TestPlacementService_Place(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	env.addBoard(t, board)
	userID := uuid.New()

	// Lowercase input is canonicalized to the palette spelling.
	entry, err := env.service.Place(context.Background(), PlaceRequest{
		BoardID: board.ID, X: 5, Y: 20, Color: "#e50000", UserID: userID,
	})
	assert.NoError(t, err)
	assert.Equal(t, "#E50000", entry.Color)
	assert.Equal(t, userID, entry.UserID)

	got, err := env.store.GetPixel(context.Background(), board, 5, 20)
	assert.NoError(t, err)
	assert.Equal(t, "#E50000", pixel.Hex(got))

	assert.Len(t, env.mods.mods, 1)
	assert.Len(t, env.hub.published, 1)
	assert.Equal(t, publishedPixel{board.ID, 5, 20, "#E50000"}, env.hub.published[0])
}

func TestPlacementService_Place_Validation(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	env.addBoard(t, board)
	ctx := context.Background()

	_, err := env.service.Place(ctx, PlaceRequest{BoardID: uuid.New(), X: 0, Y: 0, Color: "#E50000", UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrBoardNotFound)

	_, err = env.service.Place(ctx, PlaceRequest{BoardID: board.ID, X: 0, Y: 0, Color: "#123456", UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidColor)

	_, err = env.service.Place(ctx, PlaceRequest{BoardID: board.ID, X: 32, Y: 0, Color: "#E50000", UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.Empty(t, env.hub.published)
}

func TestPlacementService_Place_NotActive(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	board.Status = model.StatusNonActive
	env.addBoard(t, board)

	_, err := env.service.Place(context.Background(), PlaceRequest{
		BoardID: board.ID, X: 0, Y: 0, Color: "#E50000", UserID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrBoardNotActive)
}

func TestPlacementService_Place_BusyDuringResize(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	env.addBoard(t, board)

	// Someone holds the write side, as a resize would.
	lock := env.locks.Get(board.ID)
	lock.Lock()
	defer lock.Unlock()

	_, err := env.service.Place(context.Background(), PlaceRequest{
		BoardID: board.ID, X: 0, Y: 0, Color: "#E50000", UserID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrBoardBusy)
}

func TestPlacementService_Place_LedgerFailureKeepsPixel(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	env.addBoard(t, board)
	env.mods.appendErr = assert.AnError

	entry, err := env.service.Place(context.Background(), PlaceRequest{
		BoardID: board.ID, X: 3, Y: 3, Color: "#E50000", UserID: uuid.New(),
	})
	assert.NoError(t, err)
	assert.NotNil(t, entry)

	// The pixel is durable and the broadcast still went out.
	got, err := env.store.GetPixel(context.Background(), board, 3, 3)
	assert.NoError(t, err)
	assert.Equal(t, "#E50000", pixel.Hex(got))
	assert.Len(t, env.hub.published, 1)
}

func TestPlacementService_LastAuthor(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	env.addBoard(t, board)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	_, err := env.service.Place(ctx, PlaceRequest{BoardID: board.ID, X: 7, Y: 7, Color: "#E50000", UserID: first})
	assert.NoError(t, err)
	_, err = env.service.Place(ctx, PlaceRequest{BoardID: board.ID, X: 7, Y: 7, Color: "#0000EA", UserID: second})
	assert.NoError(t, err)

	author, err := env.service.LastAuthor(ctx, board.ID, 7, 7)
	assert.NoError(t, err)
	assert.Equal(t, second, author.UserID)
	assert.Equal(t, "#0000EA", author.Color)

	// An untouched pixel has no author, and that is not an error.
	author, err = env.service.LastAuthor(ctx, board.ID, 1, 1)
	assert.NoError(t, err)
	assert.Nil(t, author)

	_, err = env.service.LastAuthor(ctx, board.ID, 99, 99)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestPlacementService_Cooldown(t *testing.T) {
	env := newPlacementEnv()
	board := testBoard(32, 32, 16)
	board.PlacementDelay = 30000
	env.addBoard(t, board)
	userID := uuid.New()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	wait, err := env.service.Cooldown(ctx, board.ID, userID)
	assert.NoError(t, err)
	assert.Zero(t, wait)

	env.mods.mods = append(env.mods.mods, model.PixelModification{
		ID: uuid.New(), BoardID: board.ID, X: 1, Y: 1,
		UserID: userID, Color: "#E50000", Timestamp: t0,
	})
	env.gate.now = func() time.Time { return t0.Add(12 * time.Second) }

	wait, err = env.service.Cooldown(ctx, board.ID, userID)
	assert.NoError(t, err)
	assert.Equal(t, 18*time.Second, wait)
}
