package service

import (
	"context"
	"testing"
	"time"

	"pixelboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type lifecycleEnv struct {
	*placementEnv
	heatmaps *fakeHeatmapRepo
	boardsvc *BoardService
}

func newLifecycleEnv() *lifecycleEnv {
	env := &lifecycleEnv{
		placementEnv: newPlacementEnv(),
		heatmaps:     &fakeHeatmapRepo{},
	}
	env.boardsvc = NewBoardService(env.boards, env.store, env.mods, env.heatmaps, env.locks)
	return env
}

func TestBoardService_Create_InvalidDimensions(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()

	cases := []struct {
		name                     string
		width, height, chunkSize int
	}{
		{"zero width", 0, 32, 16},
		{"negative height", 32, -16, 16},
		{"zero chunk size", 32, 32, 0},
		{"width not a multiple", 30, 32, 16},
		{"height not a multiple", 32, 40, 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.boardsvc.Create(ctx, CreateBoardParams{
				Name: "bad", OwnerID: uuid.New(),
				Width: tc.width, Height: tc.height, ChunkSize: tc.chunkSize,
			})
			assert.ErrorIs(t, err, ErrInvalidDimensions)
		})
	}
}

func TestBoardService_Create_ProvisionsAndActivates(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()

	board, err := env.boardsvc.Create(ctx, CreateBoardParams{
		Name: "canvas", OwnerID: uuid.New(),
		Width: 64, Height: 32, ChunkSize: 16,
		PlacementDelay: 30000,
	})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusActive, board.Status)
	assert.Equal(t, 8, env.chunks.count(board.ID))

	stored, err := env.boardsvc.Get(ctx, board.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusActive, stored.Status)
}

func TestBoardService_StatusTransitions(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()

	board, err := env.boardsvc.Create(ctx, CreateBoardParams{
		Name: "canvas", OwnerID: uuid.New(), Width: 32, Height: 32, ChunkSize: 16,
	})
	assert.NoError(t, err)

	// Pause and resume.
	b, err := env.boardsvc.SetStatus(ctx, board.ID, model.StatusNonActive)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusNonActive, b.Status)

	b, err = env.boardsvc.SetStatus(ctx, board.ID, model.StatusActive)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusActive, b.Status)

	// Active cannot jump to creating.
	_, err = env.boardsvc.SetStatus(ctx, board.ID, model.StatusCreating)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Finished is terminal.
	_, err = env.boardsvc.SetStatus(ctx, board.ID, model.StatusFinished)
	assert.NoError(t, err)
	_, err = env.boardsvc.SetStatus(ctx, board.ID, model.StatusActive)
	assert.ErrorIs(t, err, ErrBoardFinished)
}

func TestBoardService_Resize(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()

	board, err := env.boardsvc.Create(ctx, CreateBoardParams{
		Name: "canvas", OwnerID: uuid.New(), Width: 32, Height: 32, ChunkSize: 16,
	})
	assert.NoError(t, err)

	_, err = env.boardsvc.Resize(ctx, board.ID, 30, 32)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	resized, err := env.boardsvc.Resize(ctx, board.ID, 16, 16)
	assert.NoError(t, err)
	assert.Equal(t, 16, resized.Width)
	assert.Equal(t, 1, env.chunks.count(board.ID))

	stored, err := env.boardsvc.Get(ctx, board.ID)
	assert.NoError(t, err)
	assert.Equal(t, 16, stored.Width)
	assert.Equal(t, 16, stored.Height)

	_, err = env.boardsvc.SetStatus(ctx, board.ID, model.StatusFinished)
	assert.NoError(t, err)
	_, err = env.boardsvc.Resize(ctx, board.ID, 32, 32)
	assert.ErrorIs(t, err, ErrBoardFinished)
}

func TestBoardService_TimeLeft(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env.boardsvc.now = func() time.Time { return now }

	// A board without an ending date never expires.
	eternal, err := env.boardsvc.Create(ctx, CreateBoardParams{
		Name: "eternal", OwnerID: uuid.New(), Width: 16, Height: 16, ChunkSize: 16,
	})
	assert.NoError(t, err)
	left, expires, err := env.boardsvc.TimeLeft(ctx, eternal.ID)
	assert.NoError(t, err)
	assert.False(t, expires)
	assert.Zero(t, left)

	ending := now.Add(time.Hour)
	mortal, err := env.boardsvc.Create(ctx, CreateBoardParams{
		Name: "mortal", OwnerID: uuid.New(), Width: 16, Height: 16, ChunkSize: 16,
		EndingDate: &ending,
	})
	assert.NoError(t, err)

	left, expires, err = env.boardsvc.TimeLeft(ctx, mortal.ID)
	assert.NoError(t, err)
	assert.True(t, expires)
	assert.Equal(t, time.Hour, left)

	// Past the ending date the board is lazily finished.
	env.boardsvc.now = func() time.Time { return now.Add(2 * time.Hour) }
	left, expires, err = env.boardsvc.TimeLeft(ctx, mortal.ID)
	assert.NoError(t, err)
	assert.True(t, expires)
	assert.Zero(t, left)

	stored, err := env.boardsvc.Get(ctx, mortal.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFinished, stored.Status)
}

func TestBoardService_Delete_Cascades(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()

	board, err := env.boardsvc.Create(ctx, CreateBoardParams{
		Name: "canvas", OwnerID: uuid.New(), Width: 32, Height: 32, ChunkSize: 16,
	})
	assert.NoError(t, err)

	_, err = env.service.Place(ctx, PlaceRequest{BoardID: board.ID, X: 1, Y: 1, Color: "#E50000", UserID: uuid.New()})
	assert.NoError(t, err)

	assert.NoError(t, env.boardsvc.Delete(ctx, board.ID))
	assert.Equal(t, 0, env.chunks.count(board.ID))
	history, err := env.mods.History(ctx, board.ID)
	assert.NoError(t, err)
	assert.Empty(t, history)

	_, err = env.boardsvc.Get(ctx, board.ID)
	assert.ErrorIs(t, err, ErrBoardNotFound)
}

func TestBoardService_Stats(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()

	a, err := env.boardsvc.Create(ctx, CreateBoardParams{Name: "a", OwnerID: uuid.New(), Width: 16, Height: 16, ChunkSize: 16})
	assert.NoError(t, err)
	_, err = env.boardsvc.Create(ctx, CreateBoardParams{Name: "b", OwnerID: uuid.New(), Width: 16, Height: 16, ChunkSize: 16})
	assert.NoError(t, err)
	_, err = env.boardsvc.SetStatus(ctx, a.ID, model.StatusNonActive)
	assert.NoError(t, err)

	stats, err := env.boardsvc.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBoards)
	assert.Equal(t, int64(1), stats.ActiveBoards)
}

// Three placements spread across three chunks of a 32x32 board must come back
// as exactly three sparse entries on a full read.
func TestPlaceAndReadBack(t *testing.T) {
	env := newLifecycleEnv()
	ctx := context.Background()

	board, err := env.boardsvc.Create(ctx, CreateBoardParams{
		Name: "canvas", OwnerID: uuid.New(), Width: 32, Height: 32, ChunkSize: 16,
	})
	assert.NoError(t, err)

	for _, pos := range [][2]int{{5, 5}, {5, 20}, {20, 5}} {
		_, err := env.service.Place(ctx, PlaceRequest{
			BoardID: board.ID, X: pos[0], Y: pos[1], Color: "#E50000", UserID: uuid.New(),
		})
		assert.NoError(t, err)
	}

	pixels, err := env.store.ReadRegion(ctx, board, 0, 0, board.Width, board.Height)
	assert.NoError(t, err)
	assert.Len(t, pixels, 3)
	for _, key := range []string{"5_5", "5_20", "20_5"} {
		assert.Equal(t, "#E50000", pixels[key])
	}
}
