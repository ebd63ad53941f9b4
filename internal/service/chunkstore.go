package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixelboard/internal/model"
	"pixelboard/internal/pixel"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// ChunkStore owns the packed pixel buffers of all boards. Writes to a chunk
// are serialized through a per-chunk mutex: two logical pixels share one byte,
// so an unsynchronized read-modify-write can silently drop a neighbour's
// update. Reads take the same lock to never observe a half-written byte.
type ChunkStore struct {
	chunks ChunkRepository
	locks  *xsync.MapOf[chunkRef, *sync.Mutex]
}

// chunkRef identifies one chunk in the lock registry.
type chunkRef struct {
	boardID uuid.UUID
	x, y    int
}

func NewChunkStore(chunks ChunkRepository) *ChunkStore {
	return &ChunkStore{
		chunks: chunks,
		locks:  xsync.NewMapOf[chunkRef, *sync.Mutex](),
	}
}

func (s *ChunkStore) lockFor(boardID uuid.UUID, chunkX, chunkY int) *sync.Mutex {
	mu, _ := s.locks.LoadOrCompute(chunkRef{boardID, chunkX, chunkY}, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	return mu
}

// dropLocks removes registry entries for a board's deleted chunks. Callers
// must hold the board's write lock, so none of these mutexes is held.
func (s *ChunkStore) dropLocks(boardID uuid.UUID, gone func(x, y int) bool) {
	s.locks.Range(func(ref chunkRef, _ *sync.Mutex) bool {
		if ref.boardID == boardID && gone(ref.x, ref.y) {
			s.locks.Delete(ref)
		}
		return true
	})
}

// Provision creates one zero-filled chunk per coordinate of the board grid.
// Idempotent: already existing coordinates are left untouched.
func (s *ChunkStore) Provision(ctx context.Context, board *model.Board) error {
	var chunks []model.Chunk
	now := time.Now()
	for cy := 0; cy < board.Height; cy += board.ChunkSize {
		for cx := 0; cx < board.Width; cx += board.ChunkSize {
			chunks = append(chunks, model.Chunk{
				ID:          uuid.New(),
				BoardID:     board.ID,
				X:           cx,
				Y:           cy,
				Data:        make([]byte, pixel.BufferLen(board.ChunkSize)),
				LastUpdated: now,
			})
		}
	}
	return s.chunks.CreateBatch(ctx, chunks)
}

// GetPixel reads the palette index at a global coordinate.
func (s *ChunkStore) GetPixel(ctx context.Context, board *model.Board, x, y int) (uint8, error) {
	if !board.Contains(x, y) {
		return 0, ErrOutOfBounds
	}
	chunkX, chunkY, localX, localY := pixel.Locate(x, y, board.ChunkSize)

	mu := s.lockFor(board.ID, chunkX, chunkY)
	mu.Lock()
	defer mu.Unlock()

	chunk, err := s.chunks.GetByPosition(ctx, board.ID, chunkX, chunkY)
	if err != nil {
		return 0, err
	}
	if chunk == nil {
		return 0, ErrChunkNotFound
	}
	return pixel.ReadNibble(chunk.Data, localX, localY, board.ChunkSize), nil
}

// SetPixel writes a palette index at a global coordinate, preserving the
// neighbouring pixel packed into the same byte.
func (s *ChunkStore) SetPixel(ctx context.Context, board *model.Board, x, y int, color uint8) error {
	if !board.Contains(x, y) {
		return ErrOutOfBounds
	}
	chunkX, chunkY, localX, localY := pixel.Locate(x, y, board.ChunkSize)

	mu := s.lockFor(board.ID, chunkX, chunkY)
	mu.Lock()
	defer mu.Unlock()

	chunk, err := s.chunks.GetByPosition(ctx, board.ID, chunkX, chunkY)
	if err != nil {
		return err
	}
	if chunk == nil {
		return ErrChunkNotFound
	}

	pixel.WriteNibble(chunk.Data, localX, localY, board.ChunkSize, color)
	return s.chunks.UpdateData(ctx, board.ID, chunkX, chunkY, chunk.Data)
}

// ReadRegion returns the non-background pixels of a rectangle as a sparse
// "x_y" -> hex map. The rectangle is clamped to the board extent; chunks
// missing from storage contribute nothing.
func (s *ChunkStore) ReadRegion(ctx context.Context, board *model.Board, x, y, width, height int) (map[string]string, error) {
	minX, minY := max(x, 0), max(y, 0)
	maxX, maxY := min(x+width, board.Width), min(y+height, board.Height)

	pixels := make(map[string]string)
	if minX >= maxX || minY >= maxY {
		return pixels, nil
	}

	for cy := pixel.ChunkOrigin(minY, board.ChunkSize); cy < maxY; cy += board.ChunkSize {
		for cx := pixel.ChunkOrigin(minX, board.ChunkSize); cx < maxX; cx += board.ChunkSize {
			chunk, err := s.chunks.GetByPosition(ctx, board.ID, cx, cy)
			if err != nil {
				return nil, err
			}
			if chunk == nil {
				continue
			}
			s.collectChunk(chunk, board.ChunkSize, minX, minY, maxX, maxY, pixels)
		}
	}
	return pixels, nil
}

func (s *ChunkStore) collectChunk(chunk *model.Chunk, chunkSize, minX, minY, maxX, maxY int, out map[string]string) {
	mu := s.lockFor(chunk.BoardID, chunk.X, chunk.Y)
	mu.Lock()
	defer mu.Unlock()

	for localY := 0; localY < chunkSize; localY++ {
		globalY := chunk.Y + localY
		if globalY < minY || globalY >= maxY {
			continue
		}
		for localX := 0; localX < chunkSize; localX++ {
			globalX := chunk.X + localX
			if globalX < minX || globalX >= maxX {
				continue
			}
			idx := pixel.ReadNibble(chunk.Data, localX, localY, chunkSize)
			if idx == pixel.DefaultIndex {
				continue
			}
			out[fmt.Sprintf("%d_%d", globalX, globalY)] = pixel.Hex(idx)
		}
	}
}

// GetChunk returns one chunk's raw buffer together with its sparse decode.
func (s *ChunkStore) GetChunk(ctx context.Context, board *model.Board, chunkX, chunkY int) (*model.Chunk, map[string]string, error) {
	chunk, err := s.chunks.GetByPosition(ctx, board.ID, chunkX, chunkY)
	if err != nil {
		return nil, nil, err
	}
	if chunk == nil {
		return nil, nil, ErrChunkNotFound
	}

	pixels := make(map[string]string)
	s.collectChunk(chunk, board.ChunkSize, chunk.X, chunk.Y, chunk.X+board.ChunkSize, chunk.Y+board.ChunkSize, pixels)
	return chunk, pixels, nil
}

// Resize reshapes the chunk grid: chunks outside the new extent are deleted,
// newly covered coordinates are allocated, and the intersection is never
// touched. Callers must hold the board's write lock.
func (s *ChunkStore) Resize(ctx context.Context, board *model.Board, newWidth, newHeight int) error {
	if err := s.chunks.DeleteOutside(ctx, board.ID, newWidth, newHeight); err != nil {
		return err
	}
	s.dropLocks(board.ID, func(x, y int) bool { return x >= newWidth || y >= newHeight })

	var chunks []model.Chunk
	now := time.Now()
	for cy := 0; cy < newHeight; cy += board.ChunkSize {
		for cx := 0; cx < newWidth; cx += board.ChunkSize {
			if cx < board.Width && cy < board.Height {
				continue // intersection with the old extent
			}
			chunks = append(chunks, model.Chunk{
				ID:          uuid.New(),
				BoardID:     board.ID,
				X:           cx,
				Y:           cy,
				Data:        make([]byte, pixel.BufferLen(board.ChunkSize)),
				LastUpdated: now,
			})
		}
	}
	return s.chunks.CreateBatch(ctx, chunks)
}

// DeleteBoard drops every chunk owned by the board and its lock entries.
func (s *ChunkStore) DeleteBoard(ctx context.Context, boardID uuid.UUID) error {
	if err := s.chunks.DeleteByBoard(ctx, boardID); err != nil {
		return err
	}
	s.dropLocks(boardID, func(x, y int) bool { return true })
	return nil
}
