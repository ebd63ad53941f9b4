package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"pixelboard/internal/model"
	"pixelboard/internal/pixel"
	"pixelboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Placer is the placement flow as seen from the HTTP layer.
type Placer interface {
	Place(ctx context.Context, req service.PlaceRequest) (*model.PixelModification, error)
	LastAuthor(ctx context.Context, boardID uuid.UUID, x, y int) (*model.PixelModification, error)
	Cooldown(ctx context.Context, boardID, userID uuid.UUID) (time.Duration, error)
}

// RegionReader exposes the read side of the chunk store.
type RegionReader interface {
	ReadRegion(ctx context.Context, board *model.Board, x, y, width, height int) (map[string]string, error)
	GetChunk(ctx context.Context, board *model.Board, chunkX, chunkY int) (*model.Chunk, map[string]string, error)
}

// BoardGetter resolves a board by ID, failing with ErrBoardNotFound.
type BoardGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Board, error)
}

type PixelHandler struct {
	placer Placer
	store  RegionReader
	boards BoardGetter
}

func NewPixelHandler(placer Placer, store RegionReader, boards BoardGetter) *PixelHandler {
	return &PixelHandler{placer: placer, store: store, boards: boards}
}

type PlacePixelRequest struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Color  string `json:"color" binding:"required"`
	UserID string `json:"userId" binding:"required,uuid"`
}

type PlacePixelResponse struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Color     string    `json:"color"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// Place paints one pixel on behalf of a user.
func (h *PixelHandler) Place(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	var req PlacePixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	entry, err := h.placer.Place(c.Request.Context(), service.PlaceRequest{
		BoardID: boardID,
		X:       req.X,
		Y:       req.Y,
		Color:   req.Color,
		UserID:  userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PlacePixelResponse{
		X:         entry.X,
		Y:         entry.Y,
		Color:     entry.Color,
		UserID:    entry.UserID.String(),
		Timestamp: entry.Timestamp,
	})
}

type RegionResponse struct {
	BoardID      string            `json:"boardId"`
	X            int               `json:"x"`
	Y            int               `json:"y"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	DefaultColor string            `json:"defaultColor"`
	Pixels       map[string]string `json:"pixels"`
}

// GetRegion returns the non-background pixels of a rectangle. Without query
// parameters the whole board is returned.
func (h *PixelHandler) GetRegion(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	board, err := h.boards.Get(c.Request.Context(), boardID)
	if err != nil {
		respondError(c, err)
		return
	}

	x := queryInt(c, "x", 0)
	y := queryInt(c, "y", 0)
	width := queryInt(c, "width", board.Width)
	height := queryInt(c, "height", board.Height)

	pixels, err := h.store.ReadRegion(c.Request.Context(), board, x, y, width, height)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RegionResponse{
		BoardID:      board.ID.String(),
		X:            x,
		Y:            y,
		Width:        width,
		Height:       height,
		DefaultColor: pixel.Hex(pixel.DefaultIndex),
		Pixels:       pixels,
	})
}

// GetChunk returns one chunk's decoded pixels by chunk origin.
func (h *PixelHandler) GetChunk(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}
	chunkX, errX := strconv.Atoi(c.Param("cx"))
	chunkY, errY := strconv.Atoi(c.Param("cy"))
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chunk coordinates"})
		return
	}

	board, err := h.boards.Get(c.Request.Context(), boardID)
	if err != nil {
		respondError(c, err)
		return
	}

	chunk, pixels, err := h.store.GetChunk(c.Request.Context(), board, chunkX, chunkY)
	if err != nil {
		respondError(c, err)
		return
	}

	// Data serializes as base64, giving clients the packed buffer as-is.
	c.JSON(http.StatusOK, gin.H{
		"boardId":     board.ID.String(),
		"x":           chunk.X,
		"y":           chunk.Y,
		"size":        board.ChunkSize,
		"data":        chunk.Data,
		"pixels":      pixels,
		"lastUpdated": chunk.LastUpdated,
	})
}

// LastAuthor reports who last painted a pixel. An untouched pixel yields an
// empty 200 body rather than an error.
func (h *PixelHandler) LastAuthor(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pixel coordinates"})
		return
	}

	entry, err := h.placer.LastAuthor(c.Request.Context(), boardID, x, y)
	if err != nil {
		respondError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":    entry.UserID.String(),
		"color":     entry.Color,
		"timestamp": entry.Timestamp,
	})
}

// Cooldown reports how long a user must wait before the next placement.
func (h *PixelHandler) Cooldown(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	wait, err := h.placer.Cooldown(c.Request.Context(), boardID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"canPlace":     wait == 0,
		"retryAfterMs": wait.Milliseconds(),
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
