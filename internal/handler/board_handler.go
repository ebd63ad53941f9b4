package handler

import (
	"context"
	"net/http"
	"time"

	"pixelboard/internal/model"
	"pixelboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BoardService is the slice of the board lifecycle the HTTP layer needs.
type BoardService interface {
	Create(ctx context.Context, p service.CreateBoardParams) (*model.Board, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Board, error)
	List(ctx context.Context) ([]model.Board, error)
	ListByStatus(ctx context.Context, status model.BoardStatus) ([]model.Board, error)
	SetStatus(ctx context.Context, id uuid.UUID, next model.BoardStatus) (*model.Board, error)
	Resize(ctx context.Context, id uuid.UUID, newWidth, newHeight int) (*model.Board, error)
	TimeLeft(ctx context.Context, id uuid.UUID) (time.Duration, bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (service.BoardStats, error)
}

type BoardHandler struct {
	boards BoardService
}

func NewBoardHandler(boards BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

type CreateBoardRequest struct {
	Name             string     `json:"name" binding:"required"`
	OwnerID          string     `json:"ownerId" binding:"required,uuid"`
	Width            int        `json:"width" binding:"required"`
	Height           int        `json:"height" binding:"required"`
	ChunkSize        int        `json:"chunkSize" binding:"required"`
	PlacementDelayMs int64      `json:"placementDelayMs"`
	EndingDate       *time.Time `json:"endingDate"`
}

type BoardResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	OwnerID          string     `json:"ownerId"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	ChunkSize        int        `json:"chunkSize"`
	PlacementDelayMs int64      `json:"placementDelayMs"`
	Status           string     `json:"status"`
	EndingDate       *time.Time `json:"endingDate,omitempty"`
	CreatedAt        string     `json:"createdAt"`
}

func toBoardResponse(b *model.Board) BoardResponse {
	return BoardResponse{
		ID:               b.ID.String(),
		Name:             b.Name,
		OwnerID:          b.OwnerID.String(),
		Width:            b.Width,
		Height:           b.Height,
		ChunkSize:        b.ChunkSize,
		PlacementDelayMs: b.PlacementDelay,
		Status:           string(b.Status),
		EndingDate:       b.EndingDate,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
	}
}

// Create provisions a new board and activates it.
func (h *BoardHandler) Create(c *gin.Context) {
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid owner ID format"})
		return
	}

	board, err := h.boards.Create(c.Request.Context(), service.CreateBoardParams{
		Name:           req.Name,
		OwnerID:        ownerID,
		Width:          req.Width,
		Height:         req.Height,
		ChunkSize:      req.ChunkSize,
		PlacementDelay: req.PlacementDelayMs,
		EndingDate:     req.EndingDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBoardResponse(board))
}

// GetAll lists boards, optionally filtered with ?status=.
func (h *BoardHandler) GetAll(c *gin.Context) {
	var boards []model.Board
	var err error
	if status := c.Query("status"); status != "" {
		boards, err = h.boards.ListByStatus(c.Request.Context(), model.BoardStatus(status))
	} else {
		boards, err = h.boards.List(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BoardResponse, len(boards))
	for i := range boards {
		response[i] = toBoardResponse(&boards[i])
	}
	c.JSON(http.StatusOK, response)
}

func (h *BoardHandler) GetByID(c *gin.Context) {
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
	c.JSON(http.StatusOK, toBoardResponse(board))
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus applies a lifecycle transition: active, non-active or finished.
func (h *BoardHandler) UpdateStatus(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	next := model.BoardStatus(req.Status)
	switch next {
	case model.StatusActive, model.StatusNonActive, model.StatusFinished:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	board, err := h.boards.SetStatus(c.Request.Context(), boardID, next)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBoardResponse(board))
}

type ResizeRequest struct {
	Width  int `json:"width" binding:"required"`
	Height int `json:"height" binding:"required"`
}

func (h *BoardHandler) Resize(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, err := h.boards.Resize(c.Request.Context(), boardID, req.Width, req.Height)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBoardResponse(board))
}

// TimeLeft reports milliseconds until the board's ending date. Boards without
// an ending date report expires=false.
func (h *BoardHandler) TimeLeft(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	left, expires, err := h.boards.TimeLeft(c.Request.Context(), boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"expires":    expires,
		"timeLeftMs": left.Milliseconds(),
	})
}

func (h *BoardHandler) Delete(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	if err := h.boards.Delete(c.Request.Context(), boardID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) Stats(c *gin.Context) {
	stats, err := h.boards.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalBoards":  stats.TotalBoards,
		"activeBoards": stats.ActiveBoards,
	})
}
