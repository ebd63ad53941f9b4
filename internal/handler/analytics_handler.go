package handler

import (
	"context"
	"net/http"

	"pixelboard/internal/model"
	"pixelboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Analytics is the ledger-derived read side: heatmap and replay.
type Analytics interface {
	Heatmap(ctx context.Context, boardID uuid.UUID, force bool) (*model.HeatmapSnapshot, error)
	Replay(ctx context.Context, boardID uuid.UUID) ([]service.ReplayEntry, error)
}

type AnalyticsHandler struct {
	analytics Analytics
}

func NewAnalyticsHandler(analytics Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Heatmap returns per-coordinate modification counts. ?regenerate=true
// bypasses the snapshot cache.
func (h *AnalyticsHandler) Heatmap(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	force := c.Query("regenerate") == "true"
	snapshot, err := h.analytics.Heatmap(c.Request.Context(), boardID, force)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"boardId":            snapshot.BoardID.String(),
		"generatedAt":        snapshot.GeneratedAt,
		"heatmapData":        snapshot.Cells,
		"totalModifications": snapshot.TotalModifications,
		"maxModifications":   snapshot.MaxModifications,
	})
}

// Replay returns the board's placement history as an ordered list with
// normalized playback positions in [0,1]. An untouched board replays as [].
func (h *AnalyticsHandler) Replay(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	entries, err := h.analytics.Replay(c.Request.Context(), boardID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
