package handler

import (
	"errors"
	"net/http"

	"pixelboard/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP status codes. Anything unmapped
// is a 500 with a generic message so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	var rle *service.RateLimitError
	if errors.As(err, &rle) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "Placement cooldown active",
			"retryAfterMs": rle.RetryAfter.Milliseconds(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrOutOfBounds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates outside board bounds"})
	case errors.Is(err, service.ErrInvalidColor):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Color is not in the palette"})
	case errors.Is(err, service.ErrInvalidDimensions):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dimensions must be positive multiples of the chunk size"})
	case errors.Is(err, service.ErrBoardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
	case errors.Is(err, service.ErrChunkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Chunk not found"})
	case errors.Is(err, service.ErrBoardNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "Board is not accepting placements"})
	case errors.Is(err, service.ErrBoardBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Board is being resized, try again"})
	case errors.Is(err, service.ErrBoardFinished):
		c.JSON(http.StatusConflict, gin.H{"error": "Board is finished"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
