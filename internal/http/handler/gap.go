package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/http/dto"
	"scalemap.app/engine/internal/lifecycle"
)

type GapHandler struct {
	gaps lifecycle.Manager
}

func NewGapHandler(gaps lifecycle.Manager) *GapHandler {
	return &GapHandler{gaps: gaps}
}

func (h *GapHandler) Resolve(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ResolveGapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.gaps.Resolve(ctx, id, req.ToResolution())
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrGapNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "gap not found"})
		case errors.Is(err, lifecycle.ErrGapAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "gap already resolved"})
		case errors.Is(err, lifecycle.ErrInvalidResolution):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve gap"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToResolveGapResponse(outcome))
}

func (h *GapHandler) ResolveBulk(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.BulkResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Redundant identifiers must agree; a mismatch is a malformed request,
	// not a business outcome.
	if req.AssessmentID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assessment id in body does not match path"})
		return
	}

	result, err := h.gaps.ResolveBulk(ctx, id, req.ToItems())
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrEmptyBatch), errors.Is(err, lifecycle.ErrBatchTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "bulk resolution failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToBulkResolveResponse(result))
}
