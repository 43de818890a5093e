package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/http/dto"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/timeline"
)

type TimelineHandler struct {
	machine    timeline.Machine
	extensions store.ExtensionStore
}

func NewTimelineHandler(machine timeline.Machine, extensions store.ExtensionStore) *TimelineHandler {
	return &TimelineHandler{machine: machine, extensions: extensions}
}

func (h *TimelineHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.machine.Status(ctx, id)
	if err != nil {
		if errors.Is(err, timeline.ErrAssessmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to derive timeline status"})
		return
	}

	c.JSON(http.StatusOK, dto.TimelineStatusResponse{AssessmentID: id, Status: string(status)})
}

func (h *TimelineHandler) RequestExtension(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RequestExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ext, err := h.machine.RequestExtension(ctx, req.ToExtensionRequest(id))
	if err != nil {
		switch {
		case errors.Is(err, timeline.ErrAssessmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
		case timeline.IsBusinessRule(err):
			// Business rule rejections get their own status so callers can
			// distinguish them from malformed requests.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request extension"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToExtensionResponse(ext))
}

func (h *TimelineHandler) ListExtensions(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	exts, err := h.extensions.ListByAssessment(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list extensions"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListExtensionsResponse(exts))
}
