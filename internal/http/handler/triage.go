package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/http/dto"
	"scalemap.app/engine/internal/service"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/triage"
)

type TriageHandler struct {
	validator   triage.Validator
	assessments service.AssessmentService
}

func NewTriageHandler(validator triage.Validator, assessments service.AssessmentService) *TriageHandler {
	return &TriageHandler{validator: validator, assessments: assessments}
}

// Validate checks an AI triage result against the assessment it scored and
// returns either the original analysis or a repaired one.
func (h *TriageHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ValidateTriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := h.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load assessment"})
		return
	}

	outcome, err := h.validator.Validate(ctx, assessment, req.ToTriageAnalysis(id, time.Now()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "triage validation failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToValidateTriageResponse(outcome))
}
