package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/detect"
	"scalemap.app/engine/internal/http/dto"
	"scalemap.app/engine/internal/service"
	"scalemap.app/engine/internal/store"
)

type AnalysisHandler struct {
	analyzer    detect.Analyzer
	assessments service.AssessmentService
}

func NewAnalysisHandler(analyzer detect.Analyzer, assessments service.AssessmentService) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, assessments: assessments}
}

// Analyze runs gap detection. An empty body means a standard-depth full
// analysis.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AnalyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.WarnContext(ctx, "invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	opts, err := req.ToOptions()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.analyzer.Analyze(ctx, id, opts)
	if err != nil {
		if errors.Is(err, detect.ErrAssessmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAnalysisResponse(result))
}

// GetLatest returns the most recent stored snapshot without recomputing.
func (h *AnalysisHandler) GetLatest(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	analysis, err := h.assessments.LatestAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no analysis found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAnalysisResponse(&detect.Result{Analysis: analysis, Cached: true}))
}
