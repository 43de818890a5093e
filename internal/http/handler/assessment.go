package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"scalemap.app/engine/internal/http/dto"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/service"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/taxonomy"
)

const defaultListLimit = 50

type AssessmentHandler struct {
	assessments service.AssessmentService
}

func NewAssessmentHandler(assessments service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

func (h *AssessmentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sector, err := taxonomy.ParseSector(req.Industry.Sector)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	responses, err := dto.ParseResponses(req.Responses, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := h.assessments.Create(ctx, service.CreateAssessmentInput{
		CompanyName:  req.CompanyName,
		ContactEmail: req.ContactEmail,
		Industry: taxonomy.IndustryProfile{
			Sector:         sector,
			RegulatoryTier: taxonomy.RegulatoryTier(req.Industry.RegulatoryTier),
		},
		Responses: responses,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create assessment"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssessmentResponse(assessment))
}

func (h *AssessmentHandler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
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

	c.JSON(http.StatusOK, dto.ToAssessmentResponse(assessment))
}

func (h *AssessmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	status := model.AssessmentStatus(c.Query("status"))
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status query parameter is required"})
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	assessments, err := h.assessments.List(ctx, status, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assessments"})
		return
	}

	resp := dto.ListAssessmentsResponse{Assessments: make([]dto.AssessmentBrief, 0, len(assessments))}
	for _, a := range assessments {
		resp.Assessments = append(resp.Assessments, dto.ToAssessmentBrief(a))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssessmentHandler) ListGaps(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	unresolvedOnly := c.Query("unresolved") == "true"
	gaps, err := h.assessments.ListGaps(ctx, id, unresolvedOnly)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list gaps"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListGapsResponse(gaps))
}

// pathID parses an int64 path parameter, responding 400 on garbage.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
