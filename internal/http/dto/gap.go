package dto

import (
	"time"

	"scalemap.app/engine/internal/lifecycle"
	"scalemap.app/engine/internal/model"
)

type GapResponse struct {
	ID                 int64      `json:"id,string"`
	AssessmentID       int64      `json:"assessment_id,string"`
	Domain             string     `json:"domain"`
	Category           string     `json:"category"`
	Source             string     `json:"source"`
	Description        string     `json:"description"`
	SuggestedQuestions []string   `json:"suggested_questions,omitempty"`
	QuestionID         string     `json:"question_id,omitempty"`
	Resolved           bool       `json:"resolved"`
	ResolutionMethod   string     `json:"resolution_method,omitempty"`
	SkipReason         string     `json:"skip_reason,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	Priority           int        `json:"priority"`
	EstimatedMinutes   int        `json:"estimated_resolution_minutes"`
	DetectedAt         time.Time  `json:"detected_at"`
}

func ToGapResponse(g *model.AssessmentGap) *GapResponse {
	return &GapResponse{
		ID:                 g.ID,
		AssessmentID:       g.AssessmentID,
		Domain:             string(g.Domain),
		Category:           string(g.Category),
		Source:             string(g.Source),
		Description:        g.Description,
		SuggestedQuestions: g.SuggestedQuestions,
		QuestionID:         g.QuestionID,
		Resolved:           g.Resolved,
		ResolutionMethod:   string(g.ResolutionMethod),
		SkipReason:         g.SkipReason,
		ResolvedAt:         g.ResolvedAt,
		Priority:           g.Priority,
		EstimatedMinutes:   g.EstimatedResolutionMinutes,
		DetectedAt:         g.DetectedAt,
	}
}

type ListGapsResponse struct {
	Gaps []GapResponse `json:"gaps"`
}

func ToListGapsResponse(gaps []model.AssessmentGap) ListGapsResponse {
	return ListGapsResponse{Gaps: toGapResponses(gaps)}
}

type ResolveGapRequest struct {
	ClientResponse string `json:"client_response,omitempty"`
	Skip           bool   `json:"skip,omitempty"`
	SkipReason     string `json:"skip_reason,omitempty" binding:"max=1024"`
	ResolvedBy     string `json:"resolved_by" binding:"required,min=1,max=255"`
}

func (r ResolveGapRequest) ToResolution() lifecycle.Resolution {
	return lifecycle.Resolution{
		ClientResponse: r.ClientResponse,
		Skip:           r.Skip,
		SkipReason:     r.SkipReason,
		ResolvedBy:     r.ResolvedBy,
	}
}

type ResolveGapResponse struct {
	Resolved             bool          `json:"resolved"`
	ImpactOnCompleteness float64       `json:"impact_on_completeness"`
	NewGaps              []GapResponse `json:"new_gaps,omitempty"`
	Message              string        `json:"message"`
}

func ToResolveGapResponse(o *lifecycle.Outcome) *ResolveGapResponse {
	resp := &ResolveGapResponse{
		Resolved:             o.Resolved,
		ImpactOnCompleteness: o.ImpactOnCompleteness,
		Message:              o.Message,
	}
	if len(o.NewGaps) > 0 {
		resp.NewGaps = toGapResponses(o.NewGaps)
	}
	return resp
}

type BulkResolveItem struct {
	GapID int64 `json:"gap_id,string" binding:"required"`
	ResolveGapRequest
}

type BulkResolveRequest struct {
	AssessmentID int64             `json:"assessment_id,string" binding:"required"`
	Items        []BulkResolveItem `json:"items" binding:"omitempty,dive"`
}

func (r BulkResolveRequest) ToItems() []lifecycle.BulkItem {
	items := make([]lifecycle.BulkItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, lifecycle.BulkItem{
			GapID:      item.GapID,
			Resolution: item.ToResolution(),
		})
	}
	return items
}

type BulkFailure struct {
	GapID int64  `json:"gap_id,string"`
	Error string `json:"error"`
}

type BulkResolveResponse struct {
	ProcessedCount    int           `json:"processed_count"`
	ResolvedCount     int           `json:"resolved_count"`
	FailedResolutions []BulkFailure `json:"failed_resolutions"`
}

func ToBulkResolveResponse(r *lifecycle.BulkResult) *BulkResolveResponse {
	resp := &BulkResolveResponse{
		ProcessedCount:    r.ProcessedCount,
		ResolvedCount:     r.ResolvedCount,
		FailedResolutions: make([]BulkFailure, 0, len(r.FailedResolutions)),
	}
	for _, f := range r.FailedResolutions {
		resp.FailedResolutions = append(resp.FailedResolutions, BulkFailure{GapID: f.GapID, Error: f.Error})
	}
	return resp
}
