package dto

import (
	"time"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/timeline"
)

type PauseResponse struct {
	ID               int64      `json:"id,string"`
	AssessmentID     int64      `json:"assessment_id,string"`
	Reason           string     `json:"reason"`
	PausedAt         time.Time  `json:"paused_at"`
	PausedBy         string     `json:"paused_by"`
	AffectedGaps     []int64    `json:"affected_gaps"`
	EstimatedMinutes int        `json:"estimated_resolution_minutes"`
	NextSteps        string     `json:"next_steps"`
	ResumeBy         time.Time  `json:"resume_by"`
	Active           bool       `json:"active"`
	ResumedAt        *time.Time `json:"resumed_at,omitempty"`
}

func ToPauseResponse(p *model.TimelinePauseEvent) *PauseResponse {
	return &PauseResponse{
		ID:               p.ID,
		AssessmentID:     p.AssessmentID,
		Reason:           p.Reason,
		PausedAt:         p.PausedAt,
		PausedBy:         p.PausedBy,
		AffectedGaps:     p.AffectedGaps,
		EstimatedMinutes: p.EstimatedResolutionMinutes,
		NextSteps:        p.NextSteps,
		ResumeBy:         p.ResumeBy,
		Active:           p.Active,
		ResumedAt:        p.ResumedAt,
	}
}

type RequestExtensionRequest struct {
	Type            string `json:"type" binding:"required,oneof=gap-resolution clarification"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
	Justification   string `json:"justification" binding:"required,min=1,max=2048"`
	RequestedBy     string `json:"requested_by" binding:"required,min=1,max=255"`
}

func (r RequestExtensionRequest) ToExtensionRequest(assessmentID int64) timeline.ExtensionRequest {
	return timeline.ExtensionRequest{
		AssessmentID:  assessmentID,
		Type:          model.ExtensionType(r.Type),
		Duration:      time.Duration(r.DurationMinutes) * time.Minute,
		Justification: r.Justification,
		RequestedBy:   r.RequestedBy,
	}
}

type ExtensionResponse struct {
	ID                int64            `json:"id,string"`
	AssessmentID      int64            `json:"assessment_id,string"`
	Type              string           `json:"type"`
	OriginalDeadlines DeliverySchedule `json:"original_deadlines"`
	NewDeadlines      DeliverySchedule `json:"new_deadlines"`
	DurationMinutes   int              `json:"duration_minutes"`
	RequestedBy       string           `json:"requested_by"`
	Justification     string           `json:"justification"`
	RequestedAt       time.Time        `json:"requested_at"`
	Approved          bool             `json:"approved"`
	ApprovedBy        *string          `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
}

func ToExtensionResponse(e *model.TimelineExtension) *ExtensionResponse {
	return &ExtensionResponse{
		ID:           e.ID,
		AssessmentID: e.AssessmentID,
		Type:         string(e.Type),
		OriginalDeadlines: DeliverySchedule{
			ExecutiveSummaryDue:  e.OriginalDeadlines.ExecutiveSummaryDue,
			DetailedReportDue:    e.OriginalDeadlines.DetailedReportDue,
			ImplementationKitDue: e.OriginalDeadlines.ImplementationKitDue,
		},
		NewDeadlines: DeliverySchedule{
			ExecutiveSummaryDue:  e.NewDeadlines.ExecutiveSummaryDue,
			DetailedReportDue:    e.NewDeadlines.DetailedReportDue,
			ImplementationKitDue: e.NewDeadlines.ImplementationKitDue,
		},
		DurationMinutes: int(e.Duration / time.Minute),
		RequestedBy:     e.RequestedBy,
		Justification:   e.Justification,
		RequestedAt:     e.RequestedAt,
		Approved:        e.Approved(),
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
	}
}

type ListExtensionsResponse struct {
	Extensions []ExtensionResponse `json:"extensions"`
}

func ToListExtensionsResponse(exts []model.TimelineExtension) ListExtensionsResponse {
	resp := ListExtensionsResponse{Extensions: make([]ExtensionResponse, 0, len(exts))}
	for i := range exts {
		resp.Extensions = append(resp.Extensions, *ToExtensionResponse(&exts[i]))
	}
	return resp
}

type TimelineStatusResponse struct {
	AssessmentID int64  `json:"assessment_id,string"`
	Status       string `json:"status"`
}
