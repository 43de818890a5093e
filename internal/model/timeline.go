package model

import "time"

// TimelineStatus is the derived delivery state. Derivation precedence:
// paused, extended, overdue, at-risk, on-track.
type TimelineStatus string

const (
	TimelinePaused   TimelineStatus = "paused"
	TimelineExtended TimelineStatus = "extended"
	TimelineOverdue  TimelineStatus = "overdue"
	TimelineAtRisk   TimelineStatus = "at-risk"
	TimelineOnTrack  TimelineStatus = "on-track"
)

// TimelinePauseEvent suspends the delivery clock pending gap resolution.
// At most one active pause per assessment; closed on resume, never deleted.
type TimelinePauseEvent struct {
	ID                         int64     `json:"id"`
	AssessmentID               int64     `json:"assessment_id"`
	Reason                     string    `json:"reason"`
	PausedAt                   time.Time `json:"paused_at"`
	PausedBy                   string    `json:"paused_by"`
	AffectedGaps               []int64   `json:"affected_gaps"`
	EstimatedResolutionMinutes int       `json:"estimated_resolution_minutes"`
	NextSteps                  string    `json:"next_steps"`
	ResumeBy                   time.Time `json:"resume_by"`

	Active    bool       `json:"active"`
	ResumedAt *time.Time `json:"resumed_at,omitempty"`
	ResumedBy string     `json:"resumed_by,omitempty"`
}

// ExtensionType distinguishes why deadlines moved. Each type carries its own
// duration cap.
type ExtensionType string

const (
	ExtensionGapResolution ExtensionType = "gap-resolution"
	ExtensionClarification ExtensionType = "clarification"
)

// TimelineExtension is one bounded forward shift of all three delivery
// deadlines. Append-only; at most three per assessment, ever.
type TimelineExtension struct {
	ID                int64            `json:"id"`
	AssessmentID      int64            `json:"assessment_id"`
	Type              ExtensionType    `json:"type"`
	OriginalDeadlines DeliverySchedule `json:"original_deadlines"`
	NewDeadlines      DeliverySchedule `json:"new_deadlines"`
	Duration          time.Duration    `json:"duration"`
	RequestedBy       string           `json:"requested_by"`
	Justification     string           `json:"justification"`
	RequestedAt       time.Time        `json:"requested_at"`
	ApprovedBy        *string          `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
}

// Approved reports whether the extension has been approved (automatically or
// out-of-band).
func (e TimelineExtension) Approved() bool {
	return e.ApprovedBy != nil
}
