package model

import (
	"strings"
	"time"

	"scalemap.app/engine/internal/taxonomy"
)

// AssessmentStatus is the coarse lifecycle status stored on the aggregate.
// Timeline status (on-track, at-risk, ...) is derived, never stored.
type AssessmentStatus string

const (
	StatusTriaging      AssessmentStatus = "triaging"
	StatusAnalyzing     AssessmentStatus = "analyzing"
	StatusSynthesizing  AssessmentStatus = "synthesizing"
	StatusValidating    AssessmentStatus = "validating"
	StatusCompleted     AssessmentStatus = "completed"
	StatusPausedForGaps AssessmentStatus = "paused-for-gaps"
)

// DeliverySchedule holds the three absolute delivery deadlines. Extensions
// always shift all three together.
type DeliverySchedule struct {
	ExecutiveSummaryDue  time.Time `json:"executive_summary_due"`
	DetailedReportDue    time.Time `json:"detailed_report_due"`
	ImplementationKitDue time.Time `json:"implementation_kit_due"`
}

// Shifted returns a copy with every deadline moved forward by d.
func (s DeliverySchedule) Shifted(d time.Duration) DeliverySchedule {
	return DeliverySchedule{
		ExecutiveSummaryDue:  s.ExecutiveSummaryDue.Add(d),
		DetailedReportDue:    s.DetailedReportDue.Add(d),
		ImplementationKitDue: s.ImplementationKitDue.Add(d),
	}
}

// Nearest returns the earliest of the three deadlines.
func (s DeliverySchedule) Nearest() time.Time {
	earliest := s.ExecutiveSummaryDue
	if s.DetailedReportDue.Before(earliest) {
		earliest = s.DetailedReportDue
	}
	if s.ImplementationKitDue.Before(earliest) {
		earliest = s.ImplementationKitDue
	}
	return earliest
}

// ClarificationPolicy bounds how much back-and-forth an assessment permits
// before delivery proceeds with whatever information exists.
type ClarificationPolicy struct {
	Deadline     time.Time     `json:"deadline"`
	MaxRequests  int           `json:"max_requests"`
	MaxExtension time.Duration `json:"max_extension"`
}

// Milestones records which delivery phases have completed; the resume path
// derives the post-pause lifecycle status from these timestamps.
type Milestones struct {
	TriagingCompletedAt     *time.Time `json:"triaging_completed_at,omitempty"`
	AnalyzingCompletedAt    *time.Time `json:"analyzing_completed_at,omitempty"`
	SynthesizingCompletedAt *time.Time `json:"synthesizing_completed_at,omitempty"`
	ValidatingCompletedAt   *time.Time `json:"validating_completed_at,omitempty"`
}

// ResponseValue is the scalar/string/list union an answer can carry.
type ResponseValue struct {
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
	List   []string `json:"list,omitempty"`
}

// IsEmpty reports whether the value is absent for completeness purposes.
// Whitespace-only text counts as missing.
func (v ResponseValue) IsEmpty() bool {
	if strings.TrimSpace(v.Text) != "" {
		return false
	}
	if v.Number != nil {
		return false
	}
	for _, item := range v.List {
		if strings.TrimSpace(item) != "" {
			return false
		}
	}
	return true
}

// AsText flattens the value for quality heuristics and prompt building.
func (v ResponseValue) AsText() string {
	if v.Text != "" {
		return v.Text
	}
	if len(v.List) > 0 {
		return strings.Join(v.List, ", ")
	}
	return ""
}

// QuestionResponse is one answered question. Immutable once written except
// by overwrite.
type QuestionResponse struct {
	QuestionID string        `json:"question_id"`
	Value      ResponseValue `json:"value"`
	Timestamp  time.Time     `json:"timestamp"`
}

// DomainResponse groups the answers for one business domain.
type DomainResponse struct {
	Answers              map[string]QuestionResponse `json:"answers"`
	CompletenessPercent  float64                     `json:"completeness_percent"`
}

// HasAnswers reports whether the domain carries at least one non-empty answer.
func (r DomainResponse) HasAnswers() bool {
	for _, a := range r.Answers {
		if !a.Value.IsEmpty() {
			return true
		}
	}
	return false
}

// Assessment is the aggregate root: one company's questionnaire run plus its
// delivery schedule and clarification policy.
type Assessment struct {
	ID             int64                                      `json:"id"`
	CompanyName    string                                     `json:"company_name"`
	ContactEmail   string                                     `json:"contact_email"`
	Industry       taxonomy.IndustryProfile                   `json:"industry"`
	Responses      map[taxonomy.Domain]DomainResponse         `json:"responses"`
	Schedule       DeliverySchedule                           `json:"schedule"`
	Clarification  ClarificationPolicy                        `json:"clarification"`
	Status         AssessmentStatus                           `json:"status"`
	Milestones     Milestones                                 `json:"milestones"`
	LastAnalyzedAt *time.Time                                 `json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time                                  `json:"created_at"`
	UpdatedAt      time.Time                                  `json:"updated_at"`
	Version        int64                                      `json:"version"`
}

// Response returns the answer for a question in a domain, if present.
func (a *Assessment) Response(d taxonomy.Domain, questionID string) (QuestionResponse, bool) {
	dr, ok := a.Responses[d]
	if !ok {
		return QuestionResponse{}, false
	}
	qr, ok := dr.Answers[questionID]
	return qr, ok
}
