package model

import (
	"time"

	"scalemap.app/engine/internal/taxonomy"
)

// GapCategory is the ordered severity of a detected gap.
type GapCategory string

const (
	GapCritical   GapCategory = "critical"
	GapImportant  GapCategory = "important"
	GapNiceToHave GapCategory = "nice-to-have"
)

// Rank orders categories for sorting, highest severity first.
func (c GapCategory) Rank() int {
	switch c {
	case GapCritical:
		return 3
	case GapImportant:
		return 2
	case GapNiceToHave:
		return 1
	}
	return 0
}

// ResolutionMethod records how a gap was closed.
type ResolutionMethod string

const (
	ResolutionClientInput     ResolutionMethod = "client-input"
	ResolutionAutoResolved    ResolutionMethod = "auto-resolved"
	ResolutionFounderOverride ResolutionMethod = "founder-override"
)

// GapSource records which detection pass produced the gap.
type GapSource string

const (
	SourceMissingDomain   GapSource = "missing-domain"
	SourceMissingAnswer   GapSource = "missing-answer"
	SourceShallowAnswer   GapSource = "shallow-answer"
	SourceDepthHeuristic  GapSource = "depth-heuristic"
	SourceAIAnalysis      GapSource = "ai-analysis"
	SourceConflict        GapSource = "conflict"
	SourceCompliance      GapSource = "compliance"
	SourceResolutionCheck GapSource = "resolution-check"
)

// AssessmentGap is one unit of missing, shallow, conflicting, or
// non-compliant information. Gaps are never physically deleted; resolution
// flips Resolved and records the method for audit.
type AssessmentGap struct {
	ID                 int64           `json:"id"`
	AssessmentID       int64           `json:"assessment_id"`
	Domain             taxonomy.Domain `json:"domain"`
	Category           GapCategory     `json:"category"`
	Source             GapSource       `json:"source"`
	Description        string          `json:"description"`
	SuggestedQuestions []string        `json:"suggested_questions,omitempty"`
	QuestionID         string          `json:"question_id,omitempty"`

	Resolved         bool             `json:"resolved"`
	ResolutionMethod ResolutionMethod `json:"resolution_method,omitempty"`
	ClientResponse   string           `json:"client_response,omitempty"`
	SkipReason       string           `json:"skip_reason,omitempty"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`

	ImpactOnTimeline           bool `json:"impact_on_timeline"`
	Priority                   int  `json:"priority"` // 0-10, ordering only
	EstimatedResolutionMinutes int  `json:"estimated_resolution_minutes"`

	DetectedAt time.Time `json:"detected_at"`
}

// ComplianceLevel grades industry compliance coverage.
type ComplianceLevel string

const (
	ComplianceFull    ComplianceLevel = "full"
	CompliancePartial ComplianceLevel = "partial"
	ComplianceMissing ComplianceLevel = "missing"
)

// ComplianceGap is the industry-specific deficiency recorded alongside the
// regular gap list.
type ComplianceGap struct {
	Regime        taxonomy.ComplianceRegime `json:"regime"`
	Level         ComplianceLevel           `json:"level"`
	Description   string                    `json:"description"`
	MissingFields []string                  `json:"missing_fields,omitempty"`
}

// DomainCompletenessAnalysis is the per-domain slice of a GapAnalysis.
type DomainCompletenessAnalysis struct {
	Domain            taxonomy.Domain `json:"domain"`
	CompletenessScore float64         `json:"completeness_score"` // 0-100
	AnsweredQuestions int             `json:"answered_questions"`
	MissingCritical   []string        `json:"missing_critical,omitempty"`
	GapCount          int             `json:"gap_count"`
}

// GapAnalysis is the immutable snapshot produced by one detector run.
// A reanalysis replaces the prior snapshot wholesale.
type GapAnalysis struct {
	AssessmentID        int64                                          `json:"assessment_id"`
	OverallCompleteness float64                                        `json:"overall_completeness"` // 0-100
	DomainAnalyses      map[taxonomy.Domain]DomainCompletenessAnalysis `json:"domain_analyses"`
	ComplianceGaps      []ComplianceGap                                `json:"compliance_gaps,omitempty"`
	Gaps                []AssessmentGap                                `json:"gaps"`
	CriticalCount       int                                            `json:"critical_count"`
	TotalCount          int                                            `json:"total_count"`
	Recommendations     []string                                       `json:"recommendations,omitempty"`
	AnalyzedAt          time.Time                                      `json:"analyzed_at"`
}

// CriticalGaps returns the unresolved critical subset.
func (a *GapAnalysis) CriticalGaps() []AssessmentGap {
	var out []AssessmentGap
	for _, g := range a.Gaps {
		if g.Category == GapCritical && !g.Resolved {
			out = append(out, g)
		}
	}
	return out
}
