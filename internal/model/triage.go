package model

import (
	"time"

	"scalemap.app/engine/internal/taxonomy"
)

// TriageSeverity is the per-domain severity label an AI triage pass assigns.
type TriageSeverity string

const (
	TriageSeverityLow      TriageSeverity = "low"
	TriageSeverityMedium   TriageSeverity = "medium"
	TriageSeverityHigh     TriageSeverity = "high"
	TriageSeverityCritical TriageSeverity = "critical"
)

// TriagePriority is the coarse priority label paired with the severity.
type TriagePriority string

const (
	TriagePriorityHealthy  TriagePriority = "HEALTHY"
	TriagePriorityModerate TriagePriority = "MODERATE"
	TriagePriorityHigh     TriagePriority = "HIGH"
	TriagePriorityCritical TriagePriority = "CRITICAL"
)

// DomainScore is the AI-produced assessment of one domain. Severity and
// Priority are expected to follow Score through fixed thresholds; the
// validator enforces that relationship.
type DomainScore struct {
	Score      float64        `json:"score"`      // 1-5
	Confidence float64        `json:"confidence"` // 0-1
	Severity   TriageSeverity `json:"severity"`
	Priority   TriagePriority `json:"priority"`
	Reasoning  string         `json:"reasoning,omitempty"`
}

// TriageAnalysis is the overall AI triage result: which 3-5 domains warrant
// deep specialist analysis.
type TriageAnalysis struct {
	AssessmentID      int64                               `json:"assessment_id"`
	DomainScores      map[taxonomy.Domain]DomainScore     `json:"domain_scores"`
	CriticalDomains   []taxonomy.Domain                   `json:"critical_domains"`
	OverallConfidence float64                             `json:"overall_confidence"`
	Reasoning         string                              `json:"reasoning,omitempty"`
	ProducedAt        time.Time                           `json:"produced_at"`
}

// ExpectedSeverity maps a numeric score to the severity label the validator
// requires: >=4.5 critical, >=4.0 high, >=3.5 medium, else low.
func ExpectedSeverity(score float64) TriageSeverity {
	switch {
	case score >= 4.5:
		return TriageSeverityCritical
	case score >= 4.0:
		return TriageSeverityHigh
	case score >= 3.5:
		return TriageSeverityMedium
	default:
		return TriageSeverityLow
	}
}

// ExpectedPriority is the analogous mapping for the priority label.
func ExpectedPriority(score float64) TriagePriority {
	switch {
	case score >= 4.5:
		return TriagePriorityCritical
	case score >= 4.0:
		return TriagePriorityHigh
	case score >= 3.5:
		return TriagePriorityModerate
	default:
		return TriagePriorityHealthy
	}
}
