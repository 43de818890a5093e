package dto

import (
	"time"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
	"scalemap.app/engine/internal/triage"
)

type DomainScore struct {
	Score      float64 `json:"score" binding:"required"`
	Confidence float64 `json:"confidence"`
	Severity   string  `json:"severity" binding:"required,oneof=low medium high critical"`
	Priority   string  `json:"priority" binding:"required,oneof=HEALTHY MODERATE HIGH CRITICAL"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type ValidateTriageRequest struct {
	DomainScores      map[string]DomainScore `json:"domain_scores" binding:"required,dive"`
	CriticalDomains   []string               `json:"critical_domains" binding:"required"`
	OverallConfidence float64                `json:"overall_confidence"`
	Reasoning         string                 `json:"reasoning,omitempty"`
}

// ToTriageAnalysis maps the wire request onto the model. Domain names are
// passed through unparsed; the validator reports unknown domains as check
// failures rather than rejecting the request outright.
func (r ValidateTriageRequest) ToTriageAnalysis(assessmentID int64, now time.Time) *model.TriageAnalysis {
	analysis := &model.TriageAnalysis{
		AssessmentID:      assessmentID,
		DomainScores:      make(map[taxonomy.Domain]model.DomainScore, len(r.DomainScores)),
		OverallConfidence: r.OverallConfidence,
		Reasoning:         r.Reasoning,
		ProducedAt:        now,
	}
	for name, score := range r.DomainScores {
		analysis.DomainScores[taxonomy.Domain(name)] = model.DomainScore{
			Score:      score.Score,
			Confidence: score.Confidence,
			Severity:   model.TriageSeverity(score.Severity),
			Priority:   model.TriagePriority(score.Priority),
			Reasoning:  score.Reasoning,
		}
	}
	for _, name := range r.CriticalDomains {
		analysis.CriticalDomains = append(analysis.CriticalDomains, taxonomy.Domain(name))
	}
	return analysis
}

type ValidationError struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

type TriageAnalysisResponse struct {
	AssessmentID      int64                  `json:"assessment_id,string"`
	DomainScores      map[string]DomainScore `json:"domain_scores"`
	CriticalDomains   []string               `json:"critical_domains"`
	OverallConfidence float64                `json:"overall_confidence"`
	Reasoning         string                 `json:"reasoning,omitempty"`
}

type ValidateTriageResponse struct {
	IsValid         bool                    `json:"is_valid"`
	Result          *TriageAnalysisResponse `json:"result"`
	FallbackApplied bool                    `json:"fallback_applied"`
	Strategy        string                  `json:"strategy,omitempty"`
	Errors          []ValidationError       `json:"errors,omitempty"`
}

func ToValidateTriageResponse(o *triage.Outcome) *ValidateTriageResponse {
	resp := &ValidateTriageResponse{
		IsValid:         o.IsValid,
		FallbackApplied: o.FallbackApplied,
		Strategy:        string(o.Strategy),
	}
	for _, e := range o.Errors {
		resp.Errors = append(resp.Errors, ValidationError{Check: e.Check, Message: e.Message})
	}
	if o.Result != nil {
		result := &TriageAnalysisResponse{
			AssessmentID:      o.Result.AssessmentID,
			DomainScores:      make(map[string]DomainScore, len(o.Result.DomainScores)),
			OverallConfidence: o.Result.OverallConfidence,
			Reasoning:         o.Result.Reasoning,
		}
		for domain, score := range o.Result.DomainScores {
			result.DomainScores[string(domain)] = DomainScore{
				Score:      score.Score,
				Confidence: score.Confidence,
				Severity:   string(score.Severity),
				Priority:   string(score.Priority),
				Reasoning:  score.Reasoning,
			}
		}
		for _, domain := range o.Result.CriticalDomains {
			result.CriticalDomains = append(result.CriticalDomains, string(domain))
		}
		resp.Result = result
	}
	return resp
}
