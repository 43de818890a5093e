package dto

import (
	"time"

	"scalemap.app/engine/internal/detect"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
)

type AnalyzeRequest struct {
	Depth           string   `json:"depth,omitempty" binding:"omitempty,oneof=quick standard comprehensive"`
	FocusDomains    []string `json:"focus_domains,omitempty"`
	ForceReanalysis bool     `json:"force_reanalysis,omitempty"`
}

// ToOptions maps the wire request onto detector options, validating every
// focus domain.
func (r AnalyzeRequest) ToOptions() (detect.Options, error) {
	opts := detect.Options{
		Depth:           detect.Depth(r.Depth),
		ForceReanalysis: r.ForceReanalysis,
	}
	for _, name := range r.FocusDomains {
		domain, err := taxonomy.ParseDomain(name)
		if err != nil {
			return detect.Options{}, err
		}
		opts.FocusDomains = append(opts.FocusDomains, domain)
	}
	return opts, nil
}

type DomainAnalysis struct {
	Domain            string   `json:"domain"`
	CompletenessScore float64  `json:"completeness_score"`
	AnsweredQuestions int      `json:"answered_questions"`
	MissingCritical   []string `json:"missing_critical,omitempty"`
	GapCount          int      `json:"gap_count"`
}

type ComplianceGap struct {
	Regime        string   `json:"regime"`
	Level         string   `json:"level"`
	Description   string   `json:"description"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

type AnalysisResponse struct {
	AssessmentID        int64            `json:"assessment_id,string"`
	OverallCompleteness float64          `json:"overall_completeness"`
	DomainAnalyses      []DomainAnalysis `json:"domain_analyses"`
	ComplianceGaps      []ComplianceGap  `json:"compliance_gaps,omitempty"`
	Gaps                []GapResponse    `json:"gaps"`
	CriticalCount       int              `json:"critical_count"`
	TotalCount          int              `json:"total_count"`
	Recommendations     []string         `json:"recommendations,omitempty"`
	AnalyzedAt          time.Time        `json:"analyzed_at"`
	Cached              bool             `json:"cached"`
	Pause               *PauseResponse   `json:"pause,omitempty"`
}

func ToAnalysisResponse(result *detect.Result) *AnalysisResponse {
	analysis := result.Analysis
	resp := &AnalysisResponse{
		AssessmentID:        analysis.AssessmentID,
		OverallCompleteness: analysis.OverallCompleteness,
		CriticalCount:       analysis.CriticalCount,
		TotalCount:          analysis.TotalCount,
		Recommendations:     analysis.Recommendations,
		AnalyzedAt:          analysis.AnalyzedAt,
		Cached:              result.Cached,
	}

	// Domain analyses come out in fixed taxonomy order so responses are
	// stable across runs.
	for _, domain := range taxonomy.AllDomains {
		da, ok := analysis.DomainAnalyses[domain]
		if !ok {
			continue
		}
		resp.DomainAnalyses = append(resp.DomainAnalyses, DomainAnalysis{
			Domain:            string(da.Domain),
			CompletenessScore: da.CompletenessScore,
			AnsweredQuestions: da.AnsweredQuestions,
			MissingCritical:   da.MissingCritical,
			GapCount:          da.GapCount,
		})
	}
	for _, cg := range analysis.ComplianceGaps {
		resp.ComplianceGaps = append(resp.ComplianceGaps, ComplianceGap{
			Regime:        string(cg.Regime),
			Level:         string(cg.Level),
			Description:   cg.Description,
			MissingFields: cg.MissingFields,
		})
	}
	resp.Gaps = toGapResponses(analysis.Gaps)
	if result.Pause != nil {
		resp.Pause = ToPauseResponse(result.Pause)
	}
	return resp
}

func toGapResponses(gaps []model.AssessmentGap) []GapResponse {
	out := make([]GapResponse, 0, len(gaps))
	for i := range gaps {
		out = append(out, *ToGapResponse(&gaps[i]))
	}
	return out
}
