package triage

import (
	"fmt"
	"sort"
	"strings"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
)

// FallbackStrategy names which repair was applied to a failed analysis.
type FallbackStrategy string

const (
	FallbackStructural    FallbackStrategy = "structural-repair"
	FallbackDefaultDomain FallbackStrategy = "default-domain"
	FallbackIndustry      FallbackStrategy = "industry-mapping"
	FallbackRuleBased     FallbackStrategy = "rule-based"
)

// Pinned confidence values per strategy.
const (
	structuralConfidence    = 0.65
	defaultConfidence       = 0.6
	industryMinConfidence   = 0.65
	ruleBasedConfidenceMul  = 0.9
	ruleBasedConfidenceMin  = 0.55
	industryCompletenessCut = 0.6 // fraction
)

// applyFallback picks exactly one repair strategy by fixed precedence:
// structural damage first, then untrustable confidence, then thin data, then
// poor statistical quality.
func (v *validator) applyFallback(assessment *model.Assessment, analysis *model.TriageAnalysis, stats analysisStats, errs []ValidationError) (*model.TriageAnalysis, FallbackStrategy) {
	switch {
	case hasStructuralError(errs):
		return v.structuralRepair(assessment, analysis), FallbackStructural
	case analysis.OverallConfidence < v.cfg.ConfidenceFloor && onlyConfidenceIssues(errs):
		return v.defaultDomainFallback(analysis), FallbackDefaultDomain
	case stats.avgCompleteness/100 < industryCompletenessCut:
		return v.industryFallback(assessment, analysis), FallbackIndustry
	case stats.qualityScore <= v.cfg.QualityThreshold:
		return v.ruleBasedFallback(analysis), FallbackRuleBased
	default:
		return v.defaultDomainFallback(analysis), FallbackDefaultDomain
	}
}

// onlyConfidenceIssues reports whether confidence is the sole reason the
// analysis failed.
func onlyConfidenceIssues(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Check != CheckConfidence {
			return false
		}
	}
	return true
}

func hasStructuralError(errs []ValidationError) bool {
	for _, e := range errs {
		switch e.Check {
		case CheckCoverage, CheckIndustry:
			return true
		case CheckScores:
			if strings.Contains(e.Message, "out of range") {
				return true
			}
		}
	}
	return false
}

// structuralRepair keeps as much of the AI selection as possible: drop
// unknowns, pad with defaults up to the minimum, trim to the top scorers at
// the maximum, and force risk-compliance for heavily-regulated sectors.
func (v *validator) structuralRepair(assessment *model.Assessment, analysis *model.TriageAnalysis) *model.TriageAnalysis {
	selected := make([]taxonomy.Domain, 0, v.cfg.MaxDomains)
	seen := make(map[taxonomy.Domain]bool)
	for _, d := range analysis.CriticalDomains {
		if d.IsKnown() && !seen[d] {
			selected = append(selected, d)
			seen[d] = true
		}
	}

	for _, d := range taxonomy.DefaultCriticalDomains {
		if len(selected) >= v.cfg.MinDomains {
			break
		}
		if !seen[d] {
			selected = append(selected, d)
			seen[d] = true
		}
	}

	if len(selected) > v.cfg.MaxDomains {
		sortByScore(selected, analysis.DomainScores)
		selected = selected[:v.cfg.MaxDomains]
	}

	if assessment.Industry.RegulatoryTier == taxonomy.TierHeavilyRegulated && !contains(selected, taxonomy.DomainRiskCompliance) {
		if len(selected) >= v.cfg.MaxDomains {
			sortByScore(selected, analysis.DomainScores)
			selected = selected[:len(selected)-1]
		}
		selected = append(selected, taxonomy.DomainRiskCompliance)
	}

	repaired := cloneAnalysis(analysis)
	repaired.CriticalDomains = selected
	repaired.OverallConfidence = structuralConfidence
	appendJustification(repaired, "structural repair adjusted the domain selection to satisfy coverage and industry requirements")
	return repaired
}

// defaultDomainFallback discards the AI selection entirely in favour of the
// fixed default triad.
func (v *validator) defaultDomainFallback(analysis *model.TriageAnalysis) *model.TriageAnalysis {
	repaired := cloneAnalysis(analysis)
	repaired.CriticalDomains = append([]taxonomy.Domain(nil), taxonomy.DefaultCriticalDomains...)
	repaired.OverallConfidence = defaultConfidence
	appendJustification(repaired, fmt.Sprintf("overall confidence %.2f is below the trust floor, default domains substituted", analysis.OverallConfidence))
	return repaired
}

// industryFallback substitutes the fixed sector-to-domain mapping when the
// underlying assessment data is too thin to trust a bespoke selection.
func (v *validator) industryFallback(assessment *model.Assessment, analysis *model.TriageAnalysis) *model.TriageAnalysis {
	repaired := cloneAnalysis(analysis)
	repaired.CriticalDomains = assessment.Industry.Sector.FallbackDomains()
	if repaired.OverallConfidence < industryMinConfidence {
		repaired.OverallConfidence = industryMinConfidence
	}
	appendJustification(repaired, fmt.Sprintf("assessment data is too incomplete for a bespoke selection, %s industry mapping substituted", assessment.Industry.Sector))
	return repaired
}

// ruleBasedFallback reselects the top scorers from the AI's own per-domain
// scores, discounting its confidence.
func (v *validator) ruleBasedFallback(analysis *model.TriageAnalysis) *model.TriageAnalysis {
	scored := make([]taxonomy.Domain, 0, len(analysis.DomainScores))
	for _, d := range taxonomy.AllDomains {
		if _, ok := analysis.DomainScores[d]; ok {
			scored = append(scored, d)
		}
	}
	sortByScore(scored, analysis.DomainScores)
	if len(scored) > v.cfg.MaxDomains {
		scored = scored[:v.cfg.MaxDomains]
	}

	repaired := cloneAnalysis(analysis)
	if len(scored) > 0 {
		repaired.CriticalDomains = scored
	} else {
		repaired.CriticalDomains = append([]taxonomy.Domain(nil), taxonomy.DefaultCriticalDomains...)
	}
	repaired.OverallConfidence = analysis.OverallConfidence * ruleBasedConfidenceMul
	if repaired.OverallConfidence < ruleBasedConfidenceMin {
		repaired.OverallConfidence = ruleBasedConfidenceMin
	}
	appendJustification(repaired, "statistical quality is too low, selection rebuilt from raw domain scores")
	return repaired
}

func sortByScore(domains []taxonomy.Domain, scores map[taxonomy.Domain]model.DomainScore) {
	sort.SliceStable(domains, func(i, j int) bool {
		return scores[domains[i]].Score > scores[domains[j]].Score
	})
}

func contains(domains []taxonomy.Domain, target taxonomy.Domain) bool {
	for _, d := range domains {
		if d == target {
			return true
		}
	}
	return false
}

func cloneAnalysis(analysis *model.TriageAnalysis) *model.TriageAnalysis {
	clone := *analysis
	clone.DomainScores = make(map[taxonomy.Domain]model.DomainScore, len(analysis.DomainScores))
	for d, s := range analysis.DomainScores {
		clone.DomainScores[d] = s
	}
	clone.CriticalDomains = append([]taxonomy.Domain(nil), analysis.CriticalDomains...)
	return &clone
}

// appendJustification keeps the original reasoning and adds the repair note
// after it.
func appendJustification(analysis *model.TriageAnalysis, note string) {
	if analysis.Reasoning == "" {
		analysis.Reasoning = "Fallback: " + note
		return
	}
	analysis.Reasoning = analysis.Reasoning + " | Fallback: " + note
}
