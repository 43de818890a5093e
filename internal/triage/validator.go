// Package triage validates AI-produced domain-criticality analyses against
// structural and statistical invariants, and deterministically repairs
// selections that cannot be trusted. The validator never rejects outright: a
// failed validation always yields a usable, repaired analysis.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/scoring"
	"scalemap.app/engine/internal/taxonomy"
)

// Check names identify which invariant produced a validation error.
const (
	CheckCoverage     = "domain-coverage"
	CheckScores       = "score-consistency"
	CheckIndustry     = "industry-alignment"
	CheckCompleteness = "data-completeness"
	CheckQuality      = "quality-score"
	CheckConfidence   = "overall-confidence"
)

// ValidationError is one failed invariant, collected flat across all checks.
type ValidationError struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Check, e.Message)
}

// Outcome is the validator's verdict plus the analysis callers should trust
// downstream. Result is the original analysis when IsValid, otherwise the
// repaired one.
type Outcome struct {
	IsValid         bool              `json:"is_valid"`
	Result          *model.TriageAnalysis `json:"result"`
	FallbackApplied bool              `json:"fallback_applied"`
	Strategy        FallbackStrategy  `json:"strategy,omitempty"`
	Errors          []ValidationError `json:"errors,omitempty"`
}

// Validator checks a triage analysis for an assessment and repairs it when
// the checks fail.
type Validator interface {
	Validate(ctx context.Context, assessment *model.Assessment, analysis *model.TriageAnalysis) (*Outcome, error)
}

// Config carries the validator tunables. Thresholds are product-tuned
// values kept overridable for tests.
type Config struct {
	MinDomains         int
	MaxDomains         int
	ConfidenceFloor    float64 // minimum overall confidence to pass
	QualityThreshold   float64 // blended quality score must exceed this
	MinAvgCompleteness float64 // percent, 0-100
	ConfidenceSlack    float64 // allowed excess over avg domain confidence
}

func DefaultConfig() Config {
	return Config{
		MinDomains:         3,
		MaxDomains:         5,
		ConfidenceFloor:    0.7,
		QualityThreshold:   0.65,
		MinAvgCompleteness: 50,
		ConfidenceSlack:    0.2,
	}
}

type validator struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, log *slog.Logger) Validator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MinDomains == 0 {
		cfg = DefaultConfig()
	}
	return &validator{cfg: cfg, logger: log.With(slog.String("component", "triage"))}
}

// coverageGroups is the set of domain groups a trustworthy selection must
// touch at least once.
var coverageGroups = []taxonomy.Group{
	taxonomy.GroupStrategy,
	taxonomy.GroupOperations,
	taxonomy.GroupPeople,
}

func (v *validator) Validate(ctx context.Context, assessment *model.Assessment, analysis *model.TriageAnalysis) (*Outcome, error) {
	stats := computeStats(assessment, analysis)
	var errs []ValidationError

	errs = append(errs, v.checkCoverage(analysis)...)
	errs = append(errs, v.checkScores(analysis)...)
	errs = append(errs, v.checkIndustry(assessment, analysis)...)
	errs = append(errs, v.checkCompleteness(stats)...)
	errs = append(errs, v.checkQuality(stats)...)
	errs = append(errs, v.checkConfidence(analysis, stats)...)

	if analysis.OverallConfidence >= v.cfg.ConfidenceFloor && !hasCriticalError(errs) {
		return &Outcome{IsValid: true, Result: analysis, Errors: errs}, nil
	}

	repaired, strategy := v.applyFallback(assessment, analysis, stats, errs)
	v.logger.InfoContext(ctx, "triage analysis repaired",
		slog.Int64("assessment_id", analysis.AssessmentID),
		slog.String("strategy", string(strategy)),
		slog.Int("validation_errors", len(errs)))

	return &Outcome{
		IsValid:         false,
		Result:          repaired,
		FallbackApplied: true,
		Strategy:        strategy,
		Errors:          errs,
	}, nil
}

func (v *validator) checkCoverage(analysis *model.TriageAnalysis) []ValidationError {
	var errs []ValidationError
	n := len(analysis.CriticalDomains)
	if n < v.cfg.MinDomains {
		errs = append(errs, ValidationError{CheckCoverage, fmt.Sprintf("Insufficient domains: %d selected, minimum %d", n, v.cfg.MinDomains)})
	}
	if n > v.cfg.MaxDomains {
		errs = append(errs, ValidationError{CheckCoverage, fmt.Sprintf("Too many domains: %d selected, maximum %d", n, v.cfg.MaxDomains)})
	}

	touched := make(map[taxonomy.Group]bool)
	for _, d := range analysis.CriticalDomains {
		if !d.IsKnown() {
			errs = append(errs, ValidationError{CheckCoverage, fmt.Sprintf("Unknown domain selected: %q", d)})
			continue
		}
		touched[d.Group()] = true
	}
	groupTouched := false
	for _, g := range coverageGroups {
		if touched[g] {
			groupTouched = true
			break
		}
	}
	if n > 0 && !groupTouched {
		errs = append(errs, ValidationError{CheckCoverage, "Selection touches none of the strategy, operations, or people groups"})
	}
	return errs
}

func (v *validator) checkScores(analysis *model.TriageAnalysis) []ValidationError {
	var errs []ValidationError
	for _, domain := range taxonomy.AllDomains {
		ds, ok := analysis.DomainScores[domain]
		if !ok {
			continue
		}
		if ds.Score < 1 || ds.Score > 5 {
			errs = append(errs, ValidationError{CheckScores, fmt.Sprintf("Score out of range for %s: %.2f", domain, ds.Score)})
			continue
		}
		if ds.Confidence < 0 || ds.Confidence > 1 {
			errs = append(errs, ValidationError{CheckScores, fmt.Sprintf("Confidence out of range for %s: %.2f", domain, ds.Confidence)})
		}
		if want := model.ExpectedSeverity(ds.Score); ds.Severity != want {
			errs = append(errs, ValidationError{CheckScores, fmt.Sprintf("Severity mismatch for %s: got %s, score %.2f implies %s", domain, ds.Severity, ds.Score, want)})
		}
		if want := model.ExpectedPriority(ds.Score); ds.Priority != want {
			errs = append(errs, ValidationError{CheckScores, fmt.Sprintf("Priority mismatch for %s: got %s, score %.2f implies %s", domain, ds.Priority, ds.Score, want)})
		}
	}
	return errs
}

func (v *validator) checkIndustry(assessment *model.Assessment, analysis *model.TriageAnalysis) []ValidationError {
	var errs []ValidationError
	selected := make(map[taxonomy.Domain]bool, len(analysis.CriticalDomains))
	for _, d := range analysis.CriticalDomains {
		selected[d] = true
	}

	for _, required := range assessment.Industry.Sector.RequiredDomains() {
		if !selected[required] {
			errs = append(errs, ValidationError{CheckIndustry, fmt.Sprintf("Missing required domain for %s sector: %s", assessment.Industry.Sector, required)})
		}
	}
	if assessment.Industry.RegulatoryTier == taxonomy.TierHeavilyRegulated && !selected[taxonomy.DomainRiskCompliance] {
		errs = append(errs, ValidationError{CheckIndustry, "Missing required domain risk-compliance for heavily-regulated tier"})
	}
	return errs
}

func (v *validator) checkCompleteness(stats analysisStats) []ValidationError {
	if stats.avgCompleteness >= v.cfg.MinAvgCompleteness {
		return nil
	}
	return []ValidationError{{CheckCompleteness, fmt.Sprintf("Average domain completeness %.1f%% is below %.0f%%", stats.avgCompleteness, v.cfg.MinAvgCompleteness)}}
}

func (v *validator) checkQuality(stats analysisStats) []ValidationError {
	if stats.qualityScore > v.cfg.QualityThreshold {
		return nil
	}
	return []ValidationError{{CheckQuality, fmt.Sprintf("Quality score %.3f does not exceed %.2f", stats.qualityScore, v.cfg.QualityThreshold)}}
}

func (v *validator) checkConfidence(analysis *model.TriageAnalysis, stats analysisStats) []ValidationError {
	var errs []ValidationError
	if analysis.OverallConfidence < 0 || analysis.OverallConfidence > 1 {
		errs = append(errs, ValidationError{CheckConfidence, fmt.Sprintf("Overall confidence out of range: %.2f", analysis.OverallConfidence)})
		return errs
	}
	if stats.scoredDomains > 0 && analysis.OverallConfidence > stats.avgConfidence+v.cfg.ConfidenceSlack {
		errs = append(errs, ValidationError{CheckConfidence, fmt.Sprintf("Overall confidence %.2f exceeds average domain confidence %.2f by more than %.1f", analysis.OverallConfidence, stats.avgConfidence, v.cfg.ConfidenceSlack)})
	}
	return errs
}

// criticalPatterns are the error fragments that force a fallback regardless
// of overall confidence.
var criticalPatterns = []string{
	"Insufficient domains",
	"Too many domains",
	"Unknown domain",
	"touches none",
	"out of range",
	"mismatch",
	"Missing required domain",
	"exceeds average domain confidence",
}

func hasCriticalError(errs []ValidationError) bool {
	for _, e := range errs {
		for _, p := range criticalPatterns {
			if strings.Contains(e.Message, p) {
				return true
			}
		}
	}
	return false
}

// analysisStats bundles the derived statistics shared by the statistical
// checks and the fallback selector.
type analysisStats struct {
	scoredDomains   int
	avgScore        float64
	scoreVariance   float64
	avgConfidence   float64
	avgCompleteness float64 // percent, 0-100
	qualityScore    float64
}

func computeStats(assessment *model.Assessment, analysis *model.TriageAnalysis) analysisStats {
	var stats analysisStats

	var scoreSum, confSum float64
	for _, ds := range analysis.DomainScores {
		stats.scoredDomains++
		scoreSum += ds.Score
		confSum += ds.Confidence
	}
	if stats.scoredDomains > 0 {
		stats.avgScore = scoreSum / float64(stats.scoredDomains)
		stats.avgConfidence = confSum / float64(stats.scoredDomains)

		var sq float64
		for _, ds := range analysis.DomainScores {
			diff := ds.Score - stats.avgScore
			sq += diff * diff
		}
		stats.scoreVariance = sq / float64(stats.scoredDomains)
	}

	var completenessSum float64
	for _, domain := range taxonomy.AllDomains {
		completenessSum += scoring.DomainCompleteness(domain, assessment.Responses[domain])
	}
	stats.avgCompleteness = completenessSum / float64(len(taxonomy.AllDomains))

	// Blend: 30% inverse score variance, 40% average confidence capped at
	// 1.0, 30% average completeness as a fraction.
	varianceInverse := 1.0 / (1.0 + stats.scoreVariance)
	confidence := math.Min(stats.avgConfidence, 1.0)
	stats.qualityScore = 0.3*varianceInverse + 0.4*confidence + 0.3*(stats.avgCompleteness/100)
	return stats
}
