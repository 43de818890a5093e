// Package scoring holds the pure completeness and answer-quality primitives.
// Nothing here touches persistence or the completion service; every function
// is deterministic over its inputs.
package scoring

import (
	"strings"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
)

// Thresholds are the product-tuned quality constants. They have no documented
// derivation; keep them named and overridable rather than inferring values.
type Thresholds struct {
	MinAnswerLength    int // below this a free-text answer is shallow
	DepthCheckMinLength int // depth-indicator check applies above this
	HighQualityLength  int // response length for the 1.2 multiplier
	FairQualityLength  int // response length for the 1.0 multiplier
}

// DefaultThresholds returns the production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAnswerLength:     10,
		DepthCheckMinLength: 20,
		HighQualityLength:   50,
		FairQualityLength:   20,
	}
}

// depthIndicators are the phrases whose presence marks a reasoned answer.
var depthIndicators = []string{
	"because",
	"for example",
	"such as",
	"due to",
	"which means",
	"so that",
	"as a result",
	"in order to",
}

// IsShallow reports whether a free-text answer is too short to be useful.
func (t Thresholds) IsShallow(text string) bool {
	return len(strings.TrimSpace(text)) < t.MinAnswerLength
}

// NeedsDepthCheck reports whether the answer is long enough for the
// depth-indicator heuristic to apply.
func (t Thresholds) NeedsDepthCheck(text string) bool {
	return len(strings.TrimSpace(text)) > t.DepthCheckMinLength
}

// HasDepthIndicator reports whether the answer contains any reasoning phrase.
func HasDepthIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, ind := range depthIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// QualityMultiplier scales a gap's completeness impact by how substantial
// the resolving response was: 1.2 above the high bar, 1.0 above the fair
// bar, 0.8 otherwise.
func (t Thresholds) QualityMultiplier(responseLength int) float64 {
	switch {
	case responseLength > t.HighQualityLength:
		return 1.2
	case responseLength > t.FairQualityLength:
		return 1.0
	default:
		return 0.8
	}
}

// DomainCompleteness scores one domain 0-100. Critical-question coverage
// carries 70% of the score; overall answer volume (relative to the critical
// set, capped at 1) carries the rest. An unanswered domain is 0.
func DomainCompleteness(d taxonomy.Domain, resp model.DomainResponse) float64 {
	if !resp.HasAnswers() {
		return 0
	}
	critical := taxonomy.CriticalQuestions(d)
	if len(critical) == 0 {
		return 100
	}

	answered := 0
	for _, q := range critical {
		if a, ok := resp.Answers[q]; ok && !a.Value.IsEmpty() {
			answered++
		}
	}
	coverage := float64(answered) / float64(len(critical))

	nonEmpty := 0
	for _, a := range resp.Answers {
		if !a.Value.IsEmpty() {
			nonEmpty++
		}
	}
	volume := float64(nonEmpty) / float64(len(critical))
	if volume > 1 {
		volume = 1
	}

	return (coverage*0.7 + volume*0.3) * 100
}

// OverallCompleteness is the domain-weighted average of per-domain scores
// across every assessed domain. Domains missing from scores count as 0.
func OverallCompleteness(scores map[taxonomy.Domain]float64) float64 {
	var weighted, weightSum float64
	for _, d := range taxonomy.AllDomains {
		w := d.Weight()
		weighted += scores[d] * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return weighted / weightSum
}
