// Package detect turns an assessment snapshot into a ranked gap analysis:
// structural gaps (empty domains, missing critical answers), quality gaps
// (shallow or indicator-free answers), conflict gaps from a fixed rule table,
// and industry compliance gaps. AI passes enrich the result and always
// degrade to deterministic fallbacks.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"scalemap.app/engine/common/id"
	"scalemap.app/engine/common/llm"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/scoring"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/taxonomy"
)

// ErrAssessmentNotFound is the one hard failure of Analyze.
var ErrAssessmentNotFound = errors.New("assessment not found")

// Depth selects how much analysis a run performs.
type Depth string

const (
	DepthQuick         Depth = "quick"
	DepthStandard      Depth = "standard"
	DepthComprehensive Depth = "comprehensive"
)

// Options tune a single Analyze call.
type Options struct {
	Depth           Depth
	FocusDomains    []taxonomy.Domain
	ForceReanalysis bool
}

// SideEffect records the outcome of one best-effort action taken after the
// analysis itself succeeded. A non-nil Err never fails the analysis.
type SideEffect struct {
	Name string
	Err  error
}

// Result separates the primary analysis from its side-effect outcomes.
type Result struct {
	Analysis    *model.GapAnalysis
	Cached      bool
	Pause       *model.TimelinePauseEvent
	SideEffects []SideEffect
}

// TimelinePauser is the slice of the timeline state machine the detector
// needs when critical gaps are found.
type TimelinePauser interface {
	PauseForCriticalGaps(ctx context.Context, assessmentID int64, criticalGaps []model.AssessmentGap, pausedBy string) (*model.TimelinePauseEvent, error)
}

// Analyzer runs gap detection against stored assessments.
type Analyzer interface {
	Analyze(ctx context.Context, assessmentID int64, opts Options) (*Result, error)
}

// Config carries the detector tunables.
type Config struct {
	// CacheWindow is the strict freshness bound under which a prior
	// snapshot is served instead of recomputing.
	CacheWindow time.Duration
	Thresholds  scoring.Thresholds
}

func DefaultConfig() Config {
	return Config{
		CacheWindow: 2 * time.Hour,
		Thresholds:  scoring.DefaultThresholds(),
	}
}

// Resolution-time estimates in minutes, by gap source.
const (
	estimateWholeDomainMinutes   = 30
	estimateMissingAnswerMinutes = 15
	estimateShallowMinutes       = 10
	estimateDepthMinutes         = 5
	estimateAIGapMinutes         = 10
	estimateComplianceMinutes    = 20
)

type analyzer struct {
	stores *store.Stores
	llm    llm.Client
	pauser TimelinePauser
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*analyzer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *analyzer) { a.now = now }
}

func New(stores *store.Stores, llmClient llm.Client, pauser TimelinePauser, cfg Config, log *slog.Logger, opts ...Option) Analyzer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.CacheWindow <= 0 {
		cfg.CacheWindow = DefaultConfig().CacheWindow
	}
	a := &analyzer{
		stores: stores,
		llm:    llmClient,
		pauser: pauser,
		cfg:    cfg,
		now:    time.Now,
		logger: log.With(slog.String("component", "detect")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (d *analyzer) Analyze(ctx context.Context, assessmentID int64, opts Options) (*Result, error) {
	assessment, err := d.stores.Assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("assessment %d: %w", assessmentID, ErrAssessmentNotFound)
		}
		return nil, fmt.Errorf("load assessment %d: %w", assessmentID, err)
	}

	if opts.Depth == "" {
		opts.Depth = DepthStandard
	}
	now := d.now()

	// Strict freshness check against lastAnalyzedAt; the cached snapshot is
	// returned unchanged apart from freshly built recommendations.
	if !opts.ForceReanalysis && assessment.LastAnalyzedAt != nil && now.Sub(*assessment.LastAnalyzedAt) < d.cfg.CacheWindow {
		cached, err := d.stores.Analyses.GetLatest(ctx, assessmentID)
		if err == nil {
			cached.Recommendations = buildRecommendations(cached)
			d.logger.InfoContext(ctx, "serving cached gap analysis",
				slog.Int64("assessment_id", assessmentID),
				slog.Time("analyzed_at", cached.AnalyzedAt))
			return &Result{Analysis: cached, Cached: true}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			d.logger.WarnContext(ctx, "cached analysis unavailable, recomputing",
				slog.Int64("assessment_id", assessmentID),
				slog.String("error", err.Error()))
		}
	}

	analysis := d.run(ctx, assessment, opts, now)
	result := &Result{Analysis: analysis}
	d.applySideEffects(ctx, assessment, analysis, result, now)
	return result, nil
}

// run performs the pure analysis passes, in a fixed order so repeated runs
// over the same data produce the same gap sequence.
func (d *analyzer) run(ctx context.Context, a *model.Assessment, opts Options, now time.Time) *model.GapAnalysis {
	inScope := scopeSet(opts.FocusDomains)

	analysis := &model.GapAnalysis{
		AssessmentID:   a.ID,
		DomainAnalyses: make(map[taxonomy.Domain]model.DomainCompletenessAnalysis, len(taxonomy.AllDomains)),
		AnalyzedAt:     now,
	}
	var gaps []model.AssessmentGap
	domainScores := make(map[taxonomy.Domain]float64, len(taxonomy.AllDomains))

	for _, domain := range taxonomy.AllDomains {
		resp := a.Responses[domain]
		score := scoring.DomainCompleteness(domain, resp)
		domainScores[domain] = score

		da := model.DomainCompletenessAnalysis{
			Domain:            domain,
			CompletenessScore: score,
			AnsweredQuestions: answeredCount(resp),
		}

		if inScope(domain) {
			if !resp.HasAnswers() {
				da.MissingCritical = append([]string(nil), taxonomy.CriticalQuestions(domain)...)
				gaps = append(gaps, model.AssessmentGap{
					AssessmentID:               a.ID,
					Domain:                     domain,
					Category:                   model.GapCritical,
					Source:                     model.SourceMissingDomain,
					Description:                fmt.Sprintf("no responses provided for the %s domain", domain),
					SuggestedQuestions:         taxonomy.CriticalQuestions(domain),
					Priority:                   10,
					EstimatedResolutionMinutes: estimateWholeDomainMinutes,
					ImpactOnTimeline:           true,
				})
			} else {
				for _, q := range taxonomy.CriticalQuestions(domain) {
					qr, ok := resp.Answers[q]
					if ok && !qr.Value.IsEmpty() {
						continue
					}
					da.MissingCritical = append(da.MissingCritical, q)
					gaps = append(gaps, model.AssessmentGap{
						AssessmentID:               a.ID,
						Domain:                     domain,
						Category:                   model.GapCritical,
						Source:                     model.SourceMissingAnswer,
						Description:                fmt.Sprintf("critical question %s is unanswered", q),
						QuestionID:                 q,
						Priority:                   9,
						EstimatedResolutionMinutes: estimateMissingAnswerMinutes,
						ImpactOnTimeline:           true,
					})
				}
				if opts.Depth != DepthQuick {
					gaps = append(gaps, d.qualityPass(ctx, a, domain, resp, opts.Depth)...)
				}
			}
		}

		analysis.DomainAnalyses[domain] = da
	}

	for _, c := range detectConflicts(a) {
		if !inScope(c.Domain) {
			continue
		}
		category := c.Severity.GapCategory()
		gaps = append(gaps, model.AssessmentGap{
			AssessmentID:               a.ID,
			Domain:                     c.Domain,
			Category:                   category,
			Source:                     model.SourceConflict,
			Description:                c.Description,
			QuestionID:                 c.QuestionID,
			Priority:                   conflictPriority(c.Severity),
			EstimatedResolutionMinutes: conflictEstimate(c.Severity),
			ImpactOnTimeline:           category == model.GapCritical,
		})
	}

	complianceGaps, complianceAssessmentGaps := complianceCheck(a)
	analysis.ComplianceGaps = complianceGaps
	gaps = append(gaps, complianceAssessmentGaps...)

	for i := range gaps {
		gaps[i].ID = id.New()
		gaps[i].DetectedAt = now
	}
	sortGaps(gaps)
	analysis.Gaps = gaps

	for _, g := range gaps {
		da := analysis.DomainAnalyses[g.Domain]
		da.GapCount++
		analysis.DomainAnalyses[g.Domain] = da
		analysis.TotalCount++
		if g.Category == model.GapCritical {
			analysis.CriticalCount++
		}
	}

	analysis.OverallCompleteness = scoring.OverallCompleteness(domainScores)
	analysis.Recommendations = buildRecommendations(analysis)
	return analysis
}

// qualityPass inspects free-text answers in question-ID order. Shallow
// answers become important gaps with follow-up questions; longer answers
// without any depth indicator become nice-to-have gaps. Comprehensive depth
// adds a per-answer AI pass.
func (d *analyzer) qualityPass(ctx context.Context, a *model.Assessment, domain taxonomy.Domain, resp model.DomainResponse, depth Depth) []model.AssessmentGap {
	questionIDs := make([]string, 0, len(resp.Answers))
	for q := range resp.Answers {
		questionIDs = append(questionIDs, q)
	}
	sort.Strings(questionIDs)

	var gaps []model.AssessmentGap
	for _, q := range questionIDs {
		text := strings.TrimSpace(resp.Answers[q].Value.Text)
		if text == "" {
			continue
		}
		switch {
		case d.cfg.Thresholds.IsShallow(text):
			gaps = append(gaps, model.AssessmentGap{
				AssessmentID:               a.ID,
				Domain:                     domain,
				Category:                   model.GapImportant,
				Source:                     model.SourceShallowAnswer,
				Description:                fmt.Sprintf("answer to %s is too brief to analyze", q),
				SuggestedQuestions:         d.suggestFollowUps(ctx, domain, q, text),
				QuestionID:                 q,
				Priority:                   6,
				EstimatedResolutionMinutes: estimateShallowMinutes,
			})
		case d.cfg.Thresholds.NeedsDepthCheck(text) && !scoring.HasDepthIndicator(text):
			gaps = append(gaps, model.AssessmentGap{
				AssessmentID:               a.ID,
				Domain:                     domain,
				Category:                   model.GapNiceToHave,
				Source:                     model.SourceDepthHeuristic,
				Description:                fmt.Sprintf("answer to %s states facts without reasoning or examples", q),
				QuestionID:                 q,
				Priority:                   3,
				EstimatedResolutionMinutes: estimateDepthMinutes,
			})
		}
		if depth == DepthComprehensive {
			gaps = append(gaps, d.analyzeAnswerDeep(ctx, a, domain, q, text)...)
		}
	}
	return gaps
}

// complianceCheck applies the sector's regime rule, grading coverage of the
// mandatory risk-compliance answers. Sectors without a rule produce nothing.
func complianceCheck(a *model.Assessment) ([]model.ComplianceGap, []model.AssessmentGap) {
	rule, ok := taxonomy.ComplianceRuleFor(a.Industry)
	if !ok {
		return nil, nil
	}

	resp, hasDomain := a.Responses[taxonomy.DomainRiskCompliance]
	var missing []string
	if !hasDomain || !resp.HasAnswers() {
		missing = append([]string(nil), rule.MandatoryFields...)
	} else {
		for _, field := range rule.MandatoryFields {
			qr, ok := resp.Answers[field]
			if !ok || qr.Value.IsEmpty() {
				missing = append(missing, field)
			}
		}
	}

	level := model.ComplianceFull
	switch {
	case len(missing) == len(rule.MandatoryFields):
		level = model.ComplianceMissing
	case len(missing) > 0:
		level = model.CompliancePartial
	}

	compliance := []model.ComplianceGap{{
		Regime:        rule.Regime,
		Level:         level,
		Description:   rule.Description,
		MissingFields: missing,
	}}
	if level == model.ComplianceFull {
		return compliance, nil
	}

	category := model.GapImportant
	priority := 6
	if level == model.ComplianceMissing {
		category = model.GapCritical
		priority = 8
	}
	gap := model.AssessmentGap{
		AssessmentID:               a.ID,
		Domain:                     taxonomy.DomainRiskCompliance,
		Category:                   category,
		Source:                     model.SourceCompliance,
		Description:                fmt.Sprintf("%s coverage is %s: %s", rule.Regime, level, rule.Description),
		SuggestedQuestions:         missing,
		Priority:                   priority,
		EstimatedResolutionMinutes: estimateComplianceMinutes,
		ImpactOnTimeline:           category == model.GapCritical,
	}
	return compliance, []model.AssessmentGap{gap}
}

// applySideEffects persists the snapshot and gap records, stamps the
// assessment, and pauses the timeline when critical gaps exist. Every
// outcome is recorded; none fails the analysis.
func (d *analyzer) applySideEffects(ctx context.Context, a *model.Assessment, analysis *model.GapAnalysis, result *Result, now time.Time) {
	record := func(name string, err error) {
		result.SideEffects = append(result.SideEffects, SideEffect{Name: name, Err: err})
		if err != nil {
			d.logger.WarnContext(ctx, "analysis side effect failed",
				slog.Int64("assessment_id", a.ID),
				slog.String("side_effect", name),
				slog.String("error", err.Error()))
		}
	}

	record("persist-analysis", d.stores.Analyses.Put(ctx, analysis))

	var gapErr error
	for i := range analysis.Gaps {
		if err := d.stores.Gaps.Create(ctx, &analysis.Gaps[i]); err != nil {
			gapErr = errors.Join(gapErr, fmt.Errorf("gap %d: %w", analysis.Gaps[i].ID, err))
		}
	}
	record("persist-gaps", gapErr)

	record("mark-analyzed", d.markAnalyzed(ctx, a, now))

	criticals := analysis.CriticalGaps()
	if len(criticals) > 0 && d.pauser != nil {
		pause, err := d.pauser.PauseForCriticalGaps(ctx, a.ID, criticals, "system")
		record("pause-timeline", err)
		result.Pause = pause
	}
}

func (d *analyzer) markAnalyzed(ctx context.Context, a *model.Assessment, now time.Time) error {
	a.LastAnalyzedAt = &now
	a.UpdatedAt = now
	err := d.stores.Assessments.Update(ctx, a)
	if !errors.Is(err, store.ErrVersionConflict) {
		return err
	}
	fresh, err := d.stores.Assessments.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	fresh.LastAnalyzedAt = &now
	fresh.UpdatedAt = now
	return d.stores.Assessments.Update(ctx, fresh)
}

func scopeSet(focus []taxonomy.Domain) func(taxonomy.Domain) bool {
	if len(focus) == 0 {
		return func(taxonomy.Domain) bool { return true }
	}
	set := make(map[taxonomy.Domain]bool, len(focus))
	for _, domain := range focus {
		set[domain] = true
	}
	return func(d taxonomy.Domain) bool { return set[d] }
}

func answeredCount(resp model.DomainResponse) int {
	n := 0
	for _, a := range resp.Answers {
		if !a.Value.IsEmpty() {
			n++
		}
	}
	return n
}

func conflictPriority(s ConflictSeverity) int {
	switch s {
	case ConflictMajor:
		return 8
	case ConflictModerate:
		return 5
	}
	return 2
}

func conflictEstimate(s ConflictSeverity) int {
	switch s {
	case ConflictMajor:
		return 20
	case ConflictModerate:
		return 10
	}
	return 5
}

// sortGaps orders globally: priority, then category severity, then domain
// weight, all descending. Ties keep detection order.
func sortGaps(gaps []model.AssessmentGap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Priority != gaps[j].Priority {
			return gaps[i].Priority > gaps[j].Priority
		}
		if ri, rj := gaps[i].Category.Rank(), gaps[j].Category.Rank(); ri != rj {
			return ri > rj
		}
		return gaps[i].Domain.Weight() > gaps[j].Domain.Weight()
	})
}

// buildRecommendations derives advisory text from the snapshot alone, so a
// cached analysis regains identical recommendations on every read.
func buildRecommendations(analysis *model.GapAnalysis) []string {
	var recs []string
	if analysis.CriticalCount > 0 {
		recs = append(recs, fmt.Sprintf("Resolve %d critical gap(s) before the delivery timeline can resume.", analysis.CriticalCount))
	}
	if analysis.OverallCompleteness < 50 {
		recs = append(recs, fmt.Sprintf("Overall completeness is %.0f%%; prioritise the weakest domains before deep analysis.", analysis.OverallCompleteness))
	}
	for _, cg := range analysis.ComplianceGaps {
		if cg.Level != model.ComplianceFull {
			recs = append(recs, fmt.Sprintf("Improve %s compliance coverage (currently %s).", cg.Regime, cg.Level))
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "Assessment data is sufficient for full analysis.")
	}
	return recs
}
