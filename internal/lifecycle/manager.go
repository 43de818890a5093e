// Package lifecycle owns gap resolution: single and bulk, completeness
// impact accounting, and the handoff into the timeline state machine once
// critical gaps close.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scalemap.app/engine/common/id"
	"scalemap.app/engine/internal/detect"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/scoring"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/taxonomy"
)

var (
	// ErrGapNotFound is returned for an unknown gap identifier.
	ErrGapNotFound = errors.New("gap not found")

	// ErrGapAlreadyResolved is returned when resolving a closed gap again.
	ErrGapAlreadyResolved = errors.New("gap already resolved")

	// ErrInvalidResolution is returned when the request carries neither a
	// client response nor a skip, or both.
	ErrInvalidResolution = errors.New("exactly one of client response or skip must be provided")

	// ErrEmptyBatch rejects a bulk call with no items.
	ErrEmptyBatch = errors.New("bulk resolution requires at least one item")

	// ErrBatchTooLarge rejects a bulk call above the batch cap.
	ErrBatchTooLarge = errors.New("bulk resolution exceeds the batch limit")
)

// MaxBulkItems caps one bulk resolution request.
const MaxBulkItems = 50

// Resolution is the caller's input for closing one gap.
type Resolution struct {
	ClientResponse string
	Skip           bool
	SkipReason     string
	ResolvedBy     string
}

// Outcome reports what a single resolution did.
type Outcome struct {
	Resolved             bool
	ImpactOnCompleteness float64
	NewGaps              []model.AssessmentGap
	Message              string
}

// BulkItem is one entry of a bulk resolution request.
type BulkItem struct {
	GapID int64
	Resolution
}

// BulkFailure records one item that could not be resolved.
type BulkFailure struct {
	GapID int64  `json:"gap_id"`
	Error string `json:"error"`
}

// BulkResult aggregates a bulk run. ProcessedCount always equals the input
// length; failures never abort the remaining items.
type BulkResult struct {
	ProcessedCount    int           `json:"processed_count"`
	ResolvedCount     int           `json:"resolved_count"`
	FailedResolutions []BulkFailure `json:"failed_resolutions"`
}

// TimelineResumer is the slice of the timeline state machine invoked after
// critical gaps resolve.
type TimelineResumer interface {
	ResumeAfterGapResolution(ctx context.Context, assessmentID int64, resolvedGapIDs []int64, resumedBy string) (bool, error)
}

// Manager resolves gaps and keeps assessment completeness in step.
type Manager interface {
	Resolve(ctx context.Context, gapID int64, res Resolution) (*Outcome, error)
	ResolveBulk(ctx context.Context, assessmentID int64, items []BulkItem) (*BulkResult, error)
}

type manager struct {
	stores     *store.Stores
	resumer    TimelineResumer
	thresholds scoring.Thresholds
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*manager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *manager) { m.now = now }
}

func New(stores *store.Stores, resumer TimelineResumer, log *slog.Logger, opts ...Option) Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &manager{
		stores:     stores,
		resumer:    resumer,
		thresholds: scoring.DefaultThresholds(),
		now:        time.Now,
		logger:     log.With(slog.String("component", "lifecycle")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *manager) Resolve(ctx context.Context, gapID int64, res Resolution) (*Outcome, error) {
	outcome, gap, err := m.resolveOne(ctx, gapID, res)
	if err != nil {
		return nil, err
	}

	if gap.Category == model.GapCritical {
		m.resumeCheck(ctx, gap.AssessmentID, res.ResolvedBy)
	}
	return outcome, nil
}

func (m *manager) ResolveBulk(ctx context.Context, assessmentID int64, items []BulkItem) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(items) > MaxBulkItems {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(items), MaxBulkItems)
	}

	result := &BulkResult{ProcessedCount: len(items)}
	resolvedBy := ""
	criticalResolved := false

	for _, item := range items {
		_, gap, err := m.resolveOne(ctx, item.GapID, item.Resolution)
		if err != nil {
			result.FailedResolutions = append(result.FailedResolutions, BulkFailure{
				GapID: item.GapID,
				Error: failureMessage(err),
			})
			continue
		}
		if gap.AssessmentID != assessmentID {
			// The gap resolved, but the caller addressed the wrong
			// assessment; surface it without undoing the write.
			result.FailedResolutions = append(result.FailedResolutions, BulkFailure{
				GapID: item.GapID,
				Error: fmt.Sprintf("gap belongs to assessment %d", gap.AssessmentID),
			})
			continue
		}
		result.ResolvedCount++
		if gap.Category == model.GapCritical {
			criticalResolved = true
		}
		if item.ResolvedBy != "" {
			resolvedBy = item.ResolvedBy
		}
	}

	// One trailing resume check covers everything the batch closed.
	if criticalResolved {
		m.resumeCheck(ctx, assessmentID, resolvedBy)
	}
	return result, nil
}

// resolveOne performs the shared single-gap path without the resume check.
func (m *manager) resolveOne(ctx context.Context, gapID int64, res Resolution) (*Outcome, *model.AssessmentGap, error) {
	response := strings.TrimSpace(res.ClientResponse)
	if res.Skip == (response != "") {
		return nil, nil, ErrInvalidResolution
	}

	gap, err := m.stores.Gaps.GetByID(ctx, gapID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("gap %d: %w", gapID, ErrGapNotFound)
		}
		return nil, nil, fmt.Errorf("load gap %d: %w", gapID, err)
	}
	if gap.Resolved {
		return nil, nil, fmt.Errorf("gap %d: %w", gapID, ErrGapAlreadyResolved)
	}

	now := m.now()
	outcome := &Outcome{Resolved: true}

	if res.Skip {
		gap.ResolutionMethod = model.ResolutionFounderOverride
		gap.SkipReason = res.SkipReason
		outcome.Message = "gap skipped by founder override"
	} else {
		gap.ResolutionMethod = model.ResolutionClientInput
		gap.ClientResponse = response
		outcome.ImpactOnCompleteness = baseImpact(gap.Category) * m.thresholds.QualityMultiplier(len(response))
		outcome.Message = "gap resolved with client input"
		outcome.NewGaps = m.checkNewGaps(ctx, gap, response, now)
	}

	gap.Resolved = true
	gap.ResolvedAt = &now
	if err := m.stores.Gaps.Update(ctx, gap); err != nil {
		return nil, nil, fmt.Errorf("update gap %d: %w", gapID, err)
	}

	if !res.Skip && gap.QuestionID != "" {
		if err := m.recordAnswer(ctx, gap, response, now); err != nil {
			m.logger.WarnContext(ctx, "recording resolution answer failed",
				slog.Int64("assessment_id", gap.AssessmentID),
				slog.Int64("gap_id", gap.ID),
				slog.String("error", err.Error()))
		}
	}

	m.logger.InfoContext(ctx, "gap resolved",
		slog.Int64("assessment_id", gap.AssessmentID),
		slog.Int64("gap_id", gap.ID),
		slog.String("method", string(gap.ResolutionMethod)),
		slog.Float64("impact", outcome.ImpactOnCompleteness))
	return outcome, gap, nil
}

// checkNewGaps replays the conflict rules with the client response in place
// and persists any contradiction it introduces. Failures degrade to an empty
// new-gap list.
func (m *manager) checkNewGaps(ctx context.Context, gap *model.AssessmentGap, response string, now time.Time) []model.AssessmentGap {
	if gap.QuestionID == "" {
		return nil
	}
	assessment, err := m.stores.Assessments.GetByID(ctx, gap.AssessmentID)
	if err != nil {
		m.logger.WarnContext(ctx, "conflict recheck skipped, assessment unavailable",
			slog.Int64("assessment_id", gap.AssessmentID),
			slog.String("error", err.Error()))
		return nil
	}

	var newGaps []model.AssessmentGap
	for _, c := range detect.CheckResponseConflicts(assessment, gap.Domain, gap.QuestionID, response) {
		category := c.Severity.GapCategory()
		ng := model.AssessmentGap{
			ID:                         id.New(),
			AssessmentID:               gap.AssessmentID,
			Domain:                     c.Domain,
			Category:                   category,
			Source:                     model.SourceResolutionCheck,
			Description:                fmt.Sprintf("resolution of gap %d introduced a conflict: %s", gap.ID, c.Description),
			QuestionID:                 c.QuestionID,
			Priority:                   7,
			EstimatedResolutionMinutes: 10,
			ImpactOnTimeline:           category == model.GapCritical,
			DetectedAt:                 now,
		}
		if err := m.stores.Gaps.Create(ctx, &ng); err != nil {
			m.logger.WarnContext(ctx, "persisting follow-on gap failed",
				slog.Int64("assessment_id", gap.AssessmentID),
				slog.String("error", err.Error()))
			continue
		}
		newGaps = append(newGaps, ng)
	}
	return newGaps
}

// recordAnswer writes the client response back into the assessment's domain
// answers and refreshes the stored completeness percentage. One retry on a
// version conflict.
func (m *manager) recordAnswer(ctx context.Context, gap *model.AssessmentGap, response string, now time.Time) error {
	for attempt := 0; attempt < 2; attempt++ {
		assessment, err := m.stores.Assessments.GetByID(ctx, gap.AssessmentID)
		if err != nil {
			return err
		}

		if assessment.Responses == nil {
			assessment.Responses = make(map[taxonomy.Domain]model.DomainResponse)
		}
		dr := assessment.Responses[gap.Domain]
		if dr.Answers == nil {
			dr.Answers = make(map[string]model.QuestionResponse)
		}
		dr.Answers[gap.QuestionID] = model.QuestionResponse{
			QuestionID: gap.QuestionID,
			Value:      model.ResponseValue{Text: response},
			Timestamp:  now,
		}
		dr.CompletenessPercent = scoring.DomainCompleteness(gap.Domain, dr)
		assessment.Responses[gap.Domain] = dr
		assessment.UpdatedAt = now

		err = m.stores.Assessments.Update(ctx, assessment)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
	}
	return store.ErrVersionConflict
}

// resumeCheck asks the timeline machine whether the pause can lift. A
// failure here never fails the resolution.
func (m *manager) resumeCheck(ctx context.Context, assessmentID int64, resolvedBy string) {
	if m.resumer == nil {
		return
	}
	if resolvedBy == "" {
		resolvedBy = "system"
	}

	all, err := m.stores.Gaps.ListByAssessment(ctx, assessmentID)
	if err != nil {
		m.logger.WarnContext(ctx, "resume check skipped, gap listing failed",
			slog.Int64("assessment_id", assessmentID),
			slog.String("error", err.Error()))
		return
	}
	var resolvedIDs []int64
	for _, g := range all {
		if g.Resolved {
			resolvedIDs = append(resolvedIDs, g.ID)
		}
	}

	resumed, err := m.resumer.ResumeAfterGapResolution(ctx, assessmentID, resolvedIDs, resolvedBy)
	if err != nil {
		m.logger.WarnContext(ctx, "resume check failed",
			slog.Int64("assessment_id", assessmentID),
			slog.String("error", err.Error()))
		return
	}
	if resumed {
		m.logger.InfoContext(ctx, "timeline resumed after gap resolution",
			slog.Int64("assessment_id", assessmentID))
	}
}

func baseImpact(c model.GapCategory) float64 {
	switch c {
	case model.GapCritical:
		return 5
	case model.GapImportant:
		return 3
	}
	return 1
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrGapNotFound):
		return "Gap not found"
	case errors.Is(err, ErrGapAlreadyResolved):
		return "Gap already resolved"
	case errors.Is(err, ErrInvalidResolution):
		return "Exactly one of client response or skip must be provided"
	}
	return err.Error()
}
