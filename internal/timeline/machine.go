// Package timeline owns the three-stage delivery clock: pause while critical
// gaps block progress, resume once every affected gap is resolved, and apply
// bounded extensions that always move all three deadlines together.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scalemap.app/engine/common/id"
	"scalemap.app/engine/common/logger"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/notify"
	"scalemap.app/engine/internal/store"
)

// Config carries the timeline business-rule constants. The 6-hour
// auto-approval threshold is product-tuned; keep it named, don't infer.
type Config struct {
	MaxExtensions          int
	AutoApproveLimit       time.Duration
	GapResolutionCap       time.Duration
	ClarificationCap       time.Duration
	AtRiskWindow           time.Duration
	PauseExtensionTrigger  time.Duration
	CriticalEstimateFactor float64
}

// DefaultConfig returns the production rules.
func DefaultConfig() Config {
	return Config{
		MaxExtensions:          3,
		AutoApproveLimit:       6 * time.Hour,
		GapResolutionCap:       24 * time.Hour,
		ClarificationCap:       12 * time.Hour,
		AtRiskWindow:           4 * time.Hour,
		PauseExtensionTrigger:  time.Hour,
		CriticalEstimateFactor: 1.5,
	}
}

// ExtensionRequest asks for a bounded forward shift of the delivery schedule.
type ExtensionRequest struct {
	AssessmentID  int64
	Type          model.ExtensionType
	Duration      time.Duration
	Justification string
	RequestedBy   string
}

// Machine is the timeline state machine.
type Machine interface {
	PauseForCriticalGaps(ctx context.Context, assessmentID int64, criticalGaps []model.AssessmentGap, pausedBy string) (*model.TimelinePauseEvent, error)
	ResumeAfterGapResolution(ctx context.Context, assessmentID int64, resolvedGapIDs []int64, resumedBy string) (bool, error)
	RequestExtension(ctx context.Context, req ExtensionRequest) (*model.TimelineExtension, error)
	Status(ctx context.Context, assessmentID int64) (model.TimelineStatus, error)
}

type machine struct {
	stores   *store.Stores
	notifier notify.Notifier
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

// Option tweaks machine construction; used by tests to pin the clock.
type Option func(*machine)

func WithClock(now func() time.Time) Option {
	return func(m *machine) { m.now = now }
}

func New(stores *store.Stores, notifier notify.Notifier, cfg Config, log *slog.Logger, opts ...Option) Machine {
	if log == nil {
		log = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	m := &machine{
		stores:   stores,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *machine) PauseForCriticalGaps(ctx context.Context, assessmentID int64, criticalGaps []model.AssessmentGap, pausedBy string) (*model.TimelinePauseEvent, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AssessmentID: logger.Ptr(assessmentID),
		Component:    "engine.timeline",
	})

	if len(criticalGaps) == 0 {
		return nil, fmt.Errorf("at least one critical gap is required to pause")
	}

	assessment, err := m.loadAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if _, err := m.stores.Pauses.GetActive(ctx, assessmentID); err == nil {
		return nil, ErrPauseActive
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking active pause: %w", err)
	}
	if now.After(assessment.Clarification.Deadline) {
		return nil, ErrClarificationClosed
	}
	count, err := m.stores.Extensions.CountByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("counting extensions: %w", err)
	}
	if count >= m.cfg.MaxExtensions {
		return nil, ErrMaxExtensions
	}

	estimate := 0.0
	gapIDs := make([]int64, 0, len(criticalGaps))
	for _, g := range criticalGaps {
		factor := 1.0
		if g.Category == model.GapCritical {
			factor = m.cfg.CriticalEstimateFactor
		}
		estimate += float64(g.EstimatedResolutionMinutes) * factor
		gapIDs = append(gapIDs, g.ID)
	}

	resumeBy := now.Add(time.Duration(estimate) * time.Minute)
	if resumeBy.After(assessment.Clarification.Deadline) {
		resumeBy = assessment.Clarification.Deadline
	}

	pause := &model.TimelinePauseEvent{
		ID:                         id.New(),
		AssessmentID:               assessmentID,
		Reason:                     fmt.Sprintf("%d critical gap(s) require founder input", len(criticalGaps)),
		PausedAt:                   now,
		PausedBy:                   pausedBy,
		AffectedGaps:               gapIDs,
		EstimatedResolutionMinutes: int(estimate),
		NextSteps:                  "Answer the follow-up questions attached to each critical gap, or skip a gap to proceed without that information.",
		ResumeBy:                   resumeBy,
	}

	if err := m.stores.Pauses.CreateActive(ctx, pause); err != nil {
		if errors.Is(err, store.ErrActivePauseExists) {
			return nil, ErrPauseActive
		}
		return nil, fmt.Errorf("creating pause event: %w", err)
	}

	if err := m.setStatus(ctx, assessment, model.StatusPausedForGaps); err != nil {
		return nil, err
	}

	if err := m.notifier.PausedForGaps(ctx, assessment, pause, criticalGaps); err != nil {
		m.logger.WarnContext(ctx, "pause notice failed, continuing", "error", err)
	}

	m.logger.InfoContext(ctx, "timeline paused",
		"affected_gaps", len(gapIDs),
		"estimated_resolution_minutes", pause.EstimatedResolutionMinutes)
	return pause, nil
}

func (m *machine) ResumeAfterGapResolution(ctx context.Context, assessmentID int64, resolvedGapIDs []int64, resumedBy string) (bool, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AssessmentID: logger.Ptr(assessmentID),
		Component:    "engine.timeline",
	})

	pause, err := m.stores.Pauses.GetActive(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("fetching active pause: %w", err)
	}

	// Partial resolution never resumes: every gap the pause listed must be
	// covered by the resolved set.
	resolved := make(map[int64]bool, len(resolvedGapIDs))
	for _, gid := range resolvedGapIDs {
		resolved[gid] = true
	}
	for _, gid := range pause.AffectedGaps {
		if !resolved[gid] {
			m.logger.InfoContext(ctx, "resume declined: pause gaps not fully resolved", "missing_gap", gid)
			return false, nil
		}
	}

	assessment, err := m.loadAssessment(ctx, assessmentID)
	if err != nil {
		return false, err
	}

	now := m.now()
	pauseDuration := now.Sub(pause.PausedAt)
	if pauseDuration > m.cfg.PauseExtensionTrigger {
		// The extension matches the pause length but never exceeds the
		// per-type cap; a week-long pause still earns at most the cap.
		extDuration := pauseDuration
		if extDuration > m.cfg.GapResolutionCap {
			extDuration = m.cfg.GapResolutionCap
		}
		_, extErr := m.RequestExtension(ctx, ExtensionRequest{
			AssessmentID:  assessmentID,
			Type:          model.ExtensionGapResolution,
			Duration:      extDuration,
			Justification: fmt.Sprintf("Automatic extension covering a %s gap-resolution pause", pauseDuration.Round(time.Minute)),
			RequestedBy:   "system",
		})
		if extErr != nil {
			// The resume itself still proceeds; a capped-out extension is
			// not a reason to keep the clock stopped.
			m.logger.WarnContext(ctx, "automatic extension declined", "error", extErr)
		}
	}

	pause.ResumedAt = &now
	pause.ResumedBy = resumedBy
	if err := m.stores.Pauses.Close(ctx, pause); err != nil {
		return false, fmt.Errorf("closing pause event: %w", err)
	}

	// Reload: the extension path may have bumped the version.
	assessment, err = m.loadAssessment(ctx, assessmentID)
	if err != nil {
		return false, err
	}
	if err := m.setStatus(ctx, assessment, nextLifecycleStatus(assessment.Milestones)); err != nil {
		return false, err
	}

	if err := m.notifier.Resumed(ctx, assessment, pause); err != nil {
		m.logger.WarnContext(ctx, "resume notice failed, continuing", "error", err)
	}

	m.logger.InfoContext(ctx, "timeline resumed",
		"pause_duration", pauseDuration.Round(time.Second),
		"resumed_by", resumedBy)
	return true, nil
}

func (m *machine) RequestExtension(ctx context.Context, req ExtensionRequest) (*model.TimelineExtension, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AssessmentID: logger.Ptr(req.AssessmentID),
		Component:    "engine.timeline",
	})

	if req.Duration <= 0 {
		return nil, fmt.Errorf("extension duration must be positive")
	}

	var limit time.Duration
	switch req.Type {
	case model.ExtensionGapResolution:
		limit = m.cfg.GapResolutionCap
	case model.ExtensionClarification:
		limit = m.cfg.ClarificationCap
	default:
		return nil, fmt.Errorf("unknown extension type %q", req.Type)
	}
	if req.Duration > limit {
		return nil, ErrExtensionTooLong
	}

	count, err := m.stores.Extensions.CountByAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("counting extensions: %w", err)
	}
	if count >= m.cfg.MaxExtensions {
		return nil, ErrMaxExtensions
	}

	now := m.now()
	ext := &model.TimelineExtension{
		ID:            id.New(),
		AssessmentID:  req.AssessmentID,
		Type:          req.Type,
		Duration:      req.Duration,
		RequestedBy:   req.RequestedBy,
		Justification: req.Justification,
		RequestedAt:   now,
	}

	autoApprove := req.Duration <= m.cfg.AutoApproveLimit
	if autoApprove {
		approver := "system"
		ext.ApprovedBy = &approver
		ext.ApprovedAt = &now
	}

	// The schedule shift is an optimistic read-modify-write: a concurrent
	// extension forces a clean retry so deadlines never move twice off the
	// same base. Approval applies the shift; longer extensions are recorded
	// pending and applied out-of-band on approval.
	const maxRetries = 3
	for attempt := 0; ; attempt++ {
		assessment, err := m.loadAssessment(ctx, req.AssessmentID)
		if err != nil {
			return nil, err
		}
		ext.OriginalDeadlines = assessment.Schedule
		ext.NewDeadlines = assessment.Schedule.Shifted(req.Duration)

		if !autoApprove {
			break
		}

		assessment.Schedule = ext.NewDeadlines
		assessment.UpdatedAt = now
		err = m.stores.Assessments.Update(ctx, assessment)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrVersionConflict) && attempt < maxRetries {
			continue
		}
		return nil, fmt.Errorf("applying extension to schedule: %w", err)
	}

	if err := m.stores.Extensions.Create(ctx, ext); err != nil {
		return nil, fmt.Errorf("recording extension: %w", err)
	}

	if autoApprove {
		if assessment, err := m.loadAssessment(ctx, req.AssessmentID); err == nil {
			if err := m.notifier.Extended(ctx, assessment, ext); err != nil {
				m.logger.WarnContext(ctx, "extension notice failed, continuing", "error", err)
			}
		}
	}

	m.logger.InfoContext(ctx, "extension recorded",
		"type", req.Type,
		"duration", req.Duration,
		"auto_approved", autoApprove)
	return ext, nil
}

func (m *machine) Status(ctx context.Context, assessmentID int64) (model.TimelineStatus, error) {
	assessment, err := m.loadAssessment(ctx, assessmentID)
	if err != nil {
		return "", err
	}

	hasPause := true
	if _, err := m.stores.Pauses.GetActive(ctx, assessmentID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("checking active pause: %w", err)
		}
		hasPause = false
	}

	count, err := m.stores.Extensions.CountByAssessment(ctx, assessmentID)
	if err != nil {
		return "", fmt.Errorf("counting extensions: %w", err)
	}

	return DeriveStatus(m.now(), assessment.Schedule, hasPause, count > 0, m.cfg.AtRiskWindow), nil
}

func (m *machine) loadAssessment(ctx context.Context, assessmentID int64) (*model.Assessment, error) {
	assessment, err := m.stores.Assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("fetching assessment: %w", err)
	}
	return assessment, nil
}

func (m *machine) setStatus(ctx context.Context, assessment *model.Assessment, status model.AssessmentStatus) error {
	assessment.Status = status
	assessment.UpdatedAt = m.now()
	if err := m.stores.Assessments.Update(ctx, assessment); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			fresh, ferr := m.loadAssessment(ctx, assessment.ID)
			if ferr != nil {
				return ferr
			}
			fresh.Status = status
			fresh.UpdatedAt = m.now()
			if uerr := m.stores.Assessments.Update(ctx, fresh); uerr != nil {
				return fmt.Errorf("updating assessment status: %w", uerr)
			}
			*assessment = *fresh
			return nil
		}
		return fmt.Errorf("updating assessment status: %w", err)
	}
	return nil
}
