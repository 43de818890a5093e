package timeline

import (
	"time"

	"scalemap.app/engine/internal/model"
)

// DeriveStatus computes the delivery status. It is never stored: precedence
// is paused, extended, overdue, at-risk, on-track. The at-risk window applies
// to the first (24-hour) deadline only.
func DeriveStatus(now time.Time, schedule model.DeliverySchedule, hasActivePause, hasExtension bool, atRiskWindow time.Duration) model.TimelineStatus {
	switch {
	case hasActivePause:
		return model.TimelinePaused
	case hasExtension:
		return model.TimelineExtended
	case now.After(schedule.Nearest()):
		return model.TimelineOverdue
	case schedule.ExecutiveSummaryDue.Sub(now) < atRiskWindow:
		return model.TimelineAtRisk
	default:
		return model.TimelineOnTrack
	}
}

// nextLifecycleStatus derives the post-resume status from which milestones
// completed before the pause.
func nextLifecycleStatus(m model.Milestones) model.AssessmentStatus {
	switch {
	case m.ValidatingCompletedAt != nil:
		return model.StatusCompleted
	case m.SynthesizingCompletedAt != nil:
		return model.StatusValidating
	case m.AnalyzingCompletedAt != nil:
		return model.StatusSynthesizing
	case m.TriagingCompletedAt != nil:
		return model.StatusAnalyzing
	default:
		return model.StatusTriaging
	}
}
