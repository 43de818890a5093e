// Package notify composes and dispatches the engine's outbound notices.
// Dispatch is fire-and-forget: the engine enqueues onto a Redis stream and
// the worker owns delivery. A notifier failure never fails the owning gap or
// timeline operation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/queue"
)

// Notifier is the engine-side dispatch interface.
type Notifier interface {
	PausedForGaps(ctx context.Context, a *model.Assessment, pause *model.TimelinePauseEvent, gaps []model.AssessmentGap) error
	Resumed(ctx context.Context, a *model.Assessment, pause *model.TimelinePauseEvent) error
	Extended(ctx context.Context, a *model.Assessment, ext *model.TimelineExtension) error
}

type notifier struct {
	producer queue.Producer
	logger   *slog.Logger
}

func New(producer queue.Producer, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &notifier{producer: producer, logger: logger}
}

func (n *notifier) PausedForGaps(ctx context.Context, a *model.Assessment, pause *model.TimelinePauseEvent, gaps []model.AssessmentGap) error {
	subject := fmt.Sprintf("Action needed: %d critical gap(s) are pausing your assessment", len(gaps))
	body := fmt.Sprintf(
		"Hi %s,\n\nYour assessment is paused while we wait on %d critical gap(s).\n"+
			"Estimated effort to resolve: about %d minutes.\n\n%s\n\nPlease respond by %s so delivery can stay on schedule.",
		a.CompanyName, len(gaps), pause.EstimatedResolutionMinutes, pause.NextSteps,
		pause.ResumeBy.Format(time.RFC1123))
	return n.enqueue(ctx, queue.NoticeMessage{
		Kind:         queue.NoticePause,
		AssessmentID: a.ID,
		To:           a.ContactEmail,
		Subject:      subject,
		TextBody:     body,
	})
}

func (n *notifier) Resumed(ctx context.Context, a *model.Assessment, pause *model.TimelinePauseEvent) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nAll gaps blocking your assessment are resolved and the delivery clock has resumed.\n"+
			"Your next delivery is due %s.",
		a.CompanyName, a.Schedule.Nearest().Format(time.RFC1123))
	return n.enqueue(ctx, queue.NoticeMessage{
		Kind:         queue.NoticeResume,
		AssessmentID: a.ID,
		To:           a.ContactEmail,
		Subject:      "Your assessment has resumed",
		TextBody:     body,
	})
}

func (n *notifier) Extended(ctx context.Context, a *model.Assessment, ext *model.TimelineExtension) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour delivery deadlines moved forward by %s (%s).\n"+
			"New executive summary deadline: %s.",
		a.CompanyName, ext.Duration, ext.Type,
		ext.NewDeadlines.ExecutiveSummaryDue.Format(time.RFC1123))
	return n.enqueue(ctx, queue.NoticeMessage{
		Kind:         queue.NoticeExtension,
		AssessmentID: a.ID,
		To:           a.ContactEmail,
		Subject:      "Your delivery timeline was extended",
		TextBody:     body,
	})
}

func (n *notifier) enqueue(ctx context.Context, msg queue.NoticeMessage) error {
	if msg.To == "" {
		n.logger.WarnContext(ctx, "notice skipped: assessment has no contact email", "kind", msg.Kind, "assessment_id", msg.AssessmentID)
		return nil
	}
	if err := n.producer.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("enqueueing %s notice: %w", msg.Kind, err)
	}
	return nil
}

// Noop discards every notice; used in tests and when Redis is not configured.
type Noop struct{}

func (Noop) PausedForGaps(context.Context, *model.Assessment, *model.TimelinePauseEvent, []model.AssessmentGap) error {
	return nil
}
func (Noop) Resumed(context.Context, *model.Assessment, *model.TimelinePauseEvent) error {
	return nil
}
func (Noop) Extended(context.Context, *model.Assessment, *model.TimelineExtension) error {
	return nil
}
