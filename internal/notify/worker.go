package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scalemap.app/engine/common/logger"
	"scalemap.app/engine/internal/queue"
)

// WorkerConfig bounds retries; a notice that fails MaxAttempts times moves
// to the dead-letter stream.
type WorkerConfig struct {
	MaxAttempts int
}

// Worker drains the notification stream and hands each notice to the
// sender. Failed sends requeue with an incremented attempt counter.
type Worker struct {
	consumer *queue.RedisConsumer
	sender   Sender
	cfg      WorkerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewWorker(consumer *queue.RedisConsumer, sender Sender, cfg WorkerConfig) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer:  consumer,
		sender:    sender,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "notification worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "notification worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "notice delivery failed",
				"error", err,
				"message_id", msg.ID,
				"assessment_id", msg.Notice.AssessmentID,
				"attempt", msg.Notice.Attempt)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in notice delivery",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage delivers one notice and acks on success.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AssessmentID: logger.Ptr(msg.Notice.AssessmentID),
		Component:    "engine.notify.worker",
	})

	result, err := w.sender.Send(ctx, msg.Notice)
	if err != nil {
		return fmt.Errorf("sending notice: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("delivery rejected: %s", result.Error)
	}

	slog.InfoContext(ctx, "notice delivered",
		"kind", string(msg.Notice.Kind),
		"delivery_id", result.MessageID,
		"attempt", msg.Notice.Attempt)

	return w.consumer.Ack(ctx, msg)
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, procErr error) {
	if msg.Notice.Attempt >= w.cfg.MaxAttempts {
		if err := w.consumer.SendDLQ(ctx, msg, procErr.Error()); err != nil {
			slog.ErrorContext(ctx, "failed to move notice to DLQ",
				"error", err,
				"message_id", msg.ID)
		}
		return
	}

	if err := w.consumer.Requeue(ctx, msg, procErr.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to requeue notice",
			"error", err,
			"message_id", msg.ID)
	}
}
