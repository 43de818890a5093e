package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// NoticeKind names the notification being delivered.
type NoticeKind string

const (
	NoticePause     NoticeKind = "timeline_paused"
	NoticeResume    NoticeKind = "timeline_resumed"
	NoticeExtension NoticeKind = "timeline_extended"
)

// NoticeMessage is one outbound notification. Delivery is fire-and-forget
// from the engine's perspective; the worker owns retries.
type NoticeMessage struct {
	Kind         NoticeKind
	AssessmentID int64
	To           string
	Subject      string
	TextBody     string
	HTMLBody     string
	TraceID      string
	Attempt      int
}

type Producer interface {
	Enqueue(ctx context.Context, msg NoticeMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg NoticeMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"kind":          string(msg.Kind),
		"assessment_id": msg.AssessmentID,
		"to":            msg.To,
		"subject":       msg.Subject,
		"text_body":     msg.TextBody,
		"attempt":       attempt,
	}
	if msg.HTMLBody != "" {
		fields["html_body"] = msg.HTMLBody
	}
	if msg.TraceID != "" {
		fields["trace_id"] = msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue notice: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued notice", "kind", msg.Kind, "assessment_id", msg.AssessmentID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
