package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scalemap.app/engine/internal/queue"
)

// SendResult reports a delivery attempt. MessageID is set on success.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// Sender delivers one composed notice. Implemented over whatever transport
// the deployment wires in; the worker treats it as a black box.
type Sender interface {
	Send(ctx context.Context, msg queue.NoticeMessage) (SendResult, error)
}

// WebhookSender posts notices to an outbound delivery endpoint (the email
// relay owned by the platform, not this engine).
type WebhookSender struct {
	Endpoint string
	From     string
	Client   *http.Client
	Logger   *slog.Logger
}

func NewWebhookSender(endpoint, from string, logger *slog.Logger) *WebhookSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookSender{
		Endpoint: endpoint,
		From:     from,
		Client:   &http.Client{Timeout: 15 * time.Second},
		Logger:   logger,
	}
}

func (s *WebhookSender) Send(ctx context.Context, msg queue.NoticeMessage) (SendResult, error) {
	payload, err := json.Marshal(map[string]any{
		"from":      s.From,
		"to":        msg.To,
		"subject":   msg.Subject,
		"text_body": msg.TextBody,
		"html_body": msg.HTMLBody,
	})
	if err != nil {
		return SendResult{Error: err.Error()}, fmt.Errorf("marshaling notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return SendResult{Error: err.Error()}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return SendResult{Error: err.Error()}, fmt.Errorf("posting notice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return SendResult{Error: resp.Status}, fmt.Errorf("delivery endpoint returned %s", resp.Status)
	}

	var parsed struct {
		MessageID string `json:"message_id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	s.Logger.InfoContext(ctx, "notice delivered", "kind", msg.Kind, "to", msg.To, "message_id", parsed.MessageID)
	return SendResult{Success: true, MessageID: parsed.MessageID}, nil
}

// LogSender is the development sender: it logs instead of delivering.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg queue.NoticeMessage) (SendResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notice (log only)", "kind", msg.Kind, "to", msg.To, "subject", msg.Subject)
	return SendResult{Success: true, MessageID: "log-only"}, nil
}
