package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, enabling zero-touch logging where business
// context (assessment_id, gap_id, etc.) is automatically included in all log statements.
type LogFields struct {
	AssessmentID *int64  // Assessment aggregate ID
	GapID        *int64  // Gap being detected or resolved
	Domain       *string // Business domain under analysis
	MessageID    *string // Redis stream message ID
	Operation    *string // Engine operation (e.g., "analyze", "resolve_bulk")
	Component    string  // Component name (OTel semantic convention style, e.g., "engine.detect")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from next.
func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.AssessmentID != nil {
		result.AssessmentID = next.AssessmentID
	}
	if next.GapID != nil {
		result.GapID = next.GapID
	}
	if next.Domain != nil {
		result.Domain = next.Domain
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Operation != nil {
		result.Operation = next.Operation
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{AssessmentID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like prompts or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
