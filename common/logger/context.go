package logger

import (
	"context"
	"unicode/utf8"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// A review run sets them once and every log line below it (Backlog calls, LLM calls,
// parsing) carries the same review_id and document_id without passing them around.
type LogFields struct {
	ReviewID   *int64  // Snowflake id of the review run
	ProjectKey *string // Backlog project id or key
	DocumentID *string // Root document of the run
	Model      *string // LLM model name
	Component  string  // Component name (OTel semantic convention style, e.g., "review.service.analysis")
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

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.ReviewID != nil {
		result.ReviewID = new.ReviewID
	}
	if new.ProjectKey != nil {
		result.ProjectKey = new.ProjectKey
	}
	if new.DocumentID != nil {
		result.DocumentID = new.DocumentID
	}
	if new.Model != nil {
		result.Model = new.Model
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{ReviewID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to at most maxLen bytes on a rune boundary, appending "..." if truncated.
// Useful for logging potentially long strings like model responses.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
