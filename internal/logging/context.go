package logging

import (
	"context"
	"log/slog"

	"narrate/internal/services"
)

const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldRequestID correlates records from one studio request.
	FieldRequestID = "request_id"
	// FieldWorkflow names the workflow operation (save_recording, generate_audio, ...).
	FieldWorkflow = "workflow"
	// FieldSlideKey carries the canonical manifest key, e.g. module-03/slide-05.mp3.
	FieldSlideKey = "slide_key"
	// FieldDeck carries the deck id.
	FieldDeck = "deck"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step for the operator.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if workflow, ok := services.WorkflowFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldWorkflow, workflow))
	}
	if key, ok := services.SlideKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSlideKey, key))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
