package services

import "context"

type contextKey string

const (
	workflowKey  contextKey = "workflow"
	slideKeyKey  contextKey = "slide_key"
	requestIDKey contextKey = "request_id"
)

// WithWorkflow annotates context with the workflow name.
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	if workflow == "" {
		return ctx
	}
	return context.WithValue(ctx, workflowKey, workflow)
}

// WorkflowFromContext returns the workflow name if present.
func WorkflowFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(workflowKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSlideKey annotates context with the canonical slide key.
func WithSlideKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, slideKeyKey, key)
}

// SlideKeyFromContext returns the slide key if present.
func SlideKeyFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(slideKeyKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
