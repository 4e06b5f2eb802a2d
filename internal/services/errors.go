package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"narrate/internal/store"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrStore           = errors.New("store error")
	ErrTranscode       = errors.New("transcode error")
	ErrProvider        = errors.New("provider error")
	ErrCorruptManifest = errors.New("corrupt manifest")
	ErrSlideNotFound   = errors.New("slide not found")
	ErrTransient       = errors.New("transient failure")
)

// Wrap builds an error message that includes workflow context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, workflow, operation, message string, err error) error {
	detail := buildDetail(workflow, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// temporary is implemented by provider and transport errors that know whether
// a retry could succeed.
type temporary interface {
	Temporary() bool
}

// Retryable reports whether the caller may re-read state and try again.
// Version conflicts and transient transport failures are retryable; missing
// slides, corrupt manifests, validation errors and rejected credentials are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrSlideNotFound),
		errors.Is(err, ErrCorruptManifest),
		errors.Is(err, ErrTranscode):
		return false
	case errors.Is(err, store.ErrVersionConflict):
		return true
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTransient):
		return true
	}
	var tmp temporary
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	return errors.Is(err, ErrStore)
}

// Kind returns a stable lowercase code for the outermost marker in err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSlideNotFound):
		return "slide_not_found"
	case errors.Is(err, ErrCorruptManifest):
		return "corrupt_manifest"
	case errors.Is(err, ErrTranscode):
		return "transcode"
	case errors.Is(err, ErrProvider):
		return "provider"
	case errors.Is(err, store.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "internal"
	}
}

func buildDetail(workflow, operation, message string) string {
	parts := make([]string, 0, 3)
	if workflow = strings.TrimSpace(workflow); workflow != "" {
		parts = append(parts, workflow)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
