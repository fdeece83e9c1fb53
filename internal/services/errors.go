package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrPermission    = errors.New("permission error")
	ErrPipelineStep  = errors.New("pipeline step error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrBusy          = errors.New("busy")
	ErrExternalTool  = errors.New("external tool error")
	ErrTransient     = errors.New("transient failure")
	ErrUnexpected    = errors.New("unexpected error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUnexpected
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the error represents a transient remote failure
// that an HTTP client backoff policy may retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// UserMessage renders an error for user-facing surfaces. Unexpected errors
// collapse to a generic message so internals never leak into alerts.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnexpected) {
		return "an unexpected error occurred; check the daemon logs"
	}
	return err.Error()
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
