package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "recorder", "start", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"recorder", "start", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToUnexpected(t *testing.T) {
	err := services.Wrap(nil, "pipeline", "persist", "save failed", nil)
	if !errors.Is(err, services.ErrUnexpected) {
		t.Fatalf("expected unexpected marker, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "inference", "series", "status 503", nil)
	if !services.Retryable(transient) {
		t.Fatalf("expected transient error to be retryable: %v", transient)
	}
	terminal := services.Wrap(services.ErrValidation, "uploader", "validate", "wrong format", nil)
	if services.Retryable(terminal) {
		t.Fatalf("expected validation error to be terminal: %v", terminal)
	}
	if services.Retryable(nil) {
		t.Fatal("expected nil to be non-retryable")
	}
}

func TestUserMessage(t *testing.T) {
	if msg := services.UserMessage(nil); msg != "" {
		t.Fatalf("expected empty message for nil, got %q", msg)
	}
	step := services.Wrap(services.ErrPipelineStep, "pipeline", "create-recording", "status 500", nil)
	if msg := services.UserMessage(step); !strings.Contains(msg, "create-recording") {
		t.Fatalf("expected step detail in message, got %q", msg)
	}
	unexpected := services.Wrap(services.ErrUnexpected, "orchestrator", "confirm", "nil pointer", nil)
	if msg := services.UserMessage(unexpected); strings.Contains(msg, "nil pointer") {
		t.Fatalf("expected generic message for unexpected error, got %q", msg)
	}
}
