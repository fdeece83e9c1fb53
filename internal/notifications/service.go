package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
)

const userAgent = "Hriday-Go/0.1.0"

// Event names a session lifecycle moment worth telling the user about.
type Event string

const (
	EventArtifactReady     Event = "artifact_ready"
	EventProcessingStarted Event = "processing_started"
	EventSessionComplete   Event = "session_complete"
	EventSessionFailed     Event = "session_failed"
	EventError             Event = "error"
	EventTest              Event = "test"
)

// Payload carries event-specific fields used to render the message. Common
// keys: "title" (session title), "file", "size_mb", "risk_level",
// "recording_id", "error", "context".
type Payload map[string]any

// Service publishes lifecycle events. Implementations must be safe for
// concurrent use.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:        topic,
		client:          &http.Client{Timeout: timeout},
		sessionComplete: cfg.Notifications.SessionComplete,
		sessionFailed:   cfg.Notifications.SessionFailed,
		errors:          cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint        string
	client          *http.Client
	sessionComplete bool
	sessionFailed   bool
	errors          bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	return n.send(ctx, render(event, payload))
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventSessionComplete:
		return n.sessionComplete
	case EventSessionFailed:
		return n.sessionFailed
	case EventError:
		return n.errors
	default:
		return true
	}
}

func render(event Event, payload Payload) message {
	title := payloadString(payload, "title")
	switch event {
	case EventArtifactReady:
		body := fmt.Sprintf("Ready for review: %s", payloadString(payload, "file"))
		if size := payloadString(payload, "size_mb"); size != "" {
			body = fmt.Sprintf("%s (%s MB)", body, size)
		}
		return message{
			title: "Hriday - Ready for Review",
			body:  body,
			tags:  []string{"hriday", "review"},
		}
	case EventProcessingStarted:
		return message{
			title: "Hriday - Processing",
			body:  fmt.Sprintf("Processing started: %s", fallback(title, "recording")),
			tags:  []string{"hriday", "processing", "started"},
		}
	case EventSessionComplete:
		body := fmt.Sprintf("✅ Heart rate analysis ready: %s", fallback(title, "recording"))
		if risk := payloadString(payload, "risk_level"); risk != "" {
			body = fmt.Sprintf("%s (risk: %s)", body, risk)
		}
		return message{
			title:    "Hriday - Analysis Complete",
			body:     body,
			tags:     []string{"hriday", "session", "completed"},
			priority: "high",
		}
	case EventSessionFailed:
		body := fmt.Sprintf("❌ Processing failed: %s", fallback(title, "recording"))
		if errText := payloadString(payload, "error"); errText != "" {
			body = fmt.Sprintf("%s\n%s", body, errText)
		}
		return message{
			title:    "Hriday - Processing Failed",
			body:     body,
			tags:     []string{"hriday", "session", "failed"},
			priority: "high",
		}
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if contextLabel := payloadString(payload, "context"); contextLabel != "" {
			builder.WriteString(" with ")
			builder.WriteString(contextLabel)
		}
		builder.WriteString(": ")
		if errText := payloadString(payload, "error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Hriday - Error",
			body:     builder.String(),
			tags:     []string{"hriday", "error", "alert"},
			priority: "high",
		}
	case EventTest:
		return message{
			title:    "Hriday - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"hriday", "test"},
			priority: "low",
		}
	default:
		return message{
			title: "Hriday",
			body:  string(event),
			tags:  []string{"hriday"},
		}
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
