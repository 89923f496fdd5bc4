package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podmill/internal/config"
)

const userAgent = "Podmill/0.1.0"

// Event identifies a notable pipeline moment.
type Event string

const (
	EventEpisodeQueued          Event = "episode_queued"
	EventWorkflowStarted        Event = "workflow_started"
	EventAudioProcessed         Event = "audio_processed"
	EventTranscriptionCompleted Event = "transcription_completed"
	EventContentGenerated       Event = "content_generated"
	EventEpisodePublished       Event = "episode_published"
	EventWorkflowCompleted      Event = "workflow_completed"
	EventWorkflowFailed         Event = "workflow_failed"
)

// Payload carries event-specific values into the notification templates.
type Payload map[string]string

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	Test(ctx context.Context) error
}

// suppressedEvents are intermediate moments that would be noise as push
// notifications. Publish accepts them and does nothing.
var suppressedEvents = map[Event]struct{}{
	EventWorkflowStarted:        {},
	EventAudioProcessed:         {},
	EventTranscriptionCompleted: {},
	EventContentGenerated:       {},
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

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) Test(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "Podmill - Test",
		body:     "🧪 Notification system test",
		tags:     []string{"podmill", "test"},
		priority: "low",
	})
}

func render(event Event, payload Payload) (message, bool) {
	if _, suppressed := suppressedEvents[event]; suppressed {
		return message{}, false
	}
	value := func(key, fallback string) string {
		if v := strings.TrimSpace(payload[key]); v != "" {
			return v
		}
		return fallback
	}

	switch event {
	case EventEpisodeQueued:
		return message{
			title: "Podmill - Episode Queued",
			body:  fmt.Sprintf("🎙️ Episode queued: %s", value("title", "unknown")),
			tags:  []string{"podmill", "queue", "added"},
		}, true
	case EventWorkflowCompleted:
		return message{
			title:    "Podmill - Complete",
			body:     fmt.Sprintf("✅ Episode ready: %s", value("title", "unknown")),
			tags:     []string{"podmill", "workflow", "completed"},
			priority: "high",
		}, true
	case EventEpisodePublished:
		body := fmt.Sprintf("📣 Published: %s (%s/%s platforms)",
			value("title", "unknown"), value("published", "0"), value("total", "0"))
		if url := strings.TrimSpace(payload["url"]); url != "" {
			body = body + "\n" + url
		}
		return message{
			title: "Podmill - Published",
			body:  body,
			tags:  []string{"podmill", "publish", "completed"},
		}, true
	case EventWorkflowFailed:
		return message{
			title:    "Podmill - Error",
			body:     fmt.Sprintf("❌ Error with %s: %s", value("stage", "workflow"), value("error", "unknown")),
			tags:     []string{"podmill", "error", "alert"},
			priority: "high",
		}, true
	default:
		return message{}, false
	}
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
func (noopService) Test(context.Context) error                    { return nil }
