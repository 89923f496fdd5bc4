package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"podmill/internal/config"
	"podmill/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventWorkflowCompleted, notifications.Payload{"title": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "episode queued",
			event: notifications.EventEpisodeQueued,
			payload: notifications.Payload{
				"title": "AI Trends in 2025",
			},
			expectTitle:   "Podmill - Episode Queued",
			expectMessage: "🎙️ Episode queued: AI Trends in 2025",
			expectTags:    "podmill,queue,added",
		},
		{
			name:  "workflow completed",
			event: notifications.EventWorkflowCompleted,
			payload: notifications.Payload{
				"title": "AI Trends in 2025",
			},
			expectTitle:    "Podmill - Complete",
			expectMessage:  "✅ Episode ready: AI Trends in 2025",
			expectTags:     "podmill,workflow,completed",
			expectPriority: "high",
		},
		{
			name:  "episode published",
			event: notifications.EventEpisodePublished,
			payload: notifications.Payload{
				"title":     "AI Trends in 2025",
				"published": "2",
				"total":     "3",
				"url":       "https://example.com/episodes/ai-trends",
			},
			expectTitle:   "Podmill - Published",
			expectMessage: "📣 Published: AI Trends in 2025 (2/3 platforms)\nhttps://example.com/episodes/ai-trends",
			expectTags:    "podmill,publish,completed",
		},
		{
			name:  "workflow failed",
			event: notifications.EventWorkflowFailed,
			payload: notifications.Payload{
				"stage": "transcription",
				"error": "upstream timeout",
			},
			expectTitle:    "Podmill - Error",
			expectMessage:  "❌ Error with transcription: upstream timeout",
			expectTags:     "podmill,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	suppressed := []notifications.Event{
		notifications.EventWorkflowStarted,
		notifications.EventAudioProcessed,
		notifications.EventTranscriptionCompleted,
		notifications.EventContentGenerated,
	}

	for _, event := range suppressed {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceTest(t *testing.T) {
	var gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPriority = r.Header.Get("Priority")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.Test(context.Background()); err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if gotPriority != "low" {
		t.Fatalf("expected low priority test notification, got %q", gotPriority)
	}
}
