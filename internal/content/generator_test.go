package content_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podmill/internal/content"
	"podmill/internal/logging"
	"podmill/internal/services/llm"
	"podmill/internal/testsupport"
)

func TestGenerateUsesLLMPayload(t *testing.T) {
	var userMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(req.Messages))
		}
		userMessage = req.Messages[1].Content

		fenced := "```json\n" + `{
			"title": "  Cloud Native Conversations  ",
			"description": "A tour of the week in cloud tooling.",
			"show_notes": "Topics:\n- Kubernetes\n- Storage",
			"summary": "Cloud tooling news.",
			"social": {"twitter": "New episode!", "linkedin": "We shipped a new episode.", "instagram": "🎙️ new ep"}
		}` + "\n```"
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": fenced}},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Content.APIKey = "test"
	cfg.Content.BaseURL = server.URL
	cfg.Content.Model = "demo-model"

	generator := content.NewGenerator(cfg, logging.NewNop())
	episode, err := generator.Generate(context.Background(), content.Request{
		Transcript: "Welcome to the show about cloud computing. Today we discuss storage.",
		Language:   "en",
		SourceName: "episode_42.wav",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if episode.Title != "Cloud Native Conversations" {
		t.Fatalf("unexpected title %q", episode.Title)
	}
	if episode.Description != "A tour of the week in cloud tooling." {
		t.Fatalf("unexpected description %q", episode.Description)
	}
	if !strings.Contains(episode.ShowNotes, "- Kubernetes") {
		t.Fatalf("unexpected show notes %q", episode.ShowNotes)
	}
	if episode.Social.Twitter != "New episode!" || episode.Social.LinkedIn != "We shipped a new episode." {
		t.Fatalf("unexpected social payload %+v", episode.Social)
	}
	if episode.Fallback {
		t.Fatal("expected LLM content, got fallback")
	}
	if episode.Provider != "demo-model" {
		t.Fatalf("unexpected provider %q", episode.Provider)
	}
	if episode.Language != "en" {
		t.Fatalf("unexpected language %q", episode.Language)
	}

	if !strings.Contains(userMessage, "Podcast: Test Show") {
		t.Fatalf("user message missing show name: %q", userMessage)
	}
	if !strings.Contains(userMessage, "Output language: English") {
		t.Fatalf("user message missing output language: %q", userMessage)
	}
	if !strings.Contains(userMessage, "Welcome to the show about cloud computing.") {
		t.Fatalf("user message missing transcript: %q", userMessage)
	}
}

func TestGenerateFallbackWhenUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Content.APIKey = ""
	cfg.Show.Hashtags = []string{"cloudcast"}

	generator := content.NewGenerator(cfg, logging.NewNop())
	episode, err := generator.Generate(context.Background(), content.Request{
		Transcript: "Welcome to the show about cloud computing. Today we discuss storage.",
		Language:   "en",
		SourceName: "episode_42.wav",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if !episode.Fallback {
		t.Fatal("expected fallback content")
	}
	if episode.Provider != content.FallbackProvider {
		t.Fatalf("unexpected provider %q", episode.Provider)
	}
	if episode.Title != "Welcome To The Show About Cloud Computing" {
		t.Fatalf("unexpected fallback title %q", episode.Title)
	}
	if !strings.HasPrefix(episode.Description, "In this episode of Test Show: ") {
		t.Fatalf("unexpected fallback description %q", episode.Description)
	}
	if !strings.Contains(episode.ShowNotes, "- Welcome to the show about cloud computing.") {
		t.Fatalf("unexpected fallback show notes %q", episode.ShowNotes)
	}
	if !strings.Contains(episode.ShowNotes, "Generated from the episode transcript.") {
		t.Fatalf("fallback show notes missing provenance line: %q", episode.ShowNotes)
	}
	if !strings.Contains(episode.Social.Twitter, "#cloudcast") {
		t.Fatalf("fallback tweet missing hashtag: %q", episode.Social.Twitter)
	}
	if episode.Summary == "" {
		t.Fatal("expected fallback summary")
	}
}

func TestGenerateFallbackOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Content.APIKey = "test"
	cfg.Content.BaseURL = server.URL

	generator := content.NewGenerator(cfg, logging.NewNop(), llm.WithRetryMaxAttempts(1))
	episode, err := generator.Generate(context.Background(), content.Request{
		Transcript: "Welcome to the show about cloud computing. Today we discuss storage.",
		Language:   "en",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single LLM call, got %d", calls)
	}
	if !episode.Fallback || episode.Provider != content.FallbackProvider {
		t.Fatalf("expected fallback episode, got %+v", episode)
	}
}

func TestGenerateFallbackTitleFromSourceName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Content.APIKey = ""

	generator := content.NewGenerator(cfg, logging.NewNop())
	episode, err := generator.Generate(context.Background(), content.Request{
		Transcript: "Hi. This one opens with a greeting too short to title.",
		Language:   "en",
		SourceName: "/inbox/ai_trends_2025.wav",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if episode.Title != "Ai Trends 2025" {
		t.Fatalf("unexpected title %q", episode.Title)
	}
}

func TestGenerateRequiresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	generator := content.NewGenerator(cfg, logging.NewNop())

	if _, err := generator.Generate(context.Background(), content.Request{Transcript: "   \n"}); err == nil {
		t.Fatal("expected empty transcript to fail")
	}
}
