package social

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"podmill/internal/config"
	"podmill/internal/content"
	"podmill/internal/logging"
	"podmill/internal/publishing"
	"podmill/internal/testsupport"
)

func TestPublishPostsAnnouncement(t *testing.T) {
	var gotText, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2/tweets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		gotText = payload.Text
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data": {"id": "190000000000000001", "text": "ok"}}`)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithPlatforms(config.PlatformSocial))
	cfg.Platforms.Social.BaseURL = server.URL
	cfg.Platforms.Website.PublicBaseURL = "https://show.test"
	cfg.Show.Hashtags = []string{"cloudcast", "tech"}

	connector := NewConnector(cfg, logging.NewNop())
	result, err := connector.Publish(context.Background(), publishing.EpisodeData{
		EpisodeID: "cloud-trends-1",
		Title:     "Cloud Trends",
		Summary:   "A deep dive into this year's cloud platforms. More inside.",
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if gotAuth != "Bearer test-bearer" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if !strings.HasPrefix(gotText, "🎧 New episode: Cloud Trends - A deep dive into this year's cloud platforms") {
		t.Errorf("unexpected announcement %q", gotText)
	}
	if !strings.Contains(gotText, "#cloudcast #tech") {
		t.Errorf("expected hashtags in %q", gotText)
	}
	if !strings.HasSuffix(gotText, "https://show.test/episodes/cloud-trends-1") {
		t.Errorf("expected episode link suffix in %q", gotText)
	}
	if result.RemoteID != "190000000000000001" {
		t.Errorf("unexpected remote id %q", result.RemoteID)
	}
	if result.PublishedURL != "https://x.com/i/status/190000000000000001" {
		t.Errorf("unexpected post url %q", result.PublishedURL)
	}
}

func TestPublishPrefersProvidedCopy(t *testing.T) {
	var gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		gotText = payload.Text
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data": {"id": "2"}}`)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithPlatforms(config.PlatformSocial))
	cfg.Platforms.Social.BaseURL = server.URL

	connector := NewConnector(cfg, logging.NewNop())
	episode := publishing.EpisodeData{
		EpisodeID: "ep-1",
		Title:     "Ignored",
		Social:    content.Social{Twitter: "Fresh episode on observability, link below!"},
	}
	if _, err := connector.Publish(context.Background(), episode); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !strings.HasPrefix(gotText, "Fresh episode on observability") {
		t.Errorf("provided copy not used: %q", gotText)
	}
	if strings.Contains(gotText, "Ignored") {
		t.Errorf("generated announcement leaked into %q", gotText)
	}
}

func TestPublishSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"title": "Forbidden", "detail": "token lacks write scope"}`)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithPlatforms(config.PlatformSocial))
	cfg.Platforms.Social.BaseURL = server.URL

	connector := NewConnector(cfg, logging.NewNop())
	result, err := connector.Publish(context.Background(), publishing.EpisodeData{EpisodeID: "ep-2", Title: "T"})
	if err == nil || result.Success {
		t.Fatalf("expected failure, got %+v, %v", result, err)
	}
	if !strings.Contains(result.Err, "HTTP 403") || !strings.Contains(result.Err, "write scope") {
		t.Errorf("unexpected error %q", result.Err)
	}
}

func TestPublishRequiresToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	connector := NewConnector(cfg, logging.NewNop())

	result, err := connector.Publish(context.Background(), publishing.EpisodeData{Title: "T"})
	if err == nil || result.Success {
		t.Fatalf("expected configuration failure, got %+v, %v", result, err)
	}
}

func TestAnnouncementRespectsLimits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Show.Hashtags = []string{"podcast"}
	connector := NewConnector(cfg, logging.NewNop())

	longTitle := strings.Repeat("Observability ", 20)
	text := connector.postText(publishing.EpisodeData{Title: longTitle, Summary: "Sentence one. Two."})
	if utf8.RuneCountInString(text) > postRuneLimit {
		t.Fatalf("post exceeds limit: %d runes", utf8.RuneCountInString(text))
	}

	cfg.Platforms.Website.PublicBaseURL = "https://show.test"
	connector = NewConnector(cfg, logging.NewNop())
	text = connector.postText(publishing.EpisodeData{EpisodeID: "ep-9", Title: longTitle})
	if utf8.RuneCountInString(text) > postRuneLimit {
		t.Fatalf("post with link exceeds limit: %d runes", utf8.RuneCountInString(text))
	}
	if !strings.HasSuffix(text, "https://show.test/episodes/ep-9") {
		t.Fatalf("link was truncated: %q", text)
	}
}

func TestWithLinkKeepsURLIntact(t *testing.T) {
	url := "https://show.test/episodes/very-long-episode-identifier"
	text := withLink(strings.Repeat("a", 400), url)
	if utf8.RuneCountInString(text) > postRuneLimit {
		t.Fatalf("combined text too long: %d", utf8.RuneCountInString(text))
	}
	if !strings.HasSuffix(text, url) {
		t.Fatalf("url missing from %q", text)
	}
}
