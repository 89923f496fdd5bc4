package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/publishing"
	"podmill/internal/textutil"
)

// postRuneLimit is the platform's hard cap on post length.
const postRuneLimit = 280

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Connector posts episode announcements to X.
type Connector struct {
	cfg      config.Social
	hashtags []string
	// episodeBase derives the announcement link: website public base first,
	// show homepage as the fallback.
	episodeBase string
	homepage    string
	logger      *slog.Logger
	client      HTTPDoer
}

// NewConnector creates the social connector from the loaded configuration.
func NewConnector(cfg *config.Config, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:         cfg.Platforms.Social,
		hashtags:    cfg.Show.Hashtags,
		episodeBase: cfg.Platforms.Website.PublicBaseURL,
		homepage:    strings.TrimSpace(cfg.Show.Homepage),
		logger:      logging.NewComponentLogger(logger, "social"),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (c *Connector) WithHTTPClient(client HTTPDoer) {
	if client != nil {
		c.client = client
	}
}

// Name identifies the connector in results and the enabled-platform list.
func (c *Connector) Name() string { return config.PlatformSocial }

// Publish posts the episode announcement.
func (c *Connector) Publish(ctx context.Context, episode publishing.EpisodeData) (publishing.PlatformResult, error) {
	result := publishing.PlatformResult{Platform: c.Name()}

	fail := func(err error) (publishing.PlatformResult, error) {
		result.Success = false
		result.Err = err.Error()
		return result, err
	}

	if c.cfg.BearerToken == "" {
		return fail(fmt.Errorf("social: bearer_token must be configured"))
	}

	text := c.postText(episode)
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fail(fmt.Errorf("social: encode post: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("social: build post request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("social: post announcement: %w", err))
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fail(fmt.Errorf("social: read post response: %w", err))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet := textutil.TruncateRunes(strings.Join(strings.Fields(string(data)), " "), 160)
		return fail(fmt.Errorf("social: post rejected: HTTP %d: %s", resp.StatusCode, snippet))
	}

	var decoded struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fail(fmt.Errorf("social: parse post response: %w", err))
	}

	c.logger.Info("episode announced",
		logging.String("episode_id", episode.EpisodeID),
		logging.String("post_id", decoded.Data.ID),
		logging.Int("post_runes", utf8.RuneCountInString(text)))

	result.Success = true
	result.RemoteID = decoded.Data.ID
	if decoded.Data.ID != "" {
		result.PublishedURL = "https://x.com/i/status/" + decoded.Data.ID
	}
	return result, nil
}

// postText picks the generated social copy when present, otherwise builds a
// default announcement, then appends the episode link within the rune cap.
func (c *Connector) postText(episode publishing.EpisodeData) string {
	text := strings.TrimSpace(episode.Social.Twitter)
	if text == "" {
		text = c.announcement(episode)
	}
	return withLink(text, c.episodeURL(episode.EpisodeID))
}

// announcement is the deterministic default: title, a leading summary
// sentence when it fits, hashtags when they fit.
func (c *Connector) announcement(episode publishing.EpisodeData) string {
	text := "🎧 New episode: " + episode.Title
	if sentence := strings.TrimSpace(strings.Split(episode.Summary, ".")[0]); sentence != "" {
		if candidate := text + " - " + sentence; utf8.RuneCountInString(candidate) < 250 {
			text = candidate
		}
	}
	if tags := textutil.Hashtags(c.hashtags); tags != "" {
		if candidate := text + " " + tags; utf8.RuneCountInString(candidate) <= 250 {
			text = candidate
		}
	}
	return text
}

func (c *Connector) episodeURL(episodeID string) string {
	if c.episodeBase != "" && episodeID != "" {
		return c.episodeBase + "/episodes/" + episodeID
	}
	return c.homepage
}

// withLink appends url to text, trimming text as needed so the link itself
// is never cut.
func withLink(text, url string) string {
	if url == "" {
		return textutil.TruncateRunes(text, postRuneLimit)
	}
	budget := postRuneLimit - utf8.RuneCountInString(url) - 1
	if budget <= 0 {
		return textutil.TruncateRunes(url, postRuneLimit)
	}
	return textutil.TruncateRunes(text, budget) + " " + url
}
