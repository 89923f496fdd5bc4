package website

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

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/publishing"
	"podmill/internal/textutil"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Connector updates the show website for a new episode.
type Connector struct {
	cfg    config.Website
	logger *slog.Logger
	client HTTPDoer
}

// NewConnector creates the website connector from the loaded configuration.
func NewConnector(cfg *config.Config, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:    cfg.Platforms.Website,
		logger: logging.NewComponentLogger(logger, "website"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (c *Connector) WithHTTPClient(client HTTPDoer) {
	if client != nil {
		c.client = client
	}
}

// Name identifies the connector in results and the enabled-platform list.
func (c *Connector) Name() string { return config.PlatformWebsite }

// Publish pushes the episode to the content API when one is configured,
// otherwise it fires the deploy hook so the site rebuilds.
func (c *Connector) Publish(ctx context.Context, episode publishing.EpisodeData) (publishing.PlatformResult, error) {
	result := publishing.PlatformResult{Platform: c.Name()}

	fail := func(err error) (publishing.PlatformResult, error) {
		result.Success = false
		result.Err = err.Error()
		return result, err
	}

	switch {
	case c.cfg.ContentAPIURL != "":
		url, remoteID, err := c.postContent(ctx, episode)
		if err != nil {
			return fail(err)
		}
		result.PublishedURL = url
		result.RemoteID = remoteID
	case c.cfg.DeployHook != "":
		remoteID, err := c.triggerDeploy(ctx)
		if err != nil {
			return fail(err)
		}
		result.RemoteID = remoteID
		result.PublishedURL = c.derivedEpisodeURL(episode.EpisodeID)
	default:
		return fail(fmt.Errorf("website: deploy_hook or content_api_url must be configured"))
	}

	c.logger.Info("website updated",
		logging.String("episode_id", episode.EpisodeID),
		logging.String("url", result.PublishedURL))
	result.Success = true
	return result, nil
}

// episodePayload is the JSON shape the content API receives.
type episodePayload struct {
	EpisodeID       string    `json:"episode_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ShowNotes       string    `json:"show_notes"`
	Summary         string    `json:"summary,omitempty"`
	Language        string    `json:"language,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	EpisodeNumber   int       `json:"episode_number,omitempty"`
	SeasonNumber    int       `json:"season_number,omitempty"`
	Explicit        bool      `json:"explicit,omitempty"`
	PublicationDate time.Time `json:"publication_date"`
}

func (c *Connector) postContent(ctx context.Context, episode publishing.EpisodeData) (string, string, error) {
	payload := episodePayload{
		EpisodeID:       episode.EpisodeID,
		Title:           episode.Title,
		Description:     episode.Description,
		ShowNotes:       episode.ShowNotes,
		Summary:         episode.Summary,
		Language:        episode.Language,
		Tags:            episode.Tags,
		EpisodeNumber:   episode.EpisodeNumber,
		SeasonNumber:    episode.SeasonNumber,
		Explicit:        episode.Explicit,
		PublicationDate: episode.PublicationDate,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("website: encode episode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ContentAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("website: build content request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ContentAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.ContentAPIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("website: post episode content: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", fmt.Errorf("website: read content response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", "", fmt.Errorf("website: content API returned HTTP %d: %s", resp.StatusCode, bodySnippet(data))
	}

	var decoded struct {
		EpisodeURL string `json:"episode_url"`
		ID         string `json:"id"`
	}
	// The response body is advisory; some content APIs answer with nothing.
	_ = json.Unmarshal(data, &decoded)

	url := decoded.EpisodeURL
	if url == "" {
		url = c.derivedEpisodeURL(episode.EpisodeID)
	}
	return url, decoded.ID, nil
}

// triggerDeploy fires the deploy hook. Hooks expect an empty POST; the site
// pulls episode content from its own source during the rebuild.
func (c *Connector) triggerDeploy(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.DeployHook, nil)
	if err != nil {
		return "", fmt.Errorf("website: build deploy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("website: trigger deploy hook: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("website: read deploy response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("website: deploy hook returned HTTP %d: %s", resp.StatusCode, bodySnippet(data))
	}

	var decoded struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
	}
	_ = json.Unmarshal(data, &decoded)
	return decoded.Job.ID, nil
}

func (c *Connector) derivedEpisodeURL(episodeID string) string {
	if c.cfg.PublicBaseURL == "" {
		return ""
	}
	return c.cfg.PublicBaseURL + "/episodes/" + episodeID
}

func bodySnippet(data []byte) string {
	return textutil.TruncateRunes(strings.Join(strings.Fields(string(data)), " "), 160)
}
