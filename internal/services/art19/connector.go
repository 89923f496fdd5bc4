package art19

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/publishing"
	"podmill/internal/textutil"
)

const jsonAPIContentType = "application/vnd.api+json"

// contentTypes maps audio extensions to the MIME type Art19 expects in the
// upload registration.
var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Connector publishes episodes to Art19.
type Connector struct {
	cfg    config.Art19
	logger *slog.Logger
	client HTTPDoer
}

// NewConnector creates the Art19 connector from the loaded configuration.
func NewConnector(cfg *config.Config, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:    cfg.Platforms.Art19,
		logger: logging.NewComponentLogger(logger, "art19"),
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (c *Connector) WithHTTPClient(client HTTPDoer) {
	if client != nil {
		c.client = client
	}
}

// Name identifies the connector in results and the enabled-platform list.
func (c *Connector) Name() string { return config.PlatformHost }

// Publish uploads the audio and creates the episode. Failures come back as a
// failed PlatformResult together with the underlying error.
func (c *Connector) Publish(ctx context.Context, episode publishing.EpisodeData) (publishing.PlatformResult, error) {
	result := publishing.PlatformResult{Platform: c.Name()}

	fail := func(err error) (publishing.PlatformResult, error) {
		result.Success = false
		result.Err = err.Error()
		return result, err
	}

	if c.cfg.APIToken == "" || c.cfg.SeriesID == "" {
		return fail(fmt.Errorf("art19: api_token and series_id must be configured"))
	}

	upload, err := c.registerUpload(ctx, episode.AudioPath)
	if err != nil {
		return fail(err)
	}
	if err := c.uploadAudio(ctx, upload, episode.AudioPath); err != nil {
		return fail(err)
	}

	created, err := c.createEpisode(ctx, episode, upload.ID)
	if err != nil {
		return fail(err)
	}
	if c.cfg.AutoPublish {
		if err := c.publishEpisode(ctx, created.ID); err != nil {
			return fail(err)
		}
	}

	c.logger.Info("episode created on art19",
		logging.String("episode_id", episode.EpisodeID),
		logging.String("remote_id", created.ID),
		logging.Bool("auto_publish", c.cfg.AutoPublish))

	result.Success = true
	result.RemoteID = created.ID
	result.PublishedURL = created.CanonicalURL
	return result, nil
}

type audioUpload struct {
	ID        string
	UploadURL string
}

type createdEpisode struct {
	ID           string
	CanonicalURL string
}

// resourceDocument is the subset of a JSON:API document the connector reads.
type resourceDocument struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			UploadURL    string `json:"upload_url"`
			CanonicalURL string `json:"canonical_url"`
		} `json:"attributes"`
	} `json:"data"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (c *Connector) registerUpload(ctx context.Context, audioPath string) (audioUpload, error) {
	var upload audioUpload

	info, err := os.Stat(audioPath)
	if err != nil {
		return upload, fmt.Errorf("art19: stat audio: %w", err)
	}
	payload := map[string]any{
		"data": map[string]any{
			"type": "audio_uploads",
			"attributes": map[string]any{
				"filename":     filepath.Base(audioPath),
				"file_size":    info.Size(),
				"content_type": audioContentType(audioPath),
			},
		},
	}

	var doc resourceDocument
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/audio_uploads", payload, &doc); err != nil {
		return upload, fmt.Errorf("art19: register upload: %w", err)
	}
	if doc.Data.ID == "" || doc.Data.Attributes.UploadURL == "" {
		return upload, fmt.Errorf("art19: register upload: response missing upload id or url")
	}
	upload.ID = doc.Data.ID
	upload.UploadURL = doc.Data.Attributes.UploadURL
	return upload, nil
}

// uploadAudio streams the file to the presigned URL. The presign target is
// plain HTTP storage, so no Art19 auth headers here.
func (c *Connector) uploadAudio(ctx context.Context, upload audioUpload, audioPath string) error {
	file, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("art19: open audio: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("art19: stat audio: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, upload.UploadURL, file)
	if err != nil {
		return fmt.Errorf("art19: build upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", audioContentType(audioPath))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("art19: upload audio: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("art19: upload audio: HTTP %d", resp.StatusCode)
	}
	return nil
}

func (c *Connector) createEpisode(ctx context.Context, episode publishing.EpisodeData, uploadID string) (createdEpisode, error) {
	var created createdEpisode

	attributes := map[string]any{
		"title":           episode.Title,
		"description":     episode.Description,
		"show_notes":      episode.ShowNotes,
		"summary":         episode.Summary,
		"audio_upload_id": uploadID,
		"explicit":        episode.Explicit,
		"released_at":     episode.PublicationDate.UTC().Format(time.RFC3339),
	}
	if episode.EpisodeNumber > 0 {
		attributes["episode_number"] = episode.EpisodeNumber
	}
	if episode.SeasonNumber > 0 {
		attributes["season_number"] = episode.SeasonNumber
	}
	if len(episode.Tags) > 0 {
		attributes["tags"] = episode.Tags
	}
	payload := map[string]any{
		"data": map[string]any{
			"type":       "episodes",
			"attributes": attributes,
			"relationships": map[string]any{
				"series": map[string]any{
					"data": map[string]any{"type": "series", "id": c.cfg.SeriesID},
				},
			},
		},
	}

	var doc resourceDocument
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/episodes", payload, &doc); err != nil {
		return created, fmt.Errorf("art19: create episode: %w", err)
	}
	if doc.Data.ID == "" {
		return created, fmt.Errorf("art19: create episode: response missing episode id")
	}
	created.ID = doc.Data.ID
	created.CanonicalURL = doc.Data.Attributes.CanonicalURL
	return created, nil
}

func (c *Connector) publishEpisode(ctx context.Context, remoteID string) error {
	payload := map[string]any{
		"data": map[string]any{
			"type":       "episodes",
			"id":         remoteID,
			"attributes": map[string]any{"published": true},
		},
	}
	if err := c.doJSON(ctx, http.MethodPatch, c.cfg.BaseURL+"/episodes/"+remoteID, payload, nil); err != nil {
		return fmt.Errorf("art19: publish episode: %w", err)
	}
	return nil
}

func (c *Connector) doJSON(ctx context.Context, method, url string, payload any, out *resourceDocument) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", jsonAPIContentType)
	req.Header.Set("Accept", jsonAPIContentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorDetail(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// errorDetail pulls the first JSON:API error out of a failure body, falling
// back to a trimmed snippet of the raw payload.
func errorDetail(data []byte) string {
	var doc resourceDocument
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Errors) > 0 {
		first := doc.Errors[0]
		if first.Detail != "" {
			return first.Detail
		}
		if first.Title != "" {
			return first.Title
		}
	}
	return textutil.TruncateRunes(strings.Join(strings.Fields(string(data)), " "), 160)
}

func audioContentType(audioPath string) string {
	if mime, ok := contentTypes[strings.ToLower(filepath.Ext(audioPath))]; ok {
		return mime
	}
	return "application/octet-stream"
}
