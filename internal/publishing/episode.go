package publishing

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"podmill/internal/content"
	"podmill/internal/services"
	"podmill/internal/textutil"
)

// EpisodeData is the complete episode snapshot handed to every connector.
// It is passed by value so no connector can mutate what another one sees.
type EpisodeData struct {
	EpisodeID       string         `json:"episode_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	ShowNotes       string         `json:"show_notes"`
	Summary         string         `json:"summary,omitempty"`
	AudioPath       string         `json:"audio_path"`
	Language        string         `json:"language,omitempty"`
	Author          string         `json:"author,omitempty"`
	Category        string         `json:"category,omitempty"`
	Copyright       string         `json:"copyright,omitempty"`
	PublicationDate time.Time      `json:"publication_date"`
	EpisodeNumber   int            `json:"episode_number,omitempty"`
	SeasonNumber    int            `json:"season_number,omitempty"`
	Explicit        bool           `json:"explicit,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Social          content.Social `json:"social,omitempty"`
}

// EpisodeMetadata carries caller-supplied per-episode overrides. Zero values
// fall back to show-level configuration during assembly.
type EpisodeMetadata struct {
	EpisodeID       string    `json:"episode_id,omitempty"`
	EpisodeNumber   int       `json:"episode_number,omitempty"`
	SeasonNumber    int       `json:"season_number,omitempty"`
	PublicationDate time.Time `json:"publication_date,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Explicit        bool      `json:"explicit,omitempty"`
	Author          string    `json:"author,omitempty"`
	Category        string    `json:"category,omitempty"`
	Copyright       string    `json:"copyright,omitempty"`
	Language        string    `json:"language,omitempty"`
}

// GenerateEpisodeID derives an identifier from the episode title: lowercase
// slug, a human-readable timestamp, and a short digest. The digest covers the
// nanosecond instant as well as the title, so re-publishes of the same title
// within the same second still get distinct ids.
func GenerateEpisodeID(title string, now time.Time) string {
	digest := sha256.Sum256([]byte(title + "\x00" + strconv.FormatInt(now.UnixNano(), 10)))
	return fmt.Sprintf("%s-%s-%x", textutil.Slug(title), now.Format("20060102-150405"), digest[:4])
}

// assembleEpisode builds the by-value snapshot from generated content,
// caller metadata, and show-level defaults. Metadata wins over content,
// content wins over configuration.
func (c *Coordinator) assembleEpisode(audioPath string, episode content.Episode, meta EpisodeMetadata) (EpisodeData, error) {
	var data EpisodeData

	audioPath = strings.TrimSpace(audioPath)
	if audioPath == "" {
		return data, services.Wrap(services.ErrValidation, "publishing", "assemble episode", "audio path required", nil)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return data, services.Wrap(services.ErrValidation, "publishing", "assemble episode", fmt.Sprintf("audio file missing: %s", audioPath), err)
	}
	title := strings.TrimSpace(episode.Title)
	if title == "" {
		return data, services.Wrap(services.ErrValidation, "publishing", "assemble episode", "episode title required", nil)
	}

	now := time.Now().UTC()
	publishedAt := meta.PublicationDate
	if publishedAt.IsZero() {
		publishedAt = now
	}

	episodeID := strings.TrimSpace(meta.EpisodeID)
	if episodeID == "" {
		episodeID = GenerateEpisodeID(title, now)
	}

	author := firstValue(meta.Author, c.cfg.Show.Author)
	copyright := strings.TrimSpace(meta.Copyright)
	if copyright == "" {
		copyright = strings.TrimSpace(fmt.Sprintf("© %d %s", publishedAt.Year(), author))
	}

	data = EpisodeData{
		EpisodeID:       episodeID,
		Title:           title,
		Description:     strings.TrimSpace(episode.Description),
		ShowNotes:       strings.TrimSpace(episode.ShowNotes),
		Summary:         strings.TrimSpace(episode.Summary),
		AudioPath:       audioPath,
		Language:        firstValue(meta.Language, episode.Language, c.cfg.Show.Language),
		Author:          author,
		Category:        firstValue(meta.Category, c.cfg.Show.Category),
		Copyright:       copyright,
		PublicationDate: publishedAt,
		EpisodeNumber:   meta.EpisodeNumber,
		SeasonNumber:    meta.SeasonNumber,
		Explicit:        meta.Explicit || c.cfg.Show.Explicit,
		Tags:            append([]string(nil), meta.Tags...),
		Social:          episode.Social,
	}
	return data, nil
}

func firstValue(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
