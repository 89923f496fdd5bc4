package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"podmill/internal/config"
	"podmill/internal/language"
	"podmill/internal/logging"
	"podmill/internal/services/llm"
	"podmill/internal/textutil"
)

// maxPromptTranscriptChars bounds how much transcript is sent to the LLM.
const maxPromptTranscriptChars = 24000

// Generator produces episode content from transcripts.
type Generator struct {
	cfg    *config.Config
	logger *slog.Logger
	client *llm.Client
}

// NewGenerator constructs a content generator. When the content LLM is not
// configured (no API key) the generator operates in fallback-only mode.
// Extra llm options are applied to the underlying client.
func NewGenerator(cfg *config.Config, logger *slog.Logger, opts ...llm.Option) *Generator {
	g := &Generator{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "content"),
	}
	if strings.TrimSpace(cfg.Content.APIKey) != "" {
		g.client = llm.NewClientFrom(cfg.ContentLLM(), opts...)
	}
	return g
}

// Generate produces episode content for the supplied transcript. The LLM
// path is attempted first; unconfigured clients, failed calls, and
// unparseable payloads all degrade to deterministic fallback content rather
// than failing. Only an empty transcript is an error.
func (g *Generator) Generate(ctx context.Context, req Request) (Episode, error) {
	req.Transcript = strings.TrimSpace(req.Transcript)
	if req.Transcript == "" {
		return Episode{}, errors.New("content generate: transcript required")
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = g.cfg.Show.Language
	}

	if g.client == nil {
		g.logger.Warn("content llm not configured; using fallback content",
			logging.String("source", req.SourceName),
		)
		return g.fallbackEpisode(req), nil
	}

	raw, err := g.client.CompleteJSON(ctx, EpisodeContentPrompt, g.buildUserMessage(req))
	if err != nil {
		if ctx.Err() != nil {
			return Episode{}, fmt.Errorf("content generate: %w", err)
		}
		g.logger.Warn("content llm call failed; using fallback content", logging.Error(err))
		return g.fallbackEpisode(req), nil
	}

	var payload episodePayload
	if err := llm.DecodeLLMJSON(raw, &payload); err != nil {
		g.logger.Warn("content llm payload unparseable; using fallback content", logging.Error(err))
		return g.fallbackEpisode(req), nil
	}

	return Episode{
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		ShowNotes:   strings.TrimSpace(payload.ShowNotes),
		Summary:     strings.TrimSpace(payload.Summary),
		Social: Social{
			Twitter:   strings.TrimSpace(payload.Social.Twitter),
			LinkedIn:  strings.TrimSpace(payload.Social.LinkedIn),
			Instagram: strings.TrimSpace(payload.Social.Instagram),
		},
		Language: req.Language,
		Provider: g.cfg.Content.Model,
	}, nil
}

// HealthCheck verifies the content LLM is reachable. Fallback-only
// generators always pass.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if g.client == nil {
		return nil
	}
	return g.client.HealthCheck(ctx)
}

func (g *Generator) buildUserMessage(req Request) string {
	var b strings.Builder
	show := g.cfg.Show
	if show.Name != "" {
		fmt.Fprintf(&b, "Podcast: %s\n", show.Name)
	}
	if show.Description != "" {
		fmt.Fprintf(&b, "Concept: %s\n", show.Description)
	}
	if req.EpisodeNumber > 0 {
		fmt.Fprintf(&b, "Episode number: %d\n", req.EpisodeNumber)
	}
	if len(show.Hashtags) > 0 {
		fmt.Fprintf(&b, "Hashtags: %s\n", textutil.Hashtags(show.Hashtags))
	}
	fmt.Fprintf(&b, "Output language: %s\n", language.DisplayName(req.Language))
	fmt.Fprintf(&b, "\nTranscript:\n%s", truncateTranscript(req.Transcript, maxPromptTranscriptChars))
	return b.String()
}

// truncateTranscript limits transcript length for LLM input, preferring to
// cut at a sentence boundary when one falls in the final third.
func truncateTranscript(transcript string, maxLen int) string {
	if len(transcript) <= maxLen {
		return transcript
	}
	cut := transcript[:maxLen]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if idx := strings.LastIndexByte(cut, '.'); idx > maxLen*7/10 {
		cut = cut[:idx+1]
	}
	return cut + "\n[transcript truncated]"
}
