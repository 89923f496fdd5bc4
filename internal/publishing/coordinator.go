package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"podmill/internal/config"
	"podmill/internal/content"
	"podmill/internal/logging"
	"podmill/internal/services"
)

// platformPriority fixes the order EpisodeURL selection scans successful
// platforms. The host carries the canonical episode page.
var platformPriority = []string{config.PlatformHost, config.PlatformWebsite, config.PlatformSocial}

// Coordinator fans episodes out to the configured platform connectors.
type Coordinator struct {
	cfg        *config.Config
	logger     *slog.Logger
	connectors []Connector
	timeout    time.Duration
}

// NewCoordinator creates a publishing coordinator over the given connectors.
// The connector slice order is the fan-out launch order.
func NewCoordinator(cfg *config.Config, logger *slog.Logger, connectors ...Connector) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "publishing"),
		connectors: connectors,
		timeout:    cfg.PublishTimeout(),
	}
}

// Publish assembles the episode snapshot and publishes it everywhere at once.
// Platform failures land in the Outcome, never in the returned error; the
// error is reserved for assembly problems and the empty-platform-set case.
func (c *Coordinator) Publish(ctx context.Context, audioPath string, episode content.Episode, meta EpisodeMetadata) (*Outcome, error) {
	data, err := c.assembleEpisode(audioPath, episode, meta)
	if err != nil {
		return nil, err
	}
	if len(c.connectors) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "publishing", "publish", "no publishing platforms enabled", nil)
	}

	names := make([]string, len(c.connectors))
	for i, connector := range c.connectors {
		names[i] = connector.Name()
	}
	c.logger.Info("publishing episode",
		logging.String("episode_id", data.EpisodeID),
		logging.String("title", data.Title),
		logging.String("platforms", strings.Join(names, ",")))

	results := make([]PlatformResult, len(c.connectors))
	var wg sync.WaitGroup
	for i, connector := range c.connectors {
		wg.Add(1)
		go func(idx int, connector Connector) {
			defer wg.Done()
			results[idx] = c.runConnector(ctx, connector, data)
		}(i, connector)
	}
	wg.Wait()

	outcome := &Outcome{
		EpisodeID:   data.EpisodeID,
		Results:     results,
		EpisodeURL:  episodeURL(results),
		CompletedAt: time.Now().UTC(),
	}
	for _, result := range results {
		if result.Success {
			outcome.Published = append(outcome.Published, result.Platform)
			c.logger.Info("platform publish succeeded",
				logging.String("platform", result.Platform),
				logging.String("url", result.PublishedURL),
				logging.Duration("elapsed", result.Duration))
		} else {
			outcome.Failed = append(outcome.Failed, result.Platform)
			c.logger.Warn("platform publish failed",
				logging.String("platform", result.Platform),
				logging.String("error", result.Err),
				logging.Duration("elapsed", result.Duration))
		}
	}

	c.logger.Info("publishing complete",
		logging.String("episode_id", data.EpisodeID),
		logging.Int("published", len(outcome.Published)),
		logging.Int("failed", len(outcome.Failed)),
		logging.String("episode_url", outcome.EpisodeURL))
	return outcome, nil
}

// runConnector publishes to one platform under its own deadline. Panics and
// errors become failed results so one connector can never sink the fan-out.
func (c *Coordinator) runConnector(ctx context.Context, connector Connector, data EpisodeData) (result PlatformResult) {
	name := connector.Name()
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = PlatformResult{
				Platform: name,
				Success:  false,
				Err:      fmt.Sprintf("connector panic: %v", rec),
				Duration: time.Since(started),
			}
		}
	}()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := connector.Publish(callCtx, data)
	result.Platform = name
	result.Duration = time.Since(started)
	if err != nil {
		result.Success = false
		if result.Err == "" {
			result.Err = err.Error()
		}
	}
	return result
}

// episodeURL picks the canonical episode link: the first successful platform
// with a URL in fixed priority order, regardless of launch order.
func episodeURL(results []PlatformResult) string {
	for _, name := range platformPriority {
		for _, result := range results {
			if result.Platform == name && result.Success && result.PublishedURL != "" {
				return result.PublishedURL
			}
		}
	}
	return ""
}
