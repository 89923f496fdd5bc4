package workflow

import (
	"log/slog"

	"podmill/internal/config"
	"podmill/internal/content"
	"podmill/internal/media"
	"podmill/internal/publishing"
	"podmill/internal/services/art19"
	"podmill/internal/services/social"
	"podmill/internal/services/website"
	"podmill/internal/services/whisper"
)

// NewCollaborators wires the production stage implementations from config.
func NewCollaborators(cfg *config.Config, logger *slog.Logger) Collaborators {
	return Collaborators{
		Audio:       media.NewProcessor(cfg, logger),
		Transcriber: whisper.NewService(cfg, logger),
		Content:     content.NewGenerator(cfg, logger),
		Publisher:   publishing.NewCoordinator(cfg, logger, Connectors(cfg, logger)...),
	}
}

// Connectors builds one connector per enabled platform, preserving the
// order of the enabled list. Unknown names are rejected by config
// validation before we get here.
func Connectors(cfg *config.Config, logger *slog.Logger) []publishing.Connector {
	connectors := make([]publishing.Connector, 0, len(cfg.Platforms.Enabled))
	for _, name := range cfg.Platforms.Enabled {
		switch name {
		case config.PlatformHost:
			connectors = append(connectors, art19.NewConnector(cfg, logger))
		case config.PlatformWebsite:
			connectors = append(connectors, website.NewConnector(cfg, logger))
		case config.PlatformSocial:
			connectors = append(connectors, social.NewConnector(cfg, logger))
		}
	}
	return connectors
}
