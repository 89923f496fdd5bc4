package preflight

import (
	"context"

	"podmill/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Inbox and staging directories (always checked)
	results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))

	// Archive directory (when configured)
	if cfg.Paths.ArchiveDir != "" {
		results = append(results, CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir))
	}

	// Transcription service
	if cfg.Transcription.APIKey != "" {
		results = append(results, CheckWhisper(ctx, cfg))
	}

	// Content generation LLM
	if cfg.Content.APIKey != "" {
		results = append(results, CheckLLM(ctx, "Content LLM", cfg.ContentLLM()))
	}

	return results
}
