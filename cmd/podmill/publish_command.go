package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"podmill/internal/content"
	"podmill/internal/publishing"
	"podmill/internal/workflow"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var contentPath string
	var jsonOutput bool
	meta := newMetadataFlags()

	cmd := &cobra.Command{
		Use:   "publish <audio-file>",
		Short: "Publish already-generated content without re-running the pipeline",
		Long: "Publish fans an episode out to every enabled platform. The episode " +
			"content comes from a JSON file (--content) matching the result snapshot's " +
			"content section: title, description, show_notes, and optionally summary " +
			"and social copy.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			episode, err := loadEpisodeContent(contentPath)
			if err != nil {
				return err
			}

			coordinator := publishing.NewCoordinator(cfg, logger, workflow.Connectors(cfg, logger)...)
			outcome, err := coordinator.Publish(cmd.Context(), args[0], episode, meta.build())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, outcome)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Episode %s published to %d/%d platforms\n",
				outcome.EpisodeID, len(outcome.Published), len(outcome.Results))
			fmt.Fprint(out, renderOutcomeTable(outcome))
			fmt.Fprintln(out)
			if outcome.EpisodeURL != "" {
				fmt.Fprintf(out, "Episode URL: %s\n", outcome.EpisodeURL)
			}
			if len(outcome.Failed) > 0 {
				return fmt.Errorf("%d platform(s) failed: %s", len(outcome.Failed), strings.Join(outcome.Failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentPath, "content", "", "Path to the episode content JSON file (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the publishing outcome as JSON")
	_ = cmd.MarkFlagRequired("content")
	meta.register(cmd)
	return cmd
}

func loadEpisodeContent(path string) (content.Episode, error) {
	var episode content.Episode
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return episode, fmt.Errorf("read content file: %w", err)
	}
	if err := json.Unmarshal(data, &episode); err != nil {
		return episode, fmt.Errorf("parse content file: %w", err)
	}
	return episode, nil
}
