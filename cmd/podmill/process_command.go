package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"podmill/internal/publishing"
	"podmill/internal/queue"
	"podmill/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var language string
	var jsonOutput bool
	meta := newMetadataFlags()

	cmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Run one recording through the full pipeline",
		Long: "Process conditions the recording, transcribes it, generates episode " +
			"content, and publishes to every enabled platform, without involving " +
			"the daemon or the queue.",
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

			coordinator := workflow.NewCoordinator(cfg, logger, workflow.NewCollaborators(cfg, logger))
			result := coordinator.Run(cmd.Context(), workflow.Request{
				AudioPath: args[0],
				Language:  language,
				Metadata:  meta.build(),
			})

			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printRunSummary(cmd, result)
			}
			if !result.Success() {
				return fmt.Errorf("workflow failed at %s stage", result.Failure.Stage)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "BCP-47 language hint for transcription (e.g. en-US)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full run result as JSON")
	meta.register(cmd)
	return cmd
}

// metadataFlags collects the optional per-episode overrides shared by the
// process, publish, and add commands.
type metadataFlags struct {
	episodeID     string
	episodeNumber int
	seasonNumber  int
	author        string
	category      string
	tags          []string
	explicit      bool
}

func newMetadataFlags() *metadataFlags {
	return &metadataFlags{}
}

func (f *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.episodeID, "episode-id", "", "Use this episode identifier instead of generating one")
	cmd.Flags().IntVar(&f.episodeNumber, "episode", 0, "Episode number")
	cmd.Flags().IntVar(&f.seasonNumber, "season", 0, "Season number")
	cmd.Flags().StringVar(&f.author, "author", "", "Override the configured show author")
	cmd.Flags().StringVar(&f.category, "category", "", "Override the configured show category")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Episode tag (repeatable)")
	cmd.Flags().BoolVar(&f.explicit, "explicit", false, "Mark the episode as explicit")
}

// changed reports whether the operator supplied any metadata flag, so
// callers can tell "no overrides" apart from zero values.
func (f *metadataFlags) changed(cmd *cobra.Command) bool {
	for _, name := range []string{"episode-id", "episode", "season", "author", "category", "tag", "explicit"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (f *metadataFlags) build() publishing.EpisodeMetadata {
	return publishing.EpisodeMetadata{
		EpisodeID:     f.episodeID,
		EpisodeNumber: f.episodeNumber,
		SeasonNumber:  f.seasonNumber,
		Author:        f.author,
		Category:      f.category,
		Tags:          f.tags,
		Explicit:      f.explicit,
	}
}

func printRunSummary(cmd *cobra.Command, result *workflow.Result) {
	out := cmd.OutOrStdout()

	if result.Status == queue.StatusFailed {
		fmt.Fprintf(out, "Workflow failed at the %s stage: %v\n", result.Failure.Stage, result.Failure.Err)
	} else {
		fmt.Fprintf(out, "Workflow completed in %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
	}

	if result.Audio != nil {
		fmt.Fprintf(out, "  Processed audio:  %s (%.0fs)\n", filepath.Base(result.Audio.Path), result.Audio.DurationSeconds)
	}
	if result.Transcript != nil {
		fmt.Fprintf(out, "  Transcript:       %d words (%s)\n", result.Transcript.WordCount, result.DetectedLanguage)
	}
	if result.Content != nil {
		fmt.Fprintf(out, "  Title:            %s\n", result.Content.Title)
		if result.ContentDegraded {
			fmt.Fprintln(out, "  Content:          fallback (LLM unavailable)")
		}
	}
	if result.Publishing != nil {
		fmt.Fprintf(out, "  Episode ID:       %s\n", result.Publishing.EpisodeID)
		fmt.Fprint(out, renderOutcomeTable(result.Publishing))
		fmt.Fprintln(out)
		if result.Publishing.EpisodeURL != "" {
			fmt.Fprintf(out, "  Episode URL:      %s\n", result.Publishing.EpisodeURL)
		}
	}
}

func renderOutcomeTable(outcome *publishing.Outcome) string {
	rows := make([][]string, 0, len(outcome.Results))
	for _, res := range outcome.Results {
		status := "published"
		detail := res.PublishedURL
		if !res.Success {
			status = "failed"
			detail = res.Err
		}
		rows = append(rows, []string{res.Platform, status, detail})
	}
	return renderTable(
		[]string{"Platform", "Status", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	)
}
