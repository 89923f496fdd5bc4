package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"podmill/internal/daemon"
	"podmill/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var language string
	meta := newMetadataFlags()

	cmd := &cobra.Command{
		Use:   "add <audio-file>",
		Short: "Queue a recording for the daemon to process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				opts := daemon.EnqueueOptions{Language: language}
				if meta.changed(cmd) {
					metadata := meta.build()
					opts.Metadata = &metadata
				}
				item, err := daemon.EnqueueFile(cmd.Context(), store, args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as item #%d\n", filepath.Base(item.SourcePath), item.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "BCP-47 language hint for transcription")
	meta.register(cmd)
	return cmd
}
