package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"podmill/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(listStatuses))
			for _, raw := range listStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(store *queue.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, queueItemViews(items))
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit items as JSON")
	return cmd
}

func buildQueueListRows(items []*queue.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = filepath.Base(item.SourcePath)
		}
		progress := item.ProgressMessage
		if item.Status == queue.StatusFailed && item.ErrorMessage != "" {
			progress = item.ErrorMessage
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			title,
			string(item.Status),
			progress,
			item.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

// queueItemView is the JSON shape for machine output; it mirrors the daemon
// API's item view.
type queueItemView struct {
	ID          int64   `json:"id"`
	SourcePath  string  `json:"source_path"`
	Title       string  `json:"title,omitempty"`
	Status      string  `json:"status"`
	Language    string  `json:"language,omitempty"`
	Progress    string  `json:"progress,omitempty"`
	Percent     float64 `json:"percent,omitempty"`
	Error       string  `json:"error,omitempty"`
	NeedsReview bool    `json:"needs_review,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func queueItemViews(items []*queue.Item) []queueItemView {
	views := make([]queueItemView, 0, len(items))
	for _, item := range items {
		views = append(views, queueItemView{
			ID:          item.ID,
			SourcePath:  item.SourcePath,
			Title:       item.Title,
			Status:      string(item.Status),
			Language:    item.Language,
			Progress:    item.ProgressMessage,
			Percent:     item.ProgressPercent,
			Error:       item.ErrorMessage,
			NeedsReview: item.NeedsReview,
			CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:   item.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return fmt.Errorf("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(store *queue.Store) error {
				var removed int64
				var err error
				var label string
				switch {
				case clearCompleted:
					removed, err = store.ClearCompleted(cmd.Context())
					label = "completed items"
				case clearFailed:
					removed, err = store.ClearFailed(cmd.Context())
					label = "failed items"
				default:
					removed, err = store.Clear(cmd.Context())
					label = "queue items"
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Retry failed queue items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					updated, err := store.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed items\n", updated)
					return nil
				}

				for _, id := range ids {
					item, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if item == nil {
						fmt.Fprintf(out, "Item %d not found\n", id)
						continue
					}
					if item.Status != queue.StatusFailed {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
						continue
					}
					updated, err := store.RetryFailed(cmd.Context(), id)
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Item %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				updated, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", updated)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, health)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nProcessing: %d\nFailed: %d\nCompleted: %d\n",
					health.Total,
					health.Pending,
					health.Processing,
					health.Failed,
					health.Completed,
				)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the summary as JSON")
	return cmd
}
