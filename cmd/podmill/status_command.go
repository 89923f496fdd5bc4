package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podmill/internal/preflight"
	"podmill/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var skipNetwork bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, queue, and service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var stats map[queue.Status]int
			if err := ctx.withStore(func(store *queue.Store) error {
				var statsErr error
				stats, statsErr = store.Stats(cmd.Context())
				return statsErr
			}); err != nil {
				return err
			}

			deps := preflight.CheckSystemDeps(cmd.Context(), cfg)
			var services []preflight.Result
			if !skipNetwork {
				services = preflight.RunAll(cmd.Context(), cfg)
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"config_path": ctx.configPath,
					"queue":       stats,
					"platforms":   cfg.Platforms.Enabled,
					"deps":        deps,
					"services":    services,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			platforms := strings.Join(cfg.Platforms.Enabled, ", ")
			if platforms == "" {
				fmt.Fprintln(out, renderStatusLine("Platforms", statusWarn, "none enabled", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Platforms", statusOK, platforms, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Inbox", statusInfo, cfg.Paths.InboxDir, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(out, line)
			}
			if total := queueTotal(stats); total == 0 {
				fmt.Fprintln(out, renderStatusLine("Items", statusInfo, "queue is empty", colorize))
			} else {
				for _, status := range queue.AllStatuses() {
					if count := stats[status]; count > 0 {
						fmt.Fprintln(out, renderStatusLine(string(status), statusInfo, fmt.Sprintf("%d", count), colorize))
					}
				}
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, dep := range deps {
				kind := statusOK
				detail := dep.Command
				if !dep.Available {
					kind = statusError
					if dep.Optional {
						kind = statusWarn
					}
					detail = dep.Detail
				}
				fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
			}

			if len(services) > 0 {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Services", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, svc := range services {
					kind := statusOK
					if !svc.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(svc.Name, kind, svc.Detail, colorize))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	cmd.Flags().BoolVar(&skipNetwork, "no-network", false, "Skip checks that contact external APIs")
	return cmd
}

func queueTotal(stats map[queue.Status]int) int {
	total := 0
	for _, count := range stats {
		total += count
	}
	return total
}
