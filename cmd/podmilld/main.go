// Command podmilld is the podcast production daemon. It watches the inbox
// directory, queues new recordings, and drives each one through the
// four-stage pipeline, exposing a small HTTP API for status and enqueueing.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"podmill/internal/config"
	"podmill/internal/daemon"
	"podmill/internal/logging"
	"podmill/internal/preflight"
	"podmill/internal/queue"
	"podmill/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	logPreflight(ctx, cfg, logger)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	manager := workflow.NewManager(cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("podmilld shutting down")
}

// logPreflight surfaces missing binaries and unreachable services at startup.
// Failures are logged, not fatal: a box with a broken LLM key can still
// condition audio and run with fallback content.
func logPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	for _, dep := range preflight.CheckSystemDeps(ctx, cfg) {
		if dep.Available {
			continue
		}
		logger.Warn("dependency unavailable",
			logging.String("dependency", dep.Name),
			logging.String("detail", dep.Detail),
		)
	}
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
}
