package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/notifications"
	"podmill/internal/publishing"
	"podmill/internal/queue"
	"podmill/internal/workflow"
)

// audioFileExtensions are the inbox and manual-add formats the pipeline
// accepts. The set mirrors what the conditioning pass can read.
var audioFileExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
}

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	watcher  *inboxWatcher
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	APIBind      string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, manager *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "podmilld.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.watcher = newInboxWatcher(cfg, store, logger, notifications.NewService(cfg))
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the manager, the inbox
// watcher, and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another podmill daemon instance is already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("ensure directories: %w", err)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	d.watcher.start(d.ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.watcher.stop()
			d.workflow.Stop()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			_ = d.lock.Unlock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("podmill daemon started",
		logging.String("lock", d.lockPath),
		logging.String("inbox", d.cfg.Paths.InboxDir),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.watcher.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("podmill daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, empty when the API is disabled or
// not started.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.List(ctx, statuses...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.Test(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// EnqueueOptions carries optional operator-supplied fields for a new item.
type EnqueueOptions struct {
	Language string
	Metadata *publishing.EpisodeMetadata
}

// EnqueueFile validates a source recording and adds it to the queue. Both
// the HTTP API and the CLI enqueue through here.
func EnqueueFile(ctx context.Context, store *queue.Store, sourcePath string, opts EnqueueOptions) (*queue.Item, error) {
	if store == nil {
		return nil, errors.New("queue store unavailable")
	}
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := audioFileExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	item, err := store.NewAudioFile(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("enqueue audio file: %w", err)
	}

	dirty := false
	if lang := strings.TrimSpace(opts.Language); lang != "" && item.Language != lang {
		item.Language = lang
		dirty = true
	}
	if opts.Metadata != nil {
		encoded, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		item.MetadataJSON = string(encoded)
		dirty = true
	}
	if dirty {
		if err := store.Update(ctx, item); err != nil {
			return nil, fmt.Errorf("persist enqueue options: %w", err)
		}
	}
	return item, nil
}

// AddFile enqueues a recording for processing.
func (d *Daemon) AddFile(ctx context.Context, sourcePath string, opts EnqueueOptions) (*queue.Item, error) {
	item, err := EnqueueFile(ctx, d.store, sourcePath, opts)
	if err != nil {
		return nil, err
	}
	d.logger.Info("file queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("source_file", item.SourcePath),
	)
	return item, nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.cfg.QueueDatabasePath(),
		LockFilePath: d.lockPath,
		APIBind:      d.cfg.Paths.APIBind,
	}
}
