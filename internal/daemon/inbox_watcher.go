package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/notifications"
	"podmill/internal/queue"
)

// fileState tracks an inbox candidate between polls. A file is enqueued only
// after its size and modification time have held steady for the settle
// window, so half-copied uploads are not picked up.
type fileState struct {
	size     int64
	modTime  time.Time
	stableAt time.Time
}

type inboxWatcher struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	pollInterval time.Duration
	settle       time.Duration

	mu         sync.Mutex
	running    bool
	candidates map[string]fileState
	known      map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newInboxWatcher(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *inboxWatcher {
	poll := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = time.Second
	}
	settle := time.Duration(cfg.Workflow.InboxSettleSeconds) * time.Second

	return &inboxWatcher{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "inbox-watcher"),
		notifier:     notifier,
		pollInterval: poll,
		settle:       settle,
		candidates:   make(map[string]fileState),
		known:        make(map[string]struct{}),
	}
}

func (w *inboxWatcher) start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop()
}

func (w *inboxWatcher) stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *inboxWatcher) loop() {
	defer w.wg.Done()

	w.poll()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *inboxWatcher) poll() {
	ctx := w.ctx
	if ctx == nil {
		return
	}

	entries, err := os.ReadDir(w.cfg.Paths.InboxDir)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("inbox scan failed", logging.Error(err))
		}
		return
	}

	now := time.Now()
	present := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := audioFileExtensions[ext]; !ok {
			continue
		}
		path := filepath.Join(w.cfg.Paths.InboxDir, name)
		present[path] = struct{}{}
		if _, ok := w.known[path]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		state, tracked := w.candidates[path]
		if !tracked || state.size != info.Size() || !state.modTime.Equal(info.ModTime()) {
			w.candidates[path] = fileState{size: info.Size(), modTime: info.ModTime(), stableAt: now}
			continue
		}
		if now.Sub(state.stableAt) < w.settle {
			continue
		}

		delete(w.candidates, path)
		w.enqueue(ctx, path)
	}

	for path := range w.candidates {
		if _, ok := present[path]; !ok {
			delete(w.candidates, path)
		}
	}
}

// enqueue adds a settled inbox file to the queue. Paths the store has ever
// seen are skipped; reprocessing a finished recording is an explicit
// operator action, not something the watcher repeats on every poll.
func (w *inboxWatcher) enqueue(ctx context.Context, path string) {
	existing, err := w.store.FindBySourcePath(ctx, path)
	if err != nil {
		w.logger.Warn("inbox dedupe lookup failed", logging.Error(err), logging.String("source_file", path))
		return
	}
	if existing != nil {
		w.known[path] = struct{}{}
		return
	}

	item, err := w.store.NewAudioFile(ctx, path)
	if err != nil {
		w.logger.Error("failed to enqueue inbox file", logging.Error(err), logging.String("source_file", path))
		return
	}
	w.known[path] = struct{}{}

	w.logger.Info("inbox file queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("source_file", path),
		logging.String(logging.FieldEventType, "inbox_enqueued"),
	)
	if w.notifier != nil {
		if err := w.notifier.Publish(ctx, notifications.EventEpisodeQueued, notifications.Payload{
			"title": item.Title,
		}); err != nil {
			w.logger.Warn("queued notification failed", logging.Error(err))
		}
	}
}
