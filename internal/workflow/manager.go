package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/notifications"
	"podmill/internal/queue"
)

// Manager feeds queued episodes through the Coordinator one at a time.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	coordinator  *Coordinator
	notifier     notifications.Service
	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a manager with the production collaborators.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithCollaborators(cfg, store, logger, NewCollaborators(cfg, logger))
}

// NewManagerWithCollaborators constructs a manager around the supplied stage
// implementations (used in tests).
func NewManagerWithCollaborators(cfg *config.Config, store *queue.Store, logger *slog.Logger, collab Collaborators) *Manager {
	coordinator := NewCoordinator(cfg, logger, collab)
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		coordinator:  coordinator,
		notifier:     notifications.NewService(cfg),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// WithNotifier replaces the notification service for the manager and its
// coordinator.
func (m *Manager) WithNotifier(notifier notifications.Service) {
	if notifier == nil {
		return
	}
	m.notifier = notifier
	m.coordinator.WithNotifier(notifier)
}

// Start begins background queue processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runLoop(runCtx)
	return nil
}

// Stop terminates background processing and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the processing loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// StatusSummary represents lightweight manager diagnostics.
type StatusSummary struct {
	Running    bool
	LastError  string
	LastItem   *queue.Item
	QueueStats map[queue.Status]int
}

// Status returns the latest manager information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastItem := m.lastItem
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	summary := StatusSummary{Running: running, QueueStats: stats}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastItem != nil {
		copy := *lastItem
		summary.LastItem = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item != nil {
		copy := *item
		m.lastItem = &copy
	} else {
		m.lastItem = nil
	}
	m.mu.Unlock()
}
