package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"podmill/internal/fileutil"
	"podmill/internal/logging"
	"podmill/internal/queue"
	"podmill/internal/services"
)

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStale(ctx, m.logger); err != nil {
			m.logger.Warn("reclaim stale processing failed; stuck items may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
			)
		}

		item, err := m.store.Claim(ctx)
		if err != nil {
			m.handleClaimError(ctx, err)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) handleClaimError(ctx context.Context, err error) {
	m.setLastError(err)
	m.logger.Error("failed to claim next queue item",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_claim_failed"),
	)
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.pollInterval):
	}
}

// processItem runs one claimed item through the coordinator while a
// heartbeat goroutine keeps the claim alive. A context.Canceled return means
// shutdown interrupted the run; the item is left in-flight for reclamation.
func (m *Manager) processItem(ctx context.Context, item *queue.Item) error {
	itemCtx := services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(itemCtx, m.logger)
	logger.Info("queue item claimed",
		logging.String(logging.FieldEventType, "item_claimed"),
		logging.String("source_file", item.SourcePath),
	)

	req, err := m.buildRequest(item)
	if err != nil {
		m.failItemBeforeRun(itemCtx, item, err)
		return nil
	}

	m.coordinator.WithTransitionHook(func(hookCtx context.Context, result *Result, stage Stage) {
		m.persistTransition(hookCtx, item, result, stage)
	})

	hbCtx, hbCancel := context.WithCancel(itemCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, item.ID)

	result := m.coordinator.Run(itemCtx, req)
	hbCancel()
	hbWG.Wait()

	if !result.Success() && ctx.Err() != nil {
		logger.Debug("run interrupted by shutdown; item left for reclamation")
		return context.Canceled
	}

	return m.finalizeItem(itemCtx, item, result)
}

// buildRequest converts a queue item into a coordinator request. The
// language hint prefers the item's stored language, then the configured
// default. Operator-supplied metadata rides along as JSON on the item.
func (m *Manager) buildRequest(item *queue.Item) (Request, error) {
	req := Request{
		AudioPath: item.SourcePath,
		Language:  strings.TrimSpace(item.Language),
	}
	if req.Language == "" {
		req.Language = strings.TrimSpace(m.cfg.Transcription.Language)
	}
	if meta := strings.TrimSpace(item.MetadataJSON); meta != "" {
		if err := json.Unmarshal([]byte(meta), &req.Metadata); err != nil {
			return Request{}, services.Wrap(services.ErrValidation, "workflow", "decode metadata",
				"episode metadata is not valid JSON", err)
		}
	}
	return req, nil
}

// persistTransition mirrors coordinator status changes onto the queue item.
// Terminal states are skipped; finalizeItem persists those with the full
// result snapshot.
func (m *Manager) persistTransition(ctx context.Context, item *queue.Item, result *Result, stage Stage) {
	if result.Status == queue.StatusCompleted || result.Status == queue.StatusFailed {
		return
	}
	now := time.Now().UTC()
	item.Status = result.Status
	item.SetProgress(StageLabel(stage), StageLabel(stage)+" started", 0)
	item.ErrorMessage = ""
	item.LastHeartbeat = &now
	m.applyResultOutputs(ctx, item, result)

	if err := m.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, m.logger).Warn("failed to persist status transition",
			logging.Error(err),
			logging.String("status", string(result.Status)),
		)
		return
	}
	m.setLastItem(item)
}

// applyResultOutputs copies stage outputs onto the item as they appear, so a
// partial run still records how far it got.
func (m *Manager) applyResultOutputs(ctx context.Context, item *queue.Item, result *Result) {
	if result.Audio != nil && strings.TrimSpace(result.Audio.Path) != "" {
		item.ProcessedFile = result.Audio.Path
	}
	if lang := strings.TrimSpace(result.DetectedLanguage); lang != "" {
		item.Language = lang
	}
	if result.Transcript != nil && strings.TrimSpace(item.TranscriptFile) == "" {
		path, err := m.saveTranscript(item, result.Transcript.Text)
		if err != nil {
			logging.WithContext(ctx, m.logger).Warn("failed to save transcript", logging.Error(err))
		} else {
			item.TranscriptFile = path
		}
	}
}

func (m *Manager) saveTranscript(item *queue.Item, text string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(item.SourcePath), filepath.Ext(item.SourcePath))
	if base == "" {
		base = fmt.Sprintf("item-%d", item.ID)
	}
	if err := os.MkdirAll(m.cfg.Paths.StagingDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	path := filepath.Join(m.cfg.Paths.StagingDir, base+"_transcript.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

// finalizeItem persists the terminal state and the full result snapshot.
func (m *Manager) finalizeItem(ctx context.Context, item *queue.Item, result *Result) error {
	logger := logging.WithContext(ctx, m.logger)
	m.applyResultOutputs(ctx, item, result)

	if snapshot, err := json.Marshal(result); err != nil {
		logger.Warn("failed to encode result snapshot", logging.Error(err))
	} else {
		item.ResultJSON = string(snapshot)
	}

	if result.Success() {
		item.Status = queue.StatusCompleted
		item.ErrorMessage = ""
		item.LastHeartbeat = nil
		item.SetProgressComplete("Completed", completionMessage(result))
	} else {
		failure := result.Failure
		details := services.Details(failure.Err)
		item.SetFailed(fmt.Sprintf("%s failed: %s", StageLabel(failure.Stage), details.Message))
		if services.NeedsReview(failure.Err) {
			item.NeedsReview = true
			item.ReviewReason = details.Message
		}
		m.setLastError(failure.Err)
	}

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist final state")
			return context.Canceled
		}
		wrapped := fmt.Errorf("persist final state: %w", err)
		logger.Error("failed to persist final state", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	m.setLastItem(item)

	if result.Success() {
		logger.Info("queue item completed",
			logging.String(logging.FieldEventType, "item_completed"),
			logging.String(logging.FieldEpisodeID, result.EpisodeID),
			logging.Bool("content_degraded", result.ContentDegraded),
		)
		if m.cfg.Workflow.ArchiveProcessed {
			m.archiveSource(ctx, item)
		}
	}
	return nil
}

func completionMessage(result *Result) string {
	if result.Publishing == nil {
		return "Completed"
	}
	msg := fmt.Sprintf("Published to %d/%d platforms", len(result.Publishing.Published), len(result.Publishing.Results))
	if result.ContentDegraded {
		msg += " with fallback content"
	}
	return msg
}

// failItemBeforeRun handles failures raised before the coordinator started,
// such as undecodable metadata.
func (m *Manager) failItemBeforeRun(ctx context.Context, item *queue.Item, err error) {
	logger := logging.WithContext(ctx, m.logger)
	details := services.Details(err)
	logger.Error("rejected queue item before run",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
	)

	item.SetFailed(details.Message)
	if services.NeedsReview(err) {
		item.NeedsReview = true
		item.ReviewReason = details.Message
	}
	if updateErr := m.store.Update(ctx, item); updateErr != nil {
		logger.Error("failed to persist rejected item", logging.Error(updateErr))
	}
	m.setLastItem(item)
	m.setLastError(err)
}

// archiveSource moves a fully processed source recording out of the inbox.
func (m *Manager) archiveSource(ctx context.Context, item *queue.Item) {
	logger := logging.WithContext(ctx, m.logger)
	if _, err := os.Stat(item.SourcePath); err != nil {
		return
	}
	if err := os.MkdirAll(m.cfg.Paths.ArchiveDir, 0o755); err != nil {
		logger.Warn("failed to create archive dir", logging.Error(err))
		return
	}
	dest := filepath.Join(m.cfg.Paths.ArchiveDir, filepath.Base(item.SourcePath))
	if err := fileutil.MoveFile(item.SourcePath, dest); err != nil {
		logger.Warn("failed to archive source file",
			logging.Error(err),
			logging.String("source_file", item.SourcePath),
		)
		return
	}
	logger.Info("source file archived", logging.String("archived_to", dest))
}
