package workflow_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/queue"
	"podmill/internal/testsupport"
	"podmill/internal/workflow"
)

func managerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	cfg.Workflow.ErrorRetryInterval = 0
	return cfg
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item.Status == want {
			return item
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManagerProcessesQueuedItem(t *testing.T) {
	cfg := managerConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.InboxDir, "episode.wav")
	testsupport.WriteFile(t, source, 2048)
	processed := filepath.Join(cfg.Paths.StagingDir, "episode_processed.wav")
	testsupport.WriteFile(t, processed, 4096)

	fakes := newPipelineFakes(processed)
	mgr := workflow.NewManagerWithCollaborators(cfg, store, logging.NewNop(), fakes.collaborators())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewAudioItem(t, store, source)
	updated := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	mgr.Stop()

	if fakes.proc.calls != 1 || fakes.trans.calls != 1 || fakes.gen.calls != 1 || fakes.pub.calls != 1 {
		t.Fatalf("expected one call per collaborator, got %d/%d/%d/%d",
			fakes.proc.calls, fakes.trans.calls, fakes.gen.calls, fakes.pub.calls)
	}
	if updated.ProcessedFile != processed {
		t.Fatalf("processed file %q, want %q", updated.ProcessedFile, processed)
	}
	if updated.Language != "en" {
		t.Fatalf("item language %q, want en", updated.Language)
	}
	if updated.TranscriptFile == "" {
		t.Fatal("expected transcript file to be recorded")
	}
	saved, err := os.ReadFile(updated.TranscriptFile)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(saved) != fakes.trans.transcript.Text {
		t.Fatalf("transcript file content %q", string(saved))
	}
	if updated.ProgressPercent != 100 || updated.ErrorMessage != "" {
		t.Fatalf("unexpected terminal progress: %+v", updated)
	}
	if !strings.Contains(updated.ProgressMessage, "Published to 1/1 platforms") {
		t.Fatalf("unexpected progress message %q", updated.ProgressMessage)
	}

	var result workflow.Result
	if err := json.Unmarshal([]byte(updated.ResultJSON), &result); err != nil {
		t.Fatalf("decode result snapshot: %v", err)
	}
	if result.Status != queue.StatusCompleted || result.EpisodeID != fakes.pub.outcome.EpisodeID {
		t.Fatalf("unexpected snapshot: %+v", result)
	}

	// ArchiveProcessed defaults on; the source moves out of the inbox.
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("expected source to be archived, stat err %v", err)
	}
	archived := filepath.Join(cfg.Paths.ArchiveDir, "episode.wav")
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("expected archived copy at %s: %v", archived, err)
	}
}

func TestManagerKeepsSourceWhenArchivingDisabled(t *testing.T) {
	cfg := managerConfig(t)
	cfg.Workflow.ArchiveProcessed = false
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.InboxDir, "keep.wav")
	testsupport.WriteFile(t, source, 1024)
	processed := filepath.Join(cfg.Paths.StagingDir, "keep_processed.wav")
	testsupport.WriteFile(t, processed, 1024)

	fakes := newPipelineFakes(processed)
	mgr := workflow.NewManagerWithCollaborators(cfg, store, logging.NewNop(), fakes.collaborators())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewAudioItem(t, store, source)
	waitForStatus(t, store, item.ID, queue.StatusCompleted)
	mgr.Stop()

	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source should remain in place: %v", err)
	}
}

func TestManagerMarksValidationFailureForReview(t *testing.T) {
	cfg := managerConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.InboxDir, "episode.wav")
	testsupport.WriteFile(t, source, 2048)
	processed := filepath.Join(cfg.Paths.StagingDir, "episode_processed.wav")
	testsupport.WriteFile(t, processed, 4096)

	fakes := newPipelineFakes(processed)
	fakes.gen.episode.ShowNotes = ""

	mgr := workflow.NewManagerWithCollaborators(cfg, store, logging.NewNop(), fakes.collaborators())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewAudioItem(t, store, source)
	updated := waitForStatus(t, store, item.ID, queue.StatusFailed)
	mgr.Stop()

	if !updated.NeedsReview {
		t.Fatal("validation failure should need review")
	}
	if !strings.Contains(updated.ErrorMessage, "Generating content failed") {
		t.Fatalf("unexpected error message %q", updated.ErrorMessage)
	}
	if !strings.Contains(updated.ReviewReason, "show_notes") {
		t.Fatalf("review reason should name the missing field, got %q", updated.ReviewReason)
	}
	if fakes.pub.calls != 0 {
		t.Fatal("publisher must not run after the content gate failed")
	}
	// The partial outputs survive on the item for the retry.
	if updated.ProcessedFile != processed || updated.TranscriptFile == "" {
		t.Fatalf("expected stage outputs on the failed item: %+v", updated)
	}
}

func TestManagerRejectsMalformedMetadata(t *testing.T) {
	cfg := managerConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.InboxDir, "episode.wav")
	testsupport.WriteFile(t, source, 512)
	processed := filepath.Join(cfg.Paths.StagingDir, "episode_processed.wav")
	testsupport.WriteFile(t, processed, 512)

	fakes := newPipelineFakes(processed)
	mgr := workflow.NewManagerWithCollaborators(cfg, store, logging.NewNop(), fakes.collaborators())

	item := testsupport.NewAudioItem(t, store, source)
	item.MetadataJSON = "{not json"
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	updated := waitForStatus(t, store, item.ID, queue.StatusFailed)
	mgr.Stop()

	if !updated.NeedsReview {
		t.Fatal("metadata decode failure should need review")
	}
	if fakes.proc.calls != 0 {
		t.Fatal("no stage should run for undecodable metadata")
	}
}

func TestManagerStartStop(t *testing.T) {
	cfg := managerConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithCollaborators(cfg, store, logging.NewNop(), workflow.Collaborators{})

	ctx := context.Background()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := mgr.Start(ctx); err == nil {
		t.Fatal("second Start should fail while running")
	}
	if !mgr.Running() {
		t.Fatal("expected running state")
	}
	mgr.Stop()
	if mgr.Running() {
		t.Fatal("expected stopped state")
	}
	mgr.Stop()

	summary := mgr.Status(ctx)
	if summary.Running {
		t.Fatal("status should report stopped")
	}
	if summary.QueueStats == nil {
		t.Fatal("expected queue stats")
	}
}

func TestHeartbeatMonitorReclaimsStale(t *testing.T) {
	cfg := managerConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.InboxDir, "stale.wav")
	testsupport.WriteFile(t, source, 256)
	item := testsupport.NewAudioItem(t, store, source)

	claimed, err := store.Claim(context.Background())
	if err != nil || claimed == nil || claimed.ID != item.ID {
		t.Fatalf("claim: item=%v err=%v", claimed, err)
	}
	old := time.Now().UTC().Add(-time.Hour)
	claimed.LastHeartbeat = &old
	if err := store.Update(context.Background(), claimed); err != nil {
		t.Fatalf("age heartbeat: %v", err)
	}

	monitor := workflow.NewHeartbeatMonitor(store, logging.NewNop(), time.Second, time.Minute)
	if err := monitor.ReclaimStale(context.Background(), logging.NewNop()); err != nil {
		t.Fatalf("ReclaimStale failed: %v", err)
	}

	refreshed, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if refreshed.Status != queue.StatusPending {
		t.Fatalf("expected pending after reclaim, got %s", refreshed.Status)
	}
}
