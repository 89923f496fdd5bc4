package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podmill/internal/config"
	"podmill/internal/content"
	"podmill/internal/daemon"
	"podmill/internal/logging"
	"podmill/internal/media"
	"podmill/internal/publishing"
	"podmill/internal/queue"
	"podmill/internal/services/whisper"
	"podmill/internal/testsupport"
	"podmill/internal/workflow"
)

// offlineCollaborators fail at the first stage so manager runs triggered by
// these tests never reach external tools or APIs.
type offlineCollaborators struct{}

func (offlineCollaborators) Process(context.Context, string) (media.ProcessedAudio, error) {
	return media.ProcessedAudio{}, errors.New("audio processing not exercised")
}

func (offlineCollaborators) Transcribe(context.Context, string, string) (whisper.Transcript, error) {
	return whisper.Transcript{}, errors.New("transcription not exercised")
}

func (offlineCollaborators) Generate(context.Context, content.Request) (content.Episode, error) {
	return content.Episode{}, errors.New("content generation not exercised")
}

func (offlineCollaborators) Publish(context.Context, string, content.Episode, publishing.EpisodeMetadata) (*publishing.Outcome, error) {
	return nil, errors.New("publishing not exercised")
}

func newOfflineManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *workflow.Manager {
	stub := offlineCollaborators{}
	return workflow.NewManagerWithCollaborators(cfg, store, logger, workflow.Collaborators{
		Audio:       stub,
		Transcriber: stub,
		Content:     stub,
		Publisher:   stub,
	})
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := newOfflineManager(cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if d.APIAddr() == "" {
		t.Fatal("expected API server to be listening")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestEnqueueFileValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := daemon.EnqueueFile(ctx, store, "", daemon.EnqueueOptions{}); err == nil {
		t.Fatal("expected error for empty path")
	}

	if _, err := daemon.EnqueueFile(ctx, store, filepath.Join(cfg.Paths.InboxDir, "missing.wav"), daemon.EnqueueOptions{}); err == nil {
		t.Fatal("expected error for missing file")
	}

	if _, err := daemon.EnqueueFile(ctx, store, cfg.Paths.StagingDir, daemon.EnqueueOptions{}); err == nil {
		t.Fatal("expected error for directory path")
	}

	textPath := filepath.Join(cfg.Paths.InboxDir, "notes.txt")
	testsupport.WriteFile(t, textPath, 64)
	_, err := daemon.EnqueueFile(ctx, store, textPath, daemon.EnqueueOptions{})
	if err == nil || !strings.Contains(err.Error(), "unsupported file extension") {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
}

func TestEnqueueFilePersistsOptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audioPath := filepath.Join(cfg.Paths.InboxDir, "town-hall.wav")
	testsupport.WriteFile(t, audioPath, 1024)

	item, err := daemon.EnqueueFile(ctx, store, audioPath, daemon.EnqueueOptions{
		Language: "de",
		Metadata: &publishing.EpisodeMetadata{EpisodeNumber: 7, Tags: []string{"live"}},
	})
	if err != nil {
		t.Fatalf("EnqueueFile: %v", err)
	}
	if item.Language != "de" {
		t.Fatalf("expected language de, got %q", item.Language)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	var meta publishing.EpisodeMetadata
	if err := json.Unmarshal([]byte(stored.MetadataJSON), &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.EpisodeNumber != 7 || len(meta.Tags) != 1 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestEnqueueFileDeduplicatesActiveItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audioPath := filepath.Join(cfg.Paths.InboxDir, "episode.wav")
	testsupport.WriteFile(t, audioPath, 1024)

	first, err := daemon.EnqueueFile(ctx, store, audioPath, daemon.EnqueueOptions{})
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	second, err := daemon.EnqueueFile(ctx, store, audioPath, daemon.EnqueueOptions{})
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected dedupe to return item %d, got %d", first.ID, second.ID)
	}
}

func TestDaemonWatcherQueuesSettledInboxFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.InboxSettleSeconds = 0
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := newOfflineManager(cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audioPath := filepath.Join(cfg.Paths.InboxDir, "drop.wav")
	testsupport.WriteFile(t, audioPath, 512)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.FindBySourcePath(ctx, audioPath)
		if err != nil {
			t.Fatalf("FindBySourcePath: %v", err)
		}
		if item != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("inbox file was not queued within deadline")
}
