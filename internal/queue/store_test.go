package queue_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"podmill/internal/queue"
	"podmill/internal/testsupport"
)

func TestOpenCreatesSchemaAndInsertsItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewAudioFile(ctx, filepath.Join(cfg.Paths.InboxDir, "ai_trends_2025.wav"))
	if err != nil {
		t.Fatalf("NewAudioFile failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}
	if item.Title != "ai trends 2025" {
		t.Fatalf("unexpected inferred title: %q", item.Title)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourcePath != item.SourcePath {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
}

func TestNewAudioFileDeduplicatesActiveItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	source := filepath.Join(cfg.Paths.InboxDir, "episode.mp3")

	first, err := store.NewAudioFile(ctx, source)
	if err != nil {
		t.Fatalf("NewAudioFile failed: %v", err)
	}
	second, err := store.NewAudioFile(ctx, source)
	if err != nil {
		t.Fatalf("NewAudioFile failed on re-add: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected dedupe to return existing item %d, got %d", first.ID, second.ID)
	}

	// Terminal items do not block re-enqueueing the same path.
	first.Status = queue.StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	third, err := store.NewAudioFile(ctx, source)
	if err != nil {
		t.Fatalf("NewAudioFile failed after completion: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("expected a fresh item once the previous run completed")
	}
}

func TestClaimMovesPendingIntoProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "a.wav"))

	claimed, err := store.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if claimed == nil || claimed.ID != item.ID {
		t.Fatalf("expected to claim item %d, got %#v", item.ID, claimed)
	}
	if claimed.Status != queue.StatusProcessingAudio {
		t.Fatalf("expected processing_audio after claim, got %s", claimed.Status)
	}
	if claimed.LastHeartbeat == nil {
		t.Fatal("expected heartbeat set on claim")
	}

	again, err := store.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if again != nil {
		t.Fatalf("expected no second claim, got item %d", again.ID)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stuck := []queue.Status{
		queue.StatusProcessingAudio,
		queue.StatusTranscribing,
		queue.StatusGeneratingContent,
		queue.StatusPublishing,
	}
	var ids []int64
	for i, status := range stuck {
		item := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, fmt.Sprintf("stuck-%d.wav", i)))
		item.Status = status
		now := time.Now().UTC()
		item.LastHeartbeat = &now
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(stuck) {
		t.Fatalf("expected %d items reset, got %d", len(stuck), count)
	}

	for idx := range stuck {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != queue.StatusPending {
			t.Fatalf("expected pending after reset, got %s", updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatal("expected heartbeat cleared")
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "stale.wav"))
	stale.Status = queue.StatusTranscribing
	old := time.Now().UTC().Add(-10 * time.Minute)
	stale.LastHeartbeat = &old
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "fresh.wav"))
	fresh.Status = queue.StatusTranscribing
	now := time.Now().UTC()
	fresh.LastHeartbeat = &now
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reclaimed item, got %d", count)
	}

	reclaimed, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reclaimed.Status != queue.StatusPending {
		t.Fatalf("expected stale item reset to pending, got %s", reclaimed.Status)
	}
	untouched, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusTranscribing {
		t.Fatalf("expected fresh item untouched, got %s", untouched.Status)
	}
}

func TestRetryFailedClearsReviewFlags(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "failed.wav"))
	item.SetFailed("transcription upstream down")
	item.NeedsReview = true
	item.ReviewReason = "validation: transcript empty"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried item, got %d", count)
	}

	retried, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retried.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", retried.Status)
	}
	if retried.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", retried.ErrorMessage)
	}
	if retried.NeedsReview {
		t.Fatal("expected needs_review cleared")
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "a.wav"))
	b := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "b.wav"))
	b.Status = queue.StatusCompleted
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List(pending) failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("expected only item %d pending, got %#v", a.ID, pending)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "one.wav"))
	two := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "two.wav"))
	two.Status = queue.StatusPublishing
	if err := store.Update(ctx, two); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	three := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "three.wav"))
	three.SetFailed("boom")
	if err := store.Update(ctx, three); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.DatabaseReadable || !dbHealth.TableExists {
		t.Fatalf("unexpected database health: %+v", dbHealth)
	}
	if len(dbHealth.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", dbHealth.MissingColumns)
	}
	if !dbHealth.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Generating_Content "); !ok || status != queue.StatusGeneratingContent {
		t.Fatalf("unexpected parse result: %v %v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to fail parsing")
	}
}

func TestClearVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	done := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "done.wav"))
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	failed := testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "bad.wav"))
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	testsupport.NewAudioItem(t, store, filepath.Join(cfg.Paths.InboxDir, "waiting.wav"))

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 completed removed, got %d", removed)
	}

	removed, err = store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 failed removed, got %d", removed)
	}

	removed, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 remaining item removed, got %d", removed)
	}
}
