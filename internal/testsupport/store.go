package testsupport

import (
	"context"
	"testing"

	"podmill/internal/config"
	"podmill/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewAudioItem enqueues a source file for tests using the provided store.
func NewAudioItem(t testing.TB, store *queue.Store, sourcePath string) *queue.Item {
	t.Helper()

	item, err := store.NewAudioFile(context.Background(), sourcePath)
	if err != nil {
		t.Fatalf("store.NewAudioFile: %v", err)
	}
	return item
}
