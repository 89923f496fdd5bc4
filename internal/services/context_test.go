package services_test

import (
	"context"
	"testing"

	"podmill/internal/services"
)

func TestContextAnnotations(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("unexpected item id on empty context")
	}

	ctx = services.WithItemID(ctx, 42)
	ctx = services.WithStage(ctx, "transcription")
	ctx = services.WithRunID(ctx, "run-abc")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("item id = %d, %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcription" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if run, ok := services.RunIDFromContext(ctx); !ok || run != "run-abc" {
		t.Fatalf("run id = %q, %v", run, ok)
	}
}

func TestEmptyAnnotationsAreNoops(t *testing.T) {
	ctx := context.Background()
	if services.WithStage(ctx, "") != ctx {
		t.Fatal("empty stage should not allocate a new context")
	}
	if services.WithRunID(ctx, "") != ctx {
		t.Fatal("empty run id should not allocate a new context")
	}
}
