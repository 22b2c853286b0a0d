package services_test

import (
	"context"
	"testing"

	"crchecker/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "decode")
	ctx = services.WithTrack(ctx, 7)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "decode" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if track, ok := services.TrackFromContext(ctx); !ok || track != 7 {
		t.Fatalf("unexpected track: %v %v", track, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithTrack(ctx, 0)
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.TrackFromContext(ctx); ok {
		t.Fatal("expected no track value")
	}
}
