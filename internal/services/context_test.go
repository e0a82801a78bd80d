package services_test

import (
	"context"
	"testing"

	"reelsmith/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "sess-1")
	ctx = services.WithStage(ctx, "scenes")
	ctx = services.WithKind(ctx, "product-ad")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sess-1" {
		t.Fatalf("session id = %q, ok=%v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "scenes" {
		t.Fatalf("stage = %q, ok=%v", stage, ok)
	}
	if kind, ok := services.KindFromContext(ctx); !ok || kind != "product-ad" {
		t.Fatalf("kind = %q, ok=%v", kind, ok)
	}
}

func TestContextIgnoresEmptyValues(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage for empty value")
	}
}
