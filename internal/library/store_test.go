package library

import (
	"context"
	"path/filepath"
	"testing"

	"reelsmith/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndGetRender(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, Render{
		SessionID:       "sess-1",
		Kind:            pipeline.KindProductAd,
		Title:           "allergy relief",
		ArtifactPath:    "/outputs/sess-1/final.mp4",
		Inputs:          map[string]any{"topic": "allergy relief"},
		DurationSeconds: 42.5,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == 0 || added.CreatedAt.IsZero() {
		t.Fatalf("catalogue entry incomplete: %+v", added)
	}

	got, err := store.GetBySessionID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBySessionID: %v", err)
	}
	if got == nil || got.ArtifactPath != "/outputs/sess-1/final.mp4" {
		t.Fatalf("unexpected render: %+v", got)
	}
	if got.Inputs["topic"] != "allergy relief" {
		t.Fatalf("inputs not round-tripped: %+v", got.Inputs)
	}
}

func TestAddReplacesExistingSession(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, Render{SessionID: "sess-1", Kind: pipeline.KindDoctorAd, ArtifactPath: "/old.mp4"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, Render{SessionID: "sess-1", Kind: pipeline.KindDoctorAd, ArtifactPath: "/new.mp4"}); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	renders, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(renders) != 1 || renders[0].ArtifactPath != "/new.mp4" {
		t.Fatalf("expected replaced entry, got %+v", renders)
	}
}

func TestListFiltersByKind(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, entry := range []Render{
		{SessionID: "a", Kind: pipeline.KindProductAd, ArtifactPath: "/a.mp4"},
		{SessionID: "b", Kind: pipeline.KindSocialMediaClip, ArtifactPath: "/b.mp4"},
		{SessionID: "c", Kind: pipeline.KindProductAd, ArtifactPath: "/c.mp4"},
	} {
		if _, err := store.Add(ctx, entry); err != nil {
			t.Fatalf("Add(%s): %v", entry.SessionID, err)
		}
	}

	renders, err := store.List(ctx, pipeline.KindProductAd)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(renders) != 2 {
		t.Fatalf("filtered count = %d", len(renders))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[pipeline.KindProductAd] != 2 || stats[pipeline.KindSocialMediaClip] != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRemoveAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, Render{SessionID: "a", Kind: pipeline.KindProductAd, ArtifactPath: "/a.mp4"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	removed, err := store.Remove(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	removed, err = store.Remove(ctx, "a")
	if err != nil || removed {
		t.Fatalf("second Remove = %v, %v", removed, err)
	}

	if _, err := store.Add(ctx, Render{SessionID: "b", Kind: pipeline.KindProductAd, ArtifactPath: "/b.mp4"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	cleared, err := store.Clear(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("Clear = %d, %v", cleared, err)
	}
}

func TestAddValidatesRequiredFields(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Add(context.Background(), Render{Kind: pipeline.KindProductAd, ArtifactPath: "/a.mp4"}); err == nil {
		t.Fatal("expected missing session id error")
	}
	if _, err := store.Add(context.Background(), Render{SessionID: "x", Kind: pipeline.KindProductAd}); err == nil {
		t.Fatal("expected missing artifact error")
	}
}
