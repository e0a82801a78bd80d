package renderer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/logging"
)

func writeFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fixture"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRenderBuildsConcatAndFinalizesOutput(t *testing.T) {
	workDir := t.TempDir()
	clipA := writeFixture(t, workDir, "clip-a.mp4")
	clipB := writeFixture(t, workDir, "clip-b.mp4")
	audio := writeFixture(t, workDir, "narration.mp3")
	outputPath := filepath.Join(workDir, "final", "video.mp4")

	r := New(Config{Quality: "medium"}, logging.NewNop())
	var gotArgs []string
	r.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != "ffmpeg" {
			t.Fatalf("command = %q", name)
		}
		gotArgs = args
		// The runner writes the temp output like ffmpeg would.
		return os.WriteFile(args[len(args)-1], []byte("video"), 0o644)
	})

	result, err := r.Render(context.Background(), Request{
		WorkDir:    workDir,
		ClipPaths:  []string{clipA, clipB},
		AudioPath:  audio,
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.OutputPath != outputPath {
		t.Fatalf("output = %q", result.OutputPath)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Fatalf("final output missing: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-f concat") {
		t.Fatalf("args missing concat input: %v", gotArgs)
	}
	if !strings.Contains(joined, "-crf 26") {
		t.Fatalf("args missing medium quality crf: %v", gotArgs)
	}
	if !strings.Contains(joined, audio) {
		t.Fatalf("args missing audio input: %v", gotArgs)
	}
	// Concat list is cleaned up after the run.
	if _, err := os.Stat(filepath.Join(workDir, "concat.txt")); !os.IsNotExist(err) {
		t.Fatal("concat list left behind")
	}
}

func TestRenderFailureRemovesTempOutput(t *testing.T) {
	workDir := t.TempDir()
	clip := writeFixture(t, workDir, "clip.mp4")
	outputPath := filepath.Join(workDir, "video.mp4")

	r := New(Config{}, logging.NewNop())
	r.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return context.DeadlineExceeded
	})

	if _, err := r.Render(context.Background(), Request{
		WorkDir:    workDir,
		ClipPaths:  []string{clip},
		OutputPath: outputPath,
	}); err == nil {
		t.Fatal("expected render error")
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".render-") {
			t.Fatalf("temp output left behind: %s", entry.Name())
		}
	}
}

func TestRenderValidatesInputs(t *testing.T) {
	r := New(Config{}, logging.NewNop())
	if _, err := r.Render(context.Background(), Request{}); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := r.Render(context.Background(), Request{
		WorkDir:    t.TempDir(),
		ClipPaths:  []string{"/nonexistent/clip.mp4"},
		OutputPath: "/tmp/out.mp4",
	}); err == nil {
		t.Fatal("expected missing clip error")
	}
}

func TestUnknownQualityFallsBackToLow(t *testing.T) {
	workDir := t.TempDir()
	clip := writeFixture(t, workDir, "clip.mp4")

	r := New(Config{Quality: "ultra"}, logging.NewNop())
	var gotArgs []string
	r.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		gotArgs = args
		return os.WriteFile(args[len(args)-1], []byte("video"), 0o644)
	})
	if _, err := r.Render(context.Background(), Request{
		WorkDir:    workDir,
		ClipPaths:  []string{clip},
		OutputPath: filepath.Join(workDir, "out.mp4"),
	}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "-crf 32") {
		t.Fatalf("expected low quality crf, got %v", gotArgs)
	}
}
