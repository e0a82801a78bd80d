package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/logging"
)

const defaultCommand = "ffmpeg"

// quality maps to the encoder CRF: lower CRF is higher fidelity.
var qualityCRF = map[string]string{
	"low":    "32",
	"medium": "26",
	"high":   "20",
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// Config captures the render tool settings.
type Config struct {
	Command        string
	Quality        string
	TimeoutSeconds int
}

// Request describes the inputs for final video assembly.
type Request struct {
	WorkDir    string   // Session work directory; the concat list is written here
	ClipPaths  []string // Visual and animation clips in playback order
	AudioPath  string   // Narration track, optional
	OutputPath string   // Final video destination
}

// Result reports the outcome of a render.
type Result struct {
	OutputPath string
	Duration   time.Duration
}

// Renderer assembles stage outputs into the final video using ffmpeg.
type Renderer struct {
	cfg    Config
	logger *slog.Logger
	run    commandRunner
}

// New constructs a renderer.
func New(cfg Config, logger *slog.Logger) *Renderer {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = defaultCommand
	}
	if _, ok := qualityCRF[cfg.Quality]; !ok {
		cfg.Quality = "low"
	}
	return &Renderer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "renderer"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Renderer) WithCommandRunner(run commandRunner) {
	if r != nil && run != nil {
		r.run = run
	}
}

// Available reports whether the render binary can be found on PATH.
func (r *Renderer) Available() error {
	if _, err := exec.LookPath(r.cfg.Command); err != nil {
		return fmt.Errorf("render binary %q not found: %w", r.cfg.Command, err)
	}
	return nil
}

// Render concatenates the clips, overlays the narration track, and writes the
// final video. The operation is atomic: output lands under a temporary name
// and is renamed on success.
func (r *Renderer) Render(ctx context.Context, req Request) (Result, error) {
	if r == nil {
		return Result{}, errors.New("renderer not initialized")
	}
	if strings.TrimSpace(req.WorkDir) == "" {
		return Result{}, errors.New("work directory is required")
	}
	if len(req.ClipPaths) == 0 {
		return Result{}, errors.New("at least one clip is required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return Result{}, errors.New("output path is required")
	}
	for _, clip := range req.ClipPaths {
		if _, err := os.Stat(clip); err != nil {
			return Result{}, fmt.Errorf("clip not found %q: %w", clip, err)
		}
	}
	if req.AudioPath != "" {
		if _, err := os.Stat(req.AudioPath); err != nil {
			return Result{}, fmt.Errorf("audio track not found: %w", err)
		}
	}

	listPath, err := r.writeConcatList(req)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(listPath)

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}
	tmpPath := filepath.Join(filepath.Dir(req.OutputPath), ".render-"+filepath.Base(req.OutputPath)+".tmp")

	args := r.buildArgs(listPath, req.AudioPath, tmpPath)
	r.logger.Debug("executing render",
		logging.String("command", r.cfg.Command),
		logging.Int("clip_count", len(req.ClipPaths)),
		logging.String("quality", r.cfg.Quality),
	)

	if r.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	renderStart := time.Now()
	if err := r.run(ctx, r.cfg.Command, args...); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, fmt.Errorf("render failed: %w", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return Result{}, fmt.Errorf("render produced no output: %w", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, fmt.Errorf("finalize output: %w", err)
	}

	elapsed := time.Since(renderStart)
	r.logger.Info("render complete",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", req.OutputPath),
		logging.Duration("elapsed", elapsed),
	)
	return Result{OutputPath: req.OutputPath, Duration: elapsed}, nil
}

// writeConcatList produces the ffmpeg concat demuxer input file.
func (r *Renderer) writeConcatList(req Request) (string, error) {
	var builder strings.Builder
	for _, clip := range req.ClipPaths {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return "", fmt.Errorf("resolve clip path: %w", err)
		}
		builder.WriteString("file '")
		builder.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		builder.WriteString("'\n")
	}
	listPath := filepath.Join(req.WorkDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(builder.String()), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}
	return listPath, nil
}

func (r *Renderer) buildArgs(listPath, audioPath, outputPath string) []string {
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	if audioPath != "" {
		args = append(args, "-i", audioPath, "-map", "0:v", "-map", "1:a", "-shortest")
	}
	args = append(args,
		"-c:v", "libx264",
		"-crf", qualityCRF[r.cfg.Quality],
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-f", "mp4",
		outputPath,
	)
	return args
}

// defaultCommandRunner executes render commands.
func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		snippet := strings.TrimSpace(string(output))
		if len(snippet) > 512 {
			snippet = snippet[len(snippet)-512:]
		}
		return fmt.Errorf("%s: %w (%s)", name, err, snippet)
	}
	return nil
}
