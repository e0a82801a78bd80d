package stages

import (
	"context"
	"path/filepath"
	"strings"

	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/services/tts"
)

// NewTTSExecutor synthesizes the accepted script into one narration track in
// the session work directory.
func NewTTSExecutor(synth tts.Synthesizer) pipeline.ExecutorFn {
	return func(ctx context.Context, req pipeline.Request) (pipeline.Output, error) {
		lines, err := priorField[[]ScriptLine](req.Prior, pipeline.StageScript, "lines")
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageTTS), "inputs", err.Error(), nil)
		}

		narration := joinNarration(lines)
		if narration == "" {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageTTS), "inputs",
				"accepted script has no narration text", nil)
		}

		audioPath := filepath.Join(req.WorkDir, "audio", "narration.mp3")
		if err := synth.Synthesize(ctx, narration, audioPath); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, string(pipeline.StageTTS), "synthesize",
				"narration synthesis failed", err)
		}
		return pipeline.Output{
			"status":     "complete",
			"audio_path": audioPath,
			"line_count": len(lines),
		}, nil
	}
}

func joinNarration(lines []ScriptLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line.Narration); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}
