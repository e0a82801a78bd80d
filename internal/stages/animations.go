package stages

import (
	"context"
	"log/slog"

	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
)

// NewAnimationsExecutor designs text overlays for the kinds whose sequence
// includes the animations stage. Overlay generation is decorative: when the
// model fails, the stage reports itself skipped instead of failing the
// session, matching how the pipeline has always treated this stage.
func NewAnimationsExecutor(gen generator, logger *slog.Logger) pipeline.ExecutorFn {
	log := logging.NewComponentLogger(logger, "animations")
	return func(ctx context.Context, req pipeline.Request) (pipeline.Output, error) {
		scenes, scenesErr := priorField[[]Scene](req.Prior, pipeline.StageScenes, "scenes")
		lines, linesErr := priorField[[]ScriptLine](req.Prior, pipeline.StageScript, "lines")
		if scenesErr != nil || linesErr != nil {
			return skippedOverlays(log, req, "missing accepted scenes or script"), nil
		}

		var payload struct {
			Overlays []Overlay `json:"overlays"`
		}
		prompt := overlayUserPrompt(req, ScenePlan{Scenes: scenes}, Script{Lines: lines})
		if err := gen.GenerateInto(ctx, overlaySystemPrompt, prompt, &payload); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return skippedOverlays(log, req, err.Error()), nil
		}
		return pipeline.Output{
			"status":        "complete",
			"overlays":      payload.Overlays,
			"overlay_count": len(payload.Overlays),
		}, nil
	}
}

func skippedOverlays(log *slog.Logger, req pipeline.Request, reason string) pipeline.Output {
	log.Warn("overlay generation skipped",
		logging.String(logging.FieldSessionID, req.SessionID),
		logging.String("reason", reason),
	)
	return pipeline.Output{
		"status":        "skipped",
		"message":       "overlays skipped: " + reason,
		"overlays":      []Overlay{},
		"overlay_count": 0,
	}
}
