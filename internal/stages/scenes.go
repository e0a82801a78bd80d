package stages

import (
	"context"
	"fmt"

	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
)

// NewScenesExecutor plans the video's scene structure from the session inputs.
func NewScenesExecutor(gen generator) pipeline.ExecutorFn {
	return func(ctx context.Context, req pipeline.Request) (pipeline.Output, error) {
		var plan ScenePlan
		if err := gen.GenerateInto(ctx, scenesSystemPrompt, scenesUserPrompt(req), &plan); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, string(pipeline.StageScenes), "generate",
				"scene generation failed", err)
		}
		if len(plan.Scenes) == 0 {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageScenes), "generate",
				"model returned an empty scene plan", nil)
		}
		for i := range plan.Scenes {
			if plan.Scenes[i].SceneID == 0 {
				plan.Scenes[i].SceneID = i + 1
			}
			if plan.Scenes[i].DurationSeconds <= 0 {
				plan.Scenes[i].DurationSeconds = 5
			}
		}
		return pipeline.Output{
			"scenes":      plan.Scenes,
			"scene_count": len(plan.Scenes),
		}, nil
	}
}

// NewScriptExecutor writes one narration line per accepted scene.
func NewScriptExecutor(gen generator) pipeline.ExecutorFn {
	return func(ctx context.Context, req pipeline.Request) (pipeline.Output, error) {
		scenes, err := priorField[[]Scene](req.Prior, pipeline.StageScenes, "scenes")
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageScript), "inputs", err.Error(), nil)
		}

		var script Script
		if err := gen.GenerateInto(ctx, scriptSystemPrompt, scriptUserPrompt(req, ScenePlan{Scenes: scenes}), &script); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, string(pipeline.StageScript), "generate",
				"script generation failed", err)
		}
		if len(script.Lines) == 0 {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageScript), "generate",
				"model returned an empty script", nil)
		}
		if len(script.Lines) != len(scenes) {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageScript), "generate",
				fmt.Sprintf("script has %d lines for %d scenes", len(script.Lines), len(scenes)), nil)
		}
		return pipeline.Output{
			"lines":      script.Lines,
			"line_count": len(script.Lines),
		}, nil
	}
}
