package stages

import (
	"context"
	"path/filepath"
	"sort"

	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/services/renderer"
)

// videoRenderer is the assembly surface the render stage depends on.
type videoRenderer interface {
	Render(ctx context.Context, req renderer.Request) (renderer.Result, error)
}

// NewRenderExecutor assembles the accepted visuals and narration into the
// final video. The output carries the artifact path the pipeline completes
// with.
func NewRenderExecutor(r videoRenderer) pipeline.ExecutorFn {
	return func(ctx context.Context, req pipeline.Request) (pipeline.Output, error) {
		assets, err := priorField[[]Asset](req.Prior, pipeline.StageVisuals, "assets")
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageRender), "inputs", err.Error(), nil)
		}
		if len(assets) == 0 {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageRender), "inputs",
				"accepted visuals contain no assets", nil)
		}

		// Narration is optional: a session whose tts stage is absent from the
		// sequence would have no audio, but every current sequence carries it.
		var audioPath string
		if ttsOutput, ok := req.Prior[pipeline.StageTTS]; ok {
			if path, err := decodeField[string](ttsOutput, "audio_path"); err == nil {
				audioPath = path
			}
		}

		sorted := append([]Asset(nil), assets...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].SceneID < sorted[j].SceneID })
		clips := make([]string, 0, len(sorted))
		for _, asset := range sorted {
			clips = append(clips, asset.LocalPath)
		}

		outputPath := filepath.Join(req.WorkDir, "final.mp4")
		result, err := r.Render(ctx, renderer.Request{
			WorkDir:    req.WorkDir,
			ClipPaths:  clips,
			AudioPath:  audioPath,
			OutputPath: outputPath,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, string(pipeline.StageRender), "render",
				"final assembly failed", err)
		}
		return pipeline.Output{
			"status":              "complete",
			pipeline.ArtifactKey:  result.OutputPath,
			"render_duration_sec": result.Duration.Seconds(),
		}, nil
	}
}
