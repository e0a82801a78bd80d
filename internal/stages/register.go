package stages

import (
	"errors"
	"log/slog"

	"reelsmith/internal/pipeline"
	"reelsmith/internal/services/stockmedia"
	"reelsmith/internal/services/tts"
)

// Dependencies carries the service clients the executors run on.
type Dependencies struct {
	Generator  generator
	StockMedia stockmedia.Searcher
	TTS        tts.Synthesizer
	Renderer   videoRenderer
	Logger     *slog.Logger

	// Fetch overrides asset downloading for the visuals stage; optional.
	Fetch fetchFn
}

// NewRegistry wires every stage executor for every video kind. The per-kind
// stage sequences decide which of them actually run.
func NewRegistry(deps Dependencies) (*pipeline.Registry, error) {
	if deps.Generator == nil {
		return nil, errors.New("stage registry requires an LLM generator")
	}
	if deps.StockMedia == nil {
		return nil, errors.New("stage registry requires a stock media searcher")
	}
	if deps.TTS == nil {
		return nil, errors.New("stage registry requires a speech synthesizer")
	}
	if deps.Renderer == nil {
		return nil, errors.New("stage registry requires a renderer")
	}

	reg := pipeline.NewRegistry()
	reg.RegisterForAllKinds(pipeline.StageScenes, NewScenesExecutor(deps.Generator))
	reg.RegisterForAllKinds(pipeline.StageScript, NewScriptExecutor(deps.Generator))
	reg.RegisterForAllKinds(pipeline.StageVisuals, NewVisualsExecutor(VisualsOptions{
		Searcher: deps.StockMedia,
		Logger:   deps.Logger,
		Fetch:    deps.Fetch,
	}))
	reg.RegisterForAllKinds(pipeline.StageAnimations, NewAnimationsExecutor(deps.Generator, deps.Logger))
	reg.RegisterForAllKinds(pipeline.StageTTS, NewTTSExecutor(deps.TTS))
	reg.RegisterForAllKinds(pipeline.StageRender, NewRenderExecutor(deps.Renderer))

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
