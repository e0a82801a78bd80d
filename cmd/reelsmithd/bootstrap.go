package main

import (
	"fmt"

	"log/slog"

	"reelsmith/internal/config"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/services/renderer"
	"reelsmith/internal/services/stockmedia"
	"reelsmith/internal/services/tts"
	"reelsmith/internal/stages"
)

// buildRegistry constructs the service clients from configuration and wires
// them into a validated stage registry.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*pipeline.Registry, error) {
	generator := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	searcher, err := stockmedia.New(cfg.StockMedia.APIKey, cfg.StockMedia.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("stock media client: %w", err)
	}

	synthesizer, err := tts.New(tts.Config{
		APIKey:  cfg.TTS.APIKey,
		BaseURL: cfg.TTS.BaseURL,
		VoiceID: cfg.TTS.Voice,
	})
	if err != nil {
		return nil, fmt.Errorf("tts client: %w", err)
	}

	videoRenderer := renderer.New(renderer.Config{
		Command:        cfg.Render.Command,
		Quality:        cfg.Render.Quality,
		TimeoutSeconds: cfg.Render.TimeoutSeconds,
	}, logger)

	return stages.NewRegistry(stages.Dependencies{
		Generator:  generator,
		StockMedia: searcher,
		TTS:        synthesizer,
		Renderer:   videoRenderer,
		Logger:     logger,
	})
}
