package main

import (
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
)

func TestBuildRegistryCoversEveryKind(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.StockMedia.APIKey = "test-key"
	cfg.TTS.APIKey = "test-key"
	cfg.TTS.Voice = "test-voice"

	registry, err := buildRegistry(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}

	for _, kind := range pipeline.Kinds() {
		sequence, err := registry.Sequence(kind)
		if err != nil {
			t.Fatalf("Sequence(%s): %v", kind, err)
		}
		for _, stage := range sequence {
			if _, ok := registry.Executor(kind, stage); !ok {
				t.Errorf("kind %s stage %s has no executor", kind, stage)
			}
		}
	}
}

func TestBuildRegistryRequiresStockMediaKey(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.TTS.APIKey = "test-key"
	cfg.TTS.Voice = "test-voice"

	if _, err := buildRegistry(&cfg, logging.NewNop()); err == nil {
		t.Fatal("expected missing stock media credentials to fail")
	}
}
