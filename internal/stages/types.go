package stages

import "context"

// Scene is one entry in the scene plan produced by the scenes stage.
type Scene struct {
	SceneID         int      `json:"scene_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	DurationSeconds float64  `json:"duration_seconds"`
}

// ScenePlan is the scenes stage payload.
type ScenePlan struct {
	Scenes []Scene `json:"scenes"`
}

// ScriptLine is one narration line, tied to a scene.
type ScriptLine struct {
	SceneID   int    `json:"scene_id"`
	Narration string `json:"narration"`
}

// Script is the script stage payload.
type Script struct {
	Lines []ScriptLine `json:"lines"`
}

// Asset is one matched and downloaded visual for a scene.
type Asset struct {
	SceneID   int    `json:"scene_id"`
	Kind      string `json:"kind"` // video or photo
	SourceURL string `json:"source_url"`
	LocalPath string `json:"local_path"`
}

// Overlay is one text overlay produced by the animations stage.
type Overlay struct {
	SceneID      int     `json:"scene_id"`
	Text         string  `json:"text"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// generator is the LLM surface the generation stages depend on.
type generator interface {
	GenerateInto(ctx context.Context, systemPrompt, userPrompt string, target any) error
}
