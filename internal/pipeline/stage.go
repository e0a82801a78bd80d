package pipeline

import (
	"fmt"
	"strings"
)

// StageID identifies one step of the content pipeline.
type StageID string

const (
	StageScenes     StageID = "scenes"
	StageScript     StageID = "script"
	StageVisuals    StageID = "visuals"
	StageAnimations StageID = "animations"
	StageTTS        StageID = "tts"
	StageRender     StageID = "render"
)

// StageIDs returns every stage identifier in canonical pipeline order.
func StageIDs() []StageID {
	return []StageID{StageScenes, StageScript, StageVisuals, StageAnimations, StageTTS, StageRender}
}

// ParseStage validates a wire value and returns the matching StageID.
func ParseStage(value string) (StageID, error) {
	candidate := StageID(strings.ToLower(strings.TrimSpace(value)))
	for _, stage := range StageIDs() {
		if candidate == stage {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", value)
}

var stageLabels = map[StageID]string{
	StageScenes:     "Scene Planning",
	StageScript:     "Script",
	StageVisuals:    "Visuals",
	StageAnimations: "Animations",
	StageTTS:        "Narration Audio",
	StageRender:     "Render",
}

// Label returns a human-readable name for the stage.
func (s StageID) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}
