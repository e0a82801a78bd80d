package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"reelsmith/internal/pipeline"
)

const scenesSystemPrompt = `You are a marketing video planner for pharmaceutical and healthcare brands.
Respond with JSON only, matching this schema exactly:
{"scenes":[{"scene_id":1,"title":"...","description":"...","keywords":["..."],"duration_seconds":5}]}
Produce between 3 and 8 scenes. Keywords must be short stock-footage search terms.`

const scriptSystemPrompt = `You are a narration writer for marketing videos.
Respond with JSON only, matching this schema exactly:
{"lines":[{"scene_id":1,"narration":"..."}]}
Write one narration line per scene, in scene order. Keep each line under 30 words.`

const overlaySystemPrompt = `You design on-screen text overlays for short marketing videos.
Respond with JSON only, matching this schema exactly:
{"overlays":[{"scene_id":1,"text":"...","start_seconds":0,"end_seconds":3}]}
At most one overlay per scene. Overlay text must be under 8 words.`

// kindBriefs steer the scene planner per video kind, mirroring the distinct
// generation paths each kind historically had.
var kindBriefs = map[pipeline.Kind]string{
	pipeline.KindProductAd:         "Plan a consumer-facing product advertisement. Use the topic, brand_name, and region inputs.",
	pipeline.KindMechanismOfAction: "Plan a mechanism-of-action explainer. Use the drug_name, condition, and target_audience inputs; default the audience to healthcare professionals.",
	pipeline.KindDoctorAd:          "Plan an advertisement aimed at prescribing physicians. Use the drug_name, indication, moa_summary, and clinical_data inputs.",
	pipeline.KindSocialMediaClip:   "Plan a short social media clip. Use the drug_name, indication, and key_benefit inputs; default the audience to patients.",
	pipeline.KindComplianceVideo:   "Plan an internal compliance training video. Use the prompt and reference_docs inputs.",
}

func scenesUserPrompt(req pipeline.Request) string {
	var builder strings.Builder
	brief, ok := kindBriefs[req.Kind]
	if !ok {
		brief = "Plan a marketing video."
	}
	builder.WriteString(brief)
	builder.WriteString("\n\nInputs:\n")
	builder.WriteString(encodeInputs(req.Inputs))
	if req.Feedback != "" {
		fmt.Fprintf(&builder, "\n\nOperator feedback on the previous version: %s", req.Feedback)
	}
	return builder.String()
}

func scriptUserPrompt(req pipeline.Request, plan ScenePlan) string {
	var builder strings.Builder
	persona := stringInput(req.Inputs, "persona", "professional narrator")
	tone := stringInput(req.Inputs, "tone", "clear and engaging")
	fmt.Fprintf(&builder, "Write narration as a %s with a %s tone for these scenes:\n", persona, tone)
	builder.WriteString(encodeJSON(plan))
	if docs := stringInput(req.Inputs, "reference_docs", ""); docs != "" {
		builder.WriteString("\n\nReference material:\n")
		builder.WriteString(docs)
	}
	if req.Feedback != "" {
		fmt.Fprintf(&builder, "\n\nOperator feedback on the previous version: %s", req.Feedback)
	}
	return builder.String()
}

func overlayUserPrompt(req pipeline.Request, plan ScenePlan, script Script) string {
	var builder strings.Builder
	builder.WriteString("Design overlays for these scenes and narration:\n")
	builder.WriteString(encodeJSON(map[string]any{"scenes": plan.Scenes, "lines": script.Lines}))
	if req.Feedback != "" {
		fmt.Fprintf(&builder, "\n\nOperator feedback on the previous version: %s", req.Feedback)
	}
	return builder.String()
}

func encodeInputs(inputs map[string]any) string {
	if len(inputs) == 0 {
		return "{}"
	}
	return encodeJSON(inputs)
}

func encodeJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}

func stringInput(inputs map[string]any, key, fallback string) string {
	if value, ok := inputs[key].(string); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
