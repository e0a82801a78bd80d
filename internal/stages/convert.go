package stages

import (
	"encoding/json"
	"fmt"

	"reelsmith/internal/pipeline"
)

// decodeField extracts a typed value from a stage output entry. Outputs stay
// in memory for the session's lifetime so values usually carry their original
// types; the JSON round trip covers payloads that were rehydrated from maps.
func decodeField[T any](output pipeline.Output, key string) (T, error) {
	var result T
	value, ok := output[key]
	if !ok {
		return result, fmt.Errorf("stage output missing %q", key)
	}
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return result, fmt.Errorf("encode %q payload: %w", key, err)
	}
	if err := json.Unmarshal(encoded, &result); err != nil {
		return result, fmt.Errorf("decode %q payload: %w", key, err)
	}
	return result, nil
}

func priorField[T any](prior map[pipeline.StageID]pipeline.Output, stage pipeline.StageID, key string) (T, error) {
	var result T
	output, ok := prior[stage]
	if !ok {
		return result, fmt.Errorf("missing accepted %s output", stage)
	}
	return decodeField[T](output, key)
}
