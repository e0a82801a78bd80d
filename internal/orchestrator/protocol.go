package orchestrator

import (
	"encoding/json"
	"fmt"

	"reelsmith/internal/pipeline"
)

// Command actions accepted from the operator.
const (
	ActionStart      = "start"
	ActionAccept     = "accept"
	ActionRegenerate = "regenerate"
	ActionStop       = "stop"
)

// Command is one inbound operator message.
type Command struct {
	Action   string         `json:"action"`
	Kind     string         `json:"kind,omitempty"`
	Inputs   map[string]any `json:"inputs,omitempty"`
	Feedback string         `json:"feedback,omitempty"`
}

// ParseCommand decodes a raw inbound message.
func ParseCommand(raw []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Command{}, fmt.Errorf("malformed command: %w", err)
	}
	if cmd.Action == "" {
		return Command{}, fmt.Errorf("command is missing an action")
	}
	return cmd, nil
}

// Event types emitted to the operator.
const (
	EventSessionStarted   = "session_started"
	EventStageRunning     = "stage_running"
	EventStageCompleted   = "stage_completed"
	EventStageFailed      = "stage_failed"
	EventPipelineComplete = "pipeline_complete"
	EventSessionStopped   = "session_stopped"
	EventProtocolError    = "protocol_error"
	EventFatalError       = "fatal_error"
)

// Progress reports the 1-based position of the current stage within the
// session's sequence.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Event is one outbound message. Fields are populated per event type.
type Event struct {
	Type            string             `json:"event"`
	SessionID       string             `json:"session_id,omitempty"`
	Kind            pipeline.Kind      `json:"kind,omitempty"`
	StageSequence   []pipeline.StageID `json:"stage_sequence,omitempty"`
	CurrentStage    pipeline.StageID   `json:"current_stage,omitempty"`
	Stage           pipeline.StageID   `json:"stage,omitempty"`
	Version         int                `json:"version,omitempty"`
	Output          pipeline.Output    `json:"output,omitempty"`
	Error           string             `json:"error,omitempty"`
	AllowedCommands []string           `json:"allowed_commands,omitempty"`
	Progress        *Progress          `json:"progress,omitempty"`
	ArtifactPath    string             `json:"artifact_path,omitempty"`
	Description     string             `json:"description,omitempty"`
}

// EventSink delivers events to the operator. Implementations must be safe
// for use from multiple goroutines; the orchestrator serializes its own
// sends but hooks may log through the same connection.
type EventSink interface {
	Send(event Event) error
}
