package session

import (
	"errors"
	"fmt"
	"time"

	"reelsmith/internal/pipeline"
)

// Status describes the session lifecycle.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
	StatusFailed    Status = "failed"
)

var (
	// ErrNotActive reports a command issued against a terminal session.
	ErrNotActive = errors.New("session is not active")
	// ErrNoAttempt reports an accept with nothing recorded for the current stage.
	ErrNoAttempt = errors.New("no attempt recorded for current stage")
	// ErrAttemptFailed reports an accept while the latest attempt failed.
	ErrAttemptFailed = errors.New("latest attempt for current stage failed")
	// ErrComplete reports stage operations after the cursor passed the last stage.
	ErrComplete = errors.New("pipeline already complete")
)

// Attempt is one execution of a stage.
type Attempt struct {
	Version      int
	Output       pipeline.Output
	Feedback     string
	Succeeded    bool
	ErrorMessage string
	FinishedAt   time.Time
}

// Session is the root entity for one workflow run.
type Session struct {
	id       string
	kind     pipeline.Kind
	inputs   map[string]any
	sequence []pipeline.StageID

	cursor          int
	history         map[pipeline.StageID][]Attempt
	status          Status
	pendingFeedback string
	startedAt       time.Time
}

// New creates an active session positioned at the first stage.
func New(id string, kind pipeline.Kind, inputs map[string]any, sequence []pipeline.StageID) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}
	if len(sequence) == 0 {
		return nil, fmt.Errorf("kind %s has no stage sequence", kind)
	}
	return &Session{
		id:        id,
		kind:      kind,
		inputs:    inputs,
		sequence:  append([]pipeline.StageID(nil), sequence...),
		history:   make(map[pipeline.StageID][]Attempt, len(sequence)),
		status:    StatusActive,
		startedAt: time.Now().UTC(),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Kind() pipeline.Kind { return s.kind }

func (s *Session) Inputs() map[string]any { return s.inputs }

// Sequence returns a copy of the ordered stage list.
func (s *Session) Sequence() []pipeline.StageID {
	return append([]pipeline.StageID(nil), s.sequence...)
}

func (s *Session) Status() Status { return s.status }

func (s *Session) StartedAt() time.Time { return s.startedAt }

// Cursor returns the index of the stage awaiting a decision. It equals
// len(sequence) once the pipeline is complete.
func (s *Session) Cursor() int { return s.cursor }

// CurrentStage returns the stage at the cursor, or false when complete.
func (s *Session) CurrentStage() (pipeline.StageID, bool) {
	if s.cursor >= len(s.sequence) {
		return "", false
	}
	return s.sequence[s.cursor], true
}

// Progress reports the 1-based position of the current stage and the total
// stage count.
func (s *Session) Progress() (current, total int) {
	current = s.cursor + 1
	if current > len(s.sequence) {
		current = len(s.sequence)
	}
	return current, len(s.sequence)
}

// NextVersion returns the version the next attempt of a stage must carry.
// Versions start at 1, never reset, and never reuse a number.
func (s *Session) NextVersion(stage pipeline.StageID) int {
	return len(s.history[stage]) + 1
}

// LatestAttempt returns the most recent attempt for a stage.
func (s *Session) LatestAttempt(stage pipeline.StageID) (Attempt, bool) {
	attempts := s.history[stage]
	if len(attempts) == 0 {
		return Attempt{}, false
	}
	return attempts[len(attempts)-1], true
}

// Attempts returns a copy of the attempt history for a stage.
func (s *Session) Attempts(stage pipeline.StageID) []Attempt {
	return append([]Attempt(nil), s.history[stage]...)
}

// RecordAttempt appends a resolved attempt for a stage. The version must be
// the one handed out by NextVersion when the attempt was dispatched.
func (s *Session) RecordAttempt(stage pipeline.StageID, attempt Attempt) error {
	if s.status != StatusActive {
		return ErrNotActive
	}
	if want := s.NextVersion(stage); attempt.Version != want {
		return fmt.Errorf("attempt version %d for stage %s, want %d", attempt.Version, stage, want)
	}
	if attempt.FinishedAt.IsZero() {
		attempt.FinishedAt = time.Now().UTC()
	}
	s.history[stage] = append(s.history[stage], attempt)
	return nil
}

// Accept advances the cursor past the current stage. It is valid only while
// active and only when the latest attempt for the current stage succeeded.
// The boolean result reports whether the pipeline is now complete.
func (s *Session) Accept() (bool, error) {
	if s.status != StatusActive {
		return false, ErrNotActive
	}
	stage, ok := s.CurrentStage()
	if !ok {
		return false, ErrComplete
	}
	latest, ok := s.LatestAttempt(stage)
	if !ok {
		return false, ErrNoAttempt
	}
	if !latest.Succeeded {
		return false, ErrAttemptFailed
	}
	s.cursor++
	s.pendingFeedback = ""
	if s.cursor == len(s.sequence) {
		s.status = StatusCompleted
		return true, nil
	}
	return false, nil
}

// SetPendingFeedback stores the operator note for the next regeneration.
func (s *Session) SetPendingFeedback(feedback string) {
	s.pendingFeedback = feedback
}

// TakePendingFeedback returns the stored feedback and clears it.
func (s *Session) TakePendingFeedback() string {
	feedback := s.pendingFeedback
	s.pendingFeedback = ""
	return feedback
}

// PriorOutputs collects the latest successful output of every stage before
// the cursor, keyed by stage.
func (s *Session) PriorOutputs() map[pipeline.StageID]pipeline.Output {
	outputs := make(map[pipeline.StageID]pipeline.Output, s.cursor)
	for i := 0; i < s.cursor && i < len(s.sequence); i++ {
		stage := s.sequence[i]
		if latest, ok := s.LatestAttempt(stage); ok && latest.Succeeded {
			outputs[stage] = latest.Output
		}
	}
	return outputs
}

// FinalArtifact returns the render stage's reported artifact location once
// the pipeline completed.
func (s *Session) FinalArtifact() string {
	latest, ok := s.LatestAttempt(pipeline.StageRender)
	if !ok || !latest.Succeeded {
		return ""
	}
	if path, ok := latest.Output[pipeline.ArtifactKey].(string); ok {
		return path
	}
	return ""
}

// Stop marks the session stopped. Valid only from active.
func (s *Session) Stop() error {
	if s.status != StatusActive {
		return ErrNotActive
	}
	s.status = StatusStopped
	return nil
}

// Fail marks the session failed after an unrecoverable orchestrator fault.
func (s *Session) Fail() {
	if s.status == StatusActive {
		s.status = StatusFailed
	}
}
