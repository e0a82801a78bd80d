package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/session"
)

// PipelineResult summarizes a completed run for completion hooks.
type PipelineResult struct {
	SessionID    string
	Kind         pipeline.Kind
	Inputs       map[string]any
	ArtifactPath string
	Duration     time.Duration
}

// StageFailure summarizes a failed stage attempt for failure hooks.
type StageFailure struct {
	SessionID string
	Kind      pipeline.Kind
	Stage     pipeline.StageID
	Version   int
	Message   string
}

// SessionStop summarizes an operator-stopped session for stop hooks.
type SessionStop struct {
	SessionID string
	Kind      pipeline.Kind
	Stage     pipeline.StageID
}

// Hooks are optional callbacks fired outside the command path.
type Hooks struct {
	PipelineComplete func(ctx context.Context, result PipelineResult)
	StageFailed      func(ctx context.Context, failure StageFailure)
	SessionStopped   func(ctx context.Context, stop SessionStop)
}

// Options configures an Orchestrator.
type Options struct {
	Registry *pipeline.Registry
	Sink     EventSink
	Logger   *slog.Logger

	// WorkDirFor maps a session ID to the directory stage executors write
	// into. Optional; executors receive an empty WorkDir when unset.
	WorkDirFor func(sessionID string) string

	Hooks Hooks
}

// Orchestrator owns one session for one transport channel.
type Orchestrator struct {
	registry   *pipeline.Registry
	sink       EventSink
	logger     *slog.Logger
	workDirFor func(string) string
	hooks      Hooks

	mu       sync.Mutex
	sess     *session.Session
	inflight *dispatch
	closed   bool
}

// dispatch tracks the single in-flight stage execution.
type dispatch struct {
	stage    pipeline.StageID
	version  int
	feedback string
	cancel   context.CancelFunc
}

// New constructs an orchestrator for one channel.
func New(opts Options) (*Orchestrator, error) {
	if opts.Registry == nil {
		return nil, errors.New("orchestrator requires a stage registry")
	}
	if opts.Sink == nil {
		return nil, errors.New("orchestrator requires an event sink")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		registry:   opts.Registry,
		sink:       opts.Sink,
		logger:     logging.NewComponentLogger(logger, "orchestrator"),
		workDirFor: opts.WorkDirFor,
		hooks:      opts.Hooks,
	}, nil
}

// HandleMessage parses one inbound message and applies the resulting command.
// Parse failures and invalid-for-state commands emit an error event and leave
// the session untouched.
func (o *Orchestrator) HandleMessage(raw []byte) {
	cmd, err := ParseCommand(raw)
	if err != nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.emit(Event{
			Type:            EventProtocolError,
			Description:     err.Error(),
			AllowedCommands: o.allowedCommandsLocked(),
		})
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	switch cmd.Action {
	case ActionStart:
		o.handleStartLocked(cmd)
	case ActionAccept:
		o.handleAcceptLocked()
	case ActionRegenerate:
		o.handleRegenerateLocked(cmd.Feedback)
	case ActionStop:
		o.handleStopLocked()
	default:
		o.emit(Event{
			Type:            EventProtocolError,
			Description:     "unknown action " + cmd.Action,
			AllowedCommands: o.allowedCommandsLocked(),
		})
	}
}

// HandleDisconnect discards the session and marks any in-flight result for
// silent disposal. No event is emitted; the channel is gone.
func (o *Orchestrator) HandleDisconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	if o.inflight != nil {
		o.inflight.cancel()
		o.inflight = nil
	}
	if o.sess != nil {
		o.logger.Info("session discarded on disconnect",
			logging.String(logging.FieldSessionID, o.sess.ID()),
			logging.String(logging.FieldEventType, "session_discarded"),
		)
	}
	o.sess = nil
}

func (o *Orchestrator) handleStartLocked(cmd Command) {
	if o.sess != nil {
		o.rejectLocked("session already exists on this channel")
		return
	}

	// The original creator protocol treats a missing kind as a product ad.
	kindValue := cmd.Kind
	if kindValue == "" {
		kindValue = string(pipeline.KindProductAd)
	}
	kind, err := pipeline.ParseKind(kindValue)
	if err != nil {
		o.emit(Event{
			Type:            EventProtocolError,
			Description:     err.Error(),
			AllowedCommands: o.allowedCommandsLocked(),
		})
		return
	}

	sequence, err := o.registry.Sequence(kind)
	if err != nil {
		o.fatalLocked("", err)
		return
	}

	inputs := cmd.Inputs
	if inputs == nil {
		inputs = map[string]any{}
	}

	sess, err := session.New(uuid.NewString(), kind, inputs, sequence)
	if err != nil {
		o.fatalLocked("", err)
		return
	}
	o.sess = sess

	currentStage, _ := sess.CurrentStage()
	o.logger.Info("session started",
		logging.String(logging.FieldSessionID, sess.ID()),
		logging.String(logging.FieldKind, string(kind)),
		logging.String(logging.FieldEventType, "session_started"),
		logging.Int("stage_count", len(sequence)),
	)
	o.emit(Event{
		Type:          EventSessionStarted,
		SessionID:     sess.ID(),
		Kind:          kind,
		StageSequence: sequence,
		CurrentStage:  currentStage,
	})

	o.dispatchStageLocked()
}

func (o *Orchestrator) handleAcceptLocked() {
	if o.sess == nil {
		o.rejectLocked("no active session")
		return
	}
	if o.inflight != nil {
		o.rejectLocked("a stage is still running")
		return
	}

	done, err := o.sess.Accept()
	if err != nil {
		o.rejectLocked(err.Error())
		return
	}

	if done {
		artifact := o.sess.FinalArtifact()
		o.logger.Info("pipeline complete",
			logging.String(logging.FieldSessionID, o.sess.ID()),
			logging.String(logging.FieldEventType, "pipeline_complete"),
			logging.String("artifact", artifact),
		)
		o.emit(Event{
			Type:         EventPipelineComplete,
			SessionID:    o.sess.ID(),
			ArtifactPath: artifact,
		})
		if o.hooks.PipelineComplete != nil {
			result := PipelineResult{
				SessionID:    o.sess.ID(),
				Kind:         o.sess.Kind(),
				Inputs:       o.sess.Inputs(),
				ArtifactPath: artifact,
				Duration:     time.Since(o.sess.StartedAt()),
			}
			go o.hooks.PipelineComplete(context.Background(), result)
		}
		return
	}

	o.dispatchStageLocked()
}

func (o *Orchestrator) handleRegenerateLocked(feedback string) {
	if o.sess == nil {
		o.rejectLocked("no active session")
		return
	}
	if o.sess.Status() != session.StatusActive {
		o.rejectLocked(session.ErrNotActive.Error())
		return
	}
	if o.inflight != nil {
		o.rejectLocked("a stage is still running")
		return
	}
	if _, ok := o.sess.CurrentStage(); !ok {
		o.rejectLocked(session.ErrComplete.Error())
		return
	}

	o.sess.SetPendingFeedback(feedback)
	o.dispatchStageLocked()
}

func (o *Orchestrator) handleStopLocked() {
	if o.sess == nil {
		o.rejectLocked("no active session")
		return
	}
	if err := o.sess.Stop(); err != nil {
		o.rejectLocked(err.Error())
		return
	}
	if o.inflight != nil {
		// In-flight result resolves against a stopped session and is discarded.
		o.inflight.cancel()
		o.inflight = nil
	}
	o.logger.Info("session stopped",
		logging.String(logging.FieldSessionID, o.sess.ID()),
		logging.String(logging.FieldEventType, "session_stopped"),
	)
	o.emit(Event{Type: EventSessionStopped, SessionID: o.sess.ID()})

	if o.hooks.SessionStopped != nil {
		stage, _ := o.sess.CurrentStage()
		stop := SessionStop{
			SessionID: o.sess.ID(),
			Kind:      o.sess.Kind(),
			Stage:     stage,
		}
		go o.hooks.SessionStopped(context.Background(), stop)
	}
}

// dispatchStageLocked starts executing the stage at the cursor on its own
// goroutine. Callers hold o.mu and have already verified nothing is in flight.
func (o *Orchestrator) dispatchStageLocked() {
	sess := o.sess
	stage, ok := sess.CurrentStage()
	if !ok {
		o.fatalLocked(sess.ID(), errors.New("dispatch requested past the end of the sequence"))
		return
	}

	executor, ok := o.registry.Executor(sess.Kind(), stage)
	if !ok {
		o.fatalLocked(sess.ID(), services.Wrap(services.ErrConfiguration, string(stage), "dispatch",
			"no executor registered for kind "+string(sess.Kind()), nil))
		return
	}

	version := sess.NextVersion(stage)
	feedback := sess.TakePendingFeedback()

	var workDir string
	if o.workDirFor != nil {
		workDir = o.workDirFor(sess.ID())
	}
	req := pipeline.Request{
		SessionID: sess.ID(),
		Kind:      sess.Kind(),
		WorkDir:   workDir,
		Inputs:    sess.Inputs(),
		Prior:     sess.PriorOutputs(),
		Feedback:  feedback,
		Version:   version,
	}

	ctx := services.WithSessionID(context.Background(), sess.ID())
	ctx = services.WithKind(ctx, string(sess.Kind()))
	ctx = services.WithStage(ctx, string(stage))
	ctx, cancel := context.WithCancel(ctx)

	d := &dispatch{stage: stage, version: version, feedback: feedback, cancel: cancel}
	o.inflight = d

	o.logger.Info("stage dispatched",
		logging.String(logging.FieldSessionID, sess.ID()),
		logging.String(logging.FieldStage, string(stage)),
		logging.Int(logging.FieldVersion, version),
		logging.String(logging.FieldEventType, "stage_dispatch"),
	)
	o.emit(Event{Type: EventStageRunning, Stage: stage, Version: version})

	go func() {
		output, err := executor(ctx, req)
		cancel()
		o.resolveDispatch(d, output, err)
	}()
}

// resolveDispatch records the outcome of a stage execution, unless the
// session is gone or the dispatch was superseded, in which case the result
// is discarded silently.
func (o *Orchestrator) resolveDispatch(d *dispatch, output pipeline.Output, execErr error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.sess == nil || o.sess.Status() != session.StatusActive || o.inflight != d {
		o.logger.Debug("discarding stage result for dead session",
			logging.String(logging.FieldStage, string(d.stage)),
			logging.Int(logging.FieldVersion, d.version),
		)
		return
	}
	o.inflight = nil

	attempt := session.Attempt{
		Version:   d.version,
		Output:    output,
		Feedback:  d.feedback,
		Succeeded: execErr == nil,
	}
	if execErr != nil {
		attempt.ErrorMessage = services.Details(execErr).Message
	}
	if err := o.sess.RecordAttempt(d.stage, attempt); err != nil {
		o.fatalLocked(o.sess.ID(), err)
		return
	}

	current, total := o.sess.Progress()
	if execErr != nil {
		o.logger.Error("stage failed",
			logging.String(logging.FieldSessionID, o.sess.ID()),
			logging.String(logging.FieldStage, string(d.stage)),
			logging.Int(logging.FieldVersion, d.version),
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(execErr),
		)
		o.emit(Event{
			Type:            EventStageFailed,
			Stage:           d.stage,
			Version:         d.version,
			Error:           attempt.ErrorMessage,
			AllowedCommands: []string{ActionRegenerate, ActionStop},
		})
		if o.hooks.StageFailed != nil {
			failure := StageFailure{
				SessionID: o.sess.ID(),
				Kind:      o.sess.Kind(),
				Stage:     d.stage,
				Version:   d.version,
				Message:   attempt.ErrorMessage,
			}
			go o.hooks.StageFailed(context.Background(), failure)
		}
		return
	}

	o.logger.Info("stage completed",
		logging.String(logging.FieldSessionID, o.sess.ID()),
		logging.String(logging.FieldStage, string(d.stage)),
		logging.Int(logging.FieldVersion, d.version),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	o.emit(Event{
		Type:            EventStageCompleted,
		Stage:           d.stage,
		Version:         d.version,
		Output:          output,
		AllowedCommands: []string{ActionAccept, ActionRegenerate, ActionStop},
		Progress:        &Progress{Current: current, Total: total},
	})
}

// rejectLocked reports an invalid-for-state command without touching session
// state.
func (o *Orchestrator) rejectLocked(reason string) {
	o.emit(Event{
		Type:            EventProtocolError,
		Description:     reason,
		AllowedCommands: o.allowedCommandsLocked(),
	})
}

// fatalLocked terminates the session after an orchestrator-level fault.
// Distinct from stage failures, which are recoverable.
func (o *Orchestrator) fatalLocked(sessionID string, err error) {
	o.logger.Error("orchestrator fault",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldEventType, "orchestrator_fault"),
		logging.Error(err),
	)
	if o.sess != nil {
		o.sess.Fail()
	}
	if o.inflight != nil {
		o.inflight.cancel()
		o.inflight = nil
	}
	o.emit(Event{
		Type:        EventFatalError,
		SessionID:   sessionID,
		Description: err.Error(),
	})
}

// allowedCommandsLocked reports the exact command set valid in the current
// state so clients never have to guess.
func (o *Orchestrator) allowedCommandsLocked() []string {
	if o.sess == nil {
		return []string{ActionStart}
	}
	if o.sess.Status() != session.StatusActive {
		return nil
	}
	if o.inflight != nil {
		return []string{ActionStop}
	}
	stage, ok := o.sess.CurrentStage()
	if !ok {
		return nil
	}
	if latest, ok := o.sess.LatestAttempt(stage); ok && latest.Succeeded {
		return []string{ActionAccept, ActionRegenerate, ActionStop}
	}
	return []string{ActionRegenerate, ActionStop}
}

func (o *Orchestrator) emit(event Event) {
	if err := o.sink.Send(event); err != nil {
		o.logger.Warn("event send failed",
			logging.String("event", event.Type),
			logging.Error(err),
			logging.String(logging.FieldEventType, "event_send_failed"),
			logging.String(logging.FieldErrorHint, "client connection may be closing"),
		)
	}
}
