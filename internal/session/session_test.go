package session_test

import (
	"errors"
	"testing"

	"reelsmith/internal/pipeline"
	"reelsmith/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	reg := pipeline.NewRegistry()
	sequence, err := reg.Sequence(pipeline.KindProductAd)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	sess, err := session.New("sess-1", pipeline.KindProductAd, map[string]any{"topic": "demo"}, sequence)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sess
}

func recordSuccess(t *testing.T, sess *session.Session, stage pipeline.StageID, output pipeline.Output) {
	t.Helper()
	err := sess.RecordAttempt(stage, session.Attempt{
		Version:   sess.NextVersion(stage),
		Output:    output,
		Succeeded: true,
	})
	if err != nil {
		t.Fatalf("RecordAttempt(%s): %v", stage, err)
	}
}

func TestAcceptAdvancesCursorThroughPipeline(t *testing.T) {
	sess := newTestSession(t)
	sequence := sess.Sequence()

	for i, stage := range sequence {
		if sess.Cursor() != i {
			t.Fatalf("cursor = %d before stage %s, want %d", sess.Cursor(), stage, i)
		}
		output := pipeline.Output{"stage": string(stage)}
		if stage == pipeline.StageRender {
			output[pipeline.ArtifactKey] = "/outputs/sess-1/final.mp4"
		}
		recordSuccess(t, sess, stage, output)
		done, err := sess.Accept()
		if err != nil {
			t.Fatalf("Accept at stage %s: %v", stage, err)
		}
		if wantDone := i == len(sequence)-1; done != wantDone {
			t.Fatalf("done = %v at stage %s", done, stage)
		}
	}

	if sess.Status() != session.StatusCompleted {
		t.Fatalf("status = %s, want completed", sess.Status())
	}
	if sess.FinalArtifact() != "/outputs/sess-1/final.mp4" {
		t.Fatalf("final artifact = %q", sess.FinalArtifact())
	}
}

func TestAcceptWithoutAttemptIsRejected(t *testing.T) {
	sess := newTestSession(t)
	if _, err := sess.Accept(); !errors.Is(err, session.ErrNoAttempt) {
		t.Fatalf("expected ErrNoAttempt, got %v", err)
	}
	if sess.Cursor() != 0 {
		t.Fatalf("rejected accept moved cursor to %d", sess.Cursor())
	}
}

func TestAcceptAfterFailedAttemptIsRejected(t *testing.T) {
	sess := newTestSession(t)
	err := sess.RecordAttempt(pipeline.StageScenes, session.Attempt{
		Version:      1,
		Succeeded:    false,
		ErrorMessage: "generation failed",
	})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if _, err := sess.Accept(); !errors.Is(err, session.ErrAttemptFailed) {
		t.Fatalf("expected ErrAttemptFailed, got %v", err)
	}
}

func TestVersionsNeverReset(t *testing.T) {
	sess := newTestSession(t)
	if got := sess.NextVersion(pipeline.StageScenes); got != 1 {
		t.Fatalf("first version = %d", got)
	}
	err := sess.RecordAttempt(pipeline.StageScenes, session.Attempt{Version: 1, Succeeded: false, ErrorMessage: "boom"})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if got := sess.NextVersion(pipeline.StageScenes); got != 2 {
		t.Fatalf("version after failure = %d, want 2", got)
	}
	recordSuccess(t, sess, pipeline.StageScenes, pipeline.Output{})
	if got := sess.NextVersion(pipeline.StageScenes); got != 3 {
		t.Fatalf("version after success = %d, want 3", got)
	}
	// Other stages are unaffected.
	if got := sess.NextVersion(pipeline.StageScript); got != 1 {
		t.Fatalf("script version = %d, want 1", got)
	}
}

func TestRecordAttemptRejectsWrongVersion(t *testing.T) {
	sess := newTestSession(t)
	err := sess.RecordAttempt(pipeline.StageScenes, session.Attempt{Version: 5, Succeeded: true})
	if err == nil {
		t.Fatal("expected version mismatch error")
	}
}

func TestPriorOutputsExcludesCurrentStage(t *testing.T) {
	sess := newTestSession(t)
	recordSuccess(t, sess, pipeline.StageScenes, pipeline.Output{"scenes": []any{"a", "b"}})
	if _, err := sess.Accept(); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	recordSuccess(t, sess, pipeline.StageScript, pipeline.Output{"script": []any{"line"}})

	prior := sess.PriorOutputs()
	if _, ok := prior[pipeline.StageScenes]; !ok {
		t.Fatal("prior outputs missing scenes")
	}
	if _, ok := prior[pipeline.StageScript]; ok {
		t.Fatal("prior outputs must not include the stage under review")
	}
}

func TestPendingFeedbackIsClearedOnTake(t *testing.T) {
	sess := newTestSession(t)
	sess.SetPendingFeedback("shorter")
	if got := sess.TakePendingFeedback(); got != "shorter" {
		t.Fatalf("feedback = %q", got)
	}
	if got := sess.TakePendingFeedback(); got != "" {
		t.Fatalf("feedback not cleared: %q", got)
	}
}

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	sess := newTestSession(t)
	if err := sess.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := sess.Stop(); !errors.Is(err, session.ErrNotActive) {
		t.Fatalf("expected ErrNotActive on second stop, got %v", err)
	}
	sess.Fail()
	if sess.Status() != session.StatusStopped {
		t.Fatalf("Fail overwrote terminal status: %s", sess.Status())
	}
	if _, err := sess.Accept(); !errors.Is(err, session.ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}
