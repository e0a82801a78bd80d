package pipeline

import "context"

// Output is the opaque structured payload a stage produces. Its shape depends
// on the stage; the orchestrator forwards it to the operator without
// interpreting it beyond the render stage's artifact path.
type Output map[string]any

// ArtifactKey is the Output key under which the render stage reports the
// location of the finished video.
const ArtifactKey = "video_path"

// Request carries everything an executor may need for one stage attempt.
type Request struct {
	SessionID string
	Kind      Kind
	WorkDir   string

	// Inputs is the operator-supplied configuration payload that seeded the
	// session. Immutable; executors must not mutate it.
	Inputs map[string]any

	// Prior holds the latest accepted output of every stage before the one
	// being executed, keyed by stage.
	Prior map[StageID]Output

	// Feedback is the operator note attached to a regenerate command, empty
	// on first attempts and feedback-less regenerations.
	Feedback string

	// Version is the attempt number, starting at 1 and never reused.
	Version int
}

// ExecutorFn adapts one content-generation collaborator to the uniform stage
// contract. Implementations must not mutate shared state and must be safe to
// invoke concurrently for independent sessions. Long-running work belongs to
// the executor; the orchestrator always invokes it off the command path.
type ExecutorFn func(ctx context.Context, req Request) (Output, error)
