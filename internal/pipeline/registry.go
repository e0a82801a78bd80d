package pipeline

import (
	"fmt"

	"reelsmith/internal/services"
)

// The Remotion-based templates carry a dedicated animations stage; the
// Manim-based templates generate motion inside the visuals stage.
var defaultSequences = map[Kind][]StageID{
	KindProductAd:         {StageScenes, StageScript, StageVisuals, StageAnimations, StageTTS, StageRender},
	KindComplianceVideo:   {StageScenes, StageScript, StageVisuals, StageAnimations, StageTTS, StageRender},
	KindMechanismOfAction: {StageScenes, StageScript, StageVisuals, StageTTS, StageRender},
	KindDoctorAd:          {StageScenes, StageScript, StageVisuals, StageTTS, StageRender},
	KindSocialMediaClip:   {StageScenes, StageScript, StageVisuals, StageTTS, StageRender},
}

type execKey struct {
	kind  Kind
	stage StageID
}

// Registry is the static mapping from workflow kind to stage sequence and
// from (kind, stage) to executor. No runtime mutation after Validate.
type Registry struct {
	sequences map[Kind][]StageID
	executors map[execKey]ExecutorFn
}

// NewRegistry returns a registry pre-populated with the per-kind stage
// sequences and no executors. Callers register executors and then Validate.
func NewRegistry() *Registry {
	sequences := make(map[Kind][]StageID, len(defaultSequences))
	for kind, sequence := range defaultSequences {
		sequences[kind] = append([]StageID(nil), sequence...)
	}
	return &Registry{
		sequences: sequences,
		executors: make(map[execKey]ExecutorFn),
	}
}

// Register binds an executor to one (kind, stage) pair.
func (r *Registry) Register(kind Kind, stage StageID, fn ExecutorFn) {
	if fn == nil {
		return
	}
	r.executors[execKey{kind: kind, stage: stage}] = fn
}

// RegisterForAllKinds binds the same executor to a stage across every kind
// whose sequence contains it.
func (r *Registry) RegisterForAllKinds(stage StageID, fn ExecutorFn) {
	for kind, sequence := range r.sequences {
		for _, candidate := range sequence {
			if candidate == stage {
				r.Register(kind, stage, fn)
				break
			}
		}
	}
}

// Sequence returns a copy of the ordered stage list for a kind.
func (r *Registry) Sequence(kind Kind) ([]StageID, error) {
	sequence, ok := r.sequences[kind]
	if !ok {
		return nil, fmt.Errorf("no stage sequence for kind %q", kind)
	}
	return append([]StageID(nil), sequence...), nil
}

// Executor resolves the executor for a (kind, stage) pair.
func (r *Registry) Executor(kind Kind, stage StageID) (ExecutorFn, bool) {
	fn, ok := r.executors[execKey{kind: kind, stage: stage}]
	return fn, ok
}

// Validate checks that every stage of every kind's sequence has a registered
// executor. A violation is a fatal configuration error; it must surface
// before any session can start.
func (r *Registry) Validate() error {
	for kind, sequence := range r.sequences {
		if len(sequence) == 0 {
			return services.Wrap(services.ErrConfiguration, "", "registry",
				fmt.Sprintf("kind %s has an empty stage sequence", kind), nil)
		}
		for _, stage := range sequence {
			if _, ok := r.executors[execKey{kind: kind, stage: stage}]; !ok {
				return services.Wrap(services.ErrConfiguration, string(stage), "registry",
					fmt.Sprintf("no executor registered for kind %s", kind), nil)
			}
		}
	}
	return nil
}
