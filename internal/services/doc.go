// Package services defines shared utilities consumed by the stage executors
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, stage names, and workflow kinds
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     reporting consistent across stage executors, so the orchestrator can
//     surface a clean message in stage_failed events.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
