// Package session holds the in-memory state of one creator workflow run.
//
// A Session lives for the lifetime of its owning transport channel and is
// never persisted. It tracks the ordered stage sequence, the cursor of the
// stage currently under review, versioned attempt history per stage, and the
// lifecycle status. Status transitions are monotonic: active sessions end as
// completed, stopped, or failed, and no transition leaves a terminal status.
//
// Session methods are not synchronized; the orchestrator serializes all
// access under its single-writer discipline.
package session
