// Package pipeline defines the workflow kinds, stage identifiers, the
// uniform stage executor contract, and the registry that binds them.
//
// The Registry is a static lookup table: each workflow kind owns an ordered
// stage sequence, and each (kind, stage) pair resolves to exactly one
// executor. Validate checks the table exhaustively at startup so a
// misconfigured registry is a fatal configuration error rather than a runtime
// surprise mid-session.
package pipeline
