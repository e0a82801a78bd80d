// Package library catalogues completed renders in a SQLite database so
// finished videos remain discoverable after their sessions are gone.
// Sessions themselves are never persisted; only the final artifact and the
// inputs that produced it are recorded.
package library
