// Package daemon coordinates the long-running reelsmith process.
//
// It wires configuration, the render library, the stage registry, and the
// notification service into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon serves two surfaces on one listener:
// the creator websocket endpoint that drives interactive sessions, and the
// HTTP control API the CLI uses for status and library maintenance.
//
// Keep orchestration logic out of this package: session semantics live in
// orchestrator, stage behavior in stages, and the daemon focuses on startup,
// shutdown, and wiring completed runs into the library and notifier.
package daemon
