// Package orchestrator drives one creator session through its stage sequence
// in response to operator commands.
//
// One Orchestrator exists per open transport channel and owns exactly one
// Session for the channel's lifetime. Inbound messages are translated into
// state-machine commands, stage executions are dispatched on their own
// goroutine so the command path stays responsive, and every state transition
// emits exactly one event through the channel's sink, in transition order.
//
// Only one stage execution may be in flight per session. A result that
// resolves after the session was stopped or the channel disconnected is
// discarded without emitting anything.
package orchestrator
