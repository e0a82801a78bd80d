// Package api defines the JSON payloads served by the daemon's HTTP control
// endpoints and the client the CLI uses to call them. Keeping the wire types
// here lets the daemon and CLI share one schema without importing each other.
package api
