// Package creator exposes the interactive session protocol over websocket.
// Each accepted connection is one channel: commands arrive as JSON text
// frames, events leave the same way, and closing the socket discards the
// channel's session.
package creator
