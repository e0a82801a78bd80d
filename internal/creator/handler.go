package creator

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"reelsmith/internal/logging"
	"reelsmith/internal/orchestrator"
	"reelsmith/internal/pipeline"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 1 << 20
)

// Options configures the websocket handler.
type Options struct {
	Registry *pipeline.Registry
	Logger   *slog.Logger

	// WorkDirFor maps a session ID to its working directory; forwarded to
	// the orchestrator.
	WorkDirFor func(sessionID string) string

	Hooks orchestrator.Hooks

	// CheckOrigin overrides the upgrader's origin policy. The default
	// accepts any origin; the daemon binds to loopback so the browser is
	// the only realistic client.
	CheckOrigin func(r *http.Request) bool
}

// Handler upgrades HTTP requests to creator channels. Each accepted
// connection gets its own orchestrator and session.
type Handler struct {
	registry   *pipeline.Registry
	logger     *slog.Logger
	workDirFor func(string) string
	hooks      orchestrator.Hooks
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHandler constructs the creator websocket endpoint.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Registry == nil {
		return nil, errors.New("creator handler requires a stage registry")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		registry:   opts.Registry,
		logger:     logging.NewComponentLogger(logger, "creator"),
		workDirFor: opts.WorkDirFor,
		hooks:      opts.Hooks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}, nil
}

// Close terminates every live channel. Websocket connections are hijacked
// from the HTTP server, so its shutdown never reaches them.
func (h *Handler) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (h *Handler) track(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// ServeHTTP upgrades the connection and runs the channel's read loop until
// the client disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		h.logger.Warn("websocket upgrade failed",
			logging.String("remote", r.RemoteAddr),
			logging.Error(err),
		)
		return
	}
	h.serveChannel(conn, r.RemoteAddr)
}

func (h *Handler) serveChannel(conn *websocket.Conn, remote string) {
	h.track(conn)
	defer h.untrack(conn)
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	sink := &connSink{conn: conn}
	orch, err := orchestrator.New(orchestrator.Options{
		Registry:   h.registry,
		Sink:       sink,
		Logger:     h.logger,
		WorkDirFor: h.workDirFor,
		Hooks:      h.hooks,
	})
	if err != nil {
		h.logger.Error("channel setup failed",
			logging.String("remote", remote),
			logging.Error(err),
		)
		return
	}

	h.logger.Info("creator channel opened",
		logging.String("remote", remote),
		logging.String(logging.FieldEventType, "channel_opened"),
	)

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("creator channel closed unexpectedly",
					logging.String("remote", remote),
					logging.Error(err),
				)
			} else {
				h.logger.Info("creator channel closed",
					logging.String("remote", remote),
					logging.String(logging.FieldEventType, "channel_closed"),
				)
			}
			orch.HandleDisconnect()
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		orch.HandleMessage(raw)
	}
}

// connSink serializes event writes onto one websocket connection. The
// orchestrator may emit from the command path and from resolving stage
// goroutines, so writes need their own lock.
type connSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *connSink) Send(event orchestrator.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(event)
}
