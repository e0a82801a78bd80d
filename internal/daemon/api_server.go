package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"reelsmith/internal/api"
	"reelsmith/internal/config"
	"reelsmith/internal/creator"
	"reelsmith/internal/library"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	creator *creator.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("paths.api_bind is required")
	}

	creatorHandler, err := creator.NewHandler(creator.Options{
		Registry:   d.registry,
		Logger:     logger,
		WorkDirFor: cfg.SessionWorkDir,
		Hooks:      d.pipelineHooks(),
	})
	if err != nil {
		return nil, fmt.Errorf("build creator handler: %w", err)
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		creator: creatorHandler,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/library", authMiddleware(token, srv.handleLibrary))
	mux.HandleFunc("/api/library/", authMiddleware(token, srv.handleLibraryItem))
	mux.HandleFunc("/api/notify/test", authMiddleware(token, srv.handleNotifyTest))
	// The websocket endpoint stays unauthenticated: the daemon binds to
	// loopback and the browser client cannot set bearer headers on upgrades.
	mux.Handle("/ws/creator", srv.trackChannels(creatorHandler))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.creator != nil {
		// Shutdown does not reach hijacked websocket connections.
		s.creator.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound listen address, useful when bind used port 0.
func (s *apiServer) addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *apiServer) trackChannels(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.daemon.channelOpened()
		defer s.daemon.channelClosed()
		next.ServeHTTP(w, r)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		ActiveChannels: status.ActiveChannels,
		LibraryDBPath:  status.LibraryDBPath,
		LockFilePath:   status.LockFilePath,
		Dependencies:   make([]api.DependencyStatus, len(status.Dependencies)),
	}
	for i, dep := range status.Dependencies {
		payload.Dependencies[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleLibrary(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listLibrary(w, r)
	case http.MethodDelete:
		removed, err := s.daemon.Library().Clear(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.LibraryMutationResponse{Removed: removed})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listLibrary(w http.ResponseWriter, r *http.Request) {
	var kinds []pipeline.Kind
	if value := strings.TrimSpace(r.URL.Query().Get("kind")); value != "" {
		kind, err := pipeline.ParseKind(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kinds = append(kinds, kind)
	}

	renders, err := s.daemon.Library().List(r.Context(), kinds...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := s.daemon.Library().Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := api.LibraryListResponse{
		Renders: make([]api.RenderSummary, 0, len(renders)),
		Stats:   make(map[string]int64, len(stats)),
	}
	for _, render := range renders {
		resp.Renders = append(resp.Renders, toRenderSummary(render))
	}
	for kind, count := range stats {
		resp.Stats[string(kind)] = int64(count)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleLibraryItem(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/api/library/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		s.writeError(w, http.StatusNotFound, "render not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		render, err := s.daemon.Library().GetBySessionID(r.Context(), sessionID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if render == nil {
			s.writeError(w, http.StatusNotFound, "render not found")
			return
		}
		s.writeJSON(w, http.StatusOK, toRenderSummary(render))
	case http.MethodDelete:
		removed, err := s.daemon.Library().Remove(r.Context(), sessionID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "render not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.LibraryMutationResponse{Removed: 1})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("%s: %v", message, err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: sent, Message: message})
}

func toRenderSummary(render *library.Render) api.RenderSummary {
	return api.RenderSummary{
		ID:              render.ID,
		SessionID:       render.SessionID,
		Kind:            string(render.Kind),
		Title:           render.Title,
		ArtifactPath:    render.ArtifactPath,
		Inputs:          render.Inputs,
		DurationSeconds: render.DurationSeconds,
		CreatedAt:       render.CreatedAt,
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
