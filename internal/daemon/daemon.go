package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/library"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/orchestrator"
	"reelsmith/internal/pipeline"
)

// Daemon hosts the creator websocket endpoint and the HTTP control API, and
// enforces single-instance execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	library  *library.Store
	registry *pipeline.Registry
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	api      *apiServer
	channels atomic.Int64

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	ActiveChannels int
	LibraryDBPath  string
	LockFilePath   string
	Dependencies   []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *library.Store, registry *pipeline.Registry, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || registry == nil || logger == nil {
		return nil, errors.New("daemon requires config, library store, registry, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reelsmithd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		library:  store,
		registry: registry,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up the API and websocket server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsmith daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.releaseStartState()
		return err
	}
	d.api = server
	if err := d.api.start(d.ctx); err != nil {
		d.releaseStartState()
		return err
	}

	d.running.Store(true)
	d.logger.Info("reelsmith daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStartState() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop shuts down the server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelsmith daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.library != nil {
		return d.library.Close()
	}
	return nil
}

// Status returns the current daemon status including dependency availability.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		ActiveChannels: int(d.channels.Load()),
		LibraryDBPath:  d.library.Path(),
		LockFilePath:   d.lockPath,
		Dependencies:   deps.CheckBinaries(deps.Requirements(d.cfg)),
	}
}

// APIAddr returns the bound control API address once the daemon is running.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Library exposes the render catalogue for API handlers.
func (d *Daemon) Library() *library.Store {
	return d.library
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) channelOpened() { d.channels.Add(1) }
func (d *Daemon) channelClosed() { d.channels.Add(-1) }

// pipelineHooks wires completed and failed runs into the catalogue and the
// push notifier.
func (d *Daemon) pipelineHooks() orchestrator.Hooks {
	return orchestrator.Hooks{
		PipelineComplete: d.recordRender,
		StageFailed:      d.reportStageFailure,
		SessionStopped:   d.reportSessionStop,
	}
}

func (d *Daemon) recordRender(ctx context.Context, result orchestrator.PipelineResult) {
	title := renderTitle(result.Inputs)
	entry, err := d.library.Add(ctx, library.Render{
		SessionID:       result.SessionID,
		Kind:            result.Kind,
		Title:           title,
		ArtifactPath:    result.ArtifactPath,
		Inputs:          result.Inputs,
		DurationSeconds: result.Duration.Seconds(),
	})
	if err != nil {
		d.logger.Error("failed to catalogue render",
			logging.String(logging.FieldSessionID, result.SessionID),
			logging.Error(err),
		)
	} else {
		d.logger.Info("render catalogued",
			logging.String(logging.FieldSessionID, result.SessionID),
			logging.String(logging.FieldKind, string(result.Kind)),
			logging.Int64("library_id", entry.ID),
			logging.Duration("pipeline_duration", result.Duration.Round(time.Second)),
		)
	}

	if err := d.notifier.NotifyRenderCompleted(ctx, result.Kind, title, result.ArtifactPath); err != nil {
		d.logger.Warn("render notification failed", logging.Error(err))
	}
}

func (d *Daemon) reportStageFailure(ctx context.Context, failure orchestrator.StageFailure) {
	if err := d.notifier.NotifyStageFailed(ctx, failure.Kind, failure.Stage, failure.Version, failure.Message); err != nil {
		d.logger.Warn("failure notification failed", logging.Error(err))
	}
}

func (d *Daemon) reportSessionStop(ctx context.Context, stop orchestrator.SessionStop) {
	if err := d.notifier.NotifySessionStopped(ctx, stop.Kind, stop.Stage); err != nil {
		d.logger.Warn("stop notification failed", logging.Error(err))
	}
}

// renderTitle picks a human-readable name for a finished render from the
// session inputs.
func renderTitle(inputs map[string]any) string {
	for _, key := range []string{"title", "topic", "product_name", "product"} {
		if value, ok := inputs[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
