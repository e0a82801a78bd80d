package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/pipeline"
)

const userAgent = "Reelsmith/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyRenderCompleted(ctx context.Context, kind pipeline.Kind, title, artifactPath string) error
	NotifyStageFailed(ctx context.Context, kind pipeline.Kind, stage pipeline.StageID, version int, message string) error
	NotifySessionStopped(ctx context.Context, kind pipeline.Kind, stage pipeline.StageID) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		renderOn: cfg.Notifications.Render,
		errorsOn: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	renderOn bool
	errorsOn bool
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, kind pipeline.Kind, title, artifactPath string) error {
	if !n.renderOn {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = string(kind)
	}
	message := fmt.Sprintf("Render complete: %s (%s)", title, kind.Label())
	if artifactPath = strings.TrimSpace(artifactPath); artifactPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, artifactPath)
	}
	data := payload{
		title:    "Reelsmith - Render Complete",
		message:  message,
		tags:     []string{"reelsmith", "render", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStageFailed(ctx context.Context, kind pipeline.Kind, stage pipeline.StageID, version int, message string) error {
	if !n.errorsOn {
		return nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}
	data := payload{
		title:    "Reelsmith - Stage Failed",
		message:  fmt.Sprintf("%s stage failed (v%d, %s): %s", stage.Label(), version, kind.Label(), message),
		tags:     []string{"reelsmith", "stage", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionStopped(ctx context.Context, kind pipeline.Kind, stage pipeline.StageID) error {
	data := payload{
		title:    "Reelsmith - Session Stopped",
		message:  fmt.Sprintf("%s session stopped at the %s stage", kind.Label(), stage.Label()),
		tags:     []string{"reelsmith", "session", "stopped"},
		priority: "default",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRenderCompleted(context.Context, pipeline.Kind, string, string) error {
	return nil
}

func (noopService) NotifyStageFailed(context.Context, pipeline.Kind, pipeline.StageID, int, string) error {
	return nil
}

func (noopService) NotifySessionStopped(context.Context, pipeline.Kind, pipeline.StageID) error {
	return nil
}

func (noopService) TestNotification(context.Context) error { return nil }
