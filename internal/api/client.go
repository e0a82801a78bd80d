package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the daemon's HTTP control API. It is the transport the CLI
// uses for status and library commands.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a control API client for the given bind address. The
// address may be a bare host:port or a full http URL; token may be empty when
// the daemon runs without authentication.
func NewClient(address, token string, opts ...ClientOption) (*Client, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("api client requires a daemon address")
	}
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	client := &Client{
		baseURL:    strings.TrimRight(address, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// LibraryList fetches catalogued renders, optionally filtered by kind.
func (c *Client) LibraryList(ctx context.Context, kind string) (*LibraryListResponse, error) {
	path := "/api/library"
	if kind = strings.TrimSpace(kind); kind != "" {
		path += "?kind=" + url.QueryEscape(kind)
	}
	var resp LibraryListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LibraryRemove deletes one catalogued render by session ID.
func (c *Client) LibraryRemove(ctx context.Context, sessionID string) (int64, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, fmt.Errorf("session id is required")
	}
	var resp LibraryMutationResponse
	if err := c.do(ctx, http.MethodDelete, "/api/library/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// LibraryClear deletes every catalogued render.
func (c *Client) LibraryClear(ctx context.Context) (int64, error) {
	var resp LibraryMutationResponse
	if err := c.do(ctx, http.MethodDelete, "/api/library", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// TestNotification asks the daemon to fire a test push notification.
func (c *Client) TestNotification(ctx context.Context) (*NotifyTestResponse, error) {
	var resp NotifyTestResponse
	if err := c.do(ctx, http.MethodPost, "/api/notify/test", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s after %s: %w", method, path, time.Since(start).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("daemon rejected the API token")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, decodeAPIError(resp))
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return payload.Error
	}
	if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, trimmed)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
