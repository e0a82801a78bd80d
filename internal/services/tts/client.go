package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultModel = "eleven_multilingual_v2"

// Config captures the runtime settings required to talk to the TTS provider.
type Config struct {
	APIKey  string
	BaseURL string
	VoiceID string
	Model   string
}

// VoiceSettings tunes the synthesized delivery.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesizer defines the speech operation used by the tts stage.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) error
}

// Client wraps an ElevenLabs-compatible text-to-speech API.
type Client struct {
	cfg        Config
	settings   VoiceSettings
	httpClient *http.Client
}

var _ Synthesizer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithVoiceSettings overrides the default delivery settings.
func WithVoiceSettings(settings VoiceSettings) Option {
	return func(c *Client) {
		c.settings = settings
	}
}

// New creates a TTS client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("tts api key required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("tts base url required")
	}
	cfg.VoiceID = strings.TrimSpace(cfg.VoiceID)
	if cfg.VoiceID == "" {
		return nil, errors.New("tts voice id required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	client := &Client{
		cfg:        cfg,
		settings:   VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Synthesize converts text to speech and writes the audio to outputPath.
func (c *Client) Synthesize(ctx context.Context, text, outputPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("tts synthesize: text required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("tts synthesize: output path required")
	}

	endpoint, err := url.Parse(c.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(c.cfg.VoiceID))
	if err != nil {
		return fmt.Errorf("parse tts url: %w", err)
	}
	body, err := json.Marshal(map[string]any{
		"text":           text,
		"model_id":       c.cfg.Model,
		"voice_settings": c.settings,
	})
	if err != nil {
		return fmt.Errorf("encode tts request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tts synthesis returned %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(snippet)))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	return nil
}
