package config

import (
	"errors"
	"fmt"
)

var renderQualities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsmith/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set REELSMITH_LLM_API_KEY env var or edit %s (create with 'reelsmith config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Command == "" {
		return errors.New("render.command must be set")
	}
	if _, ok := renderQualities[c.Render.Quality]; !ok {
		return fmt.Errorf("render.quality must be one of low, medium, high (got %q)", c.Render.Quality)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must not be negative")
	}
	return nil
}
