package config

const (
	defaultOutputDir          = "~/.local/share/reelsmith/outputs"
	defaultMediaCacheDir      = "~/.local/share/reelsmith/cache/media"
	defaultLogDir             = "~/.local/share/reelsmith/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds  = 120
	defaultStockMediaBaseURL  = "https://api.pexels.com"
	defaultStockMediaPerScene = 1
	defaultStockMediaTimeout  = 30
	defaultTTSBaseURL         = "https://api.elevenlabs.io/v1"
	defaultTTSVoice           = "narrator"
	defaultTTSMaxWorkers      = 5
	defaultTTSTimeoutSeconds  = 60
	defaultRenderCommand      = "ffmpeg"
	defaultRenderQuality      = "low"
	defaultRenderTimeout      = 1800
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:     defaultOutputDir,
			MediaCacheDir: defaultMediaCacheDir,
			LogDir:        defaultLogDir,
			APIBind:       defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		StockMedia: StockMedia{
			BaseURL:        defaultStockMediaBaseURL,
			PerScene:       defaultStockMediaPerScene,
			TimeoutSeconds: defaultStockMediaTimeout,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Voice:          defaultTTSVoice,
			MaxWorkers:     defaultTTSMaxWorkers,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Render: Render{
			Command:        defaultRenderCommand,
			Quality:        defaultRenderQuality,
			TimeoutSeconds: defaultRenderTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Render:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
