package config

// Archive backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Extraction modes.
const (
	ExtractionGreedy   = "greedy"
	ExtractionBalanced = "balanced"
)

const (
	defaultConfigPath          = "~/.config/subforge/config.toml"
	defaultDataDir             = "~/.local/share/subforge"
	defaultLogDir              = "~/.local/share/subforge/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-2.5-flash"
	defaultLLMReferer          = "https://github.com/subforge/subforge"
	defaultLLMTitle            = "subforge"
	defaultLLMTimeoutSeconds   = 60
	defaultChunkSize           = 12
	defaultTone                = "neutral"
	defaultTranslationLanguage = "en"
	defaultSnippetLimit        = 100
	defaultArchiveMaxEntries   = 500
	maxChunkSize               = 200
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Translation: Translation{
			ChunkSize:       defaultChunkSize,
			DefaultTone:     defaultTone,
			DefaultLanguage: defaultTranslationLanguage,
		},
		Extraction: Extraction{
			Mode:         ExtractionGreedy,
			SnippetLimit: defaultSnippetLimit,
		},
		Archive: Archive{
			Backend:    BackendFile,
			MaxEntries: defaultArchiveMaxEntries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
