package config

import (
	"errors"
	"fmt"
)

// validTones mirrors the tone profiles understood by the translation package.
var validTones = map[string]struct{}{
	"neutral":   {},
	"formal":    {},
	"casual":    {},
	"cinematic": {},
	"playful":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.ChunkSize <= 0 || c.Translation.ChunkSize > maxChunkSize {
		return fmt.Errorf("translation.chunk_size must be between 1 and %d", maxChunkSize)
	}
	if _, ok := validTones[c.Translation.DefaultTone]; !ok {
		return fmt.Errorf("translation.default_tone: unsupported value %q", c.Translation.DefaultTone)
	}
	return nil
}

func (c *Config) validateExtraction() error {
	switch c.Extraction.Mode {
	case ExtractionGreedy, ExtractionBalanced:
	default:
		return fmt.Errorf("extraction.mode: unsupported value %q (want %q or %q)", c.Extraction.Mode, ExtractionGreedy, ExtractionBalanced)
	}
	if c.Extraction.SnippetLimit <= 0 {
		return errors.New("extraction.snippet_limit must be positive")
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("archive.backend: unsupported value %q", c.Archive.Backend)
	}
	if c.Archive.MaxEntries <= 0 {
		return errors.New("archive.max_entries must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
