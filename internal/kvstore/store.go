package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"subforge/internal/config"
	"subforge/internal/services"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = fmt.Errorf("%w: key not found", services.ErrNotFound)

// Store is a minimal byte-oriented key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend selected by cfg.Archive.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Archive.Backend))
	switch backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendSQLite:
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return OpenSQLite(ctx, cfg.ArchivePath())
	case "", config.BackendFile:
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return OpenFile(cfg.ArchivePath(), logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "kvstore", "open", fmt.Sprintf("unknown backend %q", backend), nil)
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return services.Wrap(services.ErrValidation, "kvstore", "key", "key must not be empty", nil)
	}
	return nil
}
