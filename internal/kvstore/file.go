package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"subforge/internal/fileutil"
	"subforge/internal/logging"
	"subforge/internal/services"
)

const lockRetryDelay = 50 * time.Millisecond

// File stores all keys in one JSON document.
type File struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	logger *slog.Logger
}

// OpenFile prepares a File store at path. The document is created lazily on
// the first Set.
func OpenFile(path string, logger *slog.Logger) (*File, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "kvstore", "open file", "path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &File{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "kvstore"),
	}, nil
}

// Path returns the document location.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.acquire(ctx, true); err != nil {
		return nil, err
	}
	defer f.release()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	value, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if !json.Valid(value) {
		return services.Wrap(services.ErrValidation, "kvstore", "set", "file backend requires JSON values", nil)
	}
	return f.update(ctx, func(doc map[string]json.RawMessage) {
		doc[key] = append(json.RawMessage(nil), value...)
	})
}

func (f *File) Delete(ctx context.Context, key string) error {
	return f.update(ctx, func(doc map[string]json.RawMessage) {
		delete(doc, key)
	})
}

func (f *File) Close() error { return nil }

func (f *File) update(ctx context.Context, mutate func(map[string]json.RawMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.acquire(ctx, false); err != nil {
		return err
	}
	defer f.release()

	doc, err := f.read()
	if err != nil {
		doc, err = f.quarantine(err)
		if err != nil {
			return err
		}
	}
	mutate(doc)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if err := fileutil.WriteFileAtomic(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

func (f *File) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "kvstore", "read", "store document is corrupt", err)
	}
	return doc, nil
}

// quarantine moves an unreadable document aside so writes can continue
// against a fresh one.
func (f *File) quarantine(cause error) (map[string]json.RawMessage, error) {
	if !errors.Is(cause, services.ErrValidation) {
		return nil, cause
	}
	aside := fmt.Sprintf("%s.corrupt-%s", f.path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(f.path, aside); err != nil {
		return nil, fmt.Errorf("quarantine corrupt store: %w", err)
	}
	logging.WarnWithContext(f.logger, "corrupt store moved aside", "kvstore_quarantined",
		logging.String("path", f.path),
		logging.String("quarantine_path", aside),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "inspect the quarantined file to recover entries"),
		logging.String(logging.FieldImpact, "store restarted empty"),
	)
	return make(map[string]json.RawMessage), nil
}

func (f *File) acquire(ctx context.Context, shared bool) error {
	var (
		ok  bool
		err error
	)
	if shared {
		ok, err = f.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = f.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("acquire store lock: %s is held by another process", f.lock.Path())
	}
	return nil
}

func (f *File) release() {
	if err := f.lock.Unlock(); err != nil {
		f.logger.Debug("release store lock failed", logging.Error(err))
	}
}
