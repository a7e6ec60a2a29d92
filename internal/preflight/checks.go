package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"subforge/internal/archive"
	"subforge/internal/config"
	"subforge/internal/kvstore"
	"subforge/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing (translate unavailable)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config(cfg), llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", client.Model())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArchive opens the configured archive backend and counts its entries.
// SQLite stores also run an integrity check.
func CheckArchive(ctx context.Context, cfg *config.Config) Result {
	const name = "Archive store"

	store, err := kvstore.Open(ctx, cfg, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open %s backend: %v", cfg.Archive.Backend, err)}
	}
	defer store.Close()

	if checker, ok := store.(interface{ Check(context.Context) error }); ok {
		if err := checker.Check(ctx); err != nil {
			return Result{Name: name, Detail: err.Error()}
		}
	}

	count := archive.New(store, archive.Options{MaxEntries: cfg.Archive.MaxEntries}).Count(ctx)
	location := cfg.ArchivePath()
	if location == "" {
		location = "in memory"
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s backend, %d/%d entries (%s)", cfg.Archive.Backend, count, cfg.Archive.MaxEntries, location),
	}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
