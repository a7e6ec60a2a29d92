package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subforge/internal/config"
	"subforge/internal/services"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := OpenFile(filepath.Join(dir, "store.json"), nil)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	sqlite, err := OpenSQLite(context.Background(), filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if !errors.Is(ErrNotFound, services.ErrNotFound) {
				t.Fatal("ErrNotFound should carry the services marker")
			}

			if err := store.Set(ctx, "archive.entries", []byte(`[{"id":"a"}]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := store.Set(ctx, "archive.counters", []byte(`{"ST":1}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := store.Set(ctx, "archive.counters", []byte(`{"ST":2}`)); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}

			got, err := store.Get(ctx, "archive.counters")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if strings.TrimSpace(string(got)) != `{"ST":2}` {
				t.Fatalf("unexpected value %q", got)
			}

			if err := store.Delete(ctx, "archive.entries"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.Get(ctx, "archive.entries"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete(ctx, "never-set"); err != nil {
				t.Fatalf("Delete of missing key should succeed: %v", err)
			}
			if err := store.Set(ctx, " ", []byte(`1`)); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation for empty key, got %v", err)
			}
		})
	}
}

func TestMemoryFailReads(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("disk on fire")
	store.FailReads(boom)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	store.FailReads(nil)
	if got, err := store.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Get after restore = %q, %v", got, err)
	}
}

func TestFileRejectsNonJSON(t *testing.T) {
	store, err := OpenFile(filepath.Join(t.TempDir(), "store.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(context.Background(), "k", []byte("not json")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFileCorruptDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	if err := os.WriteFile(path, []byte("{not valid"), 0o600); err != nil {
		t.Fatal(err)
	}
	store, err := OpenFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, "k"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected corrupt read error, got %v", err)
	}

	if err := store.Set(ctx, "k", []byte(`"fresh"`)); err != nil {
		t.Fatalf("Set after corruption: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != `"fresh"` {
		t.Fatalf("Get = %q, %v", got, err)
	}

	matches, err := filepath.Glob(path + ".corrupt-*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected quarantined copy, found %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if string(data) != "{not valid" {
		t.Fatalf("quarantined copy altered: %q", data)
	}
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	first, err := OpenFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	second, err := OpenFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := second.Get(ctx, "k")
	if err != nil || !strings.Contains(string(got), `"a"`) {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestSQLiteReopenAndCheck(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "k", []byte{0x00, 0xff}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "k")
	if err != nil || len(got) != 2 || got[1] != 0xff {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := reopened.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	cases := map[string]string{
		config.BackendMemory: "*kvstore.Memory",
		config.BackendFile:   "*kvstore.File",
		config.BackendSQLite: "*kvstore.SQLite",
	}
	for backend, want := range cases {
		t.Run(backend, func(t *testing.T) {
			cfg.Archive.Backend = backend
			store, err := Open(ctx, &cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer store.Close()
			if got := fmt.Sprintf("%T", store); got != want {
				t.Fatalf("backend type = %s, want %s", got, want)
			}
		})
	}

	cfg.Archive.Backend = "redis"
	if _, err := Open(ctx, &cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
