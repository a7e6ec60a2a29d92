package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"subforge/internal/archive"
	"subforge/internal/kvstore"
)

// NewArchive returns an archive over a fresh in-memory store. The memory
// store is returned so tests can inject read faults.
func NewArchive(t testing.TB, maxEntries int) (*archive.Store, *kvstore.Memory) {
	t.Helper()

	kv := kvstore.NewMemory()
	t.Cleanup(func() { _ = kv.Close() })
	return archive.New(kv, archive.Options{MaxEntries: maxEntries}), kv
}

// MustSave saves an entry with a JSON content payload and fails the test on error.
func MustSave(t testing.TB, store *archive.Store, typ archive.Type, title string, content any) archive.Entry {
	t.Helper()

	data, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	entry, err := store.Save(context.Background(), archive.SaveRequest{
		Type:    typ,
		Title:   title,
		Content: data,
		ToolID:  "test",
	})
	if err != nil {
		t.Fatalf("archive save: %v", err)
	}
	return entry
}
