package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"subforge/internal/kvstore"
	"subforge/internal/services"
)

func newTestStore(t *testing.T, kv kvstore.Store, maxEntries int) *Store {
	t.Helper()
	var seq int
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(kv, Options{
		MaxEntries: maxEntries,
		Now: func() time.Time {
			return base.Add(time.Duration(seq) * time.Minute)
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	})
}

func save(t *testing.T, store *Store, typ Type, title string) Entry {
	t.Helper()
	entry, err := store.Save(context.Background(), SaveRequest{
		Type:    typ,
		Title:   title,
		Content: json.RawMessage(`{"body":"` + title + `"}`),
		ToolID:  "test",
	})
	if err != nil {
		t.Fatalf("Save(%s, %q): %v", typ, title, err)
	}
	return entry
}

func TestSaveVersionsAndFileIDs(t *testing.T) {
	store := newTestStore(t, kvstore.NewMemory(), 0)
	for i := 1; i <= 3; i++ {
		entry := save(t, store, TypeStory, "Demo")
		if entry.Version != i {
			t.Fatalf("save %d: version = %d", i, entry.Version)
		}
		if want := fmt.Sprintf("ST-%03d", i); entry.FileID != want {
			t.Fatalf("save %d: fileId = %q, want %q", i, entry.FileID, want)
		}
	}
}

func TestFileIDCountersArePerPrefix(t *testing.T) {
	store := newTestStore(t, kvstore.NewMemory(), 0)
	first := save(t, store, TypeStory, "One")
	second := save(t, store, TypeStory, "Two")
	recap := save(t, store, TypeRecap, "One")

	if first.FileID != "ST-001" || second.FileID != "ST-002" || recap.FileID != "RC-001" {
		t.Fatalf("unexpected file ids: %s %s %s", first.FileID, second.FileID, recap.FileID)
	}
	if second.Version != 1 || recap.Version != 1 {
		t.Fatalf("versions should be per (title,type): %d %d", second.Version, recap.Version)
	}
}

func TestFileIDWidthGrows(t *testing.T) {
	kv := kvstore.NewMemory()
	if err := kv.Set(context.Background(), countersKey, []byte(`{"CL":999}`)); err != nil {
		t.Fatal(err)
	}
	store := newTestStore(t, kv, 0)
	if entry := save(t, store, TypeClip, "Long run"); entry.FileID != "CL-1000" {
		t.Fatalf("fileId = %q", entry.FileID)
	}
}

func TestListMostRecentFirstAndRetention(t *testing.T) {
	store := newTestStore(t, kvstore.NewMemory(), 3)
	for i := 1; i <= 5; i++ {
		save(t, store, TypeTranscript, fmt.Sprintf("Episode %d", i))
	}
	entries := store.List(context.Background())
	if len(entries) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(entries))
	}
	var titles []string
	for _, entry := range entries {
		titles = append(titles, entry.Title)
	}
	if strings.Join(titles, ",") != "Episode 5,Episode 4,Episode 3" {
		t.Fatalf("unexpected order: %v", titles)
	}
	if store.Count(context.Background()) != 3 {
		t.Fatalf("Count = %d", store.Count(context.Background()))
	}
	// Counters keep growing after eviction.
	if entry := save(t, store, TypeTranscript, "Episode 6"); entry.FileID != "TR-006" {
		t.Fatalf("fileId after eviction = %q", entry.FileID)
	}
}

func TestDefaultRetention(t *testing.T) {
	store := New(kvstore.NewMemory(), Options{})
	if store.MaxEntries() != DefaultMaxEntries {
		t.Fatalf("MaxEntries = %d", store.MaxEntries())
	}
}

func TestSaveValidation(t *testing.T) {
	store := newTestStore(t, kvstore.NewMemory(), 0)
	cases := []SaveRequest{
		{Type: "poem", Title: "x"},
		{Type: TypeStory, Title: "  "},
		{Type: TypeStory, Title: "x", Content: json.RawMessage(`{broken`)},
	}
	for _, req := range cases {
		if _, err := store.Save(context.Background(), req); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Save(%+v): expected ErrValidation, got %v", req, err)
		}
	}

	entry, err := store.Save(context.Background(), SaveRequest{Type: TypeVoice, Title: "No content"})
	if err != nil {
		t.Fatal(err)
	}
	if string(entry.Content) != "null" {
		t.Fatalf("empty content should be stored as null, got %s", entry.Content)
	}
}

func TestSaveMatchesTitlesExactly(t *testing.T) {
	store := newTestStore(t, kvstore.NewMemory(), 0)
	save(t, store, TypeStory, "Demo")
	padded := save(t, store, TypeStory, "Demo ")
	if padded.Title != "Demo " || padded.Version != 1 {
		t.Fatalf("padded title should start its own chain: %+v", padded)
	}
	if again := save(t, store, TypeStory, "Demo"); again.Version != 2 {
		t.Fatalf("version = %d, want 2", again.Version)
	}
	if got := len(store.History(context.Background(), "Demo", TypeStory)); got != 2 {
		t.Fatalf("history length = %d, want 2", got)
	}
}

func TestSaveCopiesMetadata(t *testing.T) {
	store := newTestStore(t, kvstore.NewMemory(), 0)
	meta := map[string]any{"tone": "casual"}
	entry, err := store.Save(context.Background(), SaveRequest{Type: TypeLocalization, Title: "Pilot", Metadata: meta})
	if err != nil {
		t.Fatal(err)
	}
	meta["tone"] = "formal"
	if entry.Metadata["tone"] != "casual" {
		t.Fatalf("returned entry shares caller metadata: %v", entry.Metadata)
	}
}

func TestFailedSaveDoesNotConsumeFileID(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	store := newTestStore(t, kv, 0)

	kv.FailWrites(entriesKey, errors.New("disk full"))
	if _, err := store.Save(ctx, SaveRequest{Type: TypeStory, Title: "Lost"}); err == nil {
		t.Fatal("expected save to fail")
	}
	kv.FailWrites(entriesKey, nil)
	if entry := save(t, store, TypeStory, "Kept"); entry.FileID != "ST-001" {
		t.Fatalf("fileId after failed save = %q, want ST-001", entry.FileID)
	}

	kv.FailWrites(countersKey, errors.New("disk full"))
	entry := save(t, store, TypeStory, "Counted")
	if entry.FileID != "ST-002" {
		t.Fatalf("fileId = %q, want ST-002", entry.FileID)
	}
	kv.FailWrites(countersKey, nil)
	if next := save(t, store, TypeStory, "Next"); next.FileID != "ST-003" {
		t.Fatalf("fileId after counter write failure = %q, want ST-003", next.FileID)
	}
}

func TestGetHistoryDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory(), 0)
	v1 := save(t, store, TypeLocalization, "Pilot")
	save(t, store, TypeStory, "Other")
	v2 := save(t, store, TypeLocalization, "Pilot")

	got, err := store.Get(ctx, "lc-002")
	if err != nil || got.ID != v2.ID {
		t.Fatalf("Get by file id = %+v, %v", got, err)
	}
	if got, err := store.Get(ctx, v1.ID); err != nil || got.FileID != "LC-001" {
		t.Fatalf("Get by id = %+v, %v", got, err)
	}
	if _, err := store.Get(ctx, "LC-999"); !errors.Is(err, ErrNotFound) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	history := store.History(ctx, "Pilot", TypeLocalization)
	if len(history) != 2 || history[0].Version != 2 || history[1].Version != 1 {
		t.Fatalf("unexpected history: %+v", history)
	}

	if err := store.Delete(ctx, v1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Count(ctx) != 2 {
		t.Fatalf("Count after delete = %d", store.Count(ctx))
	}
	if err := store.Delete(ctx, v1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: expected ErrNotFound, got %v", err)
	}
	// Versioning counts retained entries only.
	if entry := save(t, store, TypeLocalization, "Pilot"); entry.Version != 2 || entry.FileID != "LC-003" {
		t.Fatalf("save after delete = version %d, %s", entry.Version, entry.FileID)
	}
}

func TestClearKeepsCounters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, kvstore.NewMemory(), 0)
	save(t, store, TypeThumbnail, "Cover")
	save(t, store, TypeThumbnail, "Cover")

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if entries := store.List(ctx); len(entries) != 0 {
		t.Fatalf("expected empty archive, got %d", len(entries))
	}
	entry := save(t, store, TypeThumbnail, "Cover")
	if entry.FileID != "TH-003" || entry.Version != 1 {
		t.Fatalf("after clear: %s v%d", entry.FileID, entry.Version)
	}
}

func TestCorruptStateDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	if err := kv.Set(ctx, entriesKey, []byte(`{"not":"a list"`)); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	store := New(kv, Options{Logger: slog.New(slog.NewJSONHandler(&logs, nil))})

	if entries := store.List(ctx); entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", entries)
	}
	if !strings.Contains(logs.String(), `"event_type":"archive_load_failed"`) {
		t.Fatalf("expected load failure to be logged, got %s", logs.String())
	}

	kv.FailReads(errors.New("backend offline"))
	if entries := store.List(ctx); len(entries) != 0 {
		t.Fatalf("expected empty list on read failure, got %d", len(entries))
	}
}

func TestCountersRecoverFromEntries(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	store := newTestStore(t, kv, 0)
	save(t, store, TypeRecap, "Week 1")
	save(t, store, TypeRecap, "Week 2")

	if err := kv.Set(ctx, countersKey, []byte(`garbage`)); err != nil {
		t.Fatal(err)
	}
	if entry := save(t, store, TypeRecap, "Week 3"); entry.FileID != "RC-003" {
		t.Fatalf("fileId after counter loss = %q", entry.FileID)
	}
}

func TestConcurrentSavesAreSerialised(t *testing.T) {
	store := New(kvstore.NewMemory(), Options{})
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Save(context.Background(), SaveRequest{Type: TypeContent, Title: "Same"}); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	seenVersions := make(map[int]bool)
	seenFileIDs := make(map[string]bool)
	for _, entry := range store.List(context.Background()) {
		seenVersions[entry.Version] = true
		seenFileIDs[entry.FileID] = true
	}
	if len(seenVersions) != n || len(seenFileIDs) != n {
		t.Fatalf("expected %d distinct versions and ids, got %d and %d", n, len(seenVersions), len(seenFileIDs))
	}
}

func TestStoreOverFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.json")
	kv, err := kvstore.OpenFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	save(t, New(kv, Options{}), TypeStory, "Persisted")

	reopened, err := kvstore.OpenFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	entries := New(reopened, Options{}).List(ctx)
	if len(entries) != 1 || entries[0].FileID != "ST-001" || entries[0].ID == "" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseType(t *testing.T) {
	cases := map[string]Type{"Story": TypeStory, "rc": TypeRecap, " LC ": TypeLocalization, "content": TypeContent}
	for input, want := range cases {
		if got, err := ParseType(input); err != nil || got != want {
			t.Fatalf("ParseType(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := ParseType("podcast"); err == nil {
		t.Fatal("expected unknown type to fail")
	}
	for _, typ := range Types() {
		if len(typ.Prefix()) != 2 {
			t.Fatalf("type %q has prefix %q", typ, typ.Prefix())
		}
	}
}
