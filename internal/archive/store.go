package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"subforge/internal/kvstore"
	"subforge/internal/logging"
	"subforge/internal/services"
)

const (
	entriesKey  = "archive.entries"
	countersKey = "archive.counters"

	// DefaultMaxEntries bounds the number of retained entries.
	DefaultMaxEntries = 500
)

// ErrNotFound reports a lookup that matched no entry.
var ErrNotFound = fmt.Errorf("%w: archive entry not found", services.ErrNotFound)

// Options configures a Store.
type Options struct {
	MaxEntries int
	Logger     *slog.Logger
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Store is the archive. Save, Delete, and Clear are serialised.
type Store struct {
	kv         kvstore.Store
	maxEntries int
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string

	mu sync.Mutex
}

// New constructs a Store over kv.
func New(kv kvstore.Store, opts Options) *Store {
	s := &Store{
		kv:         kv,
		maxEntries: opts.MaxEntries,
		logger:     logging.NewComponentLogger(opts.Logger, "archive"),
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if s.maxEntries <= 0 {
		s.maxEntries = DefaultMaxEntries
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// MaxEntries reports the retention bound.
func (s *Store) MaxEntries() int {
	return s.maxEntries
}

// Save appends a new entry at the head of the archive and returns it. The
// title is stored as given and versions count entries whose title and type
// match it exactly. Entries are persisted before counters, so a failed save
// never consumes a FileID; a failed counter write is logged and recovered
// from the entries on the next save.
func (s *Store) Save(ctx context.Context, req SaveRequest) (Entry, error) {
	title := req.Title
	if !req.Type.Valid() {
		return Entry{}, services.Wrap(services.ErrValidation, "archive", "save", fmt.Sprintf("unknown type %q", req.Type), nil)
	}
	if strings.TrimSpace(title) == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "archive", "save", "title required", nil)
	}
	content := req.Content
	if len(strings.TrimSpace(string(content))) == 0 {
		content = json.RawMessage("null")
	}
	if !json.Valid(content) {
		return Entry{}, services.Wrap(services.ErrValidation, "archive", "save", "content must be valid JSON", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadEntries(ctx)
	counters := s.loadCounters(ctx, entries)

	prefix := req.Type.Prefix()
	counters[prefix]++

	version := 1
	for _, existing := range entries {
		if existing.Title == title && existing.Type == req.Type {
			version++
		}
	}

	entry := Entry{
		ID:        s.newID(),
		FileID:    formatFileID(prefix, counters[prefix]),
		Type:      req.Type,
		Title:     title,
		Content:   append(json.RawMessage(nil), content...),
		Language:  strings.TrimSpace(req.Language),
		ToolID:    strings.TrimSpace(req.ToolID),
		Timestamp: s.now(),
		Version:   version,
		Metadata:  maps.Clone(req.Metadata),
	}

	entries = append([]Entry{entry}, entries...)
	evicted := 0
	if len(entries) > s.maxEntries {
		evicted = len(entries) - s.maxEntries
		entries = entries[:s.maxEntries]
	}

	if err := s.write(ctx, entriesKey, entries); err != nil {
		return Entry{}, err
	}
	if err := s.write(ctx, countersKey, counters); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "archive counters not persisted", "archive_counters_write_failed",
			logging.Error(err),
			logging.String("file_id", entry.FileID),
			logging.String(logging.FieldErrorHint, "check the archive path is writable"),
			logging.String(logging.FieldImpact, "counters are rebuilt from saved entries on the next save"),
		)
	}

	logging.WithContext(ctx, s.logger).Info("archive entry saved",
		logging.String("file_id", entry.FileID),
		logging.String("type", string(entry.Type)),
		logging.String("title", entry.Title),
		logging.Int("version", entry.Version),
		logging.Int("evicted", evicted),
	)
	return entry, nil
}

// List returns all entries, most recent first. Read failures yield an empty
// slice.
func (s *Store) List(ctx context.Context) []Entry {
	return s.loadEntries(ctx)
}

// Count returns the number of retained entries.
func (s *Store) Count(ctx context.Context) int {
	return len(s.loadEntries(ctx))
}

// Get finds an entry by ID or FileID (FileID match is case-insensitive).
func (s *Store) Get(ctx context.Context, ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	for _, entry := range s.loadEntries(ctx) {
		if matches(entry, ref) {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// History returns every retained version of (title, type), newest first.
func (s *Store) History(ctx context.Context, title string, t Type) []Entry {
	var versions []Entry
	for _, entry := range s.loadEntries(ctx) {
		if entry.Title == title && entry.Type == t {
			versions = append(versions, entry)
		}
	}
	return versions
}

// Delete removes the entry with the given ID or FileID.
func (s *Store) Delete(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadEntries(ctx)
	kept := entries[:0:0]
	var removed *Entry
	for i := range entries {
		if removed == nil && matches(entries[i], ref) {
			removed = &entries[i]
			continue
		}
		kept = append(kept, entries[i])
	}
	if removed == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err := s.write(ctx, entriesKey, kept); err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Info("archive entry deleted",
		logging.String("file_id", removed.FileID),
		logging.String("id", removed.ID),
	)
	return nil
}

// Clear removes every entry. Counters are kept so FileIDs are never reissued.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, entriesKey); err != nil {
		return fmt.Errorf("clear archive: %w", err)
	}
	logging.WithContext(ctx, s.logger).Info("archive cleared")
	return nil
}

func matches(entry Entry, ref string) bool {
	return ref != "" && (entry.ID == ref || strings.EqualFold(entry.FileID, ref))
}

func (s *Store) loadEntries(ctx context.Context) []Entry {
	var entries []Entry
	if !s.read(ctx, entriesKey, &entries) {
		return []Entry{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}

// loadCounters reads the counters and raises any that lag behind the FileIDs
// already present in entries, so a lost counters key never reissues an ID.
func (s *Store) loadCounters(ctx context.Context, entries []Entry) map[string]int {
	counters := make(map[string]int)
	if !s.read(ctx, countersKey, &counters) || counters == nil {
		counters = make(map[string]int)
	}
	for _, entry := range entries {
		prefix, seq, ok := splitFileID(entry.FileID)
		if ok && seq > counters[prefix] {
			counters[prefix] = seq
		}
	}
	return counters
}

func splitFileID(fileID string) (string, int, bool) {
	prefix, digits, ok := strings.Cut(fileID, "-")
	if !ok {
		return "", 0, false
	}
	seq, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, false
	}
	return prefix, seq, true
}

// read decodes key into target. It reports false when the key is absent or
// unreadable; the latter is logged.
func (s *Store) read(ctx context.Context, key string, target any) bool {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false
	}
	if err == nil {
		err = json.Unmarshal(data, target)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "archive state unreadable", "archive_load_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect or remove the archive store file"),
			logging.String(logging.FieldImpact, "archive treated as empty"),
		)
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
