// Package archive persists typed, versioned work products.
//
// Every saved Entry gets an opaque UUID and a human-readable FileID of the
// form PREFIX-NNN, where the prefix is fixed per Type and NNN is a per-prefix
// counter that only ever grows. Saving again under the same title and type
// produces a new entry with the next version; entries are never updated in
// place.
//
// State lives in a kvstore.Store under two keys (entries and counters) and is
// re-read on every call, so several processes can share one backing store.
// Unreadable state is logged and treated as empty; List never fails.
package archive
