// Package index carries the only state the sync job keeps between runs:
// a mapping from document id to the fingerprint and remote file id of the
// last successful synchronization. The mapping is a single JSON file,
// loaded at run start and replaced atomically at run end.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrCorrupt marks an index file that exists but cannot be parsed.
// Callers must abort rather than treat it as empty: silently resetting
// would re-upload the entire document set.
var ErrCorrupt = errors.New("index file is corrupt")

// Index is the persisted document_id → Entry mapping.
type Index struct {
	path    string
	entries map[string]Entry
}

// Load reads the index at path. A missing file yields an empty index
// (first run); an unparseable file yields ErrCorrupt.
func Load(path string) (*Index, error) {
	ix := &Index{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ix, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	if err := json.Unmarshal(data, &ix.entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	return ix, nil
}

// Save writes the index atomically: marshal to a temp file in the same
// directory, then rename over the target. A crash mid-write leaves the
// previous index intact.
func (ix *Index) Save() error {
	data, err := json.MarshalIndent(ix.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	dir := filepath.Dir(ix.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(ix.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp index: %w", err)
	}

	if err := os.Rename(tmp.Name(), ix.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace index: %w", err)
	}

	return nil
}

// Get returns the entry for a document id.
func (ix *Index) Get(id string) (Entry, bool) {
	e, ok := ix.entries[id]
	return e, ok
}

// Set writes or overwrites the entry for a document id.
func (ix *Index) Set(id string, e Entry) {
	ix.entries[id] = e
}

// Delete removes the entry for a document id.
func (ix *Index) Delete(id string) {
	delete(ix.entries, id)
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// IDs returns all indexed document ids, sorted for deterministic iteration.
func (ix *Index) IDs() []string {
	ids := make([]string, 0, len(ix.entries))
	for id := range ix.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
