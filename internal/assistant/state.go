package assistant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State holds the remote identifiers the job reuses across runs. It is
// persisted separately from the sync index and is opaque to the diff logic.
type State struct {
	AssistantID   string    `json:"assistant_id,omitempty"`
	VectorStoreID string    `json:"vector_store_id,omitempty"`
	LastSyncAt    time.Time `json:"last_sync_at,omitempty"`
}

// LoadState reads the persisted state. A missing file yields a zero state
// (first run triggers bootstrap).
func LoadState(path string) (State, error) {
	var st State

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read state: %w", err)
	}

	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse state %s: %w", path, err)
	}

	return st, nil
}

// SaveState writes the state atomically, same discipline as the index.
func SaveState(path string, st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp state: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}

	return nil
}
