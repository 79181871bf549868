package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	ix, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ix.Len() != 0 {
		t.Errorf("missing index should load empty, got %d entries", ix.Len())
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	ix, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	syncedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ix.Set("42", Entry{Fingerprint: "abc123", FileID: "file-42", Title: "Setup guide", LastSyncedAt: syncedAt})
	ix.Set("43", Entry{Fingerprint: "def456", FileID: "file-43", LastSyncedAt: syncedAt})

	if err := ix.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("entries: got %d, want 2", reloaded.Len())
	}

	e, ok := reloaded.Get("42")
	if !ok {
		t.Fatal("entry 42 missing after reload")
	}
	if e.Fingerprint != "abc123" || e.FileID != "file-42" || e.Title != "Setup guide" {
		t.Errorf("entry 42: got %+v", e)
	}
	if !e.LastSyncedAt.Equal(syncedAt) {
		t.Errorf("last_synced_at: got %v, want %v", e.LastSyncedAt, syncedAt)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for corrupt index")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("error should wrap ErrCorrupt, got %v", err)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	ix, _ := Load(path)
	ix.Set("1", Entry{Fingerprint: "f", FileID: "file-1"})
	if err := ix.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "index.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory should contain only the index, got %v", names)
	}
}

func TestSave_ReplacesPreviousVersion(t *testing.T) {
	// The on-disk index must always be a complete pre-run or post-run
	// version; overwriting via rename guarantees that.
	path := filepath.Join(t.TempDir(), "index.json")

	ix, _ := Load(path)
	ix.Set("1", Entry{Fingerprint: "old", FileID: "file-1"})
	if err := ix.Save(); err != nil {
		t.Fatal(err)
	}

	ix.Set("1", Entry{Fingerprint: "new", FileID: "file-1b"})
	ix.Set("2", Entry{Fingerprint: "n2", FileID: "file-2"})
	if err := ix.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := reloaded.Get("1")
	if e.Fingerprint != "new" {
		t.Errorf("fingerprint: got %q, want %q", e.Fingerprint, "new")
	}
	if reloaded.Len() != 2 {
		t.Errorf("entries: got %d, want 2", reloaded.Len())
	}
}

func TestIDs_Sorted(t *testing.T) {
	ix := newTestIndex(t, map[string]Entry{
		"30": {}, "1": {}, "20": {},
	})
	got := ix.IDs()
	want := []string{"1", "20", "30"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs: got %v, want %v", got, want)
		}
	}
}
