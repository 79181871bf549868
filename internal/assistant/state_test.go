package assistant

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadState_Missing(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if st.AssistantID != "" || st.VectorStoreID != "" {
		t.Errorf("missing state should be zero, got %+v", st)
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	want := State{
		AssistantID:   "asst_123",
		VectorStoreID: "vs_456",
		LastSyncAt:    time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := SaveState(path, want); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	got, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got.AssistantID != want.AssistantID || got.VectorStoreID != want.VectorStoreID {
		t.Errorf("state: got %+v, want %+v", got, want)
	}
	if !got.LastSyncAt.Equal(want.LastSyncAt) {
		t.Errorf("last_sync_at: got %v", got.LastSyncAt)
	}
}

func TestLoadState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("???"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}
