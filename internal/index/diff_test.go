package index

import (
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "empty content",
			content:  "",
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "simple content",
			content:  "hello world",
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:     "same content same fingerprint",
			content:  "duplicate content",
			expected: Fingerprint("duplicate content"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Fingerprint(tt.content)
			if result != tt.expected {
				t.Errorf("Fingerprint() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestFingerprintConsistency(t *testing.T) {
	content := "This is a support article used for consistency checks"

	fp1 := Fingerprint(content)
	fp2 := Fingerprint(content)
	fp3 := Fingerprint(content)

	if fp1 != fp2 || fp2 != fp3 {
		t.Errorf("fingerprint should be stable: %v, %v, %v", fp1, fp2, fp3)
	}

	if len(fp1) != 64 {
		t.Errorf("fingerprint length should be 64 hex characters, got %d", len(fp1))
	}

	if fp1 == Fingerprint(content+" ") {
		t.Error("different content should produce different fingerprints")
	}
}

func TestFingerprintIgnoresTimestamp(t *testing.T) {
	// Only the canonical content is hashed; the footer with the updated-at
	// timestamp must not affect change detection.
	doc1 := &Document{ID: "1", Title: "Setup", Body: "steps", UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	doc2 := &Document{ID: "1", Title: "Setup", Body: "steps", UpdatedAt: time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)}

	if Fingerprint(doc1.Content()) != Fingerprint(doc2.Content()) {
		t.Error("a changed timestamp alone must not change the fingerprint")
	}
	if doc1.FileContent() == doc2.FileContent() {
		t.Error("the uploaded blob should still carry the timestamp")
	}
}

func newTestIndex(t *testing.T, entries map[string]Entry) *Index {
	t.Helper()
	ix := &Index{path: t.TempDir() + "/index.json", entries: make(map[string]Entry)}
	for id, e := range entries {
		ix.Set(id, e)
	}
	return ix
}

func doc(id, title, body string) *Document {
	return &Document{ID: id, Title: title, Slug: id, Body: body, SourceURL: "https://help.example.com/" + id}
}

func TestClassify(t *testing.T) {
	unchanged := doc("a", "Alpha", "alpha body")
	updated := doc("b", "Beta", "beta body v2")
	fresh := doc("c", "Gamma", "gamma body")

	ix := newTestIndex(t, map[string]Entry{
		"a": {Fingerprint: Fingerprint(unchanged.Content()), FileID: "file-a"},
		"b": {Fingerprint: Fingerprint("# Beta\n\nbeta body v1"), FileID: "file-b"},
		"d": {Fingerprint: "stale", FileID: "file-d"},
	})

	ch := Classify([]*Document{unchanged, updated, fresh}, ix)

	if len(ch.New) != 1 || ch.New[0].ID != "c" {
		t.Errorf("new: got %v", ids(ch.New))
	}
	if len(ch.Updated) != 1 || ch.Updated[0].ID != "b" {
		t.Errorf("updated: got %v", ids(ch.Updated))
	}
	if len(ch.Unchanged) != 1 || ch.Unchanged[0].ID != "a" {
		t.Errorf("unchanged: got %v", ids(ch.Unchanged))
	}
	if len(ch.Removed) != 1 || ch.Removed[0] != "d" {
		t.Errorf("removed: got %v", ch.Removed)
	}
}

func TestClassify_EmptyIndexAllNew(t *testing.T) {
	ix := newTestIndex(t, nil)
	docs := []*Document{doc("1", "One", "x"), doc("2", "Two", "y"), doc("3", "Three", "z")}

	ch := Classify(docs, ix)

	if len(ch.New) != 3 {
		t.Errorf("new: got %d, want 3", len(ch.New))
	}
	if len(ch.Updated)+len(ch.Unchanged)+len(ch.Removed) != 0 {
		t.Errorf("first run should classify everything as new: %+v", ch)
	}
}

func TestClassify_IsPure(t *testing.T) {
	d := doc("a", "Alpha", "body")
	ix := newTestIndex(t, map[string]Entry{"gone": {Fingerprint: "f", FileID: "file"}})

	before := ix.Len()
	Classify([]*Document{d}, ix)
	Classify([]*Document{d}, ix)

	if ix.Len() != before {
		t.Error("Classify must not mutate the index")
	}
	if _, ok := ix.Get("a"); ok {
		t.Error("Classify must not insert entries")
	}
}

func ids(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
