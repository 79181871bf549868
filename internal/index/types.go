package index

import (
	"fmt"
	"time"
)

// Document is a normalized article ready for synchronization.
// It is produced once per run by the normalizer and never mutated.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"` // markdown, without the metadata footer
	SourceURL string    `json:"source_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content is the canonical text the fingerprint is computed over.
// The metadata footer is excluded: it embeds the updated-at timestamp,
// which must never influence change detection.
func (d *Document) Content() string {
	return fmt.Sprintf("# %s\n\n%s", d.Title, d.Body)
}

// FileName is the name the document is uploaded under.
func (d *Document) FileName() string {
	return d.Slug + ".md"
}

// FileContent is the full uploaded blob: canonical content plus the
// metadata footer (source URL, id, last-updated timestamp).
func (d *Document) FileContent() string {
	return fmt.Sprintf("%s\n\n---\nArticle URL: %s\nArticle ID: %s\nUpdated: %s\n",
		d.Content(), d.SourceURL, d.ID, d.UpdatedAt.UTC().Format(time.RFC3339))
}

// Entry records the last successfully synchronized state of one document.
type Entry struct {
	Fingerprint  string    `json:"fingerprint"`
	FileID       string    `json:"file_id"`
	Title        string    `json:"title,omitempty"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}
