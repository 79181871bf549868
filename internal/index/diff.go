package index

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint returns the SHA-256 hex digest of a document's canonical
// content. Byte-identical content always produces the same fingerprint.
func Fingerprint(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// Changes is the result of classifying one run's documents against the
// prior index.
type Changes struct {
	New       []*Document
	Updated   []*Document
	Unchanged []*Document
	// Removed holds document ids present in the index but absent from the
	// current fetch. Detection is strictly the full fetched id set against
	// the full index; no reconciliation across runs is attempted.
	Removed []string
}

// Classify assigns every document to exactly one of new/updated/unchanged
// by comparing its fingerprint to the index, and reports indexed ids that
// no longer exist upstream. It is a pure function: the index is only read.
func Classify(docs []*Document, ix *Index) Changes {
	var ch Changes

	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		seen[doc.ID] = true

		entry, ok := ix.Get(doc.ID)
		switch {
		case !ok:
			ch.New = append(ch.New, doc)
		case entry.Fingerprint != Fingerprint(doc.Content()):
			ch.Updated = append(ch.Updated, doc)
		default:
			ch.Unchanged = append(ch.Unchanged, doc)
		}
	}

	for _, id := range ix.IDs() {
		if !seen[id] {
			ch.Removed = append(ch.Removed, id)
		}
	}

	return ch
}
