// Package syncer pushes changed documents to the remote document store
// and keeps the persisted index in step with what was actually confirmed.
package syncer

import (
	"context"
	"log/slog"
	"time"

	"kbsync/internal/index"
	"kbsync/internal/metrics"
)

// DocumentStore is the remote side of the synchronization: upload a named
// blob and get back an opaque reference, or remove a previously uploaded
// blob by reference.
type DocumentStore interface {
	Upload(ctx context.Context, name string, content []byte) (string, error)
	Remove(ctx context.Context, fileID string) error
}

// Failure records one per-document error. Failures never abort the run.
type Failure struct {
	DocumentID string `json:"document_id"`
	Op         string `json:"op"`
	Reason     string `json:"reason"`
}

// Report aggregates the outcome of one run. It is produced even when some
// documents failed.
type Report struct {
	Added    int       `json:"added"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	Removed  int       `json:"removed"`
	Failures []Failure `json:"failures,omitempty"`
}

// Failed returns the number of per-document failures.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// Options tunes synchronization behavior.
type Options struct {
	// DeleteRemoved enables deletion of remote documents whose source
	// article disappeared. Disabled by default; removals are then only
	// logged and the index entries kept.
	DeleteRemoved bool
	// SkipRemovals disables removal handling entirely. Set when the run's
	// fetched id set is incomplete (fetch limit applied, records rejected):
	// classifying removals against a partial set would flag live documents.
	SkipRemovals bool
	// Logger receives run-scoped sync logging. Default: slog.Default().
	Logger *slog.Logger
	// MaxAttempts bounds retries per remote call. Default: 3.
	MaxAttempts int
	// RetryBase is the first backoff delay, doubled per attempt. Default: 1s.
	RetryBase time.Duration
}

func (o *Options) defaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryBase <= 0 {
		o.RetryBase = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Syncer applies one run's classified changes to the document store.
type Syncer struct {
	store  DocumentStore
	index  *index.Index
	logger *slog.Logger
	opts   Options
}

func New(store DocumentStore, ix *index.Index, opts Options) *Syncer {
	opts.defaults()
	return &Syncer{store: store, index: ix, logger: opts.Logger, opts: opts}
}

// Run classifies docs against the index and synchronizes every new or
// updated document. Index entries are written only after the remote store
// confirmed the upload, so an interrupted run retries the remainder next
// time. Returns a non-nil report always; the error is non-nil only when
// the context was cancelled mid-run.
func (s *Syncer) Run(ctx context.Context, docs []*index.Document) (*Report, error) {
	report := &Report{}

	changes := index.Classify(docs, s.index)
	s.logger.Info("Classified documents",
		slog.Int("new", len(changes.New)),
		slog.Int("updated", len(changes.Updated)),
		slog.Int("unchanged", len(changes.Unchanged)),
		slog.Int("removed", len(changes.Removed)))

	report.Skipped = len(changes.Unchanged)
	for range changes.Unchanged {
		metrics.DocumentsSynced.WithLabelValues("unchanged").Inc()
	}

	for _, doc := range changes.New {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if s.uploadDocument(ctx, doc, "", report) {
			report.Added++
			metrics.DocumentsSynced.WithLabelValues("new").Inc()
		}
	}

	for _, doc := range changes.Updated {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entry, _ := s.index.Get(doc.ID)
		if s.uploadDocument(ctx, doc, entry.FileID, report) {
			report.Updated++
			metrics.DocumentsSynced.WithLabelValues("updated").Inc()
		}
	}

	if s.opts.SkipRemovals {
		if len(changes.Removed) > 0 {
			s.logger.Warn("Removal handling skipped, fetched id set is incomplete",
				slog.Int("candidates", len(changes.Removed)))
		}
	} else {
		s.processRemoved(ctx, changes.Removed, report)
	}

	return report, ctx.Err()
}

// uploadDocument uploads one document and, for replacements, removes the
// prior remote copy after the new upload is confirmed. The index entry is
// written only on confirmed success. Returns whether the upload succeeded.
func (s *Syncer) uploadDocument(ctx context.Context, doc *index.Document, priorFileID string, report *Report) bool {
	var fileID string
	err := s.withRetry(ctx, func() error {
		var uploadErr error
		fileID, uploadErr = s.store.Upload(ctx, doc.FileName(), []byte(doc.FileContent()))
		return uploadErr
	})
	if err != nil {
		s.logger.Error("Upload failed, document will be retried next run",
			slog.String("document_id", doc.ID),
			slog.String("title", doc.Title),
			slog.String("error", err.Error()))
		report.Failures = append(report.Failures, Failure{DocumentID: doc.ID, Op: "upload", Reason: err.Error()})
		metrics.SyncFailures.Inc()
		return false
	}

	// Replace, never duplicate: the old copy goes away once the new one
	// is live. If this fails the entry still advances; retrying with the
	// stale reference next run would re-upload a third copy instead.
	if priorFileID != "" {
		if err := s.withRetry(ctx, func() error {
			return s.store.Remove(ctx, priorFileID)
		}); err != nil {
			s.logger.Error("Could not remove replaced document, old copy is orphaned",
				slog.String("document_id", doc.ID),
				slog.String("file_id", priorFileID),
				slog.String("error", err.Error()))
			report.Failures = append(report.Failures, Failure{DocumentID: doc.ID, Op: "replace-cleanup", Reason: err.Error()})
			metrics.SyncFailures.Inc()
		}
	}

	s.index.Set(doc.ID, index.Entry{
		Fingerprint:  index.Fingerprint(doc.Content()),
		FileID:       fileID,
		Title:        doc.Title,
		LastSyncedAt: time.Now().UTC(),
	})

	s.logger.Info("Synchronized document",
		slog.String("document_id", doc.ID),
		slog.String("title", doc.Title),
		slog.String("file_id", fileID))
	return true
}

// processRemoved handles index entries whose source article disappeared.
// With deletion disabled they are logged and retained.
func (s *Syncer) processRemoved(ctx context.Context, removed []string, report *Report) {
	for _, id := range removed {
		entry, ok := s.index.Get(id)
		if !ok {
			continue
		}

		if !s.opts.DeleteRemoved {
			s.logger.Info("Document removed upstream, retained in store (deletion disabled)",
				slog.String("document_id", id),
				slog.String("file_id", entry.FileID))
			continue
		}

		if err := ctx.Err(); err != nil {
			return
		}

		if err := s.withRetry(ctx, func() error {
			return s.store.Remove(ctx, entry.FileID)
		}); err != nil {
			s.logger.Error("Delete failed, entry kept for retry",
				slog.String("document_id", id),
				slog.String("file_id", entry.FileID),
				slog.String("error", err.Error()))
			report.Failures = append(report.Failures, Failure{DocumentID: id, Op: "delete", Reason: err.Error()})
			metrics.SyncFailures.Inc()
			continue
		}

		s.index.Delete(id)
		report.Removed++
		metrics.DocumentsSynced.WithLabelValues("removed").Inc()
		s.logger.Info("Deleted removed document",
			slog.String("document_id", id),
			slog.String("file_id", entry.FileID))
	}
}

// withRetry runs fn with bounded exponential backoff. Retry policy lives
// here so it can change without touching index invariants.
func (s *Syncer) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := s.opts.RetryBase

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == s.opts.MaxAttempts {
			break
		}

		s.logger.Debug("Remote call failed, backing off",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
