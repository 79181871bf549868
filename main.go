package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kbsync/internal/assistant"
	"kbsync/internal/config"
	"kbsync/internal/index"
	"kbsync/internal/logging"
	"kbsync/internal/metrics"
	"kbsync/internal/middleware"
	"kbsync/internal/normalize"
	"kbsync/internal/notify"
	"kbsync/internal/syncer"
	"kbsync/internal/zendesk"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

// run executes one full sync and returns the process exit code: 0 when
// the run completed (individual document failures included), non-zero
// when the run could not proceed at all.
func run() int {
	logging.SetupLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	runID := uuid.New().String()
	logger := logging.RunLogger(runID)
	logger.Info("Starting article sync run",
		slog.String("subdomain", cfg.ZendeskSubdomain),
		slog.Bool("authenticated", cfg.Authenticated()),
		slog.Bool("delete_removed", cfg.DeleteRemoved))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional debug endpoint so the scheduler platform can scrape
	// metrics and probe liveness while the run is in flight.
	if cfg.MetricsAddr != "" {
		go serveDebug(cfg.MetricsAddr, logger)
	}

	start := time.Now()

	// Load the prior index before touching anything remote. A corrupt
	// index aborts: silently resetting would re-upload every document.
	ix, err := index.Load(cfg.IndexPath)
	if err != nil {
		if errors.Is(err, index.ErrCorrupt) {
			logger.Error("Index is corrupt, refusing to continue", "error", err, slog.String("path", cfg.IndexPath))
		} else {
			logger.Error("Could not load index", "error", err)
		}
		return 1
	}
	logger.Info("Loaded index", slog.Int("entries", ix.Len()))

	// Fetch the complete current article set. Failure here is fatal and
	// leaves the index untouched.
	client := zendesk.NewClient(zendesk.Config{
		Subdomain: cfg.ZendeskSubdomain,
		Email:     cfg.ZendeskEmail,
		Token:     cfg.ZendeskToken,
	})
	articles, rejected, err := client.ListArticles(ctx)
	if err != nil {
		logger.Error("Could not fetch articles from source", "error", err)
		return 1
	}

	// Removal detection compares the index against the fetched id set, so
	// it is only sound when that set is the complete catalog. A fetch
	// limit or rejected records make it partial; the syncer then leaves
	// removal candidates alone.
	complete := rejected == 0
	if cfg.FetchLimit > 0 && len(articles) > cfg.FetchLimit {
		articles = articles[:cfg.FetchLimit]
		complete = false
	}
	logger.Info("Fetched articles",
		slog.Int("count", len(articles)),
		slog.Int("rejected", rejected),
		slog.Bool("complete", complete))

	docs := normalize.New().Documents(articles)

	// Resolve the remote store, bootstrapping assistant and vector store
	// on first run. The state file is persisted before any uploads so an
	// interrupted bootstrap is never repeated with fresh resources.
	state, err := assistant.LoadState(cfg.StatePath)
	if err != nil {
		logger.Error("Could not load assistant state", "error", err)
		return 1
	}
	if cfg.VectorStoreID != "" {
		state.VectorStoreID = cfg.VectorStoreID
	}
	state, err = assistant.Bootstrap(ctx, cfg.OpenAIAPIKey, state)
	if err != nil {
		logger.Error("Could not bootstrap document store", "error", err)
		return 1
	}
	if err := assistant.SaveState(cfg.StatePath, state); err != nil {
		logger.Error("Could not persist assistant state", "error", err)
		return 1
	}

	store := assistant.NewStore(cfg.OpenAIAPIKey, state.VectorStoreID)

	s := syncer.New(store, ix, syncer.Options{
		DeleteRemoved: cfg.DeleteRemoved,
		SkipRemovals:  !complete,
		Logger:        logger,
	})
	report, runErr := s.Run(ctx, docs)

	// The index reflects exactly the confirmed synchronizations; persist
	// it even after a partial or interrupted run.
	if err := ix.Save(); err != nil {
		logger.Error("Could not save index", "error", err)
		return 1
	}

	state.LastSyncAt = time.Now().UTC()
	if err := assistant.SaveState(cfg.StatePath, state); err != nil {
		logger.Warn("Could not update assistant state", "error", err)
	}

	metrics.IndexSize.Set(float64(ix.Len()))
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	emitReport(logger, report, time.Since(start))

	if cfg.SlackWebhookURL != "" {
		if err := notify.PostRunReport(ctx, cfg.SlackWebhookURL, runID, report); err != nil {
			logger.Warn("Could not post run report to Slack", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("Run interrupted", "error", runErr)
		return 1
	}

	return 0
}

func emitReport(logger *slog.Logger, report *syncer.Report, took time.Duration) {
	logger.Info("Run complete",
		slog.Int("added", report.Added),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped),
		slog.Int("removed", report.Removed),
		slog.Int("failed", report.Failed()),
		slog.Duration("duration", took))

	for _, f := range report.Failures {
		logger.Warn("Document failed",
			slog.String("document_id", f.DocumentID),
			slog.String("op", f.Op),
			slog.String("reason", f.Reason))
	}
}

func serveDebug(addr string, logger *slog.Logger) {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Info("Debug endpoint listening", slog.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("Debug endpoint failed", "error", err)
	}
}
