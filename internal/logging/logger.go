package logging

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger configures structured logging for the application
func SetupLogger() *slog.Logger {
	// Default to INFO level
	level := slog.LevelInfo

	// Parse log level from environment
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		switch strings.ToUpper(envLevel) {
		case "DEBUG":
			level = slog.LevelDebug
		case "INFO":
			level = slog.LevelInfo
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		}
	}

	// Create handler with appropriate format
	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// RunLogger creates a logger carrying the identifier of a single sync run
func RunLogger(runID string) *slog.Logger {
	return slog.Default().With(slog.String("run_id", runID))
}
