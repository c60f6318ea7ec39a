// Package analysis orchestrates the photometry pipeline over input files and
// directories and hands the results to the observation and render layers.
package analysis

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/nkarvinen/photometry-go/internal/logging"
)

// Package-level logger for analysis operations
var (
	logger         *slog.Logger
	loggerInitOnce sync.Once
	levelVar       = new(slog.LevelVar) // Dynamic level control
	closeLogger    func() error
)

// GetLogger returns the package logger, initializing the file logger on
// first use. Thread-safe through sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		var err error
		logFilePath := filepath.Join("logs", "analysis.log")
		levelVar.Set(slog.LevelInfo)

		logger, closeLogger, err = logging.NewFileLogger(logFilePath, "analysis", levelVar)
		if err != nil {
			// Fallback: log the error and use a disabled handler so callers
			// never receive nil
			log.Printf("Failed to initialize analysis file logger at %s: %v. Using console logging.", logFilePath, err)
			fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: levelVar})
			logger = slog.New(fbHandler).With("service", "analysis")
			closeLogger = func() error { return nil }
		}
	})
	return logger
}

// SetLogLevel adjusts the minimum level of the package logger.
func SetLogLevel(level slog.Level) {
	levelVar.Set(level)
}
