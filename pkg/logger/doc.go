// Package logger provides a structured logging interface for the track crawler.
//
// It wraps zerolog with:
// - Log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Colored console output on stderr
// - An optional JSON log file next to the console output
// - A global logger instance
//
// Basic Usage:
//
//	import "trackcrawler/pkg/logger"
//
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File:  "./logs/trackcrawler.log",
//	}
//	err := logger.Initialize(cfg)
//
//	logger.Info("Crawler started")
//	logger.WithField("icao", "780a3b").Info("Aircraft finished")
//	logger.WithError(err).Error("Failed to write checkpoint")
//
// Fields:
//
//	log := logger.GetLogger().WithField("component", "ledger")
//
//	log.InfoWithFields("Run recorded", map[string]interface{}{
//	    "run_id":   runID,
//	    "failures": 3,
//	})
//
// Helpers such as LogFetch and LogRunSummary keep field names consistent
// across packages. Tests use NewTestLogger to assert on emitted messages.
package logger
