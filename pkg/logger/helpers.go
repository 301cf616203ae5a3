package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogFetch logs the completion of one trace request.
// Success is debug-level since a crawl issues one request per aircraft-day.
func LogFetch(l Logger, identifier, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"icao":        identifier,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("Trace request completed", fields)
	case statusCode == 404:
		// No trace for that day is the common case for a grounded aircraft
		l.DebugWithFields("Trace not found", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("Trace request client error", fields)
	default:
		l.ErrorWithFields("Trace request server error", fields)
	}
}

// LogWindow logs the crawl window resolved for an aircraft
func LogWindow(l Logger, identifier string, isNew bool, start, end time.Time, days int) {
	l.InfoWithFields("Crawl window resolved", map[string]interface{}{
		"icao":  identifier,
		"new":   isNew,
		"start": start.Format("2006/01/02"),
		"end":   end.Format("2006/01/02"),
		"days":  days,
	})
}

// LogRunSummary logs the counters of a finished run
func LogRunSummary(l Logger, runID string, aircraft, targets, persisted, dropped, failed int, elapsed time.Duration) {
	l.InfoWithFields("Crawl run finished", map[string]interface{}{
		"run_id":    runID,
		"aircraft":  aircraft,
		"targets":   targets,
		"persisted": persisted,
		"dropped":   dropped,
		"failed":    failed,
		"elapsed":   elapsed,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
