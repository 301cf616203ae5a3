package crawler

import (
	"context"
	"time"

	"trackcrawler/internal/downloader"
	"trackcrawler/pkg/ledger"
	"trackcrawler/pkg/models"
)

// CheckpointStore reads and writes the global last-completed date
type CheckpointStore interface {
	Read() (time.Time, error)
	Write(day time.Time) error
}

// EntityStore decides crawl windows and stores parsed days
type EntityStore interface {
	Resolve(aircraft models.AircraftTarget, checkpoint, today time.Time) (models.CrawlWindow, error)
	Persist(aircraft models.AircraftTarget, record *models.DayRecord) (string, error)
}

// Fetcher downloads a batch of targets, one result per target in target order
type Fetcher interface {
	FetchAll(ctx context.Context, targets []models.FetchTarget) []downloader.Result
}

// TraceParser decodes one raw payload
type TraceParser interface {
	Parse(payload []byte) (*models.DayRecord, error)
}

// Ledger records runs and the days that failed
type Ledger interface {
	RecordRun(ctx context.Context, run ledger.Run) error
	Unresolved(ctx context.Context) ([]ledger.Failure, error)
}

// Observer is notified as aircraft are processed
type Observer interface {
	AircraftStarted(index, total int, aircraft models.AircraftTarget, window models.CrawlWindow, targets int)
	AircraftFinished(index, total int, result AircraftResult)
}
