package crawler

import (
	"context"
	"fmt"
	"time"

	"trackcrawler/pkg/dates"
	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/globe"
	"trackcrawler/pkg/ledger"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
)

// Run modes recorded in the ledger
const (
	ModeCrawl = "crawl"
	ModeRetry = "retry"
)

// Deps wires a Crawler. Ledger and Observer are optional.
type Deps struct {
	Checkpoint CheckpointStore
	Store      EntityStore
	Fetcher    Fetcher
	Parser     TraceParser
	Ledger     Ledger
	Observer   Observer

	BaseURL  string
	Location *time.Location
	Now      func() time.Time
	Logger   logger.Logger
}

// Crawler drives the incremental crawl of a roster
type Crawler struct {
	checkpoint CheckpointStore
	store      EntityStore
	fetcher    Fetcher
	parser     TraceParser
	ledger     Ledger
	observer   Observer

	baseURL  string
	location *time.Location
	now      func() time.Time
	logger   logger.Logger
}

// New creates a crawler from its dependencies
func New(deps Deps) (*Crawler, error) {
	if deps.Checkpoint == nil || deps.Store == nil || deps.Fetcher == nil || deps.Parser == nil {
		return nil, errs.NewConfigurationError("crawler requires a checkpoint store, entity store, fetcher and parser", nil)
	}

	c := &Crawler{
		checkpoint: deps.Checkpoint,
		store:      deps.Store,
		fetcher:    deps.Fetcher,
		parser:     deps.Parser,
		ledger:     deps.Ledger,
		observer:   deps.Observer,
		baseURL:    deps.BaseURL,
		location:   deps.Location,
		now:        deps.Now,
		logger:     deps.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = globe.DefaultBaseURL
	}
	if c.location == nil {
		c.location = time.Local
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = logger.GetLogger()
	}
	return c, nil
}

// Execute performs one full run: read the checkpoint, crawl the roster, write today as the new checkpoint.
// The checkpoint advances even when individual days failed. It is left untouched only when the run is interrupted.
func (c *Crawler) Execute(ctx context.Context, roster []models.AircraftTarget) (*Report, error) {
	checkpoint, err := c.checkpoint.Read()
	if err != nil {
		return nil, errs.NewConfigurationError("failed to read checkpoint", err)
	}

	report, runErr := c.Run(ctx, roster, checkpoint)
	if runErr == nil {
		if err := c.checkpoint.Write(report.Today); err != nil {
			c.record(report)
			return report, fmt.Errorf("failed to write checkpoint: %w", err)
		}
		report.Checkpoint = report.Today
	}

	c.record(report)
	logger.LogRunSummary(c.logger, report.RunID, len(report.Aircraft), report.Targets(),
		report.Count(StatusPersisted), report.Count(StatusDropped), report.Failed(),
		report.FinishedAt.Sub(report.StartedAt))

	return report, runErr
}

// Run crawls every aircraft of roster in order, resuming known aircraft from checkpoint.
// Per-day failures are captured as outcomes; only cancellation of ctx stops the run early.
func (c *Crawler) Run(ctx context.Context, roster []models.AircraftTarget, checkpoint time.Time) (*Report, error) {
	report := c.newReport(ModeCrawl)
	report.Checkpoint = dates.Day(checkpoint)

	c.logger.InfoWithFields("Starting crawl", map[string]interface{}{
		"run_id":     report.RunID,
		"aircraft":   len(roster),
		"checkpoint": dates.Format(report.Checkpoint),
		"today":      dates.Format(report.Today),
	})

	for i, aircraft := range roster {
		if err := ctx.Err(); err != nil {
			return c.interrupted(report, err)
		}

		result := AircraftResult{Aircraft: aircraft}

		window, err := c.store.Resolve(aircraft, report.Checkpoint, report.Today)
		if err != nil {
			result.Err = err
			c.skipAircraft(i, len(roster), result)
			report.Aircraft = append(report.Aircraft, result)
			continue
		}
		result.Window = window

		days := dates.Range(window.Start, window.End)
		logger.LogWindow(c.logger, aircraft.Identifier, window.New, window.Start, window.End, len(days))

		targets, err := globe.BuildTargets(c.baseURL, aircraft.Identifier, days)
		if err != nil {
			result.Err = errs.NewConfigurationError("invalid aircraft identifier", err)
			c.skipAircraft(i, len(roster), result)
			report.Aircraft = append(report.Aircraft, result)
			continue
		}

		result.Outcomes = c.crawlTargets(ctx, i, len(roster), aircraft, window, targets)
		report.Aircraft = append(report.Aircraft, result)
		c.finishAircraft(i, len(roster), result)
	}

	if err := ctx.Err(); err != nil {
		return c.interrupted(report, err)
	}

	report.FinishedAt = c.now()
	return report, nil
}

// RetryFailed re-fetches the days the ledger still lists as failed.
// The checkpoint is neither read for windows nor moved.
func (c *Crawler) RetryFailed(ctx context.Context, roster []models.AircraftTarget) (*Report, error) {
	if c.ledger == nil {
		return nil, errs.NewConfigurationError("retry requires the failure ledger", nil)
	}

	checkpoint, err := c.checkpoint.Read()
	if err != nil {
		return nil, errs.NewConfigurationError("failed to read checkpoint", err)
	}

	failures, err := c.ledger.Unresolved(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}

	report := c.newReport(ModeRetry)
	report.Checkpoint = checkpoint

	daysByAircraft := make(map[string][]time.Time)
	for _, f := range failures {
		daysByAircraft[f.Identifier] = append(daysByAircraft[f.Identifier], f.Day)
	}

	inRoster := make(map[string]bool, len(roster))
	var pending []models.AircraftTarget
	for _, aircraft := range roster {
		inRoster[aircraft.Identifier] = true
		if len(daysByAircraft[aircraft.Identifier]) > 0 {
			pending = append(pending, aircraft)
		}
	}
	for identifier, days := range daysByAircraft {
		if !inRoster[identifier] {
			c.logger.WarnWithFields("Failed days of aircraft not in roster skipped", map[string]interface{}{
				"icao": identifier,
				"days": len(days),
			})
		}
	}

	c.logger.InfoWithFields("Retrying failed days", map[string]interface{}{
		"run_id":   report.RunID,
		"failures": len(failures),
		"aircraft": len(pending),
	})

	var runErr error
	for i, aircraft := range pending {
		if err := ctx.Err(); err != nil {
			report.Interrupted = true
			runErr = err
			break
		}

		days := daysByAircraft[aircraft.Identifier]
		result := AircraftResult{
			Aircraft: aircraft,
			Window:   models.CrawlWindow{Start: days[0], End: days[len(days)-1]},
		}

		targets, err := globe.BuildTargets(c.baseURL, aircraft.Identifier, days)
		if err != nil {
			result.Err = errs.NewConfigurationError("invalid aircraft identifier", err)
			c.skipAircraft(i, len(pending), result)
			report.Aircraft = append(report.Aircraft, result)
			continue
		}

		result.Outcomes = c.crawlTargets(ctx, i, len(pending), aircraft, result.Window, targets)
		report.Aircraft = append(report.Aircraft, result)
		c.finishAircraft(i, len(pending), result)
	}

	report.FinishedAt = c.now()
	c.record(report)
	logger.LogRunSummary(c.logger, report.RunID, len(report.Aircraft), report.Targets(),
		report.Count(StatusPersisted), report.Count(StatusDropped), report.Failed(),
		report.FinishedAt.Sub(report.StartedAt))

	return report, runErr
}

func (c *Crawler) newReport(mode string) *Report {
	now := c.now()
	return &Report{
		RunID:     ledger.NewRunID(),
		Mode:      mode,
		StartedAt: now,
		Today:     dates.Today(now, c.location),
	}
}

func (c *Crawler) interrupted(report *Report, err error) (*Report, error) {
	report.Interrupted = true
	report.FinishedAt = c.now()
	c.logger.WarnWithFields("Crawl interrupted", map[string]interface{}{
		"run_id":    report.RunID,
		"processed": len(report.Aircraft),
	})
	return report, err
}

// crawlTargets fetches one aircraft's batch and turns every result into an outcome
func (c *Crawler) crawlTargets(ctx context.Context, index, total int, aircraft models.AircraftTarget, window models.CrawlWindow, targets []models.FetchTarget) []Outcome {
	if c.observer != nil {
		c.observer.AircraftStarted(index, total, aircraft, window, len(targets))
	}

	results := c.fetcher.FetchAll(ctx, targets)
	outcomes := make([]Outcome, 0, len(results))
	for _, result := range results {
		outcome := Outcome{Target: result.Target}

		if result.Err != nil {
			outcome.Status = StatusFetchFailed
			outcome.Err = result.Err
			outcomes = append(outcomes, c.logOutcome(outcome))
			continue
		}

		record, err := c.parser.Parse(result.Payload)
		if err != nil {
			outcome.Status = StatusParseFailed
			outcome.Err = err
			outcomes = append(outcomes, c.logOutcome(outcome))
			continue
		}

		if !record.Persistable() {
			outcome.Status = StatusDropped
			outcomes = append(outcomes, c.logOutcome(outcome))
			continue
		}

		path, err := c.store.Persist(aircraft, record)
		if err != nil {
			outcome.Status = StatusPersistFailed
			outcome.Err = err
			outcomes = append(outcomes, c.logOutcome(outcome))
			continue
		}

		outcome.Status = StatusPersisted
		outcome.Path = path
		outcome.Points = len(record.Points)
		outcomes = append(outcomes, c.logOutcome(outcome))
	}
	return outcomes
}

func (c *Crawler) logOutcome(o Outcome) Outcome {
	fields := map[string]interface{}{
		"icao":   o.Target.Identifier,
		"day":    dates.Format(o.Target.Day),
		"status": string(o.Status),
	}
	if o.Err != nil {
		fields["error"] = o.Err.Error()
	}

	switch o.Status {
	case StatusPersisted:
		fields["points"] = o.Points
		fields["path"] = o.Path
		c.logger.DebugWithFields("Day persisted", fields)
	case StatusDropped:
		c.logger.DebugWithFields("Day has no track points, dropped", fields)
	case StatusFetchFailed:
		// LogFetch already reported the response
		c.logger.DebugWithFields("Day skipped, fetch failed", fields)
	default:
		c.logger.WarnWithFields("Day skipped", fields)
	}
	return o
}

func (c *Crawler) skipAircraft(index, total int, result AircraftResult) {
	c.logger.ErrorWithFields("Aircraft skipped", map[string]interface{}{
		"icao":  result.Aircraft.Identifier,
		"error": result.Err.Error(),
	})
	if c.observer != nil {
		c.observer.AircraftFinished(index, total, result)
	}
}

func (c *Crawler) finishAircraft(index, total int, result AircraftResult) {
	c.logger.InfoWithFields("Aircraft finished", map[string]interface{}{
		"icao":      result.Aircraft.Identifier,
		"targets":   len(result.Outcomes),
		"persisted": result.Count(StatusPersisted),
		"dropped":   result.Count(StatusDropped),
		"failed":    result.Count(StatusFetchFailed) + result.Count(StatusParseFailed) + result.Count(StatusPersistFailed),
	})
	if c.observer != nil {
		c.observer.AircraftFinished(index, total, result)
	}
}

// record stores the run in the ledger; a ledger failure never fails the run
func (c *Crawler) record(report *Report) {
	if c.ledger == nil {
		return
	}
	// The run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.ledger.RecordRun(ctx, report.LedgerRun()); err != nil {
		c.logger.ErrorWithFields("Failed to record run in ledger", map[string]interface{}{
			"run_id": report.RunID,
			"error":  err.Error(),
		})
	}
}
