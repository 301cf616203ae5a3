package crawler

import (
	"net/http"
	"time"

	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/ledger"
	"trackcrawler/pkg/models"
)

// Status is the result of one aircraft-day
type Status string

const (
	StatusPersisted     Status = "persisted"
	StatusDropped       Status = "dropped"
	StatusFetchFailed   Status = "fetch_failed"
	StatusParseFailed   Status = "parse_failed"
	StatusPersistFailed Status = "persist_failed"
)

// Outcome records what happened to one fetch target
type Outcome struct {
	Target models.FetchTarget
	Status Status
	Err    error
	// Path is the written unit for persisted outcomes
	Path   string
	Points int
}

// Failed reports whether the day produced an error
func (o Outcome) Failed() bool {
	switch o.Status {
	case StatusFetchFailed, StatusParseFailed, StatusPersistFailed:
		return true
	}
	return false
}

// AircraftResult is the per-aircraft part of a report.
// Err is set when the aircraft could not be crawled at all.
type AircraftResult struct {
	Aircraft models.AircraftTarget
	Window   models.CrawlWindow
	Outcomes []Outcome
	Err      error
}

// Count returns the number of outcomes with status
func (r AircraftResult) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Report collects every outcome of a run
type Report struct {
	RunID      string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	// Checkpoint is the global date in effect once the run is over
	Checkpoint time.Time
	Today      time.Time
	Aircraft   []AircraftResult
	// Interrupted is set when the context was cancelled before the roster was done
	Interrupted bool
}

// Outcomes returns every outcome of the run in processing order
func (r *Report) Outcomes() []Outcome {
	var all []Outcome
	for _, a := range r.Aircraft {
		all = append(all, a.Outcomes...)
	}
	return all
}

// Count returns the number of outcomes with status across all aircraft
func (r *Report) Count(status Status) int {
	n := 0
	for _, a := range r.Aircraft {
		n += a.Count(status)
	}
	return n
}

// Targets returns the number of aircraft-days attempted
func (r *Report) Targets() int {
	n := 0
	for _, a := range r.Aircraft {
		n += len(a.Outcomes)
	}
	return n
}

// Failed returns the number of aircraft-days that ended in an error
func (r *Report) Failed() int {
	return r.Count(StatusFetchFailed) + r.Count(StatusParseFailed) + r.Count(StatusPersistFailed)
}

// AircraftErrors returns the aircraft skipped entirely
func (r *Report) AircraftErrors() []AircraftResult {
	var skipped []AircraftResult
	for _, a := range r.Aircraft {
		if a.Err != nil {
			skipped = append(skipped, a)
		}
	}
	return skipped
}

// LedgerRun converts the report into a ledger entry.
// A 404 means the archive has no trace that day, so it is not kept as a failure.
func (r *Report) LedgerRun() ledger.Run {
	run := ledger.Run{
		ID:         r.RunID,
		Mode:       r.Mode,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Checkpoint: r.Checkpoint,
		Aircraft:   len(r.Aircraft),
		Targets:    r.Targets(),
		Persisted:  r.Count(StatusPersisted),
		Dropped:    r.Count(StatusDropped),
		Failed:     r.Failed(),
	}

	for _, o := range r.Outcomes() {
		key := ledger.Key{Identifier: o.Target.Identifier, Day: o.Target.Day}
		if !o.Failed() {
			run.Resolved = append(run.Resolved, key)
			continue
		}

		code := errs.StatusCode(o.Err)
		if o.Status == StatusFetchFailed && code == http.StatusNotFound {
			run.Resolved = append(run.Resolved, key)
			continue
		}

		failure := ledger.Failure{
			Identifier: o.Target.Identifier,
			Day:        o.Target.Day,
			URL:        o.Target.URL,
			Stage:      stageOf(o.Status),
			StatusCode: code,
		}
		if o.Err != nil {
			failure.Message = o.Err.Error()
		}
		run.Failures = append(run.Failures, failure)
	}
	return run
}

func stageOf(status Status) ledger.Stage {
	switch status {
	case StatusParseFailed:
		return ledger.StageParse
	case StatusPersistFailed:
		return ledger.StagePersist
	default:
		return ledger.StageFetch
	}
}
