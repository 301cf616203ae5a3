package downloader

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
)

// TraceFetcher downloads the raw document of one target
type TraceFetcher interface {
	FetchTrace(ctx context.Context, target models.FetchTarget) ([]byte, error)
}

// Result is the outcome of fetching one target.
// Exactly one of Payload and Err is set.
type Result struct {
	Target   models.FetchTarget
	Payload  []byte
	Err      error
	Duration time.Duration
}

// Pool fans a batch of targets out to a bounded number of concurrent fetches
type Pool struct {
	width   int
	fetcher TraceFetcher
	logger  logger.Logger
}

// NewPool creates a pool running at most width fetches at once.
// A width of 0 or less issues every target of a batch concurrently.
func NewPool(width int, fetcher TraceFetcher, log logger.Logger) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		width:   width,
		fetcher: fetcher,
		logger:  log,
	}
}

// Width returns the concurrency limit, 0 meaning unbounded
func (p *Pool) Width() int {
	if p.width < 0 {
		return 0
	}
	return p.width
}

// FetchAll fetches every target and returns one result per target, in target order.
// A failing target never cancels its siblings; FetchAll returns once all have completed.
func (p *Pool) FetchAll(ctx context.Context, targets []models.FetchTarget) []Result {
	results := make([]Result, len(targets))
	if len(targets) == 0 {
		return results
	}

	p.logger.DebugWithFields("Dispatching fetch batch", map[string]interface{}{
		"targets": len(targets),
		"width":   p.Width(),
	})

	// Workers never return an error so a failed target cannot cancel the group
	var g errgroup.Group
	if p.width > 0 {
		g.SetLimit(p.width)
	}

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			results[i] = p.fetch(ctx, target)
			return nil
		})
	}
	g.Wait()

	return results
}

func (p *Pool) fetch(ctx context.Context, target models.FetchTarget) Result {
	start := time.Now()
	result := Result{Target: target}

	if err := ctx.Err(); err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	payload, err := p.fetcher.FetchTrace(ctx, target)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		p.logger.DebugWithFields("Fetch failed", map[string]interface{}{
			"icao":     target.Identifier,
			"day":      target.Day.Format("2006/01/02"),
			"error":    err.Error(),
			"duration": result.Duration,
		})
		return result
	}

	result.Payload = payload
	return result
}
