// Package crawler orchestrates the incremental crawl of flight track history.
//
// A run walks the roster one aircraft at a time. For each aircraft the entity
// store decides the window: known aircraft resume from the global checkpoint,
// aircraft seen for the first time start at the archive epoch. Every day in the
// window becomes a fetch target, the whole batch is fetched concurrently, and
// each payload is parsed and persisted as one storage unit.
//
// Failures are isolated per day. A day that cannot be fetched, parsed or
// written is recorded as an outcome and the run moves on. Once the roster is
// done the checkpoint is set to today, so the next run only covers the days
// that passed in between. Cancelling the context stops the run without moving
// the checkpoint.
//
// Usage:
//
//	c, err := crawler.New(crawler.Deps{
//	    Checkpoint: checkpoint.NewStore(path, dates.Epoch, log),
//	    Store:      manager,
//	    Fetcher:    downloader.NewPool(0, client, log),
//	    Parser:     trace.NewParser(loc),
//	    Ledger:     failures,
//	})
//	if err != nil {
//	    return err
//	}
//
//	report, err := c.Execute(ctx, aircraft)
//
// Days the ledger still lists as failed can be fetched again with RetryFailed,
// which leaves the checkpoint alone.
package crawler
