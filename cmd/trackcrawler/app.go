package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trackcrawler/internal/downloader"
	"trackcrawler/pkg/checkpoint"
	"trackcrawler/pkg/config"
	"trackcrawler/pkg/crawler"
	"trackcrawler/pkg/dates"
	"trackcrawler/pkg/globe"
	"trackcrawler/pkg/ledger"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
	"trackcrawler/pkg/roster"
	"trackcrawler/pkg/storage"
	"trackcrawler/pkg/trace"
	"trackcrawler/pkg/ui"
)

// app holds everything a run needs, built from the loaded configuration
type app struct {
	cfg     *config.Config
	log     logger.Logger
	crawler *crawler.Crawler
	store   *checkpoint.Store
	ledger  *ledger.Ledger
}

// loadConfig merges flags into the configuration and initializes the global logger
func loadConfig(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevelOverride != "" {
		flags["log-level"] = logLevelOverride
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("trackcrawler starting")

	return cfg, log, nil
}

// newApp wires the crawler from cfg
func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	epoch, err := dates.Parse(cfg.Checkpoint.Epoch)
	if err != nil {
		return nil, err
	}

	manager, err := storage.NewManager(cfg.Output.BaseDirectory, epoch, log)
	if err != nil {
		return nil, err
	}

	client := globe.NewClient(cfg.Source.Timeout, cfg.Source.UserAgent, cfg.Source.Referer, log)
	pool := downloader.NewPool(cfg.Fetch.Concurrency, client, log)
	store := checkpoint.NewStore(cfg.Checkpoint.Path, epoch, log)

	a := &app{
		cfg:   cfg,
		log:   log,
		store: store,
	}

	deps := crawler.Deps{
		Checkpoint: store,
		Store:      manager,
		Fetcher:    pool,
		Parser:     trace.NewParser(loc),
		BaseURL:    cfg.Source.BaseURL,
		Location:   loc,
		Logger:     log,
		Observer:   ui.NewProgressDisplay(verbose || logLevelOverride == "debug"),
	}

	if cfg.Ledger.Enabled {
		l, err := ledger.Open(cfg.Ledger.Path, log)
		if err != nil {
			return nil, err
		}
		a.ledger = l
		deps.Ledger = l
	}

	c, err := crawler.New(deps)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.crawler = c

	return a, nil
}

// loadRoster reads the aircraft roster named by the configuration
func (a *app) loadRoster() ([]models.AircraftTarget, error) {
	aircraft, err := roster.Load(a.cfg.Roster.Path, roster.Options{
		Sheet:      a.cfg.Roster.Sheet,
		HeaderRows: a.cfg.Roster.HeaderRows,
		Logger:     a.log,
	})
	if err != nil {
		return nil, err
	}
	ui.PrintInfo("Roster", fmt.Sprintf("%s (%d aircraft)", a.cfg.Roster.Path, len(aircraft)))
	return aircraft, nil
}

// Close releases the ledger database
func (a *app) Close() {
	if a.ledger == nil {
		return
	}
	if err := a.ledger.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close ledger")
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
