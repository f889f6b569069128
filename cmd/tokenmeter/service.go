package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tokenmeter/tokenmeter/adapters/clock"
	"github.com/tokenmeter/tokenmeter/adapters/hookspool"
	"github.com/tokenmeter/tokenmeter/adapters/idgen"
	"github.com/tokenmeter/tokenmeter/adapters/metrics"
	"github.com/tokenmeter/tokenmeter/adapters/remote"
	"github.com/tokenmeter/tokenmeter/adapters/sqlite"
	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/config"
	"github.com/tokenmeter/tokenmeter/ports"
)

// cliApp wires a TrackerService for one-shot commands, without the
// HTTP server or config watchers.
type cliApp struct {
	holder  *config.Holder
	db      *sqlite.DB
	tracker *app.TrackerService
}

func newCLIApp() (*cliApp, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()

	holder, err := config.NewHolder(cfgFile, logger)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	clk := clock.Real{}

	var remoteSource ports.RemoteUsageSource
	if cfg.AdminAPI != nil {
		client := remote.NewClient(remote.Config{
			BaseURL: cfg.AdminAPI.BaseURL,
			APIKey:  cfg.AdminAPI.APIKey,
			Timeout: cfg.AdminAPI.Timeout,
		})
		remoteSource = remote.NewUsageSource(client, clk)
	}

	tracker := app.NewTrackerService(app.TrackerDeps{
		Store:   sqlite.NewUsageStore(db),
		Hooks:   hookspool.New(cfg.Hooks.SpoolPath),
		Remote:  remoteSource,
		Clock:   clk,
		IDs:     idgen.UUID{},
		Config:  holder,
		Metrics: metrics.NewWith(prometheus.NewRegistry()),
		Logger:  logger,
	})

	return &cliApp{holder: holder, db: db, tracker: tracker}, nil
}

func (a *cliApp) Close() error {
	a.holder.Stop()
	return a.db.Close()
}
