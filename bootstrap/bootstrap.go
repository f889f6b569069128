// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokenmeter/tokenmeter/adapters/clock"
	"github.com/tokenmeter/tokenmeter/adapters/hookspool"
	apihttp "github.com/tokenmeter/tokenmeter/adapters/http"
	"github.com/tokenmeter/tokenmeter/adapters/idgen"
	"github.com/tokenmeter/tokenmeter/adapters/metrics"
	"github.com/tokenmeter/tokenmeter/adapters/remote"
	"github.com/tokenmeter/tokenmeter/adapters/sqlite"
	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/config"
	"github.com/tokenmeter/tokenmeter/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	Tracker    *app.TrackerService
	Metrics    *metrics.Collector
	HTTPServer *http.Server
}

// New creates and initializes the application from a config file path.
// hotReload controls whether the config file is watched for changes.
func New(cfgPath string, hotReload bool) (*App, error) {
	bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	holder, err := config.NewHolder(cfgPath, bootLogger)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
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

	collector := metrics.New()
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
		Metrics: collector,
		Logger:  logger,
	})

	handler := apihttp.NewHandler(tracker, collector, logger)
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler.Router(cfg.Metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a := &App{
		Logger:     logger,
		Config:     holder,
		DB:         db,
		Tracker:    tracker,
		Metrics:    collector,
		HTTPServer: server,
	}

	if hotReload {
		holder.OnChange(func(*config.Config) {
			collector.ConfigReloads.Inc()
		})
		holder.OnError(func(error) {
			collector.ConfigReloadErrors.Inc()
		})
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config hot reload disabled")
		}
		holder.WatchSignals()
	}

	return a, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown stops the server and releases resources.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("server shutdown")
	}
	a.Config.Stop()
	return a.DB.Close()
}

func setupLogger(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
