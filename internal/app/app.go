package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/logging"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/wiring"
)

// App is the thin lifecycle manager that delegates dependency construction to wiring.Container.
type App struct {
	cfg        Config
	container  *wiring.Container
	httpServer *http.Server
}

// New constructs the application by creating a logger, wiring infrastructure
// components via the container, and setting up the HTTP server.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	out := cfg.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := logging.NewText(out, cfg.LogLevel)

	if cfg.APIKey != "" {
		logger.Warn("advisor API key configured but no remote backend is built in, using template advisor", "model", cfg.DefaultModel)
	}

	container, err := wiring.New(wiring.Params{
		DataDir:           cfg.DataDir,
		ReferenceFile:     cfg.ReferenceFile,
		CommandsFile:      cfg.CommandsFile,
		LogFile:           cfg.LogFile,
		RulesFile:         cfg.RulesFile,
		OperationsFile:    cfg.OperationsFile,
		TimeZone:          cfg.TimeZone,
		TraceSize:         cfg.TraceSize,
		RateLimiterTTL:    cfg.RateLimiterTTL,
		SubmitRate:        cfg.SubmitRate,
		SubmitBurst:       cfg.SubmitBurst,
		DefaultEngine:     cfg.DefaultEngine,
		DefaultModel:      cfg.DefaultModel,
		DetailURLTemplate: cfg.DetailURLTemplate,
		RecentLimit:       cfg.RecentLimit,
		CORSOrigins:       cfg.CORSOrigins,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wire infrastructure: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      container.Server(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		container:  container,
		httpServer: httpServer,
	}, nil
}

// Container exposes the wired components to one-shot commands.
func (a *App) Container() *wiring.Container {
	return a.container
}

// Close releases resources. It is idempotent.
func (a *App) Close() {
	a.container.Close()
}

// Load reads the data directory and logs any warnings.
func (a *App) Load(ctx context.Context) (*services.Snapshot, error) {
	logger := a.container.Logger()
	snap, err := a.container.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	for _, w := range snap.Warnings {
		logger.Warn("reference data warning", "warning", w)
	}
	return snap, nil
}

// Run executes the full application lifecycle: load reference data, start
// the watcher and session janitor, serve HTTP, and handle graceful shutdown
// on SIGINT/SIGTERM or context cancellation.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	logger := a.container.Logger()

	if _, err := a.Load(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := a.setupWatcher()
	if watcher != nil {
		defer watcher.Stop()
	}

	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		a.runSessionJanitor(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting test lab advisor", "addr", a.httpServer.Addr, "data_dir", a.cfg.DataDir)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
		stop()
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}
	<-janitorDone
	if runErr != nil {
		return runErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func (a *App) setupWatcher() *filesystem.Watcher {
	logger := a.container.Logger()
	handle := a.container.Dataset()

	// The test log lives in the data directory; appends must not trigger reloads.
	ignore := []string{a.cfg.LogFile}
	watcher, err := filesystem.NewWatcher(a.cfg.DataDir, a.cfg.WatcherDebounce, logger, ignore, func() {
		snap, err := handle.Reload(context.Background())
		if err != nil {
			logger.Error("hot reload failed", "error", err)
			return
		}
		logger.Info("hot reload complete", "version", snap.Version, "records", snap.Dataset.Len(), "warnings", len(snap.Warnings))
	})
	if err != nil {
		logger.Warn("file watcher not available", "error", err)
		return nil
	}

	watcher.Start()
	logger.Info("file watcher started", "root", a.cfg.DataDir)
	return watcher
}

// runSessionJanitor evicts idle sessions until ctx is done.
func (a *App) runSessionJanitor(ctx context.Context) {
	ttl := a.cfg.SessionTTL
	if ttl <= 0 {
		return
	}
	interval := max(ttl/2, time.Second)
	clk := a.container.Clock()
	sessions := a.container.Sessions()
	logger := a.container.Logger()

	for {
		if err := clk.SleepContext(ctx, interval); err != nil {
			return
		}
		if n := sessions.EvictIdle(ttl); n > 0 {
			logger.Debug("evicted idle sessions", "count", n, "live", sessions.Len())
		}
	}
}
