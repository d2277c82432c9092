package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"hotparts/internal/config"
	apperrors "hotparts/internal/errors"
	"hotparts/internal/exporter"
	"hotparts/internal/files"
	"hotparts/internal/infrastructure"
	"hotparts/internal/master"
	"hotparts/internal/middleware"
	"hotparts/internal/operations"
	"hotparts/internal/services"
	handlers "hotparts/internal/transport/http"
	ws "hotparts/internal/websocket"
	"hotparts/pkg/contracts"
	"hotparts/pkg/contracts/events"
)

// AppName is reported in logs and health responses
const AppName = "hotparts"

// queueStopTimeout bounds how long Stop waits for running passes.
const queueStopTimeout = 30 * time.Second

// Options adjust how the application is assembled.
type Options struct {
	// Config is used as-is when set; otherwise ConfigFile (or the default
	// lookup when empty) is loaded.
	Config     *config.Config
	ConfigFile string
	// Logger replaces the logger built from the logging config.
	Logger *slog.Logger
}

// Application represents the main application container
type Application struct {
	Config *config.Config
	Paths  *config.Paths
	Logger *slog.Logger

	OTelProviders *infrastructure.OTelProviders
	Store         *master.SQLiteStore
	Masters       *master.Accumulator
	Files         *files.Manager
	Discovery     *files.Discovery
	Pipeline      *operations.Pipeline
	Queue         *operations.FileQueue
	Exporter      *exporter.MasterExporter

	QueryService  *services.QueryService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub
	Router        chi.Router
	Server        *http.Server

	runCtx    context.Context
	cancelRun context.CancelFunc
	bg        sync.WaitGroup
	started   bool
}

// New loads configuration and wires every component. Nothing is started.
func New(ctx context.Context, opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if opts.ConfigFile != "" {
			cfg, err = config.LoadFile(opts.ConfigFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return nil, apperrors.NewConfigError("failed to load configuration", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	a := &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
	}

	a.OTelProviders, err = infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.OTel), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	if err := a.initializeStorage(ctx); err != nil {
		a.shutdownOTel(ctx)
		return nil, err
	}

	if err := a.initializeServices(); err != nil {
		a.Store.Close()
		a.shutdownOTel(ctx)
		return nil, err
	}

	if err := a.setupRouter(); err != nil {
		a.Store.Close()
		a.shutdownOTel(ctx)
		return nil, err
	}
	a.createServer()

	return a, nil
}

func (a *Application) initializeStorage(ctx context.Context) error {
	store, err := master.OpenSQLite(ctx, a.Paths.DatabasePath, a.Logger)
	if err != nil {
		return apperrors.NewStorageError("failed to open master database", err)
	}

	acc, err := master.Open(ctx, store, a.Logger)
	if err != nil {
		store.Close()
		return apperrors.NewStorageError("failed to load master database", err)
	}

	a.Store = store
	a.Masters = acc
	return nil
}

func (a *Application) initializeServices() error {
	metrics, err := operations.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	a.Files = files.NewManager(a.Paths, a.Logger)
	a.Discovery = files.NewDiscovery(a.Paths.BaseDir)
	a.Pipeline = operations.NewPipeline(a.Masters, metrics, a.Logger)
	a.Queue = operations.NewFileQueue(
		a.Config.Processing.Workers,
		a.Config.Processing.QueueSize,
		a.Pipeline,
		a.Files,
		a.Store,
		a.Logger,
	)
	a.Exporter = exporter.NewMasterExporter(a.Masters, a.Paths.OutputDir, a.Config.Processing.ExportCSV, a.Logger)
	a.WebSocketHub = ws.NewHub(a.Logger)

	a.QueryService = services.NewQueryService(a.Masters, a.Store, a.Logger)
	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, services.HealthDeps{
		Paths: a.Paths,
		Log:   a.Store,
		Queue: a.Queue,
		Hub:   a.WebSocketHub,
	}, a.Logger)

	return nil
}

func (a *Application) setupRouter() error {
	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.OTel.Environment == "development")

	otelMiddleware, err := middleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.OTelProviders.Meter, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP instrumentation: %w", err)
	}

	var limiter *middleware.RateLimiter
	if rl := a.Config.Security.RateLimit; rl.Enabled {
		limiter = middleware.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger)
	}

	a.Router = handlers.NewRouter(handlers.RouterConfig{
		Logger:         a.Logger,
		ErrorHandler:   errorHandler,
		Health:         a.HealthService,
		Query:          a.QueryService,
		Rescanner:      a,
		Exporter:       a.Exporter,
		WebSocket:      ws.Handler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.Logger),
		Metrics:        a.OTelProviders.MetricsHandler(),
		OTel:           otelMiddleware,
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		RateLimiter:    limiter,
	})
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Address(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start runs the service: websocket hub, file queue, directory watcher,
// the optional backlog pass and the HTTP server. It returns once everything
// is running; ctx bounds the lifetime of the background work.
func (a *Application) Start(ctx context.Context) error {
	if a.started {
		return nil
	}
	a.started = true
	a.runCtx, a.cancelRun = context.WithCancel(ctx)

	a.Queue.OnResult(a.broadcastResult)
	if a.Config.Processing.ExportOnChange {
		a.Queue.OnResult(a.exportOnChange)
	}

	a.WebSocketHub.Start()
	a.Queue.Start(a.runCtx)

	watcher := files.NewWatcher(a.Paths.UnprocessedDir, a.Config.Processing.StabilizationDelay, a.Logger)
	a.goBackground(func(ctx context.Context) {
		if err := watcher.Run(ctx, a.enqueue); err != nil {
			a.Logger.ErrorContext(ctx, "Directory watcher failed", slog.String("error", err.Error()))
		}
	})

	if a.Config.Processing.ProcessExisting {
		if _, err := a.Rescan(a.runCtx); err != nil {
			a.Logger.WarnContext(ctx, "Failed to scan existing files", slog.String("error", err.Error()))
		}
	}

	if a.Config.Server.Enabled {
		go func() {
			if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
				a.cancelRun()
			}
		}()
		a.Logger.InfoContext(ctx, "HTTP server listening", slog.String("address", a.Server.Addr))
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("watching", a.Paths.UnprocessedDir),
		slog.Int("workers", a.Queue.Workers()))
	return nil
}

// Done is closed when the application's background context ends, either
// because the parent context was cancelled or the HTTP server failed.
func (a *Application) Done() <-chan struct{} {
	if a.runCtx == nil {
		return nil
	}
	return a.runCtx.Done()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.started && a.Config.Server.Enabled {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.cancelRun != nil {
		a.cancelRun()
	}
	a.bg.Wait()

	if err := a.Queue.Stop(queueStopTimeout); err != nil {
		errs = append(errs, fmt.Errorf("file queue: %w", err))
	}
	a.WebSocketHub.Stop()

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	a.shutdownOTel(shutdownCtx)

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}

// Run starts the service and blocks until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-a.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(context.Background())
}

// RunOnce processes every file waiting in the unprocessed directory, exports
// the masters and returns the per-file results. No watcher or server is started.
func (a *Application) RunOnce(ctx context.Context) ([]operations.Result, error) {
	paths, err := a.pending()
	if err != nil {
		return nil, err
	}

	a.Logger.InfoContext(ctx, "Processing backlog", slog.Int("files", len(paths)))
	results, err := operations.ProcessBacklog(ctx, a.Queue, paths)
	if err != nil {
		return results, err
	}

	if _, err := a.Exporter.ExportAll(ctx); err != nil {
		return results, err
	}
	return results, nil
}

// Rescan hands every file waiting in the unprocessed directory to the
// workers and returns how many were found. Files already in flight are
// skipped by the queue.
func (a *Application) Rescan(ctx context.Context) (int, error) {
	if a.runCtx == nil {
		return 0, apperrors.ErrServiceUnavailable
	}

	paths, err := a.pending()
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, nil
	}

	a.Logger.InfoContext(ctx, "Rescanning unprocessed directory", slog.Int("files", len(paths)))
	a.goBackground(func(bgCtx context.Context) {
		results, err := operations.ProcessBacklog(bgCtx, a.Queue, paths)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.ErrorContext(bgCtx, "Backlog pass failed", slog.String("error", err.Error()))
		}
		a.Logger.InfoContext(bgCtx, "Backlog pass finished", slog.Int("processed", len(results)))
	})
	return len(paths), nil
}

func (a *Application) pending() ([]string, error) {
	found, err := a.Discovery.FindExcelFiles(a.Paths.UnprocessedDir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list unprocessed files", err)
	}

	paths := make([]string, 0, len(found))
	for _, f := range found {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

func (a *Application) goBackground(fn func(ctx context.Context)) {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		fn(a.runCtx)
	}()
}

// enqueue is the watcher callback for a stabilized file.
func (a *Application) enqueue(path string) {
	err := a.Queue.Enqueue(path)
	switch {
	case err == nil:
	case errors.Is(err, operations.ErrAlreadyQueued):
		a.Logger.Debug("File already in flight", slog.String("file", filepath.Base(path)))
	case errors.Is(err, operations.ErrQueueFull):
		// The file stays in the input directory for the next rescan
		a.Logger.Warn("Queue full, file left for next rescan", slog.String("file", filepath.Base(path)))
	default:
		a.Logger.Error("Failed to enqueue file",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()))
	}
}

func (a *Application) broadcastResult(ctx context.Context, res operations.Result) {
	event := events.MessageTypeFileProcessed
	if !res.OK() {
		event = events.MessageTypeFileFailed
	}
	a.WebSocketHub.Broadcast(ctx, event, res)
}

func (a *Application) exportOnChange(ctx context.Context, res operations.Result) {
	if !res.Changed() {
		return
	}

	written, err := a.Exporter.ExportAll(ctx)
	if err != nil {
		a.Logger.ErrorContext(ctx, "Failed to export masters",
			slog.String("file", res.File),
			slog.String("error", err.Error()))
		return
	}

	a.WebSocketHub.Broadcast(ctx, events.MessageTypeMastersExported, events.MastersExported{
		Trigger: res.File,
		Files:   written,
	})
}

func (a *Application) shutdownOTel(ctx context.Context) {
	if a.OTelProviders == nil {
		return
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}
}
