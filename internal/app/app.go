package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"vaxpulse/internal/config"
	apierrors "vaxpulse/internal/errors"
	"vaxpulse/internal/infrastructure"
	customMiddleware "vaxpulse/internal/middleware"
	"vaxpulse/internal/services"
	"vaxpulse/internal/source"
	handlers "vaxpulse/internal/transport/http"
	"vaxpulse/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Coverage      *services.CoverageService
	Health        *services.HealthService

	loader source.Loader
}

// NewApplication loads configuration from the environment and config file,
// initializes the global logger and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("application starting",
		slog.String("name", config.AppTitle),
		slog.String("version", contracts.Version))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the dataset source and the services around it.
func (a *Application) initializeServices() error {
	srcCfg := a.Config.Source
	if srcCfg.File != "" && !filepath.IsAbs(srcCfg.File) {
		srcCfg.File = filepath.Join(a.Paths.DataDir, srcCfg.File)
	}

	loader, err := source.New(srcCfg, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create dataset source: %w", err)
	}
	a.loader = loader

	a.Coverage = services.NewCoverageService(a.Config, loader, a.Logger,
		services.WithMetrics(a.Metrics),
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithUploadDir(a.Paths.UploadsDir),
	)
	a.Health = services.NewHealthService(contracts.Version, a.Coverage, a.Paths.ReportsDir, a.Logger)

	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(errorHandler, a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.StripSlashes)

	if rl := a.Config.Server.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/healthz", health.HealthCheck)
	r.Get("/healthz/ready", health.ReadinessCheck)
	r.Get("/healthz/live", health.LivenessCheck)
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	coverage := handlers.NewCoverageHandler(a.Coverage, a.Logger, errorHandler,
		a.Config.Server.MaxUploadBytes, a.Config.Analysis.LowCoverageThreshold)

	r.Get("/api/v1/version", health.Version)
	r.With(
		customMiddleware.Timeout(a.Config.Server.WriteTimeout),
		customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes),
	).Mount("/api/v1", coverage.Routes())

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// LoadInitialDataset pulls the configured source once. A failed load is
// logged and leaves the service empty; the dataset can be uploaded or
// reloaded later.
func (a *Application) LoadInitialDataset(ctx context.Context) {
	if a.loader == nil {
		a.Logger.InfoContext(ctx, "no dataset source configured, waiting for upload")
		return
	}

	result, err := a.Coverage.Reload(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "initial dataset load failed",
			slog.String("source", a.loader.Describe()),
			slog.String("error", err.Error()))
		return
	}

	a.Logger.InfoContext(ctx, "initial dataset loaded",
		slog.String("source", result.Source),
		slog.Int("records", result.Records),
		slog.Int("dropped", result.Dropped.Total()))
}

// Start loads the initial dataset and serves HTTP in the background. A
// listener failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", config.AppTitle),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.LoadInitialDataset(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Run starts the application and blocks until SIGINT, SIGTERM or a server
// failure.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the output directories are writable.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	directories := []struct{ name, dir string }{
		{"reports", a.Paths.ReportsDir},
		{"uploads", a.Paths.UploadsDir},
		{"logs", a.Paths.LogsDir},
	}

	var warnings []string
	for _, d := range directories {
		testFile := filepath.Join(d.dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", d.name, d.dir))
			continue
		}
		_ = os.Remove(testFile)
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.DebugContext(ctx, "startup health check passed")
	return nil
}
