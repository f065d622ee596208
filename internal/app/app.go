package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/internal/fetcher"
	"github.com/vsamautomation/fuel-data-cleaner/internal/infrastructure"
	customMiddleware "github.com/vsamautomation/fuel-data-cleaner/internal/middleware"
	"github.com/vsamautomation/fuel-data-cleaner/internal/services"
	"github.com/vsamautomation/fuel-data-cleaner/internal/store"
	handlers "github.com/vsamautomation/fuel-data-cleaner/internal/transport/http"
)

// Options replaces dependencies that are otherwise built from Config.
type Options struct {
	// Fetcher overrides the configured source.
	Fetcher fetcher.Fetcher
	// Registry receives the Prometheus collector instead of the default
	// registry.
	Registry *promclient.Registry
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ExtractionMetrics
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Extraction *services.ExtractionService
	Health     *services.HealthService
	Store      *store.SQLiteStore // nil when run history is disabled
}

// NewApplication loads configuration, initializes the global logger and
// builds the server.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(context.Background(), cfg, logger, Options{})
}

// New builds the application from an already validated configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	if opts.Registry != nil {
		otelCfg.Registerer = opts.Registry
		otelCfg.Gatherer = opts.Registry
	}
	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewExtractionMetrics(otelProviders.MeterOrGlobal())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(ctx, opts); err != nil {
		app.closeStore()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context, opts Options) error {
	extraction, runStore, err := BuildExtractionService(ctx, a.Config, a.Logger, a.Metrics, opts.Fetcher)
	if err != nil {
		return err
	}

	var pinger services.Pinger
	if runStore != nil {
		pinger = runStore
	}
	health := services.NewHealthService(config.AppVersion, a.Config.Output.Dir, pinger, extraction, a.Logger)

	a.Services = &ServiceContainer{
		Extraction: extraction,
		Health:     health,
		Store:      runStore,
	}
	return nil
}

// BuildExtractionService wires source, run store and service from cfg. f
// overrides the configured source when non-nil. The returned store is nil
// when history is disabled; the caller closes it.
func BuildExtractionService(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *infrastructure.ExtractionMetrics,
	f fetcher.Fetcher,
) (*services.ExtractionService, *store.SQLiteStore, error) {
	if f == nil {
		var err error
		f, err = fetcher.New(ctx, cfg.Source, infrastructure.WithComponent(logger, "fetcher"), metrics)
		if err != nil {
			return nil, nil, err
		}
	}

	var (
		runStore *store.SQLiteStore
		runs     store.RunStore
	)
	if cfg.Store.Enabled {
		var err error
		runStore, err = store.Open(ctx, cfg.Store.Path, infrastructure.WithComponent(logger, "store"))
		if err != nil {
			return nil, nil, err
		}
		runs = runStore
	}

	svc, err := services.NewExtractionService(cfg, f, runs, metrics, infrastructure.WithComponent(logger, "extraction"))
	if err != nil {
		if runStore != nil {
			runStore.Close()
		}
		return nil, nil, err
	}
	return svc, runStore, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Telemetry(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(errorHandler))

		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apperrors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		extractionHandler := handlers.NewExtractionHandler(
			a.Services.Extraction,
			customMiddleware.NewValidator(a.Logger),
			errorHandler,
			a.Config.Server.RunTimeout,
			a.Logger,
		)
		r.Mount("/extractions", extractionHandler.Routes())
	})
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

// Start starts serving in the background. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("source", a.Services.Extraction.Source()),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.closeStore()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file close error: %w", err))
	}
	return errors.Join(errs...)
}

func (a *Application) closeStore() {
	if a.Services == nil || a.Services.Store == nil {
		return
	}
	if err := a.Services.Store.Close(); err != nil {
		infrastructure.WithError(a.Logger, err).Error("Error closing run store")
	}
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received interrupt signal")

	return a.Stop(ctx)
}
