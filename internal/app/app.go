package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/pionia-project/pionia/internal/auth"
	"github.com/pionia-project/pionia/internal/config"
	"github.com/pionia-project/pionia/internal/database"
	apierrors "github.com/pionia-project/pionia/internal/errors"
	"github.com/pionia-project/pionia/internal/infrastructure"
	custommw "github.com/pionia-project/pionia/internal/middleware"
	"github.com/pionia-project/pionia/internal/services"
	handlers "github.com/pionia-project/pionia/internal/transport/http"
	ws "github.com/pionia-project/pionia/internal/websocket"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// Application is the dependency container for a running server.
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	Router     *chi.Mux
	Server     *http.Server
	Registry   *services.Registry
	Dispatcher *services.Dispatcher
	Store      *database.SQLStore
	Hub        *ws.Hub
	Tokens     *auth.TokenProvider
	OTel       *infrastructure.OTelProviders
}

// Option customizes application construction.
type Option func(*options)

type options struct {
	configPath string
}

// WithConfigFile loads configuration from the given YAML file instead
// of the default search path.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// New builds a fully wired application from configuration.
func New(opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: services.NewRegistry(),
		OTel:     otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}
	if err := app.setupRouter(); err != nil {
		return nil, err
	}
	app.createServer()

	return app, nil
}

// initializeServices builds the store, event hub, token provider, and
// dispatcher.
func (a *Application) initializeServices() error {
	if a.Config.Database.DSN != "" {
		store, err := database.Open(a.Config.Database, a.Logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		a.Store = store
	} else {
		a.Logger.Warn("no database DSN configured, persistence disabled")
	}

	a.Hub = ws.NewHub(a.Logger)

	if a.Config.Auth.SigningKey != "" {
		tokens, err := auth.NewTokenProvider(a.Config.Auth)
		if err != nil {
			return fmt.Errorf("initialize token provider: %w", err)
		}
		a.Tokens = tokens
	} else {
		a.Logger.Warn("no auth signing key configured, all callers are anonymous")
	}

	var dispatcherOpts []services.DispatcherOption
	if a.OTel.Tracer != nil {
		dispatcherOpts = append(dispatcherOpts, services.WithTracer(a.OTel.Tracer))
	}
	if a.OTel.Meter != nil {
		metrics, err := infrastructure.NewDispatchMetrics(a.OTel.Meter)
		if err != nil {
			a.Logger.Warn("dispatch metrics unavailable", slog.String("error", err.Error()))
		} else {
			dispatcherOpts = append(dispatcherOpts, services.WithMetrics(metrics))
		}
	}
	a.Dispatcher = services.NewDispatcher(a.Registry, auth.NewGuard(), a.Logger, dispatcherOpts...)

	return nil
}

// setupRouter configures the HTTP router and middleware chain.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Minimal middleware first so the websocket endpoint is not
	// wrapped by anything that replaces the ResponseWriter.
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	eventsHandler := handlers.NewEventsHandler(a.Hub, a.Config.WebSocket, a.Logger)
	r.Mount("/ws", eventsHandler.Routes())

	if a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Group(func(r chi.Router) {
		httpMetrics := custommw.NewHTTPMetrics(prometheus.DefaultRegisterer)
		r.Use(httpMetrics.Handler)
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(errorHandler))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(custommw.CORS(custommw.CORSConfig{
				AllowedOrigins:   a.Config.Security.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		if a.Tokens != nil {
			r.Use(custommw.Identity(a.Tokens, a.Logger))
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			apiHandler := handlers.NewAPIHandler(a.Dispatcher, a.Registry, a.Logger, a.Config.Server.MaxUploadBytes)
			r.Mount("/v1", apiHandler.Routes())

			exportHandler := handlers.NewExportHandler(a.Registry, a.Logger, errorHandler)
			r.Mount("/export", exportHandler.Routes())
		})

		// A typed nil *SQLStore must not reach the Pinger interface,
		// or the nil check inside the handler passes and Ping panics.
		var pinger handlers.Pinger
		if a.Store != nil {
			pinger = a.Store
		}
		healthHandler := handlers.NewHealthHandler(pinger, Version, a.Logger)
		r.Mount("/health", healthHandler.Routes())
	})

	a.Router = r
	return nil
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

// MustRegister registers a service constructor, panicking on a
// duplicate name. Intended for wiring at startup.
func (a *Application) MustRegister(name string, constructor services.Constructor) {
	a.Registry.MustRegister(name, constructor)
}

// Run starts the server and blocks until SIGINT or SIGTERM, then
// shuts down gracefully.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the server and blocks until ctx is cancelled.
func (a *Application) RunContext(ctx context.Context) error {
	a.Hub.Start()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("server listening",
			slog.String("addr", a.Server.Addr),
			slog.Int("services", len(a.Registry.Names())))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.shutdownServices()
	return err
}

// shutdownServices releases resources in reverse initialization order.
func (a *Application) shutdownServices() {
	a.Hub.Stop()

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("close database", slog.String("error", err.Error()))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.OTel.Shutdown(ctx); err != nil {
		a.Logger.Warn("shutdown telemetry", slog.String("error", err.Error()))
	}

	a.Logger.Info("shutdown complete")
}
