// Package app wires the query surface process: configuration, logging, the
// database connection with bounded startup retry, services, and the HTTP
// router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/jackc/pgx/v5/pgxpool"

	"retailetl/internal/config"
	"retailetl/internal/infrastructure"
	"retailetl/internal/services"
	"retailetl/internal/storage"
	handlers "retailetl/internal/transport/http"
)

// Application is the query surface process container. Pool is nil when the
// startup connection retries were exhausted; the process then serves the
// degraded error payload from every data endpoint.
type Application struct {
	Config *config.Config
	Router *chi.Mux
	Server *http.Server
	Logger *slog.Logger
	Pool   *pgxpool.Pool
}

// NewApplication creates the application with all dependencies wired.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("starting retail query surface",
		slog.Int("port", cfg.Server.Port),
		slog.String("database_host", cfg.Database.Host))

	// Bounded retry; exhaustion is not fatal. The process keeps serving,
	// answering every data read with an explicit error payload.
	pool, err := storage.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Warn("database unavailable, serving in degraded mode",
			slog.String("error", err.Error()))
		pool = nil
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
	}
	app.setupRouter()

	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	var goldService handlers.GoldServiceInterface
	var healthService handlers.HealthServiceInterface
	if a.Pool != nil {
		svc := services.NewGoldService(storage.NewStore(a.Pool, a.Logger), a.Logger)
		goldService = svc
		healthService = svc
	}

	goldHandler := handlers.NewGoldHandler(goldService, a.Logger)
	healthHandler := handlers.NewHealthHandler(healthService, a.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"message": "Welcome to the Retail API!"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Mount("/", goldHandler.Routes())
	})

	a.Router = r
}

// requestLogger logs each request with method, path, status and duration.
func (a *Application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.Logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-stop:
		a.Logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if a.Pool != nil {
		a.Pool.Close()
	}
	a.Logger.Info("shutdown complete")
	return nil
}
