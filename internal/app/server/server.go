package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leaveledger/internal/domain/leave"
	"leaveledger/internal/platform/config"
	"leaveledger/internal/platform/db"
	"leaveledger/internal/platform/metrics"
	"leaveledger/internal/transport/http/api"
	employeehandler "leaveledger/internal/transport/http/handlers/employees"
	leavehandler "leaveledger/internal/transport/http/handlers/leave"
	"leaveledger/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Service *leave.Service
	Metrics *metrics.Collector
	Router  http.Handler
	closers []func()
}

// Close releases the store. It is safe to call more than once.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
	a.closers = nil
}

// New wires the configured store, the ledger service and the HTTP router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.L()
	}
	app := &App{Config: cfg, Metrics: metrics.New()}

	store, err := app.openStore(ctx, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Service = leave.NewService(store,
		leave.WithLogger(logger),
		leave.WithRecorder(app.Metrics),
	)
	app.Router = app.routes(logger)
	return app, nil
}

func (a *App) openStore(ctx context.Context, logger *zap.Logger) (leave.Store, error) {
	switch a.Config.StoreDriver {
	case config.StoreDriverMemory:
		logger.Info("using in-memory store")
		return leave.NewMemoryStore(), nil
	case config.StoreDriverPostgres:
		pool, err := db.Connect(ctx, a.Config)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if a.Config.RunMigrations {
			if err := db.Migrate(ctx, pool, a.Config.MigrationsDir, logger); err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return leave.NewPostgresStore(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.Config.StoreDriver)
	}
}

func (a *App) routes(logger *zap.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger, a.Metrics))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.SecureHeaders(a.Config.IsProduction()))
	router.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))
	router.Use(middleware.RateLimit(a.Config.RateLimitPerSecond, a.Config.RateLimitBurst,
		middleware.WithRateLimitLogger(logger),
		middleware.WithTrustedForwardedFor(a.Config.TrustProxy),
	))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Service.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if a.Config.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	employeehandler.NewHandler(a.Service, logger).RegisterRoutes(router)
	leavehandler.NewHandler(a.Service, logger).RegisterRoutes(router)
	return router
}
