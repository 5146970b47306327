// Package app wires configuration, storage and handlers into runnable
// processes. The cmd binaries and the serverless entry both go through it.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"shop-admin/internal/auth"
	"shop-admin/internal/catalog"
	"shop-admin/internal/config"
	"shop-admin/internal/db"
	"shop-admin/internal/graph"
	"shop-admin/internal/memstore"
	"shop-admin/internal/observability"
)

type Options struct {
	LoadDotEnv bool
	Logger     *observability.Logger
}

type Runtime struct {
	Handler http.Handler
	Addr    string
	Logger  *observability.Logger
	Close   func() error
}

// Build loads and validates the API configuration, then assembles the
// runtime. A configuration error is returned before anything is opened.
func Build(ctx context.Context, options Options) (*Runtime, error) {
	cfg, err := config.LoadAPI(config.Options{LoadDotEnv: options.LoadDotEnv})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = observability.NewLogger()
	}
	return BuildAPI(ctx, cfg, logger.With(map[string]any{"service": "api"}))
}

type storage struct {
	users   auth.CredentialStore
	catalog catalog.Store
	ping    func(ctx context.Context) error
	close   func() error
}

func openStorage(ctx context.Context, cfg config.APIConfig, logger *observability.Logger) (storage, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("memory_storage_enabled", map[string]any{"app_env": cfg.AppEnv})
		return storage{
			users:   memstore.NewUsers(),
			catalog: memstore.NewCatalog(),
			ping:    func(context.Context) error { return nil },
			close:   func() error { return nil },
		}, nil
	}

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return storage{}, err
	}

	if cfg.RunMigrations {
		applied, err := db.RunMigrations(ctx, database)
		if err != nil {
			_ = database.Close()
			return storage{}, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations_applied", map[string]any{"versions": applied})
	}

	return storage{
		users:   auth.NewRepository(database),
		catalog: catalog.NewRepository(database),
		ping:    database.PingContext,
		close:   database.Close,
	}, nil
}

// BuildAPI assembles the GraphQL API from an already validated config.
func BuildAPI(ctx context.Context, cfg config.APIConfig, logger *observability.Logger) (*Runtime, error) {
	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		TTL:        cfg.Auth.TokenTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}

	proxies, err := observability.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("%w: TRUSTED_PROXIES: %v", config.ErrInvalidConfig, err)
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	authService := auth.NewService(store.users, tokens).WithRecorder(metrics)
	if err := authService.BootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		_ = store.close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	schema, err := graph.NewSchema(&graph.Resolvers{
		Auth:    authService,
		Catalog: catalog.NewService(store.catalog),
		Limiter: auth.NewLoginRateLimiter(cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow()),
		Logger:  logger,
	})
	if err != nil {
		_ = store.close()
		return nil, fmt.Errorf("build schema: %w", err)
	}

	gate := auth.NewGate(tokens, metrics)

	mux := http.NewServeMux()
	mux.Handle("POST /graphql", gate.Middleware(graph.NewHandler(schema, logger).WithTrustedProxies(proxies)))
	mux.HandleFunc("GET /health", healthHandler(store.ping))
	mux.Handle("GET /metrics", observability.MetricsHandler(registry))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, metrics, mux))

	return &Runtime{
		Handler: handler,
		Addr:    ":" + cfg.Port,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			return store.close()
		},
	}, nil
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// OpenDatabase is used by the admin CLI, which talks to Postgres directly.
func OpenDatabase(ctx context.Context, cfg config.APIConfig) (*sql.DB, error) {
	if cfg.Storage != config.StoragePostgres {
		return nil, fmt.Errorf("%w: STORAGE must be %q", config.ErrInvalidConfig, config.StoragePostgres)
	}
	return db.Open(ctx, cfg.Database)
}
