package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"shop-admin/internal/config"
	"shop-admin/internal/observability"
	"shop-admin/internal/web"
	"shop-admin/internal/web/shopclient"
)

// BuildWeb loads and validates the web client configuration and assembles
// the browser-facing site.
func BuildWeb(_ context.Context, options Options) (*Runtime, error) {
	cfg, err := config.LoadWeb(config.Options{LoadDotEnv: options.LoadDotEnv})
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
	return BuildWebFrom(cfg, logger.With(map[string]any{"service": "web"}))
}

func BuildWebFrom(cfg config.WebConfig, logger *observability.Logger) (*Runtime, error) {
	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}
	if !cfg.CookieSecure {
		logger.Warn("insecure_cookies_enabled", map[string]any{"app_env": cfg.AppEnv})
	}

	proxies, err := observability.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("%w: TRUSTED_PROXIES: %v", config.ErrInvalidConfig, err)
	}

	// Every page view is at least one API call to the same host.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32

	client := shopclient.New(cfg.APIURL,
		shopclient.WithHTTPClient(&http.Client{Transport: transport}),
		shopclient.WithTimeout(cfg.APITimeout()),
	)

	handler, err := web.NewHandler(client, logger, web.HandlerConfig{
		SecureCookies:  cfg.CookieSecure,
		SessionTTL:     cfg.Auth.TokenTTL(),
		TrustedProxies: proxies,
	})
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	router := web.NewRouter(web.RouterDeps{
		Handler:        handler,
		Logger:         logger,
		Metrics:        observability.NewMetrics(registry),
		SecureCookies:  cfg.CookieSecure,
		MetricsHandler: observability.MetricsHandler(registry),
	})

	return &Runtime{
		Handler: router,
		Addr:    ":" + cfg.Port,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			return nil
		},
	}, nil
}
