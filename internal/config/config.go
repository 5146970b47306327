// Package config loads process configuration once at startup. Values come
// from an optional YAML file (CONFIG_FILE), then the environment, which
// always wins. Loaded configs are treated as read-only.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MinSigningKeyBytes is the shortest accepted HMAC-SHA-256 key.
const MinSigningKeyBytes = 32

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

const EnvProduction = "production"

var ErrInvalidConfig = errors.New("invalid configuration")

// AuthConfig is shared by the token issuer/validator on the API side and the
// cookie lifecycle on the web side.
type AuthConfig struct {
	SigningKey           string `yaml:"signing_key"`
	Issuer               string `yaml:"issuer"`
	Audience             string `yaml:"audience"`
	TokenDurationMinutes int    `yaml:"token_duration_minutes"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenDurationMinutes) * time.Minute
}

// Validate rejects configurations the API must not start with.
func (a AuthConfig) Validate() error {
	if strings.TrimSpace(a.SigningKey) == "" {
		return fmt.Errorf("%w: JWT_SIGNING_KEY is required", ErrInvalidConfig)
	}
	if len(a.SigningKey) < MinSigningKeyBytes {
		return fmt.Errorf("%w: JWT_SIGNING_KEY must be at least %d bytes", ErrInvalidConfig, MinSigningKeyBytes)
	}
	if a.Issuer == "" {
		return fmt.Errorf("%w: JWT_ISSUER is required", ErrInvalidConfig)
	}
	if a.Audience == "" {
		return fmt.Errorf("%w: JWT_AUDIENCE is required", ErrInvalidConfig)
	}
	if a.TokenDurationMinutes <= 0 {
		return fmt.Errorf("%w: JWT_DURATION_MINUTES must be positive", ErrInvalidConfig)
	}
	return nil
}

type DatabaseConfig struct {
	URL                    string `yaml:"url"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int    `yaml:"conn_max_idle_time_minutes"`
}

// APIConfig configures the GraphQL API process.
type APIConfig struct {
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`

	Storage       string `yaml:"storage"`
	Port          string `yaml:"port"`
	AppEnv        string `yaml:"app_env"`
	SentryDSN     string `yaml:"sentry_dsn"`
	RunMigrations bool   `yaml:"run_migrations"`

	LoginRateLimitMax           int `yaml:"login_rate_limit_max"`
	LoginRateLimitWindowSeconds int `yaml:"login_rate_limit_window_seconds"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`

	// TrustedProxies are addresses or CIDR ranges whose X-Forwarded-For is
	// believed. The web client belongs here when it runs on another host.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

func (c APIConfig) LoginRateLimitWindow() time.Duration {
	return time.Duration(c.LoginRateLimitWindowSeconds) * time.Second
}

func (c APIConfig) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE %q", ErrInvalidConfig, c.Storage)
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("%w: ADMIN_USERNAME and ADMIN_PASSWORD are required together", ErrInvalidConfig)
	}
	return nil
}

// WebConfig configures the browser-facing client.
type WebConfig struct {
	Auth AuthConfig `yaml:"auth"`

	APIURL       string `yaml:"api_url"`
	Port         string `yaml:"port"`
	AppEnv       string `yaml:"app_env"`
	SentryDSN    string `yaml:"sentry_dsn"`
	CookieSecure bool   `yaml:"cookie_secure"`
	APITimeoutS  int    `yaml:"api_timeout_seconds"`

	TrustedProxies []string `yaml:"trusted_proxies"`
}

func (c WebConfig) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutS) * time.Second
}

func (c WebConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: API_URL is required", ErrInvalidConfig)
	}
	if c.Auth.TokenDurationMinutes <= 0 {
		return fmt.Errorf("%w: JWT_DURATION_MINUTES must be positive", ErrInvalidConfig)
	}
	if !c.CookieSecure && c.AppEnv == EnvProduction {
		return fmt.Errorf("%w: COOKIE_SECURE cannot be disabled in production", ErrInvalidConfig)
	}
	return nil
}

type Options struct {
	LoadDotEnv bool
}

func defaultAuth() AuthConfig {
	return AuthConfig{
		Issuer:               "shop-admin-api",
		Audience:             "shop-admin-web",
		TokenDurationMinutes: 60,
	}
}

// LoadAPI builds the API configuration. It does not validate; callers run
// Validate before accepting traffic.
func LoadAPI(options Options) (APIConfig, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	cfg := APIConfig{
		Auth: defaultAuth(),
		Database: DatabaseConfig{
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
			ConnMaxIdleTimeMinutes: 10,
		},
		Storage:                     StoragePostgres,
		Port:                        "8080",
		AppEnv:                      "development",
		LoginRateLimitMax:           10,
		LoginRateLimitWindowSeconds: 60,
	}
	if err := overlayFile(&cfg); err != nil {
		return APIConfig{}, err
	}

	cfg.Auth = authFromEnv(cfg.Auth)
	cfg.Database.URL = envOrDefault("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = envIntOrDefault("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envIntOrDefault("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetimeMinutes = envIntOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", cfg.Database.ConnMaxLifetimeMinutes)
	cfg.Database.ConnMaxIdleTimeMinutes = envIntOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", cfg.Database.ConnMaxIdleTimeMinutes)
	cfg.Storage = strings.ToLower(envOrDefault("STORAGE", cfg.Storage))
	cfg.Port = envOrDefault("PORT", cfg.Port)
	cfg.AppEnv = envOrDefault("APP_ENV", cfg.AppEnv)
	cfg.SentryDSN = envOrDefault("SENTRY_DSN", cfg.SentryDSN)
	cfg.RunMigrations = EnvBoolOrDefault("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.LoginRateLimitMax = envIntOrDefault("LOGIN_RATE_LIMIT_MAX", cfg.LoginRateLimitMax)
	cfg.LoginRateLimitWindowSeconds = envIntOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", cfg.LoginRateLimitWindowSeconds)
	cfg.AdminUsername = strings.ToLower(envOrDefault("ADMIN_USERNAME", cfg.AdminUsername))
	cfg.AdminPassword = envOrDefault("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.TrustedProxies = envListOrDefault("TRUSTED_PROXIES", cfg.TrustedProxies)

	return cfg, nil
}

func LoadWeb(options Options) (WebConfig, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	cfg := WebConfig{
		Auth:         defaultAuth(),
		APIURL:       "http://localhost:8080/graphql",
		Port:         "8081",
		AppEnv:       "development",
		CookieSecure: true,
		APITimeoutS:  10,
	}
	if err := overlayFile(&cfg); err != nil {
		return WebConfig{}, err
	}

	cfg.Auth = authFromEnv(cfg.Auth)
	cfg.APIURL = envOrDefault("API_URL", cfg.APIURL)
	cfg.Port = envOrDefault("WEB_PORT", cfg.Port)
	cfg.AppEnv = envOrDefault("APP_ENV", cfg.AppEnv)
	cfg.SentryDSN = envOrDefault("SENTRY_DSN", cfg.SentryDSN)
	cfg.CookieSecure = EnvBoolOrDefault("COOKIE_SECURE", cfg.CookieSecure)
	cfg.APITimeoutS = envIntOrDefault("API_TIMEOUT_SECONDS", cfg.APITimeoutS)
	cfg.TrustedProxies = envListOrDefault("TRUSTED_PROXIES", cfg.TrustedProxies)

	return cfg, nil
}

func authFromEnv(a AuthConfig) AuthConfig {
	a.SigningKey = envOrDefault("JWT_SIGNING_KEY", a.SigningKey)
	a.Issuer = envOrDefault("JWT_ISSUER", a.Issuer)
	a.Audience = envOrDefault("JWT_AUDIENCE", a.Audience)
	a.TokenDurationMinutes = envIntOrDefault("JWT_DURATION_MINUTES", a.TokenDurationMinutes)
	return a
}

func overlayFile(target any) error {
	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
