package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Revocation modes for token activity checks.
const (
	RevocationLive     = "live"
	RevocationEmbedded = "embedded"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. A disabled Redis sends live
// activity checks straight to Postgres.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	TokenTTLMinutes         int
	BcryptCost              int
	APIKeyCap               int
	CookieName              string
	CookieSecure            bool
	RevocationMode          string
	ActivityCacheTTLSeconds int
	SignInPath              string
	SeedAdmin               SeedAdminConfig
}

// SeedAdminConfig describes an optional bootstrap operator created at startup.
type SeedAdminConfig struct {
	CustomerID string
	Username   string
	Email      string
	Password   string
}

// Enabled reports whether enough values are present to seed an operator.
func (s SeedAdminConfig) Enabled() bool {
	return s.CustomerID != "" && s.Username != "" && s.Password != ""
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "inventory-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               os.Getenv("AUTH_JWT_SECRET"),
			TokenTTLMinutes:         getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 12*60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			APIKeyCap:               getEnvAsInt("AUTH_API_KEY_CAP", 30),
			CookieName:              getEnv("AUTH_COOKIE_NAME", "auth-token"),
			CookieSecure:            getEnvAsBool("AUTH_COOKIE_SECURE", true),
			RevocationMode:          strings.ToLower(getEnv("AUTH_REVOCATION_MODE", RevocationLive)),
			ActivityCacheTTLSeconds: getEnvAsInt("AUTH_ACTIVITY_CACHE_TTL_SECONDS", 30),
			SignInPath:              getEnv("AUTH_SIGNIN_PATH", "/auth/signin"),
			SeedAdmin: SeedAdminConfig{
				CustomerID: os.Getenv("AUTH_SEED_ADMIN_CUSTOMER_ID"),
				Username:   os.Getenv("AUTH_SEED_ADMIN_USERNAME"),
				Email:      os.Getenv("AUTH_SEED_ADMIN_EMAIL"),
				Password:   os.Getenv("AUTH_SEED_ADMIN_PASSWORD"),
			},
		},
	}

	if cfg.Auth.JWTSecret == "" && cfg.App.IsDevelopment() {
		cfg.Auth.JWTSecret = "dev-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the auth core cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required outside development"))
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Auth.APIKeyCap <= 0 {
		errs = append(errs, errors.New("AUTH_API_KEY_CAP must be positive"))
	}
	switch c.Auth.RevocationMode {
	case RevocationLive, RevocationEmbedded:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_REVOCATION_MODE %q", c.Auth.RevocationMode))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, "development")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of login tokens and the auth cookie.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// ActivityCacheTTL returns how long a live activity lookup may be reused.
func (a AuthConfig) ActivityCacheTTL() time.Duration {
	if a.ActivityCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(a.ActivityCacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
