package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Database  DatabaseConfig
	Collector CollectorConfig
	Instagram InstagramConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticPath      string
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds connection parameters for PostgreSQL.
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	ConnectTimeout     time.Duration
}

// CollectorConfig holds the collection batch parameters.
type CollectorConfig struct {
	// Concurrency bounds the number of simultaneous per-user attempts.
	// The profile source rate-limits bursts from one IP, so this is a
	// correctness bound, not a tuning knob.
	Concurrency int

	// ActiveWindow is the login recency window that makes a user
	// eligible for collection.
	ActiveWindow time.Duration

	// ProfileBaseURL is the page source; overridable for testing.
	ProfileBaseURL string

	// FetchTimeout caps a single profile page fetch.
	FetchTimeout time.Duration

	// ScheduleTime is the daily in-process batch time as "HH:MM" UTC.
	// Empty disables the in-process scheduler; deployments that drive
	// collection from cron via the collector binary leave it unset.
	ScheduleTime string
}

// InstagramConfig holds OAuth client credentials.
type InstagramConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// AuthConfig holds JWT and admin credentials.
type AuthConfig struct {
	JWTSecret     string
	AdminPassword string
	TokenDuration time.Duration
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultMaxConnections     = 20
	defaultMaxIdleConnections = 5
	defaultConnMaxLifetime    = 5 * time.Minute
	defaultConnectTimeout     = 10 * time.Second

	defaultConcurrency    = 5
	defaultActiveWindow   = 48 * time.Hour
	defaultProfileBaseURL = "https://instagram.com/"
	defaultFetchTimeout   = 30 * time.Second

	defaultTokenDuration = 72 * time.Hour
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			StaticPath:      os.Getenv("HTTP_STATIC_PATH"),
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:                os.Getenv("DATABASE_URL"),
			MaxConnections:     defaultMaxConnections,
			MaxIdleConnections: defaultMaxIdleConnections,
			ConnMaxLifetime:    defaultConnMaxLifetime,
			ConnectTimeout:     defaultConnectTimeout,
		},
		Collector: CollectorConfig{
			Concurrency:    defaultConcurrency,
			ActiveWindow:   defaultActiveWindow,
			ProfileBaseURL: getEnv("COLLECTOR_PROFILE_BASE_URL", defaultProfileBaseURL),
			FetchTimeout:   defaultFetchTimeout,
		},
		Instagram: InstagramConfig{
			ClientID:     os.Getenv("INSTAGRAM_CLIENT_ID"),
			ClientSecret: os.Getenv("INSTAGRAM_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("INSTAGRAM_REDIRECT_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
			TokenDuration: defaultTokenDuration,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("DB_MAX_CONNECTIONS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_MAX_CONNECTIONS: %w", err)
		}
		cfg.Database.MaxConnections = n
	}

	if v := os.Getenv("COLLECTOR_CONCURRENCY"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COLLECTOR_CONCURRENCY: %w", err)
		}
		cfg.Collector.Concurrency = n
	}

	if v := os.Getenv("COLLECTOR_ACTIVE_WINDOW_HOURS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COLLECTOR_ACTIVE_WINDOW_HOURS: %w", err)
		}
		cfg.Collector.ActiveWindow = time.Duration(n) * time.Hour
	}

	if v := os.Getenv("COLLECTOR_FETCH_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COLLECTOR_FETCH_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Collector.FetchTimeout = d
	}

	if v := os.Getenv("COLLECTOR_SCHEDULE_TIME"); v != "" {
		if _, err := time.Parse("15:04", v); err != nil {
			return Config{}, fmt.Errorf("invalid COLLECTOR_SCHEDULE_TIME: must be HH:MM")
		}
		cfg.Collector.ScheduleTime = v
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
