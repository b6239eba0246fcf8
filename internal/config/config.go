package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	GitHubToken   string
	StoreDriver   string
	DBURL         string
	MongoURL      string
	MongoDatabase string
	ServerPort    string
	RabbitMQURL   string
	CacheTTL      time.Duration
	GitHubTimeout time.Duration
	StatsInterval time.Duration
	Year          int
	NavCacheSize  int
}

// * LoadConfiguration reads the configuration from the .env file and returns a pointer to a Config
func LoadConfiguration() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),
		StoreDriver:   strings.ToLower(envOrDefault("STORE_DRIVER", DriverPostgres)),
		DBURL:         os.Getenv("DB_PATH"),
		MongoURL:      os.Getenv("MONGO_URL"),
		MongoDatabase: os.Getenv("MONGO_DATABASE"),
		ServerPort:    envOrDefault("SERVER_PORT", ":8081"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
	}

	if cfg.GitHubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is required")
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DBURL == "" {
			return nil, errors.New("DB_PATH is required")
		}
	case DriverMongo:
		if cfg.MongoURL == "" {
			return nil, errors.New("MONGO_URL is required")
		}
		if cfg.MongoDatabase == "" {
			return nil, errors.New("MONGO_DATABASE is required")
		}
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMongo, cfg.StoreDriver)
	}

	var err error
	if cfg.CacheTTL, err = envDuration("CACHE_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GitHubTimeout, err = envDuration("GITHUB_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.StatsInterval, err = envDuration("STATS_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Year, err = envInt("WRAPPED_YEAR", 2025); err != nil {
		return nil, err
	}
	if cfg.NavCacheSize, err = envInt("NAV_CACHE_SIZE", 512); err != nil {
		return nil, err
	}

	if !strings.Contains(cfg.ServerPort, ":") {
		cfg.ServerPort = ":" + cfg.ServerPort
	}

	logger.Info("✅ env content loaded successfully 🎉")
	return cfg, nil
}

// * TrackedWindow is the inclusive UTC range of the wrapped year
func (c *Config) TrackedWindow() (from, to time.Time) {
	return YearWindow(c.Year)
}

func YearWindow(year int) (from, to time.Time) {
	from = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return from, to
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
