package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Engine   EngineConfig
	Indexer  IndexerConfig
	HTTP     HTTPConfig
	Auth     AuthConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	Timeout  time.Duration
	SSLMode  string
}

type EngineConfig struct {
	Host    string
	APIKey  string
	Index   string
	Timeout time.Duration
}

type IndexerConfig struct {
	Interval   time.Duration
	BlockSize  int
	RetryDelay time.Duration
	BaseURL    string
}

type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
}

type AuthConfig struct {
	// Secret signs and verifies the HMAC of actor tokens. Empty means every
	// request is treated as a guest.
	Secret string
}

func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnvRequired("DB_HOST"),
			Port:     getEnvRequired("DB_PORT"),
			Name:     getEnvRequired("DB_NAME"),
			User:     getEnvRequired("HUBSEARCH_DB_USER"),
			Password: getEnvRequired("HUBSEARCH_DB_PASSWORD"),
			Timeout:  10 * time.Second,
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "prefer"),
		},
		Engine: EngineConfig{
			Host:    getEnvRequired("MEILISEARCH_HOST"),
			APIKey:  getEnvOrDefault("MEILISEARCH_API_KEY", ""),
			Index:   getEnvOrDefault("SEARCH_INDEX_NAME", "hubsearch"),
			Timeout: 15 * time.Second,
		},
		Indexer: IndexerConfig{
			Interval:   getEnvDuration("INDEXER_INTERVAL", 1*time.Minute),
			BlockSize:  getEnvInt("INDEXER_BLOCK_SIZE", 5000),
			RetryDelay: getEnvDuration("INDEXER_RETRY_DELAY", 1*time.Minute),
			BaseURL:    getEnvOrDefault("SITE_BASE_URL", ""),
		},
		HTTP: HTTPConfig{
			Addr:              getEnvOrDefault("HTTP_ADDR", ":9300"),
			ReadHeaderTimeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			Secret: getEnvOrDefault("AUTH_TOKEN_SECRET", ""),
		},
	}

	if cfg.Indexer.BlockSize <= 0 {
		return nil, fmt.Errorf("INDEXER_BLOCK_SIZE must be positive, got %d", cfg.Indexer.BlockSize)
	}

	slog.Info("Configuration loaded",
		"db_host", cfg.Database.Host,
		"db_sslmode", cfg.Database.SSLMode,
		"engine_host", cfg.Engine.Host,
		"engine_index", cfg.Engine.Index,
	)

	return cfg, nil
}

func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

func getEnvRequired(key string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
