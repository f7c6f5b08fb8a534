package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects where the product catalog is read from
type DatabaseConfig struct {
	Driver       string        `mapstructure:"driver"` // "mysql", "postgres", "sqlite", "file" or "http"
	DSN          string        `mapstructure:"dsn"`
	CatalogFile  string        `mapstructure:"catalog_file"`
	CatalogURL   string        `mapstructure:"catalog_url"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`

	// Remote catalog fetch budget for the http driver; 0 disables limiting
	CatalogRateLimit float64 `mapstructure:"catalog_rate_limit"`
	CatalogBurst     int     `mapstructure:"catalog_burst"`
}

// CacheConfig holds catalog snapshot cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"` // 0 disables snapshot caching
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
	Burst int `mapstructure:"burst"`
}

// MatchingConfig tunes the catalog matcher
type MatchingConfig struct {
	CandidateLimit     int  `mapstructure:"candidate_limit"`
	MinScore           int  `mapstructure:"min_score"`
	FallbackScore      int  `mapstructure:"fallback_score"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

var (
	sqlDrivers   = map[string]bool{"mysql": true, "postgres": true, "sqlite": true}
	cacheTypes   = map[string]bool{"memory": true, "redis": true}
	logFormats   = map[string]bool{"json": true, "console": true}
	envKeyFormat = strings.NewReplacer(".", "_")
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/virtualbasket/")

	// Environment variable settings: BASKET_DATABASE_DSN -> database.dsn
	v.SetEnvPrefix("BASKET")
	v.SetEnvKeyReplacer(envKeyFormat)
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadEnvFile loads variables from .env files into the process environment.
// Existing variables win; a missing file is not an error.
func LoadEnvFile(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values. Every key needs a default so
// that AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Catalog defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.catalog_file", "")
	v.SetDefault("database.catalog_url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.query_timeout", "5s")
	v.SetDefault("database.catalog_rate_limit", 5.0)
	v.SetDefault("database.catalog_burst", 5)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "30s")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	// Matching defaults
	v.SetDefault("matching.candidate_limit", 8)
	v.SetDefault("matching.min_score", 3)
	v.SetDefault("matching.fallback_score", 1)
	v.SetDefault("matching.enable_debug_logging", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if err := validateDatabase(config.Database); err != nil {
		return err
	}

	if !cacheTypes[config.Cache.Type] {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got: %s", config.Cache.TTL)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}

	if config.Matching.CandidateLimit < 0 {
		return fmt.Errorf("matching candidate limit must not be negative, got: %d", config.Matching.CandidateLimit)
	}

	if config.Matching.MinScore < 0 || config.Matching.FallbackScore < 0 {
		return fmt.Errorf("matching scores must not be negative")
	}

	if config.Matching.MinScore > 0 && config.Matching.FallbackScore > config.Matching.MinScore {
		return fmt.Errorf("matching fallback score (%d) must not exceed min score (%d)",
			config.Matching.FallbackScore, config.Matching.MinScore)
	}

	if config.Log.Format != "" && !logFormats[config.Log.Format] {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}

// validateDatabase checks that the selected catalog source is fully configured
func validateDatabase(db DatabaseConfig) error {
	switch {
	case sqlDrivers[db.Driver]:
		if db.DSN == "" {
			return fmt.Errorf("database DSN is required for driver '%s' (set BASKET_DATABASE_DSN)", db.Driver)
		}
	case db.Driver == "file":
		if db.CatalogFile == "" {
			return fmt.Errorf("catalog file is required for driver 'file' (set BASKET_DATABASE_CATALOG_FILE)")
		}
	case db.Driver == "http":
		if db.CatalogURL == "" {
			return fmt.Errorf("catalog URL is required for driver 'http' (set BASKET_DATABASE_CATALOG_URL)")
		}
	default:
		return fmt.Errorf("database driver must be one of mysql, postgres, sqlite, file, http, got: %s", db.Driver)
	}

	if db.MaxOpenConns < 0 {
		return fmt.Errorf("database max open conns must not be negative, got: %d", db.MaxOpenConns)
	}
	if db.QueryTimeout < 0 {
		return fmt.Errorf("database query timeout must not be negative, got: %s", db.QueryTimeout)
	}
	if db.CatalogRateLimit < 0 {
		return fmt.Errorf("catalog rate limit must not be negative, got: %g", db.CatalogRateLimit)
	}
	if db.CatalogBurst < 0 {
		return fmt.Errorf("catalog burst must not be negative, got: %d", db.CatalogBurst)
	}

	return nil
}
