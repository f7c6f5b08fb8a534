package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvVars = []string{
	"BASKET_SERVER_PORT",
	"BASKET_SERVER_ENVIRONMENT",
	"BASKET_SERVER_ALLOWED_ORIGINS",
	"BASKET_DATABASE_DRIVER",
	"BASKET_DATABASE_DSN",
	"BASKET_DATABASE_CATALOG_FILE",
	"BASKET_DATABASE_CATALOG_URL",
	"BASKET_DATABASE_QUERY_TIMEOUT",
	"BASKET_DATABASE_CATALOG_RATE_LIMIT",
	"BASKET_DATABASE_CATALOG_BURST",
	"BASKET_CACHE_TYPE",
	"BASKET_CACHE_REDIS_URL",
	"BASKET_CACHE_TTL",
	"BASKET_RATELIMIT_PER_IP",
	"BASKET_RATELIMIT_BURST",
	"BASKET_MATCHING_CANDIDATE_LIMIT",
	"BASKET_MATCHING_MIN_SCORE",
	"BASKET_MATCHING_FALLBACK_SCORE",
	"BASKET_MATCHING_ENABLE_DEBUG_LOGGING",
	"BASKET_LOG_LEVEL",
	"BASKET_LOG_FORMAT",
}

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		for _, name := range configEnvVars {
			os.Unsetenv(name)
		}
	}

	t.Run("loads with defaults when only the DSN is set", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BASKET_DATABASE_DSN", "user:pass@tcp(localhost:3306)/shop")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.ShutdownTimeout != 10*time.Second {
			t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
		}
		if cfg.Database.Driver != "mysql" {
			t.Errorf("Database.Driver = %s, want mysql", cfg.Database.Driver)
		}
		if cfg.Database.QueryTimeout != 5*time.Second {
			t.Errorf("Database.QueryTimeout = %v, want 5s", cfg.Database.QueryTimeout)
		}
		if cfg.Database.MaxOpenConns != 10 {
			t.Errorf("Database.MaxOpenConns = %d, want 10", cfg.Database.MaxOpenConns)
		}
		if cfg.Database.CatalogRateLimit != 5 || cfg.Database.CatalogBurst != 5 {
			t.Errorf("Database catalog rate = %v/%d, want 5/5", cfg.Database.CatalogRateLimit, cfg.Database.CatalogBurst)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 30*time.Second {
			t.Errorf("Cache.TTL = %v, want 30s", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.RateLimit.Burst != 10 {
			t.Errorf("RateLimit.Burst = %d, want 10", cfg.RateLimit.Burst)
		}
		if cfg.Matching.CandidateLimit != 8 {
			t.Errorf("Matching.CandidateLimit = %d, want 8", cfg.Matching.CandidateLimit)
		}
		if cfg.Matching.MinScore != 3 || cfg.Matching.FallbackScore != 1 {
			t.Errorf("Matching scores = %d/%d, want 3/1", cfg.Matching.MinScore, cfg.Matching.FallbackScore)
		}
		if cfg.Matching.EnableDebugLogging {
			t.Error("Matching.EnableDebugLogging = true, want false")
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("Log = %+v, want info/json", cfg.Log)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BASKET_SERVER_PORT", "9090")
		os.Setenv("BASKET_SERVER_ENVIRONMENT", "production")
		os.Setenv("BASKET_SERVER_ALLOWED_ORIGINS", "https://shop.example.com,http://localhost:3000")
		os.Setenv("BASKET_DATABASE_DRIVER", "postgres")
		os.Setenv("BASKET_DATABASE_DSN", "postgres://localhost/shop")
		os.Setenv("BASKET_DATABASE_QUERY_TIMEOUT", "2s")
		os.Setenv("BASKET_DATABASE_CATALOG_RATE_LIMIT", "0.5")
		os.Setenv("BASKET_DATABASE_CATALOG_BURST", "2")
		os.Setenv("BASKET_CACHE_TYPE", "redis")
		os.Setenv("BASKET_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("BASKET_CACHE_TTL", "1m")
		os.Setenv("BASKET_RATELIMIT_PER_IP", "200")
		os.Setenv("BASKET_MATCHING_CANDIDATE_LIMIT", "5")
		os.Setenv("BASKET_MATCHING_ENABLE_DEBUG_LOGGING", "true")
		os.Setenv("BASKET_LOG_FORMAT", "console")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://localhost:3000" {
			t.Errorf("Server.AllowedOrigins = %v, want two origins", cfg.Server.AllowedOrigins)
		}
		if cfg.Database.Driver != "postgres" {
			t.Errorf("Database.Driver = %s, want postgres", cfg.Database.Driver)
		}
		if cfg.Database.DSN != "postgres://localhost/shop" {
			t.Errorf("Database.DSN = %s, want postgres://localhost/shop", cfg.Database.DSN)
		}
		if cfg.Database.QueryTimeout != 2*time.Second {
			t.Errorf("Database.QueryTimeout = %v, want 2s", cfg.Database.QueryTimeout)
		}
		if cfg.Database.CatalogRateLimit != 0.5 {
			t.Errorf("Database.CatalogRateLimit = %v, want 0.5", cfg.Database.CatalogRateLimit)
		}
		if cfg.Database.CatalogBurst != 2 {
			t.Errorf("Database.CatalogBurst = %d, want 2", cfg.Database.CatalogBurst)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != time.Minute {
			t.Errorf("Cache.TTL = %v, want 1m", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Matching.CandidateLimit != 5 {
			t.Errorf("Matching.CandidateLimit = %d, want 5", cfg.Matching.CandidateLimit)
		}
		if !cfg.Matching.EnableDebugLogging {
			t.Error("Matching.EnableDebugLogging = false, want true")
		}
		if cfg.Log.Format != "console" {
			t.Errorf("Log.Format = %s, want console", cfg.Log.Format)
		}
	})

	t.Run("fails validation when DSN is missing", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing DSN")
		}
		if !strings.Contains(err.Error(), "BASKET_DATABASE_DSN") {
			t.Errorf("Load() error = %v, want hint about BASKET_DATABASE_DSN", err)
		}
	})

	t.Run("file driver needs no DSN", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BASKET_DATABASE_DRIVER", "file")
		os.Setenv("BASKET_DATABASE_CATALOG_FILE", "catalog.yaml")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Database.CatalogFile != "catalog.yaml" {
			t.Errorf("Database.CatalogFile = %s, want catalog.yaml", cfg.Database.CatalogFile)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BASKET_DATABASE_DSN", "dsn")
		os.Setenv("BASKET_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BASKET_DATABASE_DSN", "dsn")
		os.Setenv("BASKET_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		tempDir := t.TempDir()

		err := LoadEnvFile(filepath.Join(tempDir, ".env"))
		if err != nil {
			t.Errorf("LoadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("defaults to .env in the working directory", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		if err := os.WriteFile(".env", []byte("TEST_DEFAULT_ENV=loaded"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		os.Unsetenv("TEST_DEFAULT_ENV")
		defer os.Unsetenv("TEST_DEFAULT_ENV")

		if err := LoadEnvFile(); err != nil {
			t.Fatalf("LoadEnvFile() error = %v, want nil", err)
		}
		if os.Getenv("TEST_DEFAULT_ENV") != "loaded" {
			t.Errorf("TEST_DEFAULT_ENV = %s, want loaded", os.Getenv("TEST_DEFAULT_ENV"))
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(path, []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_COMMENTED")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
		}()

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("LoadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(path, []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("LoadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "mysql", DSN: "dsn"},
			Cache:    CacheConfig{Type: "memory"},
			Matching: MatchingConfig{MinScore: 3, FallbackScore: 1},
			Log:      LogConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "validates successfully with all required fields", mutate: func(*Config) {}},
		{name: "fails for unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "fails for sql driver without DSN", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "sqlite with DSN", mutate: func(c *Config) { c.Database.Driver = "sqlite"; c.Database.DSN = "file:catalog.db" }},
		{name: "fails for file driver without path", mutate: func(c *Config) { c.Database.Driver = "file" }, wantErr: true},
		{name: "file driver with path", mutate: func(c *Config) { c.Database.Driver = "file"; c.Database.CatalogFile = "c.yaml" }},
		{name: "fails for http driver without URL", mutate: func(c *Config) { c.Database.Driver = "http" }, wantErr: true},
		{name: "http driver with URL", mutate: func(c *Config) { c.Database.Driver = "http"; c.Database.CatalogURL = "http://shop/api/products" }},
		{name: "fails for negative query timeout", mutate: func(c *Config) { c.Database.QueryTimeout = -time.Second }, wantErr: true},
		{name: "fails for negative catalog rate limit", mutate: func(c *Config) { c.Database.CatalogRateLimit = -1 }, wantErr: true},
		{name: "fails for negative catalog burst", mutate: func(c *Config) { c.Database.CatalogBurst = -1 }, wantErr: true},
		{name: "passes with unlimited catalog fetches", mutate: func(c *Config) { c.Database.CatalogRateLimit = 0 }, wantErr: false},
		{name: "fails for invalid cache type", mutate: func(c *Config) { c.Cache.Type = "invalid-type" }, wantErr: true},
		{name: "validates redis cache type with URL", mutate: func(c *Config) { c.Cache.Type = "redis"; c.Cache.RedisURL = "redis://localhost:6379" }},
		{name: "fails for redis cache without URL", mutate: func(c *Config) { c.Cache.Type = "redis" }, wantErr: true},
		{name: "fails for negative cache TTL", mutate: func(c *Config) { c.Cache.TTL = -time.Second }, wantErr: true},
		{name: "zero cache TTL disables caching", mutate: func(c *Config) { c.Cache.TTL = 0 }},
		{name: "fails for negative rate limit", mutate: func(c *Config) { c.RateLimit.PerIP = -1 }, wantErr: true},
		{name: "fails when fallback exceeds min score", mutate: func(c *Config) { c.Matching.FallbackScore = 4 }, wantErr: true},
		{name: "fails for negative candidate limit", mutate: func(c *Config) { c.Matching.CandidateLimit = -1 }, wantErr: true},
		{name: "fails for unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
