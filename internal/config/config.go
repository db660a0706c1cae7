// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	AI        AIConfig        `koanf:"ai"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8080)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// Address returns the host:port listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
// Production mode enforces stricter security validation (JWT secret
// strength, CORS origins).
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/folio.duckdb)
//   - DUCKDB_MAX_MEMORY: Memory limit, e.g. "2GB" (default: 2GB)
//   - DUCKDB_THREADS: Worker threads, 0 = NumCPU (default: 0)
//   - SEED_DEMO_DATA: Populate demo catalog on first start (default: false)
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	SeedDemoData bool   `koanf:"seed_demo_data"`
}

// APIConfig holds pagination and response limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// Environment Variables:
//   - JWT_SECRET: HMAC secret for token verification (required in production)
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: Per-IP rate limit
//   - DISABLE_RATE_LIMIT: Disable rate limiting entirely (development only)
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
type SecurityConfig struct {
	// AuthMode selects how requests authenticate: "jwt" (default) or
	// "none" for local development. Production rejects "none".
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds recommendation engine tunables.
//
// The scoring weights shape how candidate books are ranked for
// personalized recommendations and similar-item lookups. Defaults are
// tuned for catalogs in the tens of thousands of titles; most
// deployments never need to change them.
type RecommendConfig struct {
	// DefaultLimit is the number of recommendations returned when the
	// client does not specify one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps client-requested result sizes.
	MaxLimit int `koanf:"max_limit"`

	// TopGenres / TopAuthors bound the reading-profile breadth used for
	// candidate selection.
	TopGenres  int `koanf:"top_genres"`
	TopAuthors int `koanf:"top_authors"`

	// Personalized scoring weights.
	GenreWeight     float64 `koanf:"genre_weight"`
	AuthorWeight    float64 `koanf:"author_weight"`
	RatingWeight    float64 `koanf:"rating_weight"`
	ReadCountWeight float64 `koanf:"read_count_weight"`

	// Similar-item scoring weights.
	SimilarGenreWeight  float64 `koanf:"similar_genre_weight"`
	SimilarAuthorWeight float64 `koanf:"similar_author_weight"`
	SimilarRatingWeight float64 `koanf:"similar_rating_weight"`

	// CandidateMultiplier controls catalog over-fetch before exclusion
	// filtering (candidates fetched = limit * multiplier).
	CandidateMultiplier int `koanf:"candidate_multiplier"`

	// HighRatingFloor is the minimum review rating that counts toward a
	// user's favorite-author profile.
	HighRatingFloor float64 `koanf:"high_rating_floor"`

	// Trending supplement thresholds.
	TrendingMinRating float64 `koanf:"trending_min_rating"`
	TrendingMinReads  int     `koanf:"trending_min_reads"`

	// NewReleaseDays is the publication-age window for the new-releases
	// supplement.
	NewReleaseDays int `koanf:"new_release_days"`

	// StatsRefreshInterval controls how often the background service
	// recomputes aggregate book statistics (avg rating, read counts).
	StatsRefreshInterval time.Duration `koanf:"stats_refresh_interval"`
}

// AIConfig holds AI book-summary settings.
//
// Environment Variables:
//   - AI_ENABLED: Enable the summary endpoint (default: false)
//   - OPENAI_API_KEY: API key for the upstream model provider
//   - AI_BASE_URL: Provider base URL (default: https://api.openai.com/v1)
//   - AI_MODEL: Model identifier (default: gpt-4o-mini)
type AIConfig struct {
	Enabled bool   `koanf:"enabled"`
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`

	// Timeout bounds a single upstream completion request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerMinute is the local quota on upstream calls. Requests
	// beyond the quota are rejected, not queued.
	RequestsPerMinute int `koanf:"requests_per_minute"`

	// Circuit breaker settings for the upstream provider.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`

	// Summary cache (Badger) settings. Cached summaries are served
	// without consuming quota.
	CachePath string        `koanf:"cache_path"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}
