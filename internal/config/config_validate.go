// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// minJWTSecretLen is the minimum HMAC secret length accepted in
// production mode. 32 bytes matches the HS256 key size.
const minJWTSecretLen = 32

// Validate checks that the configuration is complete and internally
// consistent. Called by Load() after all layers are merged.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateAI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must not be smaller than API_DEFAULT_PAGE_SIZE (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt", "none":
	default:
		return fmt.Errorf("AUTH_MODE must be jwt or none, got %q", c.Security.AuthMode)
	}

	if c.Server.IsProduction() {
		if c.Security.AuthMode == "none" {
			return fmt.Errorf("AUTH_MODE none is not allowed in production mode")
		}
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production mode")
		}
		if len(c.Security.JWTSecret) < minJWTSecretLen {
			return fmt.Errorf("JWT_SECRET must be at least %d characters in production mode", minJWTSecretLen)
		}
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain wildcard * in production mode")
			}
		}
	}

	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Security.TokenTTL)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			continue
		}
		if err := validateHTTPURL(origin, "CORS_ORIGINS"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DefaultLimit < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be at least 1, got %d", r.DefaultLimit)
	}
	if r.MaxLimit < r.DefaultLimit {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT (%d) must not be smaller than RECOMMEND_DEFAULT_LIMIT (%d)",
			r.MaxLimit, r.DefaultLimit)
	}
	if r.TopGenres < 1 || r.TopAuthors < 1 {
		return fmt.Errorf("RECOMMEND_TOP_GENRES and RECOMMEND_TOP_AUTHORS must be at least 1")
	}
	if r.CandidateMultiplier < 1 {
		return fmt.Errorf("RECOMMEND_CANDIDATE_MULTIPLIER must be at least 1, got %d", r.CandidateMultiplier)
	}
	for name, w := range map[string]float64{
		"RECOMMEND_GENRE_WEIGHT":          r.GenreWeight,
		"RECOMMEND_AUTHOR_WEIGHT":         r.AuthorWeight,
		"RECOMMEND_RATING_WEIGHT":         r.RatingWeight,
		"RECOMMEND_READ_COUNT_WEIGHT":     r.ReadCountWeight,
		"RECOMMEND_SIMILAR_GENRE_WEIGHT":  r.SimilarGenreWeight,
		"RECOMMEND_SIMILAR_AUTHOR_WEIGHT": r.SimilarAuthorWeight,
		"RECOMMEND_SIMILAR_RATING_WEIGHT": r.SimilarRatingWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative, got %g", name, w)
		}
	}
	if r.HighRatingFloor < 0 || r.HighRatingFloor > 5 {
		return fmt.Errorf("RECOMMEND_HIGH_RATING_FLOOR must be between 0 and 5, got %g", r.HighRatingFloor)
	}
	if r.TrendingMinRating < 0 || r.TrendingMinRating > 5 {
		return fmt.Errorf("RECOMMEND_TRENDING_MIN_RATING must be between 0 and 5, got %g", r.TrendingMinRating)
	}
	if r.TrendingMinReads < 0 {
		return fmt.Errorf("RECOMMEND_TRENDING_MIN_READS must not be negative, got %d", r.TrendingMinReads)
	}
	if r.NewReleaseDays < 1 {
		return fmt.Errorf("RECOMMEND_NEW_RELEASE_DAYS must be at least 1, got %d", r.NewReleaseDays)
	}
	if r.StatsRefreshInterval <= 0 {
		return fmt.Errorf("RECOMMEND_STATS_REFRESH_INTERVAL must be positive, got %s", r.StatsRefreshInterval)
	}
	return nil
}

func (c *Config) validateAI() error {
	if !c.AI.Enabled {
		return nil
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_ENABLED=true")
	}
	if err := validateHTTPURL(c.AI.BaseURL, "AI_BASE_URL"); err != nil {
		return err
	}
	if c.AI.Model == "" {
		return fmt.Errorf("AI_MODEL must not be empty")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %s", c.AI.Timeout)
	}
	if c.AI.RequestsPerMinute < 1 {
		return fmt.Errorf("AI_REQUESTS_PER_MINUTE must be at least 1, got %d", c.AI.RequestsPerMinute)
	}
	if c.AI.BreakerMaxFailures < 1 {
		return fmt.Errorf("AI_BREAKER_MAX_FAILURES must be at least 1, got %d", c.AI.BreakerMaxFailures)
	}
	if c.AI.CachePath == "" {
		return fmt.Errorf("AI_CACHE_PATH must not be empty")
	}
	if c.AI.CacheTTL <= 0 {
		return fmt.Errorf("AI_CACHE_TTL must be positive, got %s", c.AI.CacheTTL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// ShouldWarnAboutCORS reports whether the CORS configuration deserves
// a startup warning: a wildcard origin with bearer authentication lets
// any website drive the API with a stolen token. Production rejects
// the wildcard outright in validateSecurity.
func (c *Config) ShouldWarnAboutCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validateHTTPURL validates that a URL is a plain http(s) base URL with a
// host and no query parameters.
func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsed.RawQuery)
	}
	return nil
}
