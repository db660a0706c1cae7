// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

// Package main is the entry point for the Folio server.
//
// Folio is a digital library backend: a catalog of books with reading
// progress, reviews, and wishlists, fronted by a recommendation engine
// that serves personalized suggestions, similar-item lookups, trending
// lists, and new releases over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables, config file, defaults (Koanf v2)
//  2. Database: DuckDB catalog and reading-signal storage
//  3. Recommendation engine: scoring over reading history and reviews
//  4. AI summaries (optional): cached book summaries from an upstream model
//  5. Authentication: JWT bearer tokens shared with the identity service
//  6. HTTP server and stats refresher, run under a suture supervisor tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in
// defaults. JWT_SECRET is required; in production it must be 32+
// characters.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests, and closes the
// database and summary cache.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mverner/folio/internal/ai"
	"github.com/mverner/folio/internal/api"
	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/config"
	"github.com/mverner/folio/internal/database"
	"github.com/mverner/folio/internal/logging"
	"github.com/mverner/folio/internal/recommend"
	"github.com/mverner/folio/internal/supervisor"
	"github.com/mverner/folio/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Bool("summaries_enabled", cfg.AI.Enabled).
		Msg("Starting Folio")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	engine, err := recommend.New(engineConfig(&cfg.Recommend), db, db, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation engine")
	}

	// AI summaries are optional; without a key the summary endpoint
	// answers 503 and everything else works normally.
	var summaries api.SummaryClient
	var summaryCache *ai.SummaryCache
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		summaryCache, err = ai.NewSummaryCache(cfg.AI.CachePath, cfg.AI.CacheTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open summary cache")
		}
		defer func() {
			if err := summaryCache.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing summary cache")
			}
		}()
		summaries = ai.NewClient(&cfg.AI, summaryCache)
		logging.Info().Str("model", cfg.AI.Model).Msg("AI summaries enabled")
	} else {
		logging.Info().Msg("AI summaries disabled")
	}

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == auth.ModeNone {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); all requests run as a local admin")
	} else {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
	}
	authMiddleware := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, api.RespondAuthError)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS is configured with a wildcard origin; set CORS_ORIGINS to specific domains in production")
	}

	handler := api.NewHandler(engine, db, db, db, summaries, cfg)
	defer handler.Close()
	router := api.NewRouter(handler, authMiddleware, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The supervisor logs through slog; bridge zerolog for sutureslog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewStatsService(db, services.StatsServiceConfig{
		RefreshOnStartup: true,
		RefreshInterval:  cfg.Recommend.StatsRefreshInterval,
		OnRefreshed:      handler.InvalidateCache,
	}, logging.Logger()))

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// engineConfig maps the loaded configuration onto the engine's scoring
// parameters.
func engineConfig(rc *config.RecommendConfig) recommend.Config {
	return recommend.Config{
		MaxLimit:            rc.MaxLimit,
		TopGenres:           rc.TopGenres,
		TopAuthors:          rc.TopAuthors,
		GenreWeight:         rc.GenreWeight,
		AuthorWeight:        rc.AuthorWeight,
		RatingWeight:        rc.RatingWeight,
		ReadCountWeight:     rc.ReadCountWeight,
		SimilarGenreWeight:  rc.SimilarGenreWeight,
		SimilarAuthorWeight: rc.SimilarAuthorWeight,
		SimilarRatingWeight: rc.SimilarRatingWeight,
		CandidateMultiplier: rc.CandidateMultiplier,
		HighRatingFloor:     rc.HighRatingFloor,
		TrendingMinRating:   rc.TrendingMinRating,
		TrendingMinReads:    rc.TrendingMinReads,
		NewReleaseDays:      rc.NewReleaseDays,
	}
}
