// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mverner/folio/internal/metrics"
)

// StatsRefresher recomputes aggregate book statistics. Implemented by
// the database layer; the interface keeps this package free of a
// direct DuckDB dependency.
type StatsRefresher interface {
	RefreshBookStats(ctx context.Context) error
}

// StatsServiceConfig holds configuration for the stats refresh
// service.
type StatsServiceConfig struct {
	// RefreshOnStartup runs one refresh as soon as the service starts,
	// so ratings and read counts are current after a restart.
	RefreshOnStartup bool

	// RefreshInterval is how often aggregates are recomputed.
	RefreshInterval time.Duration

	// RefreshTimeout bounds a single refresh run.
	RefreshTimeout time.Duration

	// OnRefreshed, when set, runs after each successful refresh. The
	// API layer uses it to invalidate cached query results.
	OnRefreshed func()
}

// StatsService periodically refreshes denormalized book statistics
// (average rating, ratings count, read count) under suture
// supervision. Refresh failures are logged and retried on the next
// tick rather than crashing the service.
type StatsService struct {
	store  StatsRefresher
	config StatsServiceConfig
	logger zerolog.Logger
	name   string
}

// NewStatsService creates the stats refresh service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStatsService(store StatsRefresher, cfg StatsServiceConfig, logger zerolog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		config: cfg,
		logger: logger.With().Str("service", "stats").Logger(),
		name:   "stats-refresher",
	}
}

// Serve implements the suture.Service interface.
func (s *StatsService) Serve(ctx context.Context) error {
	if s.config.RefreshInterval <= 0 {
		s.config.RefreshInterval = time.Hour
	}
	if s.config.RefreshTimeout <= 0 {
		s.config.RefreshTimeout = 5 * time.Minute
	}

	s.logger.Info().
		Bool("refresh_on_startup", s.config.RefreshOnStartup).
		Dur("refresh_interval", s.config.RefreshInterval).
		Msg("stats refresh service starting")

	if s.config.RefreshOnStartup {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial stats refresh failed (will retry on schedule)")
		}
	}

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("stats refresh service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled stats refresh failed")
			}
		}
	}
}

// refresh performs one refresh cycle with its own timeout.
func (s *StatsService) refresh(ctx context.Context) error {
	refreshCtx, cancel := context.WithTimeout(ctx, s.config.RefreshTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.RefreshBookStats(refreshCtx)
	metrics.RecordStatsRefresh(time.Since(start), err)
	if err != nil {
		return err
	}

	if s.config.OnRefreshed != nil {
		s.config.OnRefreshed()
	}

	s.logger.Debug().
		Dur("duration", time.Since(start)).
		Msg("book stats refreshed")
	return nil
}

// String returns the service name for logging.
func (s *StatsService) String() string {
	return s.name
}
