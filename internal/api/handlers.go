// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

// Package api provides the HTTP surface: chi routing, middleware
// wiring, and the request handlers for recommendations, the catalog,
// AI summaries, and health.
package api

import (
	"context"
	"time"

	"github.com/mverner/folio/internal/ai"
	"github.com/mverner/folio/internal/cache"
	"github.com/mverner/folio/internal/config"
	"github.com/mverner/folio/internal/database"
	"github.com/mverner/folio/internal/models"
	"github.com/mverner/folio/internal/recommend"
)

// Version is the reported application version; set at build time via
// -ldflags.
var Version = "dev"

// CatalogReader is the catalog access the book handlers need.
type CatalogReader interface {
	GetBook(ctx context.Context, bookID string) (*models.Book, error)
	ListBooks(ctx context.Context, genre string, limit, offset int) ([]models.Book, error)
}

// LibraryWriter is the mutation access the reading-activity and
// catalog-administration handlers need. Every write feeds a
// recommendation signal: progress and reviews drive the personalized
// profile, the wishlist drives the exclusion set.
type LibraryWriter interface {
	UpsertProgress(ctx context.Context, userID, bookID, status string, currentPage int) error
	AddReview(ctx context.Context, review *models.Review) error
	AddToWishlist(ctx context.Context, userID, bookID string) error
	RemoveFromWishlist(ctx context.Context, userID, bookID string) error
	InsertBook(ctx context.Context, book *models.Book) error
}

// HealthStore is the database access the health handlers need.
type HealthStore interface {
	Ping(ctx context.Context) error
	GetRecordCounts(ctx context.Context) (database.RecordCounts, error)
}

// SummaryClient generates book summaries. Quota accounting is keyed by
// the requesting user.
type SummaryClient interface {
	Enabled() bool
	Summarize(ctx context.Context, userID string, book *models.Book) (*ai.Summary, bool, error)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	engine    *recommend.Engine
	catalog   CatalogReader
	library   LibraryWriter
	db        HealthStore
	summaries SummaryClient
	config    *config.Config
	cache     *cache.Cache
	startTime time.Time
}

// NewHandler creates the API handler set. summaries may be nil when
// the AI feature is disabled. The result cache covers the catalog-wide
// queries (trending, new releases) that are identical for every user.
func NewHandler(engine *recommend.Engine, catalog CatalogReader, library LibraryWriter, db HealthStore, summaries SummaryClient, cfg *config.Config) *Handler {
	return &Handler{
		engine:    engine,
		catalog:   catalog,
		library:   library,
		db:        db,
		summaries: summaries,
		config:    cfg,
		cache:     cache.New(5 * time.Minute),
		startTime: time.Now(),
	}
}

// InvalidateCache drops all cached query results. Wired as the stats
// refresher's completion hook so recomputed rankings become visible
// immediately.
func (h *Handler) InvalidateCache() {
	h.cache.Clear()
}

// Close stops the result cache's background sweeper.
func (h *Handler) Close() {
	h.cache.Close()
}
