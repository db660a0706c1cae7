// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

// Package recommend implements the recommendation engine: personalized
// suggestions ranked from a user's reading signal, and similar-item
// ranking keyed off one reference book.
//
// Ranking is deterministic: identical store contents produce identical
// ranked output, reasons included. The engine holds no cross-call state
// and performs no writes beyond metric observations.
// This package depends only on the store interfaces in types.go so the
// database layer can implement them without an import cycle.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mverner/folio/internal/metrics"
	"github.com/mverner/folio/internal/models"
)

// Engine ranks catalog books for users. Safe for concurrent use.
type Engine struct {
	cfg     Config
	history HistoryStore
	catalog CatalogStore
	logger  zerolog.Logger
}

// New creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, history HistoryStore, catalog CatalogStore, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if history == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	return &Engine{
		cfg:     cfg,
		history: history,
		catalog: catalog,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// RecommendForUser produces up to limit scored, explained suggestions
// from the user's reading history, high ratings, and wishlist.
//
// A limit of 0 returns the basis with no suggestions. Limits above the
// configured maximum are clamped. Books the user has read or wishlisted
// never appear in the result.
func (e *Engine) RecommendForUser(ctx context.Context, userID string, limit int) (*Result, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", limit)
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	signal, err := e.fetchSignal(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(signal.reading) == 0 && len(signal.highRated) == 0 {
		e.logger.Debug().Str("user_id", userID).Msg("no reading history")
		return &Result{
			Recommendations: []Recommendation{},
			Basis:           Basis{TopGenres: []string{}},
			NoHistory:       true,
		}, nil
	}

	// Frequency profile over history first, then high ratings. The
	// insertion order feeds the first-seen tie-break, so the combined
	// order matters and must stay stable.
	genres := newOrderedCounter()
	authors := newOrderedCounter()
	for _, rec := range signal.reading {
		for _, g := range rec.Genres {
			genres.Add(g)
		}
		authors.Add(rec.Author)
	}
	for _, rec := range signal.highRated {
		for _, g := range rec.Genres {
			genres.Add(g)
		}
		authors.Add(rec.Author)
	}

	topGenres := genres.Top(e.cfg.TopGenres)
	topAuthors := authors.Top(e.cfg.TopAuthors)

	// Exclusion set: everything read plus everything wishlisted.
	exclude := make(map[string]struct{}, len(signal.reading)+len(signal.saved))
	excludeIDs := make([]string, 0, len(signal.reading)+len(signal.saved))
	for _, rec := range signal.reading {
		if _, ok := exclude[rec.BookID]; !ok {
			exclude[rec.BookID] = struct{}{}
			excludeIDs = append(excludeIDs, rec.BookID)
		}
	}
	for _, id := range signal.saved {
		if _, ok := exclude[id]; !ok {
			exclude[id] = struct{}{}
			excludeIDs = append(excludeIDs, id)
		}
	}

	basis := Basis{
		BooksRead:    len(signal.reading),
		TopGenres:    topGenres,
		ReviewsGiven: len(signal.highRated),
	}

	recommendations := []Recommendation{}
	if limit > 0 {
		candidates, err := e.catalog.FindCandidates(ctx, CandidateFilter{
			ExcludeIDs: excludeIDs,
			GenresAny:  topGenres,
			AuthorsAny: topAuthors,
		}, limit*e.cfg.CandidateMultiplier)
		if err != nil {
			return nil, fmt.Errorf("find candidates: %w: %w", ErrDependency, err)
		}
		metrics.RecommendationCandidates.Observe(float64(len(candidates)))

		scored := make([]Recommendation, 0, len(candidates))
		for _, book := range candidates {
			// The store already applies the exclusion filter; re-check
			// so a store bug cannot recommend an already-read book.
			if _, skip := exclude[book.ID]; skip {
				continue
			}
			scored = append(scored, e.scoreCandidate(book, topGenres, topAuthors))
		}

		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
		if len(scored) > limit {
			scored = scored[:limit]
		}
		recommendations = scored
	}

	e.logger.Debug().
		Str("user_id", userID).
		Int("books_read", basis.BooksRead).
		Int("returned", len(recommendations)).
		Msg("recommendations computed")

	return &Result{Recommendations: recommendations, Basis: basis}, nil
}

// scoreCandidate computes the personalized score and reasons for one
// candidate book.
func (e *Engine) scoreCandidate(book models.Book, topGenres, topAuthors []string) Recommendation {
	matched := intersect(book.Genres, topGenres)
	authorMatch := contains(topAuthors, book.Author)

	score := e.cfg.GenreWeight * float64(len(matched))
	if authorMatch {
		score += e.cfg.AuthorWeight
	}
	score += e.cfg.RatingWeight * book.AvgRating
	score += e.cfg.ReadCountWeight * math.Log(float64(book.ReadCount)+1)

	reasons := make([]string, 0, 3)
	if len(matched) > 0 {
		reasons = append(reasons, fmt.Sprintf("Matches your interest in %s", strings.Join(matched, ", ")))
	}
	if authorMatch {
		reasons = append(reasons, fmt.Sprintf("You've enjoyed books by %s", book.Author))
	}
	if book.AvgRating >= e.cfg.HighRatingFloor {
		reasons = append(reasons, fmt.Sprintf("Highly rated (%.1f/5)", book.AvgRating))
	}

	return Recommendation{Book: book, Score: score, Reasons: reasons}
}

// SimilarBooks ranks up to limit catalog books by similarity to the
// reference book. Returns ErrNotFound when the reference does not
// exist. The reference never appears in its own result.
func (e *Engine) SimilarBooks(ctx context.Context, bookID string, limit int) (*SimilarResult, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", limit)
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	ref, err := e.catalog.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("get reference book: %w", err)
		}
		return nil, fmt.Errorf("get reference book: %w: %w", ErrDependency, err)
	}

	result := &SimilarResult{
		Reference: ReferenceSummary{
			Title:  ref.Title,
			Author: ref.Author,
			Genres: ref.Genres,
		},
		Recommendations: []SimilarRecommendation{},
	}
	if limit == 0 {
		return result, nil
	}

	candidates, err := e.catalog.FindCandidates(ctx, CandidateFilter{
		ExcludeIDs: []string{ref.ID},
		GenresAny:  ref.Genres,
		AuthorsAny: []string{ref.Author},
	}, limit*e.cfg.CandidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w: %w", ErrDependency, err)
	}

	scored := make([]SimilarRecommendation, 0, len(candidates))
	for _, book := range candidates {
		if book.ID == ref.ID {
			continue
		}
		common := intersect(book.Genres, ref.Genres)
		sameAuthor := book.Author == ref.Author

		score := e.cfg.SimilarGenreWeight * float64(len(common))
		if sameAuthor {
			score += e.cfg.SimilarAuthorWeight
		}
		score += e.cfg.SimilarRatingWeight * (5 - math.Abs(book.AvgRating-ref.AvgRating))

		reasons := make([]string, 0, 2)
		if len(common) > 0 {
			reasons = append(reasons, fmt.Sprintf("Shares %s genre(s)", strings.Join(common, ", ")))
		}
		if sameAuthor {
			reasons = append(reasons, fmt.Sprintf("Same author: %s", book.Author))
		}

		scored = append(scored, SimilarRecommendation{
			Book:         book,
			Score:        score,
			CommonGenres: common,
			Reasons:      reasons,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	result.Recommendations = scored

	return result, nil
}

// TrendingBooks returns widely read, well rated books, optionally
// restricted to one genre, with the thresholds the query ran with.
func (e *Engine) TrendingBooks(ctx context.Context, genre string, limit int) ([]models.Book, TrendingCriteria, error) {
	criteria := TrendingCriteria{
		MinRating: e.cfg.TrendingMinRating,
		MinReads:  e.cfg.TrendingMinReads,
		Genre:     genre,
	}
	if criteria.Genre == "" {
		criteria.Genre = "all"
	}
	if limit < 0 {
		return nil, criteria, fmt.Errorf("limit must not be negative, got %d", limit)
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	if limit == 0 {
		return []models.Book{}, criteria, nil
	}

	books, err := e.catalog.Trending(ctx, genre, e.cfg.TrendingMinRating, e.cfg.TrendingMinReads, limit)
	if err != nil {
		return nil, criteria, fmt.Errorf("trending query: %w: %w", ErrDependency, err)
	}
	return books, criteria, nil
}

// NewReleases returns books added within the given number of days,
// newest first. A daysBack of 0 uses the configured default window.
func (e *Engine) NewReleases(ctx context.Context, daysBack, limit int) ([]models.Book, NewReleaseCriteria, error) {
	if daysBack <= 0 {
		daysBack = e.cfg.NewReleaseDays
	}
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	criteria := NewReleaseCriteria{DaysBack: daysBack, Cutoff: cutoff}

	if limit < 0 {
		return nil, criteria, fmt.Errorf("limit must not be negative, got %d", limit)
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	if limit == 0 {
		return []models.Book{}, criteria, nil
	}

	books, err := e.catalog.NewReleases(ctx, cutoff, limit)
	if err != nil {
		return nil, criteria, fmt.Errorf("new releases query: %w: %w", ErrDependency, err)
	}
	return books, criteria, nil
}

// userSignal bundles the three per-user store fetches.
type userSignal struct {
	reading   []models.HistoryRecord
	highRated []models.HistoryRecord
	saved     []string
}

// fetchSignal issues the three history-store reads concurrently and
// joins them before scoring starts. The first error wins.
func (e *Engine) fetchSignal(ctx context.Context, userID string) (*userSignal, error) {
	var wg sync.WaitGroup
	var signal userSignal
	var readingErr, ratingsErr, savedErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		signal.reading, readingErr = e.history.ReadingHistory(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		signal.highRated, ratingsErr = e.history.HighRatings(ctx, userID, e.cfg.HighRatingFloor)
	}()
	go func() {
		defer wg.Done()
		signal.saved, savedErr = e.history.SavedForLater(ctx, userID)
	}()
	wg.Wait()

	if readingErr != nil {
		return nil, fmt.Errorf("reading history: %w: %w", ErrDependency, readingErr)
	}
	if ratingsErr != nil {
		return nil, fmt.Errorf("high ratings: %w: %w", ErrDependency, ratingsErr)
	}
	if savedErr != nil {
		return nil, fmt.Errorf("saved for later: %w: %w", ErrDependency, savedErr)
	}
	return &signal, nil
}

// intersect returns the elements of a that are also in b, preserving
// a's order.
func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return []string{}
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := []string{}
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// contains reports whether s is in list.
func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
