// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/mverner/folio/internal/models"
)

// ErrNotFound reports a reference book that does not exist in the
// catalog. Store implementations must return an error satisfying
// errors.Is(err, ErrNotFound) from GetBook for missing IDs.
var ErrNotFound = errors.New("book not found")

// ErrDependency marks a store failure. Callers can map it to a
// retryable 5xx; the engine never retries or falls back on its own.
var ErrDependency = errors.New("store unavailable")

// HistoryStore provides read access to a user's reading signal.
// Implemented by the database layer.
type HistoryStore interface {
	// ReadingHistory returns the user's reading records with status
	// completed or reading, joined with book genres and author.
	ReadingHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error)

	// HighRatings returns the user's reviews with rating >= minRating,
	// joined with book genres and author.
	HighRatings(ctx context.Context, userID string, minRating float64) ([]models.HistoryRecord, error)

	// SavedForLater returns the book IDs on the user's active wishlist.
	SavedForLater(ctx context.Context, userID string) ([]string, error)
}

// CandidateFilter describes a catalog candidate query. Candidates match
// when their genre set intersects GenresAny OR their author is in
// AuthorsAny; books in ExcludeIDs never match. Empty GenresAny and
// AuthorsAny matches any book outside ExcludeIDs.
type CandidateFilter struct {
	ExcludeIDs []string
	GenresAny  []string
	AuthorsAny []string
}

// CatalogStore provides read access to the book catalog.
// Implemented by the database layer. All queries return only active,
// public books.
type CatalogStore interface {
	// FindCandidates returns up to limit books matching the filter,
	// ordered by descending avg rating then read count. The order must
	// be deterministic for identical catalog contents.
	FindCandidates(ctx context.Context, filter CandidateFilter, limit int) ([]models.Book, error)

	// GetBook returns one book by ID, or an error satisfying
	// errors.Is(err, ErrNotFound).
	GetBook(ctx context.Context, bookID string) (*models.Book, error)

	// Trending returns up to limit books with avg rating >= minRating
	// and read count >= minReads, optionally restricted to one genre,
	// ordered by read count, rating, then recency.
	Trending(ctx context.Context, genre string, minRating float64, minReads, limit int) ([]models.Book, error)

	// NewReleases returns up to limit books added since the cutoff,
	// newest first.
	NewReleases(ctx context.Context, cutoff time.Time, limit int) ([]models.Book, error)
}

// Recommendation is one scored, explained catalog suggestion.
type Recommendation struct {
	Book    models.Book `json:"book"`
	Score   float64     `json:"score"`
	Reasons []string    `json:"reasons"`
}

// Basis summarizes the reading signal a recommendation run was built
// from, returned for caller transparency.
type Basis struct {
	BooksRead    int      `json:"books_read"`
	TopGenres    []string `json:"top_genres"`
	ReviewsGiven int      `json:"reviews_given"`
}

// Result is the outcome of a personalized recommendation run.
//
// NoHistory marks a user with zero qualifying reading records and zero
// qualifying ratings. It is distinct from an empty Recommendations
// slice with history present (a valid "no matches" outcome), so the
// caller can render a "read some books first" prompt instead of an
// empty grid.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Basis           Basis            `json:"based_on"`
	NoHistory       bool             `json:"no_history,omitempty"`
}

// SimilarRecommendation is one scored book similar to a reference book.
type SimilarRecommendation struct {
	Book         models.Book `json:"book"`
	Score        float64     `json:"score"`
	CommonGenres []string    `json:"common_genres"`
	Reasons      []string    `json:"reasons"`
}

// ReferenceSummary identifies the reference book of a similar-items
// query for display context.
type ReferenceSummary struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Genres []string `json:"genres"`
}

// SimilarResult is the outcome of a similar-items run.
type SimilarResult struct {
	Reference       ReferenceSummary        `json:"reference_book"`
	Recommendations []SimilarRecommendation `json:"recommendations"`
}

// TrendingCriteria echoes the thresholds a trending query ran with.
type TrendingCriteria struct {
	MinRating float64 `json:"min_rating"`
	MinReads  int     `json:"min_reads"`
	Genre     string  `json:"genre"`
}

// NewReleaseCriteria echoes the window a new-releases query ran with.
type NewReleaseCriteria struct {
	DaysBack int       `json:"days_back"`
	Cutoff   time.Time `json:"cutoff_date"`
}
