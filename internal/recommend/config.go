// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package recommend

import (
	"fmt"
)

// Config holds the engine's scoring weights and limits. The weights are
// deliberate tuning values carried over from production behavior; they
// are configurable rather than hard-coded so deployments can adjust
// ranking without a rebuild.
type Config struct {
	// MaxLimit caps requested result sizes for both operations.
	MaxLimit int

	// TopGenres / TopAuthors bound the reading-profile breadth.
	TopGenres  int
	TopAuthors int

	// Personalized scoring: score = GenreWeight*genreMatches +
	// AuthorWeight*authorMatch + RatingWeight*avgRating +
	// ReadCountWeight*ln(readCount+1).
	GenreWeight     float64
	AuthorWeight    float64
	RatingWeight    float64
	ReadCountWeight float64

	// Similar-item scoring: score = SimilarGenreWeight*commonGenres +
	// SimilarAuthorWeight*sameAuthor +
	// SimilarRatingWeight*(5 - |ratingDelta|).
	SimilarGenreWeight  float64
	SimilarAuthorWeight float64
	SimilarRatingWeight float64

	// CandidateMultiplier is the over-fetch factor: candidate queries
	// request limit*CandidateMultiplier books so re-ranking happens
	// over a wider pool before truncation.
	CandidateMultiplier int

	// HighRatingFloor is the minimum review rating that counts toward
	// the user's profile, and also the threshold for the "highly
	// rated" reason on returned candidates.
	HighRatingFloor float64

	// Trending thresholds.
	TrendingMinRating float64
	TrendingMinReads  int

	// NewReleaseDays is the default publication-age window for the
	// new-releases supplement.
	NewReleaseDays int
}

// DefaultConfig returns the production scoring configuration.
func DefaultConfig() Config {
	return Config{
		MaxLimit:            50,
		TopGenres:           3,
		TopAuthors:          3,
		GenreWeight:         3.0,
		AuthorWeight:        5.0,
		RatingWeight:        2.0,
		ReadCountWeight:     0.5,
		SimilarGenreWeight:  2.0,
		SimilarAuthorWeight: 5.0,
		SimilarRatingWeight: 0.5,
		CandidateMultiplier: 2,
		HighRatingFloor:     4.0,
		TrendingMinRating:   4.0,
		TrendingMinReads:    10,
		NewReleaseDays:      90,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.MaxLimit < 1 {
		return fmt.Errorf("max limit must be at least 1, got %d", c.MaxLimit)
	}
	if c.TopGenres < 1 {
		return fmt.Errorf("top genres must be at least 1, got %d", c.TopGenres)
	}
	if c.TopAuthors < 1 {
		return fmt.Errorf("top authors must be at least 1, got %d", c.TopAuthors)
	}
	if c.CandidateMultiplier < 1 {
		return fmt.Errorf("candidate multiplier must be at least 1, got %d", c.CandidateMultiplier)
	}
	for name, w := range map[string]float64{
		"genre weight":          c.GenreWeight,
		"author weight":         c.AuthorWeight,
		"rating weight":         c.RatingWeight,
		"read count weight":     c.ReadCountWeight,
		"similar genre weight":  c.SimilarGenreWeight,
		"similar author weight": c.SimilarAuthorWeight,
		"similar rating weight": c.SimilarRatingWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative, got %g", name, w)
		}
	}
	if c.HighRatingFloor < 0 || c.HighRatingFloor > 5 {
		return fmt.Errorf("high rating floor must be between 0 and 5, got %g", c.HighRatingFloor)
	}
	if c.TrendingMinRating < 0 || c.TrendingMinRating > 5 {
		return fmt.Errorf("trending min rating must be between 0 and 5, got %g", c.TrendingMinRating)
	}
	if c.TrendingMinReads < 0 {
		return fmt.Errorf("trending min reads must not be negative, got %d", c.TrendingMinReads)
	}
	if c.NewReleaseDays < 1 {
		return fmt.Errorf("new release days must be at least 1, got %d", c.NewReleaseDays)
	}
	return nil
}
