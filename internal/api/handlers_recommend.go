// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/cache"
	"github.com/mverner/folio/internal/logging"
	"github.com/mverner/folio/internal/metrics"
	"github.com/mverner/folio/internal/models"
	"github.com/mverner/folio/internal/recommend"
)

// Limits above the engine's maximum are clamped, not rejected, so
// request validation only guards against negatives.

// recommendationsRequest bounds the personalized query parameters.
type recommendationsRequest struct {
	Limit int `validate:"min=0"`
}

// similarRequest bounds the similar-items query parameters.
type similarRequest struct {
	BookID string `validate:"required"`
	Limit  int    `validate:"min=0"`
}

// trendingRequest bounds the trending query parameters.
type trendingRequest struct {
	Genre string `validate:"omitempty,genre"`
	Limit int    `validate:"min=0"`
}

// newReleasesRequest bounds the new-releases query parameters.
type newReleasesRequest struct {
	DaysBack int `validate:"min=0,max=365"`
	Limit    int `validate:"min=0"`
}

// Recommendations serves GET /api/v1/recommendations: personalized
// recommendations for the authenticated user.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Authentication required", nil)
		return
	}

	limit, err := getIntParam(r, "limit", h.config.Recommend.DefaultLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&recommendationsRequest{Limit: limit}); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := h.engine.RecommendForUser(r.Context(), userID, limit)
	if err != nil {
		metrics.RecordRecommendation("personalized", "error", time.Since(start))
		logging.Ctx(r.Context()).Error().Err(err).Msg("Recommendation computation failed")
		respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "Recommendations are temporarily unavailable", err)
		return
	}

	outcome := "ok"
	if result.NoHistory {
		outcome = "no_history"
	}
	metrics.RecordRecommendation("personalized", outcome, time.Since(start))

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: queryMillis(start),
		},
	})
}

// SimilarBooks serves GET /api/v1/recommendations/similar/{bookId}:
// books similar to a reference book.
func (h *Handler) SimilarBooks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bookID := r.PathValue("bookId")
	limit, err := getIntParam(r, "limit", h.config.Recommend.DefaultLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&similarRequest{BookID: bookID, Limit: limit}); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := h.engine.SimilarBooks(r.Context(), bookID, limit)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			metrics.RecordRecommendation("similar", "not_found", time.Since(start))
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		metrics.RecordRecommendation("similar", "error", time.Since(start))
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", sanitizeLogValue(bookID)).Msg("Similar books computation failed")
		respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "Recommendations are temporarily unavailable", err)
		return
	}
	metrics.RecordRecommendation("similar", "ok", time.Since(start))

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: queryMillis(start),
		},
	})
}

// Trending serves GET /api/v1/recommendations/trending: popular,
// highly rated books, optionally per genre.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	genre := r.URL.Query().Get("genre")
	limit, err := getIntParam(r, "limit", h.config.Recommend.DefaultLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&trendingRequest{Genre: genre, Limit: limit}); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	cacheKey := cache.GenerateKey("trending", trendingRequest{Genre: genre, Limit: limit})
	if data, ok := h.cache.Get(cacheKey); ok {
		metrics.RecordRecommendation("trending", "cached", time.Since(start))
		respondJSON(w, http.StatusOK, &models.APIResponse{
			Status: "success",
			Data:   data,
			Metadata: models.Metadata{
				Timestamp:   time.Now(),
				QueryTimeMS: queryMillis(start),
				Cached:      true,
			},
		})
		return
	}

	books, criteria, err := h.engine.TrendingBooks(r.Context(), genre, limit)
	if err != nil {
		metrics.RecordRecommendation("trending", "error", time.Since(start))
		logging.Ctx(r.Context()).Error().Err(err).Msg("Trending query failed")
		respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "Trending books are temporarily unavailable", err)
		return
	}
	metrics.RecordRecommendation("trending", "ok", time.Since(start))

	data := map[string]interface{}{
		"books":    books,
		"criteria": criteria,
	}
	h.cache.Set(cacheKey, data)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: queryMillis(start),
		},
	})
}

// NewReleases serves GET /api/v1/recommendations/new-releases: books
// recently added to the catalog.
func (h *Handler) NewReleases(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	daysBack, err := getIntParam(r, "days", h.config.Recommend.NewReleaseDays)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	limit, err := getIntParam(r, "limit", h.config.Recommend.DefaultLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&newReleasesRequest{DaysBack: daysBack, Limit: limit}); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	cacheKey := cache.GenerateKey("new_releases", newReleasesRequest{DaysBack: daysBack, Limit: limit})
	if data, ok := h.cache.Get(cacheKey); ok {
		metrics.RecordRecommendation("new_releases", "cached", time.Since(start))
		respondJSON(w, http.StatusOK, &models.APIResponse{
			Status: "success",
			Data:   data,
			Metadata: models.Metadata{
				Timestamp:   time.Now(),
				QueryTimeMS: queryMillis(start),
				Cached:      true,
			},
		})
		return
	}

	books, criteria, err := h.engine.NewReleases(r.Context(), daysBack, limit)
	if err != nil {
		metrics.RecordRecommendation("new_releases", "error", time.Since(start))
		logging.Ctx(r.Context()).Error().Err(err).Msg("New releases query failed")
		respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "New releases are temporarily unavailable", err)
		return
	}
	metrics.RecordRecommendation("new_releases", "ok", time.Since(start))

	data := map[string]interface{}{
		"books":    books,
		"criteria": criteria,
	}
	h.cache.Set(cacheKey, data)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: queryMillis(start),
		},
	})
}
