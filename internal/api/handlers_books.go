// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/mverner/folio/internal/ai"
	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/logging"
	"github.com/mverner/folio/internal/models"
	"github.com/mverner/folio/internal/recommend"
)

// booksRequest bounds the catalog listing parameters.
type booksRequest struct {
	Genre  string `validate:"omitempty,genre"`
	Limit  int    `validate:"min=1,max=100"`
	Offset int    `validate:"min=0"`
}

// Books serves GET /api/v1/books: a page of the catalog.
func (h *Handler) Books(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	genre := r.URL.Query().Get("genre")
	limit, err := getIntParam(r, "limit", 20)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	offset, err := getIntParam(r, "offset", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&booksRequest{Genre: genre, Limit: limit, Offset: offset}); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	books, err := h.catalog.ListBooks(r.Context(), genre, limit, offset)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Book listing failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list books", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"books":  books,
			"limit":  limit,
			"offset": offset,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: queryMillis(start),
		},
	})
}

// Book serves GET /api/v1/books/{bookId}.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bookID := r.PathValue("bookId")
	if bookID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bookId is required", nil)
		return
	}

	book, err := h.catalog.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", sanitizeLogValue(bookID)).Msg("Book lookup failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load book", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   book,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: queryMillis(start),
		},
	})
}

// BookSummary serves GET /api/v1/books/{bookId}/summary: an AI
// generated summary, cached per book.
func (h *Handler) BookSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.summaries == nil || !h.summaries.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "Book summaries are not enabled", nil)
		return
	}

	bookID := r.PathValue("bookId")
	if bookID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bookId is required", nil)
		return
	}

	book, err := h.catalog.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", sanitizeLogValue(bookID)).Msg("Book lookup failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load book", err)
		return
	}

	summary, cached, err := h.summaries.Summarize(r.Context(), auth.UserIDFromContext(r.Context()), book)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrQuotaExhausted):
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Your summary quota is exhausted, try again later", nil)
		case errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrDisabled):
			respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "Summary provider is unavailable", err)
		default:
			logging.Ctx(r.Context()).Error().Err(err).Str("book_id", sanitizeLogValue(bookID)).Msg("Summary generation failed")
			respondError(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "Failed to generate summary", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   summary,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: queryMillis(start),
			Cached:      cached,
		},
	})
}
