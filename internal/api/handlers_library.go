// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/logging"
	"github.com/mverner/folio/internal/models"
	"github.com/mverner/folio/internal/recommend"
)

// progressRequest is the body of a reading progress update.
type progressRequest struct {
	Status      string `json:"status" validate:"required,oneof=not_started reading completed paused abandoned"`
	CurrentPage int    `json:"current_page" validate:"min=0"`
}

// reviewRequest is the body of a review submission.
type reviewRequest struct {
	Rating  float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string  `json:"title" validate:"omitempty,max=200"`
	Content string  `json:"content" validate:"omitempty,max=5000"`
}

// createBookRequest is the body of an admin catalog addition.
type createBookRequest struct {
	Title       string    `json:"title" validate:"required,max=500"`
	Author      string    `json:"author" validate:"required,max=200"`
	ISBN        string    `json:"isbn" validate:"omitempty,max=20"`
	Description string    `json:"description" validate:"omitempty,max=10000"`
	Genres      []string  `json:"genres" validate:"omitempty,dive,genre"`
	PageCount   int       `json:"page_count" validate:"min=0"`
	Language    string    `json:"language" validate:"omitempty,max=50"`
	CoverURL    string    `json:"cover_url" validate:"omitempty,url"`
	PublishedAt time.Time `json:"published_at"`
}

// lookupBook loads the referenced book or writes the error response.
// Returns nil when a response has already been sent.
func (h *Handler) lookupBook(w http.ResponseWriter, r *http.Request) *models.Book {
	bookID := r.PathValue("bookId")
	if bookID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bookId is required", nil)
		return nil
	}

	book, err := h.catalog.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return nil
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", sanitizeLogValue(bookID)).Msg("Book lookup failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load book", err)
		return nil
	}
	return book
}

// UpdateProgress serves PUT /api/v1/books/{bookId}/progress. Progress
// is upserted, so starting and updating a book are the same call.
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	book := h.lookupBook(w, r)
	if book == nil {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.library.UpsertProgress(r.Context(), userID, book.ID, req.Status, req.CurrentPage); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", book.ID).Msg("Progress update failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update reading progress", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"book_id":      book.ID,
			"status":       req.Status,
			"current_page": req.CurrentPage,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// CreateReview serves POST /api/v1/books/{bookId}/reviews. One review
// per user per book; resubmitting replaces the earlier one.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	book := h.lookupBook(w, r)
	if book == nil {
		return
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		UserID:    auth.UserIDFromContext(r.Context()),
		BookID:    book.ID,
		Rating:    req.Rating,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.library.AddReview(r.Context(), review); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", book.ID).Msg("Review submission failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save review", err)
		return
	}

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     review,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// AddWishlist serves POST /api/v1/books/{bookId}/wishlist.
func (h *Handler) AddWishlist(w http.ResponseWriter, r *http.Request) {
	book := h.lookupBook(w, r)
	if book == nil {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.library.AddToWishlist(r.Context(), userID, book.ID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", book.ID).Msg("Wishlist add failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update wishlist", err)
		return
	}

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     map[string]interface{}{"book_id": book.ID, "status": "active"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// RemoveWishlist serves DELETE /api/v1/books/{bookId}/wishlist.
// Removing a book that is not wishlisted is a no-op success.
func (h *Handler) RemoveWishlist(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("bookId")
	if bookID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bookId is required", nil)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.library.RemoveFromWishlist(r.Context(), userID, bookID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("book_id", sanitizeLogValue(bookID)).Msg("Wishlist remove failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update wishlist", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]interface{}{"book_id": bookID, "status": "removed"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// CreateBook serves POST /api/v1/books. Admin only; the router gates
// it behind RequireRole.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	book := &models.Book{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Description: req.Description,
		Genres:      req.Genres,
		PageCount:   req.PageCount,
		Language:    req.Language,
		CoverURL:    req.CoverURL,
		PublishedAt: req.PublishedAt,
	}
	if err := h.library.InsertBook(r.Context(), book); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("title", sanitizeLogValue(req.Title)).Msg("Book creation failed")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create book", err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("book_id", book.ID).Str("title", sanitizeLogValue(book.Title)).Msg("Book added to catalog")

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     book,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
