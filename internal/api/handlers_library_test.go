// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/models"
)

// authedJSONRequest builds a request with a JSON body and authenticated
// claims, the way the auth middleware leaves them for handlers.
func authedJSONRequest(method, target, userID, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	claims := &auth.Claims{
		Role: models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}
	return req.WithContext(auth.ContextWithClaims(req.Context(), claims))
}

func TestUpdateProgress(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPut, "/api/v1/books/b1/progress", "u1",
		`{"status": "reading", "current_page": 42}`)
	req.SetPathValue("bookId", "b1")
	handler.UpdateProgress(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := stores.progress["u1/b1"]; got != "reading" {
		t.Errorf("stored progress = %q, want reading", got)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["current_page"] != float64(42) {
		t.Errorf("expected current_page echo 42, got %v", data["current_page"])
	}
}

func TestUpdateProgressInvalidStatus(t *testing.T) {
	handler := newTestHandler(t, &mockStores{books: testBooks()}, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPut, "/api/v1/books/b1/progress", "u1",
		`{"status": "skimming"}`)
	req.SetPathValue("bookId", "b1")
	handler.UpdateProgress(rec, req)

	expectErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestUpdateProgressUnknownBook(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPut, "/api/v1/books/missing/progress", "u1",
		`{"status": "reading"}`)
	req.SetPathValue("bookId", "missing")
	handler.UpdateProgress(rec, req)

	expectErrorCode(t, rec, http.StatusNotFound, "NOT_FOUND")
	if len(stores.progress) != 0 {
		t.Error("no progress should be written for an unknown book")
	}
}

func TestCreateReview(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPost, "/api/v1/books/b1/reviews", "u1",
		`{"rating": 4.5, "title": "Loved it", "content": "Spice and sand."}`)
	req.SetPathValue("bookId", "b1")
	handler.CreateReview(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(stores.reviews) != 1 {
		t.Fatalf("expected one stored review, got %d", len(stores.reviews))
	}
	review := stores.reviews[0]
	if review.UserID != "u1" || review.BookID != "b1" || review.Rating != 4.5 {
		t.Errorf("stored review = %+v", review)
	}
	if review.ID == "" {
		t.Error("review should get a generated ID")
	}
}

func TestCreateReviewRatingOutOfRange(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	for _, body := range []string{`{"rating": 0.5}`, `{"rating": 6}`, `{}`} {
		rec := httptest.NewRecorder()
		req := authedJSONRequest(http.MethodPost, "/api/v1/books/b1/reviews", "u1", body)
		req.SetPathValue("bookId", "b1")
		handler.CreateReview(rec, req)

		expectErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	}
	if len(stores.reviews) != 0 {
		t.Errorf("no review should be stored, got %d", len(stores.reviews))
	}
}

func TestCreateReviewMalformedBody(t *testing.T) {
	handler := newTestHandler(t, &mockStores{books: testBooks()}, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPost, "/api/v1/books/b1/reviews", "u1", `{"rating": `)
	req.SetPathValue("bookId", "b1")
	handler.CreateReview(rec, req)

	expectErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCreateReviewStoreFailure(t *testing.T) {
	handler := newTestHandler(t, &mockStores{books: testBooks(), failWrites: true}, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPost, "/api/v1/books/b1/reviews", "u1", `{"rating": 4}`)
	req.SetPathValue("bookId", "b1")
	handler.CreateReview(rec, req)

	expectErrorCode(t, rec, http.StatusInternalServerError, "DATABASE_ERROR")
}

func TestWishlistAddAndRemove(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPost, "/api/v1/books/b2/wishlist", "u1", "")
	req.SetPathValue("bookId", "b2")
	handler.AddWishlist(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(stores.wishlistAdds) != 1 || stores.wishlistAdds[0] != "u1/b2" {
		t.Errorf("wishlist adds = %v", stores.wishlistAdds)
	}

	rec = httptest.NewRecorder()
	req = authedJSONRequest(http.MethodDelete, "/api/v1/books/b2/wishlist", "u1", "")
	req.SetPathValue("bookId", "b2")
	handler.RemoveWishlist(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(stores.wishlistRemoves) != 1 || stores.wishlistRemoves[0] != "u1/b2" {
		t.Errorf("wishlist removes = %v", stores.wishlistRemoves)
	}
}

func TestWishlistAddUnknownBook(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPost, "/api/v1/books/missing/wishlist", "u1", "")
	req.SetPathValue("bookId", "missing")
	handler.AddWishlist(rec, req)

	expectErrorCode(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestCreateBook(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPost, "/api/v1/books", "admin-1",
		`{"title": "Children of Time", "author": "Adrian Tchaikovsky", "genres": ["science fiction"], "page_count": 600}`)
	handler.CreateBook(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(stores.inserted) != 1 {
		t.Fatalf("expected one inserted book, got %d", len(stores.inserted))
	}
	book := stores.inserted[0]
	if book.Title != "Children of Time" || book.ID == "" {
		t.Errorf("inserted book = %+v", book)
	}
}

func TestCreateBookMissingTitle(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	handler := newTestHandler(t, stores, nil)

	rec := httptest.NewRecorder()
	req := authedJSONRequest(http.MethodPost, "/api/v1/books", "admin-1", `{"author": "Nobody"}`)
	handler.CreateBook(rec, req)

	expectErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	if len(stores.inserted) != 0 {
		t.Error("no book should be inserted on validation failure")
	}
}
