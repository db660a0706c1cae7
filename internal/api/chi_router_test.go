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
	"time"

	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/config"
	"github.com/mverner/folio/internal/models"
)

// newTestRouter builds a full router with real JWT authentication over
// mock stores, returning the handler and a valid token for userID.
func newTestRouter(t *testing.T, stores *mockStores, userID string) (http.Handler, string) {
	t.Helper()
	return newTestRouterWithRole(t, stores, userID, models.RoleStudent)
}

func newTestRouterWithRole(t *testing.T, stores *mockStores, userID, role string) (http.Handler, string) {
	t.Helper()

	handler := newTestHandler(t, stores, nil)

	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret: "test-secret-key-of-sufficient-length",
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build JWT manager: %v", err)
	}
	token, err := jwtManager.GenerateToken(userID, role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	authMW := auth.NewMiddleware(jwtManager, auth.ModeJWT, RespondAuthError)
	chiMW := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		RateLimitDisabled:  true,
	})

	router := NewRouter(handler, authMW, chiMW)
	return router.SetupChi(), token
}

func TestRouterHealthIsPublic(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{books: testBooks()}, "u1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without auth, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff header, got %q", got)
	}
}

func TestRouterMetricsIsPublic(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{}, "u1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterPersonalizedEndpointsRequireAuth(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{books: testBooks()}, "u1")

	paths := []string{
		"/api/v1/recommendations",
		"/api/v1/books/b1/summary",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 without token, got %d", path, rec.Code)
		}
		if got := rec.Header().Get("WWW-Authenticate"); got == "" {
			t.Errorf("%s: expected WWW-Authenticate header", path)
		}
	}
}

// Catalog browsing and discovery endpoints take no token.
func TestRouterDiscoveryEndpointsArePublic(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{books: testBooks()}, "u1")

	paths := []string{
		"/api/v1/recommendations/similar/b1",
		"/api/v1/recommendations/trending",
		"/api/v1/recommendations/new-releases",
		"/api/v1/books",
		"/api/v1/books/b1",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200 without token, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterAuthenticatedRecommendations(t *testing.T) {
	stores := &mockStores{
		history: []models.HistoryRecord{
			{BookID: "b2", Author: "Dan Simmons", Genres: []string{"science fiction"}, Status: models.StatusCompleted},
		},
		books: testBooks(),
	}
	mux, token := newTestRouter(t, stores, "u1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Request-ID"); got == "" {
		t.Error("expected X-Request-ID header on response")
	}
}

// The Chi URL param must reach handlers through r.PathValue.
func TestRouterPathParamBridge(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{books: testBooks()}, "u1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/b1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	book := resp.Data.(map[string]interface{})
	if book["id"] != "b1" {
		t.Errorf("expected book b1, got %v", book["id"])
	}
}

func TestRouterSimilarNotFoundThroughStack(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{books: testBooks()}, "u1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/similar/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	expectErrorCode(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestRouterRejectsBadToken(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{books: testBooks()}, "u1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	expectErrorCode(t, rec, http.StatusUnauthorized, "AUTHENTICATION_ERROR")
}

func TestRouterWriteEndpointsRequireAuth(t *testing.T) {
	mux, _ := newTestRouter(t, &mockStores{books: testBooks()}, "u1")

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/v1/books/b1/progress"},
		{http.MethodPost, "/api/v1/books/b1/reviews"},
		{http.MethodPost, "/api/v1/books/b1/wishlist"},
		{http.MethodDelete, "/api/v1/books/b1/wishlist"},
		{http.MethodPost, "/api/v1/books"},
	}
	for _, tc := range requests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouterProgressWriteThroughStack(t *testing.T) {
	stores := &mockStores{books: testBooks()}
	mux, token := newTestRouter(t, stores, "u1")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/books/b1/progress",
		strings.NewReader(`{"status": "completed", "current_page": 412}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := stores.progress["u1/b1"]; got != "completed" {
		t.Errorf("stored progress = %q, want completed", got)
	}
}

func TestRouterCreateBookRequiresAdmin(t *testing.T) {
	body := `{"title": "New Book", "author": "Someone"}`

	stores := &mockStores{books: testBooks()}
	mux, studentToken := newTestRouterWithRole(t, stores, "u1", models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	expectErrorCode(t, rec, http.StatusForbidden, "AUTHENTICATION_ERROR")
	if len(stores.inserted) != 0 {
		t.Error("student must not be able to create books")
	}

	adminStores := &mockStores{books: testBooks()}
	adminMux, adminToken := newTestRouterWithRole(t, adminStores, "a1", models.RoleAdmin)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	adminMux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(adminStores.inserted) != 1 {
		t.Errorf("expected one inserted book, got %d", len(adminStores.inserted))
	}
}

// The summary endpoint carries its own strict limit on top of the
// general API limit.
func TestRouterSummaryRateLimit(t *testing.T) {
	handler := newTestHandler(t, &mockStores{books: testBooks()}, nil)

	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret: "test-secret-key-of-sufficient-length",
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build JWT manager: %v", err)
	}
	token, err := jwtManager.GenerateToken("u1", models.RoleStudent)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	authMW := auth.NewMiddleware(jwtManager, auth.ModeJWT, RespondAuthError)
	chiMW := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  1000,
		RateLimitWindow:    time.Minute,
	})
	mux := NewRouter(handler, authMW, chiMW).SetupChi()

	var last int
	for i := 0; i < RateLimitAI.Requests+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books/b1/summary", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after exceeding the summary limit, got %d", last)
	}

	// The general API limit is untouched by the summary burst.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on a general endpoint, got %d", rec.Code)
	}
}
