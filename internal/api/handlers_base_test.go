// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/mverner/folio/internal/ai"
	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/config"
	"github.com/mverner/folio/internal/database"
	"github.com/mverner/folio/internal/models"
	"github.com/mverner/folio/internal/recommend"
)

var errStoreDown = errors.New("store down")

// mockStores implements recommend.HistoryStore, recommend.CatalogStore,
// CatalogReader, and LibraryWriter over fixed fixtures so handler tests
// run without DuckDB.
type mockStores struct {
	history  []models.HistoryRecord
	ratings  []models.HistoryRecord
	wishlist []string
	books    []models.Book

	failHistory bool
	failCatalog bool
	failWrites  bool

	progress        map[string]string
	reviews         []*models.Review
	wishlistAdds    []string
	wishlistRemoves []string
	inserted        []*models.Book
}

func (m *mockStores) ReadingHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	if m.failHistory {
		return nil, errStoreDown
	}
	return m.history, nil
}

func (m *mockStores) HighRatings(ctx context.Context, userID string, minRating float64) ([]models.HistoryRecord, error) {
	if m.failHistory {
		return nil, errStoreDown
	}
	var out []models.HistoryRecord
	for _, rec := range m.ratings {
		if rec.Rating >= minRating {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockStores) SavedForLater(ctx context.Context, userID string) ([]string, error) {
	if m.failHistory {
		return nil, errStoreDown
	}
	return m.wishlist, nil
}

func (m *mockStores) FindCandidates(ctx context.Context, filter recommend.CandidateFilter, limit int) ([]models.Book, error) {
	if m.failCatalog {
		return nil, errStoreDown
	}
	excluded := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}
	var out []models.Book
	for _, b := range m.books {
		if excluded[b.ID] || len(out) >= limit {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *mockStores) GetBook(ctx context.Context, bookID string) (*models.Book, error) {
	if m.failCatalog {
		return nil, errStoreDown
	}
	for i := range m.books {
		if m.books[i].ID == bookID {
			b := m.books[i]
			return &b, nil
		}
	}
	return nil, recommend.ErrNotFound
}

func (m *mockStores) Trending(ctx context.Context, genre string, minRating float64, minReads, limit int) ([]models.Book, error) {
	if m.failCatalog {
		return nil, errStoreDown
	}
	var out []models.Book
	for _, b := range m.books {
		if b.AvgRating >= minRating && b.ReadCount >= minReads && len(out) < limit {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStores) NewReleases(ctx context.Context, cutoff time.Time, limit int) ([]models.Book, error) {
	if m.failCatalog {
		return nil, errStoreDown
	}
	var out []models.Book
	for _, b := range m.books {
		if b.CreatedAt.After(cutoff) && len(out) < limit {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStores) ListBooks(ctx context.Context, genre string, limit, offset int) ([]models.Book, error) {
	if m.failCatalog {
		return nil, errStoreDown
	}
	if offset >= len(m.books) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.books) {
		end = len(m.books)
	}
	return m.books[offset:end], nil
}

func (m *mockStores) UpsertProgress(ctx context.Context, userID, bookID, status string, currentPage int) error {
	if m.failWrites {
		return errStoreDown
	}
	if m.progress == nil {
		m.progress = make(map[string]string)
	}
	m.progress[userID+"/"+bookID] = status
	return nil
}

func (m *mockStores) AddReview(ctx context.Context, review *models.Review) error {
	if m.failWrites {
		return errStoreDown
	}
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockStores) AddToWishlist(ctx context.Context, userID, bookID string) error {
	if m.failWrites {
		return errStoreDown
	}
	m.wishlistAdds = append(m.wishlistAdds, userID+"/"+bookID)
	return nil
}

func (m *mockStores) RemoveFromWishlist(ctx context.Context, userID, bookID string) error {
	if m.failWrites {
		return errStoreDown
	}
	m.wishlistRemoves = append(m.wishlistRemoves, userID+"/"+bookID)
	return nil
}

func (m *mockStores) InsertBook(ctx context.Context, book *models.Book) error {
	if m.failWrites {
		return errStoreDown
	}
	m.inserted = append(m.inserted, book)
	return nil
}

// mockHealthStore implements HealthStore.
type mockHealthStore struct {
	pingErr   error
	countsErr error
}

func (m *mockHealthStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockHealthStore) GetRecordCounts(ctx context.Context) (database.RecordCounts, error) {
	if m.countsErr != nil {
		return database.RecordCounts{}, m.countsErr
	}
	return database.RecordCounts{Books: 3, Users: 1}, nil
}

// mockSummaryClient implements SummaryClient.
type mockSummaryClient struct {
	enabled  bool
	summary  *ai.Summary
	cached   bool
	err      error
	calls    int
	lastUser string
}

func (m *mockSummaryClient) Enabled() bool {
	return m.enabled
}

func (m *mockSummaryClient) Summarize(ctx context.Context, userID string, book *models.Book) (*ai.Summary, bool, error) {
	m.calls++
	m.lastUser = userID
	if m.err != nil {
		return nil, false, m.err
	}
	return m.summary, m.cached, nil
}

func testBooks() []models.Book {
	now := time.Now()
	return []models.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genres: []string{"science fiction", "classic"}, AvgRating: 4.6, ReadCount: 120, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "b2", Title: "Hyperion", Author: "Dan Simmons", Genres: []string{"science fiction"}, AvgRating: 4.4, ReadCount: 80, CreatedAt: now.Add(-200 * 24 * time.Hour)},
		{ID: "b3", Title: "Piranesi", Author: "Susanna Clarke", Genres: []string{"fantasy"}, AvgRating: 4.2, ReadCount: 40, CreatedAt: now.Add(-5 * 24 * time.Hour)},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: config.SecurityConfig{
			JWTSecret: "test-secret-key-of-sufficient-length",
			TokenTTL:  time.Hour,
		},
		Recommend: config.RecommendConfig{
			DefaultLimit:   10,
			MaxLimit:       50,
			NewReleaseDays: 90,
		},
	}
}

// newTestHandler builds a Handler over mock stores and a real engine.
func newTestHandler(t *testing.T, stores *mockStores, summaries SummaryClient) *Handler {
	t.Helper()

	engine, err := recommend.New(recommend.DefaultConfig(), stores, stores, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	handler := NewHandler(engine, stores, stores, &mockHealthStore{}, summaries, testConfig())
	t.Cleanup(handler.Close)
	return handler
}

// authedRequest builds a GET request carrying authenticated claims, the
// way the auth middleware leaves them for handlers.
func authedRequest(target, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	claims := &auth.Claims{
		Role: models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}
	return req.WithContext(auth.ContextWithClaims(req.Context(), claims))
}

// decodeResponse unmarshals the standard API envelope.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return &resp
}

// expectErrorCode asserts status and the envelope error code.
func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil {
		t.Fatal("expected error in response envelope")
	}
	if resp.Error.Code != code {
		t.Errorf("expected error code %s, got %s", code, resp.Error.Code)
	}
}
