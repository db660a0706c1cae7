// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package database

import (
	"reflect"
	"testing"
	"time"

	"github.com/mverner/folio/internal/models"
)

func TestReadingHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	now := time.Now().UTC()
	insertTestBook(t, db, models.Book{ID: "b1", Title: "Alpha", Author: "Ann", Genres: []string{"fantasy"}})
	insertTestBook(t, db, models.Book{ID: "b2", Title: "Beta", Author: "Ben", Genres: []string{"mystery"}})
	insertTestBook(t, db, models.Book{ID: "b3", Title: "Gamma", Author: "Cara"})
	insertTestBook(t, db, models.Book{ID: "b4", Title: "Delta", Author: "Dee"})

	insertTestProgress(t, db, "u1", "b1", models.StatusCompleted, now.Add(-48*time.Hour))
	insertTestProgress(t, db, "u1", "b2", models.StatusReading, now.Add(-1*time.Hour))
	insertTestProgress(t, db, "u1", "b3", models.StatusNotStarted, now)
	insertTestProgress(t, db, "u2", "b4", models.StatusCompleted, now)

	// User's own rating rides along when a review exists.
	insertTestReview(t, db, "u1", "b1", 5, now.Add(-24*time.Hour))

	records, err := db.ReadingHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("ReadingHistory failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	// Newest activity first.
	if records[0].BookID != "b2" || records[1].BookID != "b1" {
		t.Errorf("record order = [%s %s], want [b2 b1]", records[0].BookID, records[1].BookID)
	}
	if records[0].Status != models.StatusReading {
		t.Errorf("status = %s, want reading", records[0].Status)
	}
	if records[1].Rating != 5 {
		t.Errorf("rating = %v, want 5", records[1].Rating)
	}
	if records[0].Rating != 0 {
		t.Errorf("unreviewed rating = %v, want 0", records[0].Rating)
	}
	if !reflect.DeepEqual(records[1].Genres, []string{"fantasy"}) {
		t.Errorf("genres = %v, want [fantasy]", records[1].Genres)
	}
}

func TestReadingHistoryEmpty(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	records, err := db.ReadingHistory(ctx, "nobody")
	if err != nil {
		t.Fatalf("ReadingHistory failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestHighRatings(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	now := time.Now().UTC()
	insertTestBook(t, db, models.Book{ID: "b1", Title: "Alpha", Author: "Ann", Genres: []string{"fantasy"}})
	insertTestBook(t, db, models.Book{ID: "b2", Title: "Beta", Author: "Ben"})
	insertTestBook(t, db, models.Book{ID: "b3", Title: "Gamma", Author: "Cara"})

	insertTestReview(t, db, "u1", "b1", 5, now.Add(-2*time.Hour))
	insertTestReview(t, db, "u1", "b2", 3, now.Add(-1*time.Hour))
	insertTestReview(t, db, "u1", "b3", 4, now)
	insertTestReview(t, db, "u2", "b2", 5, now)

	records, err := db.HighRatings(ctx, "u1", 4.0)
	if err != nil {
		t.Fatalf("HighRatings failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Newest review first; the 3-star review is below the floor.
	if records[0].BookID != "b3" || records[1].BookID != "b1" {
		t.Errorf("record order = [%s %s], want [b3 b1]", records[0].BookID, records[1].BookID)
	}
	if records[1].Author != "Ann" {
		t.Errorf("author = %s, want Ann", records[1].Author)
	}
}

func TestSavedForLater(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	insertTestBook(t, db, models.Book{ID: "b1", Title: "Alpha", Author: "Ann"})
	insertTestBook(t, db, models.Book{ID: "b2", Title: "Beta", Author: "Ben"})

	if err := db.AddToWishlist(ctx, "u1", "b1"); err != nil {
		t.Fatalf("AddToWishlist failed: %v", err)
	}
	if err := db.AddToWishlist(ctx, "u1", "b2"); err != nil {
		t.Fatalf("AddToWishlist failed: %v", err)
	}
	// Removed entries stay out of the result.
	if _, err := db.conn.Exec("UPDATE wishlist SET status = 'removed' WHERE user_id = 'u1' AND book_id = 'b2'"); err != nil {
		t.Fatalf("failed to update wishlist: %v", err)
	}

	ids, err := db.SavedForLater(ctx, "u1")
	if err != nil {
		t.Fatalf("SavedForLater failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"b1"}) {
		t.Errorf("wishlist IDs = %v, want [b1]", ids)
	}

	// Re-adding reactivates.
	if err := db.AddToWishlist(ctx, "u1", "b2"); err != nil {
		t.Fatalf("AddToWishlist failed: %v", err)
	}
	ids, err = db.SavedForLater(ctx, "u1")
	if err != nil {
		t.Fatalf("SavedForLater failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 wishlist IDs after re-add, got %v", ids)
	}
}

func TestUpsertProgress(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	insertTestBook(t, db, models.Book{ID: "b1", Title: "Alpha", Author: "Ann"})

	if err := db.UpsertProgress(ctx, "u1", "b1", models.StatusReading, 50); err != nil {
		t.Fatalf("UpsertProgress failed: %v", err)
	}
	if err := db.UpsertProgress(ctx, "u1", "b1", models.StatusCompleted, 412); err != nil {
		t.Fatalf("UpsertProgress update failed: %v", err)
	}

	var status string
	var page int
	var completed *time.Time
	err := db.conn.QueryRow(
		"SELECT status, current_page, completed_at FROM reading_progress WHERE user_id = 'u1' AND book_id = 'b1'").
		Scan(&status, &page, &completed)
	if err != nil {
		t.Fatalf("failed to query progress: %v", err)
	}
	if status != models.StatusCompleted || page != 412 {
		t.Errorf("progress = %s/%d, want completed/412", status, page)
	}
	if completed == nil {
		t.Error("completed_at should be set after completion")
	}
}

func TestAddReviewUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	insertTestBook(t, db, models.Book{ID: "b1", Title: "Alpha", Author: "Ann"})

	first := &models.Review{ID: "r1", UserID: "u1", BookID: "b1", Rating: 3, Title: "OK", Content: "Fine."}
	if err := db.AddReview(ctx, first); err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}
	second := &models.Review{ID: "r2", UserID: "u1", BookID: "b1", Rating: 5, Title: "Changed my mind", Content: "Great."}
	if err := db.AddReview(ctx, second); err != nil {
		t.Fatalf("AddReview replace failed: %v", err)
	}

	var count int
	var rating float64
	err := db.conn.QueryRow(
		"SELECT COUNT(*), MAX(rating) FROM reviews WHERE user_id = 'u1' AND book_id = 'b1'").
		Scan(&count, &rating)
	if err != nil {
		t.Fatalf("failed to query reviews: %v", err)
	}
	if count != 1 || rating != 5 {
		t.Errorf("reviews = %d rows rating %v, want 1 row rating 5", count, rating)
	}
}

func TestRefreshBookStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	now := time.Now().UTC()
	insertTestBook(t, db, models.Book{ID: "b1", Title: "Alpha", Author: "Ann"})

	insertTestReview(t, db, "u1", "b1", 5, now)
	insertTestReview(t, db, "u2", "b1", 4, now)
	insertTestProgress(t, db, "u1", "b1", models.StatusCompleted, now)
	insertTestProgress(t, db, "u2", "b1", models.StatusCompleted, now)
	insertTestProgress(t, db, "u3", "b1", models.StatusReading, now)

	if err := db.RefreshBookStats(ctx); err != nil {
		t.Fatalf("RefreshBookStats failed: %v", err)
	}

	book, err := db.GetBook(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if book.AvgRating != 4.5 {
		t.Errorf("avg_rating = %v, want 4.5", book.AvgRating)
	}
	if book.RatingsCount != 2 {
		t.Errorf("ratings_count = %d, want 2", book.RatingsCount)
	}
	if book.ReadCount != 2 {
		t.Errorf("read_count = %d, want 2 (reading does not count)", book.ReadCount)
	}
}

func TestSeedDemoDataIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)

	if err := db.SeedDemoData(ctx); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}
	counts, err := db.GetRecordCounts(ctx)
	if err != nil {
		t.Fatalf("GetRecordCounts failed: %v", err)
	}
	if counts.Books == 0 || counts.Users == 0 || counts.Reviews == 0 || counts.Progress == 0 {
		t.Fatalf("seed left empty tables: %+v", counts)
	}

	if err := db.SeedDemoData(ctx); err != nil {
		t.Fatalf("second SeedDemoData failed: %v", err)
	}
	again, err := db.GetRecordCounts(ctx)
	if err != nil {
		t.Fatalf("GetRecordCounts failed: %v", err)
	}
	if again != counts {
		t.Errorf("record counts changed on second seed: %+v vs %+v", again, counts)
	}
}
