// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mverner/folio/internal/config"
	"github.com/mverner/folio/internal/models"
)

// testDBSemaphore serializes test database lifecycles. Concurrent
// DuckDB CGO calls from parallel tests can hang under CI resource
// pressure, so only one test holds an open connection at a time.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory test database. The semaphore is
// held for the whole test, released via t.Cleanup.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

// insertTestBook inserts a minimal book row with explicit aggregates.
func insertTestBook(t *testing.T, db *DB, b models.Book) {
	t.Helper()

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO books (id, title, author, genres, avg_rating, ratings_count, read_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, joinGenres(b.Genres),
		b.AvgRating, b.RatingsCount, b.ReadCount, b.CreatedAt)
	if err != nil {
		t.Fatalf("failed to insert test book %s: %v", b.ID, err)
	}
}

// insertTestProgress inserts one reading_progress row.
func insertTestProgress(t *testing.T, db *DB, userID, bookID, status string, lastRead time.Time) {
	t.Helper()

	_, err := db.conn.Exec(`
		INSERT INTO reading_progress (user_id, book_id, status, started_at, last_read_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, bookID, status, lastRead.Add(-24*time.Hour), lastRead)
	if err != nil {
		t.Fatalf("failed to insert test progress %s/%s: %v", userID, bookID, err)
	}
}

// insertTestReview inserts one review row.
func insertTestReview(t *testing.T, db *DB, userID, bookID string, rating float64, created time.Time) {
	t.Helper()

	_, err := db.conn.Exec(`
		INSERT INTO reviews (id, user_id, book_id, rating, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		fmt.Sprintf("r-%s-%s", userID, bookID), userID, bookID, rating, created)
	if err != nil {
		t.Fatalf("failed to insert test review %s/%s: %v", userID, bookID, err)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
