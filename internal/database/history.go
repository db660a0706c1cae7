// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mverner/folio/internal/models"
	"github.com/mverner/folio/internal/recommend"
)

// Ensure interface compliance.
var _ recommend.HistoryStore = (*DB)(nil)

// ReadingHistory implements recommend.HistoryStore. Returns the user's
// in-progress and completed books newest first, carrying the user's own
// review rating when one exists. The ORDER BY ends on book_id so the
// result order is deterministic.
func (db *DB) ReadingHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "reading_history", "reading_progress", `
		SELECT rp.book_id, b.title, b.author, COALESCE(b.genres, ''),
			rp.status, COALESCE(r.rating, 0), COALESCE(rp.last_read_at, rp.started_at)
		FROM reading_progress rp
		JOIN books b ON b.id = rp.book_id
		LEFT JOIN reviews r ON r.book_id = rp.book_id AND r.user_id = rp.user_id
		WHERE rp.user_id = ? AND rp.status IN (?, ?)
		ORDER BY COALESCE(rp.last_read_at, rp.started_at) DESC, rp.book_id`,
		userID, models.StatusCompleted, models.StatusReading)
	if err != nil {
		return nil, fmt.Errorf("query reading history: %w", err)
	}
	defer closeWithLog(rows, "history rows")

	return collectHistory(rows)
}

// HighRatings implements recommend.HistoryStore. Returns books the user
// reviewed at or above minRating, newest review first.
func (db *DB) HighRatings(ctx context.Context, userID string, minRating float64) ([]models.HistoryRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "high_ratings", "reviews", `
		SELECT r.book_id, b.title, b.author, COALESCE(b.genres, ''),
			'', r.rating, r.created_at
		FROM reviews r
		JOIN books b ON b.id = r.book_id
		WHERE r.user_id = ? AND r.rating >= ?
		ORDER BY r.created_at DESC, r.book_id`,
		userID, minRating)
	if err != nil {
		return nil, fmt.Errorf("query high ratings: %w", err)
	}
	defer closeWithLog(rows, "rating rows")

	return collectHistory(rows)
}

// SavedForLater implements recommend.HistoryStore. Returns the IDs of
// books on the user's active wishlist.
func (db *DB) SavedForLater(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "saved_for_later", "wishlist", `
		SELECT book_id FROM wishlist
		WHERE user_id = ? AND status = 'active'
		ORDER BY created_at DESC, book_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query wishlist: %w", err)
	}
	defer closeWithLog(rows, "wishlist rows")

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wishlist: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist: %w", err)
	}
	return ids, nil
}

func collectHistory(rows *sql.Rows) ([]models.HistoryRecord, error) {
	records := []models.HistoryRecord{}
	for rows.Next() {
		var rec models.HistoryRecord
		var genres string
		err := rows.Scan(&rec.BookID, &rec.Title, &rec.Author, &genres,
			&rec.Status, &rec.Rating, &rec.LastReadAt)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		rec.Genres = splitAndTrim(genres)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history records: %w", err)
	}
	return records, nil
}

// UpsertProgress records or updates a user's reading progress for one
// book. Completing a book stamps completed_at once.
func (db *DB) UpsertProgress(ctx context.Context, userID, bookID, status string, currentPage int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.exec(ctx, "upsert_progress", "reading_progress", `
		INSERT INTO reading_progress (user_id, book_id, status, current_page, started_at, last_read_at, completed_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP,
			CASE WHEN ? = ? THEN CURRENT_TIMESTAMP ELSE NULL END)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			status = excluded.status,
			current_page = excluded.current_page,
			last_read_at = CURRENT_TIMESTAMP,
			completed_at = COALESCE(reading_progress.completed_at, excluded.completed_at)`,
		userID, bookID, status, currentPage, status, models.StatusCompleted)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// AddReview records a user's review for a book, replacing any earlier
// one. Book aggregates are refreshed by the stats service, not here.
func (db *DB) AddReview(ctx context.Context, review *models.Review) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.exec(ctx, "add_review", "reviews", `
		INSERT INTO reviews (id, user_id, book_id, rating, title, content)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			rating = excluded.rating,
			title = excluded.title,
			content = excluded.content`,
		review.ID, review.UserID, review.BookID, review.Rating, review.Title, review.Content)
	if err != nil {
		return fmt.Errorf("add review: %w", err)
	}
	return nil
}

// AddToWishlist places a book on the user's active wishlist.
func (db *DB) AddToWishlist(ctx context.Context, userID, bookID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.exec(ctx, "add_to_wishlist", "wishlist", `
		INSERT INTO wishlist (user_id, book_id, status)
		VALUES (?, ?, 'active')
		ON CONFLICT (user_id, book_id) DO UPDATE SET status = 'active'`,
		userID, bookID)
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return nil
}

// RemoveFromWishlist takes a book off the user's active wishlist. The
// row is kept with a removed status so re-adding preserves created_at.
func (db *DB) RemoveFromWishlist(ctx context.Context, userID, bookID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.exec(ctx, "remove_from_wishlist", "wishlist", `
		UPDATE wishlist SET status = 'removed'
		WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}
