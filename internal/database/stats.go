// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mverner/folio/internal/logging"
)

// RefreshBookStats recomputes the denormalized aggregates on books from
// reviews and completed reading progress. The recommendation queries
// read these columns instead of joining the source tables on every
// request; the stats service calls this periodically.
func (db *DB) RefreshBookStats(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	err := db.exec(ctx, "refresh_rating_stats", "books", `
		UPDATE books SET
			avg_rating = COALESCE(agg.avg_rating, 0),
			ratings_count = COALESCE(agg.ratings_count, 0),
			updated_at = CURRENT_TIMESTAMP
		FROM (
			SELECT book_id, AVG(rating) AS avg_rating, COUNT(*) AS ratings_count
			FROM reviews GROUP BY book_id
		) agg
		WHERE books.id = agg.book_id
		AND (books.avg_rating != COALESCE(agg.avg_rating, 0)
			OR books.ratings_count != COALESCE(agg.ratings_count, 0))`)
	if err != nil {
		return fmt.Errorf("refresh rating stats: %w", err)
	}

	err = db.exec(ctx, "refresh_read_counts", "books", `
		UPDATE books SET
			read_count = agg.read_count,
			updated_at = CURRENT_TIMESTAMP
		FROM (
			SELECT book_id, COUNT(*) AS read_count
			FROM reading_progress WHERE status = 'completed'
			GROUP BY book_id
		) agg
		WHERE books.id = agg.book_id AND books.read_count != agg.read_count`)
	if err != nil {
		return fmt.Errorf("refresh read counts: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Str("component", "database").
		Dur("elapsed", time.Since(start)).
		Msg("Book stats refreshed")
	return nil
}
