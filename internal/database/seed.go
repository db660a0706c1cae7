// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package database

import (
	"context"
	"fmt"

	"github.com/mverner/folio/internal/logging"
)

// SeedDemoData loads a small demo catalog with two users, reading
// history, reviews, and a wishlist entry so a fresh install serves
// non-empty recommendations. Idempotent: it is a no-op when any books
// already exist.
func (db *DB) SeedDemoData(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		return fmt.Errorf("count books: %w", err)
	}
	if count > 0 {
		logging.Debug().Str("component", "database").Msg("Demo seed skipped, catalog not empty")
		return nil
	}

	statements := []string{
		`INSERT INTO books (id, title, author, genres, page_count, published_at, avg_rating, ratings_count, read_count, created_at) VALUES
			('b-dune', 'Dune', 'Frank Herbert', 'science fiction, adventure', 412, TIMESTAMP '1965-08-01', 4.5, 120, 340, CURRENT_TIMESTAMP - INTERVAL 400 DAY),
			('b-messiah', 'Dune Messiah', 'Frank Herbert', 'science fiction', 256, TIMESTAMP '1969-10-15', 4.1, 80, 210, CURRENT_TIMESTAMP - INTERVAL 390 DAY),
			('b-foundation', 'Foundation', 'Isaac Asimov', 'science fiction, classics', 244, TIMESTAMP '1951-06-01', 4.3, 95, 280, CURRENT_TIMESTAMP - INTERVAL 380 DAY),
			('b-hobbit', 'The Hobbit', 'J.R.R. Tolkien', 'fantasy, adventure', 310, TIMESTAMP '1937-09-21', 4.6, 200, 520, CURRENT_TIMESTAMP - INTERVAL 370 DAY),
			('b-fellowship', 'The Fellowship of the Ring', 'J.R.R. Tolkien', 'fantasy, adventure', 423, TIMESTAMP '1954-07-29', 4.7, 180, 460, CURRENT_TIMESTAMP - INTERVAL 360 DAY),
			('b-leftdark', 'The Left Hand of Darkness', 'Ursula K. Le Guin', 'science fiction, classics', 304, TIMESTAMP '1969-03-01', 4.2, 60, 150, CURRENT_TIMESTAMP - INTERVAL 200 DAY),
			('b-earthsea', 'A Wizard of Earthsea', 'Ursula K. Le Guin', 'fantasy, coming of age', 183, TIMESTAMP '1968-11-01', 4.0, 55, 140, CURRENT_TIMESTAMP - INTERVAL 190 DAY),
			('b-hyperion', 'Hyperion', 'Dan Simmons', 'science fiction, horror', 482, TIMESTAMP '1989-05-26', 4.4, 70, 160, CURRENT_TIMESTAMP - INTERVAL 45 DAY),
			('b-piranesi', 'Piranesi', 'Susanna Clarke', 'fantasy, mystery', 245, TIMESTAMP '2020-09-15', 4.3, 88, 190, CURRENT_TIMESTAMP - INTERVAL 20 DAY),
			('b-project', 'Project Hail Mary', 'Andy Weir', 'science fiction, thriller', 476, TIMESTAMP '2021-05-04', 4.5, 150, 310, CURRENT_TIMESTAMP - INTERVAL 10 DAY)`,
		`INSERT INTO users (id, email, name, role) VALUES
			('u-demo', 'demo@folio.local', 'Demo Reader', 'student'),
			('u-casual', 'casual@folio.local', 'Casual Reader', 'plus')`,
		`INSERT INTO reading_progress (user_id, book_id, status, current_page, started_at, completed_at, last_read_at) VALUES
			('u-demo', 'b-dune', 'completed', 412, CURRENT_TIMESTAMP - INTERVAL 90 DAY, CURRENT_TIMESTAMP - INTERVAL 60 DAY, CURRENT_TIMESTAMP - INTERVAL 60 DAY),
			('u-demo', 'b-foundation', 'completed', 244, CURRENT_TIMESTAMP - INTERVAL 50 DAY, CURRENT_TIMESTAMP - INTERVAL 30 DAY, CURRENT_TIMESTAMP - INTERVAL 30 DAY),
			('u-demo', 'b-hobbit', 'reading', 150, CURRENT_TIMESTAMP - INTERVAL 10 DAY, NULL, CURRENT_TIMESTAMP - INTERVAL 1 DAY),
			('u-casual', 'b-hobbit', 'completed', 310, CURRENT_TIMESTAMP - INTERVAL 40 DAY, CURRENT_TIMESTAMP - INTERVAL 20 DAY, CURRENT_TIMESTAMP - INTERVAL 20 DAY)`,
		`INSERT INTO reviews (id, user_id, book_id, rating, title, content) VALUES
			('r-1', 'u-demo', 'b-dune', 5, 'A masterpiece', 'The spice must flow.'),
			('r-2', 'u-demo', 'b-foundation', 4, 'Grand scope', 'Psychohistory is a wonderful idea.'),
			('r-3', 'u-casual', 'b-hobbit', 5, 'Cozy', 'There and back again.')`,
		`INSERT INTO wishlist (user_id, book_id, status) VALUES
			('u-demo', 'b-messiah', 'active')`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	logging.Info().Str("component", "database").Msg("Demo catalog seeded")
	return nil
}
