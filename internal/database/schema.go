// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package database

import (
	"fmt"
)

// createTables creates the core schema. Genres are stored as a
// comma-separated string and split at the Go boundary; candidate
// queries split them SQL-side with string_split.
func (db *DB) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id VARCHAR PRIMARY KEY,
			title VARCHAR NOT NULL,
			author VARCHAR NOT NULL,
			isbn VARCHAR,
			description VARCHAR,
			genres VARCHAR NOT NULL DEFAULT '',
			page_count INTEGER DEFAULT 0,
			language VARCHAR DEFAULT 'en',
			cover_url VARCHAR,
			published_at TIMESTAMP,
			avg_rating DOUBLE NOT NULL DEFAULT 0,
			ratings_count INTEGER NOT NULL DEFAULT 0,
			read_count INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_public BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			email VARCHAR NOT NULL UNIQUE,
			name VARCHAR NOT NULL DEFAULT '',
			role VARCHAR NOT NULL DEFAULT 'student',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS reading_progress (
			user_id VARCHAR NOT NULL,
			book_id VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'not_started',
			current_page INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP,
			completed_at TIMESTAMP,
			last_read_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			PRIMARY KEY (user_id, book_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			book_id VARCHAR NOT NULL,
			rating DOUBLE NOT NULL,
			title VARCHAR,
			content VARCHAR,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			UNIQUE (user_id, book_id)
		)`,
		`CREATE TABLE IF NOT EXISTS wishlist (
			user_id VARCHAR NOT NULL,
			book_id VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			PRIMARY KEY (user_id, book_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes for the hot query paths.
func (db *DB) createIndexes() error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_books_author ON books (author)`,
		`CREATE INDEX IF NOT EXISTS idx_books_rating ON books (avg_rating)`,
		`CREATE INDEX IF NOT EXISTS idx_books_created ON books (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_user ON reading_progress (user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews (user_id, rating)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_book ON reviews (book_id)`,
		`CREATE INDEX IF NOT EXISTS idx_wishlist_user ON wishlist (user_id, status)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
