// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mverner/folio/internal/models"
	"github.com/mverner/folio/internal/recommend"
)

// Ensure interface compliance.
var _ recommend.CatalogStore = (*DB)(nil)

// bookColumns is the canonical select list for scanBook.
const bookColumns = `id, title, author, COALESCE(isbn, ''), COALESCE(description, ''),
	COALESCE(genres, ''), page_count, COALESCE(language, ''), COALESCE(cover_url, ''),
	COALESCE(published_at, TIMESTAMP '1970-01-01'), avg_rating, ratings_count, read_count,
	created_at, updated_at`

// genreMatchExpr matches one genre against the comma-separated genres
// column, trimming whitespace around each entry.
const genreMatchExpr = `list_contains(list_transform(string_split(COALESCE(genres, ''), ','), g -> trim(g)), ?)`

// scanBook scans one row produced with bookColumns.
func scanBook(rows *sql.Rows) (models.Book, error) {
	var b models.Book
	var genres string
	err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description,
		&genres, &b.PageCount, &b.Language, &b.CoverURL,
		&b.PublishedAt, &b.AvgRating, &b.RatingsCount, &b.ReadCount,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return b, err
	}
	b.Genres = splitAndTrim(genres)
	return b, nil
}

// collectBooks drains a book query's rows.
func collectBooks(rows *sql.Rows) ([]models.Book, error) {
	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

// FindCandidates implements recommend.CatalogStore. Candidates match
// when their genre set intersects filter.GenresAny OR their author is
// in filter.AuthorsAny; with both empty, every active public book
// outside the exclusion list matches. The ORDER BY ends on id so the
// fetch order is deterministic for identical catalog contents, which
// the engine's tie-break stability depends on.
func (db *DB) FindCandidates(ctx context.Context, filter recommend.CandidateFilter, limit int) ([]models.Book, error) {
	if limit <= 0 {
		return []models.Book{}, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(filter.ExcludeIDs)+len(filter.GenresAny)+len(filter.AuthorsAny)+1)

	sb.WriteString("SELECT " + bookColumns + " FROM books WHERE is_active AND is_public")

	if len(filter.ExcludeIDs) > 0 {
		sb.WriteString(" AND id NOT IN (" + placeholders(len(filter.ExcludeIDs)) + ")")
		for _, id := range filter.ExcludeIDs {
			args = append(args, id)
		}
	}

	var matchClauses []string
	for _, genre := range filter.GenresAny {
		matchClauses = append(matchClauses, genreMatchExpr)
		args = append(args, genre)
	}
	if len(filter.AuthorsAny) > 0 {
		matchClauses = append(matchClauses, "author IN ("+placeholders(len(filter.AuthorsAny))+")")
		for _, author := range filter.AuthorsAny {
			args = append(args, author)
		}
	}
	if len(matchClauses) > 0 {
		sb.WriteString(" AND (" + strings.Join(matchClauses, " OR ") + ")")
	}

	sb.WriteString(" ORDER BY avg_rating DESC, read_count DESC, created_at DESC, id LIMIT ?")
	args = append(args, limit)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "find_candidates", "books", sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer closeWithLog(rows, "candidate rows")

	return collectBooks(rows)
}

// GetBook implements recommend.CatalogStore. Returns an error
// satisfying errors.Is(err, recommend.ErrNotFound) for unknown IDs.
func (db *DB) GetBook(ctx context.Context, bookID string) (*models.Book, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "get_book", "books",
		"SELECT "+bookColumns+" FROM books WHERE id = ? AND is_active AND is_public", bookID)
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	defer closeWithLog(rows, "book rows")

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query book: %w", err)
		}
		return nil, fmt.Errorf("book %s: %w", bookID, recommend.ErrNotFound)
	}
	b, err := scanBook(rows)
	if err != nil {
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}

// Trending implements recommend.CatalogStore.
func (db *DB) Trending(ctx context.Context, genre string, minRating float64, minReads, limit int) ([]models.Book, error) {
	if limit <= 0 {
		return []models.Book{}, nil
	}

	query := "SELECT " + bookColumns + ` FROM books
		WHERE is_active AND is_public AND avg_rating >= ? AND read_count >= ?`
	args := []interface{}{minRating, minReads}

	if genre != "" {
		query += " AND " + genreMatchExpr
		args = append(args, genre)
	}
	query += " ORDER BY read_count DESC, avg_rating DESC, created_at DESC, id LIMIT ?"
	args = append(args, limit)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "trending", "books", query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trending: %w", err)
	}
	defer closeWithLog(rows, "trending rows")

	return collectBooks(rows)
}

// NewReleases implements recommend.CatalogStore.
func (db *DB) NewReleases(ctx context.Context, cutoff time.Time, limit int) ([]models.Book, error) {
	if limit <= 0 {
		return []models.Book{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "new_releases", "books",
		"SELECT "+bookColumns+` FROM books
		WHERE is_active AND is_public AND created_at >= ?
		ORDER BY created_at DESC, avg_rating DESC, id LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query new releases: %w", err)
	}
	defer closeWithLog(rows, "new release rows")

	return collectBooks(rows)
}

// ListBooks returns a page of the active public catalog, optionally
// restricted to one genre, ordered by title.
func (db *DB) ListBooks(ctx context.Context, genre string, limit, offset int) ([]models.Book, error) {
	if limit <= 0 {
		return []models.Book{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	query := "SELECT " + bookColumns + " FROM books WHERE is_active AND is_public"
	args := []interface{}{}
	if genre != "" {
		query += " AND " + genreMatchExpr
		args = append(args, genre)
	}
	query += " ORDER BY title, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, "list_books", "books", query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer closeWithLog(rows, "book rows")

	return collectBooks(rows)
}

// InsertBook adds one book to the catalog.
func (db *DB) InsertBook(ctx context.Context, b *models.Book) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.exec(ctx, "insert_book", "books", `
		INSERT INTO books (id, title, author, isbn, description, genres, page_count,
			language, cover_url, published_at, avg_rating, ratings_count, read_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, b.ISBN, b.Description, joinGenres(b.Genres),
		b.PageCount, b.Language, b.CoverURL, b.PublishedAt,
		b.AvgRating, b.RatingsCount, b.ReadCount)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is the catalog's not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, recommend.ErrNotFound)
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// joinGenres renders a genre list into the comma-separated column form.
func joinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}
