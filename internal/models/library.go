// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package models

import (
	"time"
)

// Reading status values for a user's progress on a book.
const (
	StatusNotStarted = "not_started"
	StatusReading    = "reading"
	StatusCompleted  = "completed"
	StatusPaused     = "paused"
	StatusAbandoned  = "abandoned"
)

// User roles.
const (
	RoleStudent = "student"
	RolePlus    = "plus"
	RolePro     = "pro"
	RoleAdmin   = "admin"
)

// Book represents a catalog entry with aggregate rating and readership
// statistics. AvgRating, RatingsCount and ReadCount are denormalized
// aggregates maintained by the background stats refresher; they trail
// the underlying reviews and reading history by at most one refresh
// interval.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	ISBN         string    `json:"isbn,omitempty"`
	Description  string    `json:"description,omitempty"`
	Genres       []string  `json:"genres"`
	PageCount    int       `json:"page_count,omitempty"`
	Language     string    `json:"language,omitempty"`
	CoverURL     string    `json:"cover_url,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	AvgRating    float64   `json:"avg_rating"`
	RatingsCount int       `json:"ratings_count"`
	ReadCount    int       `json:"read_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HistoryRecord is one entry of a user's reading history with the book
// attributes the recommendation engine needs for profile building. The
// Rating field carries the user's review rating for the book, 0 when
// the user has not reviewed it.
type HistoryRecord struct {
	BookID     string    `json:"book_id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Genres     []string  `json:"genres"`
	Status     string    `json:"status"`
	Rating     float64   `json:"rating,omitempty"`
	LastReadAt time.Time `json:"last_read_at"`
}

// Review is a user's rating and write-up for a book. One review per
// user per book.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Rating    float64   `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a library member. Passwords and subscription state are
// handled by the identity service that issues tokens; Folio only
// stores what it needs for attribution and role checks.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
