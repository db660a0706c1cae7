// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package ai

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mverner/folio/internal/metrics"
)

// SummaryCache persists generated summaries in Badger so restarts and
// repeat requests do not consume upstream quota. Entries expire via
// Badger's native TTL.
type SummaryCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewSummaryCache opens the cache at path. An empty path opens an
// in-memory cache, used in development and tests.
func NewSummaryCache(path string, ttl time.Duration) (*SummaryCache, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open summary cache: %w", err)
	}
	return &SummaryCache{db: db, ttl: ttl}, nil
}

func cacheKey(bookID string) []byte {
	return []byte("summary:" + bookID)
}

// Get returns the cached summary for a book, or (nil, nil) on a miss.
func (c *SummaryCache) Get(bookID string) (*Summary, error) {
	var summary Summary
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(bookID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &summary)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read summary cache: %w", err)
	}
	return &summary, nil
}

// Set stores a summary with the configured TTL.
func (c *SummaryCache) Set(bookID string, summary *Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(bookID), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write summary cache: %w", err)
	}

	metrics.SummaryCacheEntries.Set(float64(c.entryCount()))
	return nil
}

func (c *SummaryCache) entryCount() int {
	count := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Close closes the underlying Badger database.
func (c *SummaryCache) Close() error {
	return c.db.Close()
}
