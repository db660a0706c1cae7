// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package recommend

import (
	"sort"
)

// orderedCounter is an insertion-ordered frequency table. Top returns
// keys by descending count with ties broken by first-seen order, which
// keeps the engine's profile ranking deterministic.
type orderedCounter struct {
	counts map[string]int
	order  []string
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: make(map[string]int)}
}

// Add increments the count for key, registering it on first sight.
func (c *orderedCounter) Add(key string) {
	if key == "" {
		return
	}
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// Top returns up to n keys, most frequent first. Ties keep first-seen
// order (stable sort over the insertion sequence).
func (c *orderedCounter) Top(n int) []string {
	if n <= 0 || len(c.order) == 0 {
		return []string{}
	}

	keys := make([]string, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})

	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// Len returns the number of distinct keys.
func (c *orderedCounter) Len() int {
	return len(c.order)
}
