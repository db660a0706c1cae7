// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

// Package ai generates short book summaries through an
// OpenAI-compatible completion API. Upstream calls sit behind a local
// request quota and a circuit breaker, and results persist in a
// Badger-backed cache keyed by book ID.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/mverner/folio/internal/config"
	"github.com/mverner/folio/internal/logging"
	"github.com/mverner/folio/internal/metrics"
	"github.com/mverner/folio/internal/models"
)

var (
	// ErrDisabled indicates the summary feature is turned off.
	ErrDisabled = errors.New("ai summaries are disabled")

	// ErrQuotaExhausted indicates the local per-minute quota is spent.
	ErrQuotaExhausted = errors.New("summary request quota exhausted")

	// ErrUnavailable indicates the circuit breaker rejected the call.
	ErrUnavailable = errors.New("summary provider unavailable")
)

const breakerName = "ai_summary"

// Summary is a generated book summary.
type Summary struct {
	BookID      string    `json:"book_id"`
	Model       string    `json:"model"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Client generates and caches book summaries. Request quotas are
// tracked per user so one caller cannot starve the others.
type Client struct {
	cfg        *config.AIConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
	cache      *SummaryCache

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
}

// NewClient creates a summary client. cache may be nil when caching is
// not wanted, e.g. in some tests.
func NewClient(cfg *config.AIConfig, cache *SummaryCache) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("component", "ai").
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Summary breaker state change")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		cache:      cache,
		limiters:   make(map[string]*rate.Limiter),
		rpm:        rpm,
	}
}

// allow consumes one token from the caller's personal quota, creating
// the limiter on first use.
func (c *Client) allow(userID string) bool {
	c.mu.Lock()
	lim, ok := c.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.rpm)), c.rpm)
		c.limiters[userID] = lim
	}
	c.mu.Unlock()

	return lim.Allow()
}

// Enabled reports whether the summary feature is configured on.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

// Summarize returns a summary for the book, serving from cache when
// possible. Upstream calls count against userID's quota; cache hits
// never consume quota. Errors are one of the package sentinels or a
// wrapped upstream error.
func (c *Client) Summarize(ctx context.Context, userID string, book *models.Book) (*Summary, bool, error) {
	if !c.Enabled() {
		metrics.RecordSummaryRequest("rejected")
		return nil, false, ErrDisabled
	}

	if c.cache != nil {
		cached, err := c.cache.Get(book.ID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Summary cache read failed")
		} else if cached != nil {
			metrics.RecordSummaryRequest("cache_hit")
			return cached, true, nil
		}
	}

	if !c.allow(userID) {
		metrics.RecordSummaryRequest("rejected")
		return nil, false, ErrQuotaExhausted
	}

	text, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, book)
	})
	if err != nil {
		metrics.RecordSummaryRequest("error")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, false, fmt.Errorf("generate summary: %w", err)
	}

	summary := &Summary{
		BookID:      book.ID,
		Model:       c.cfg.Model,
		Summary:     text,
		GeneratedAt: time.Now().UTC(),
	}
	if c.cache != nil {
		if err := c.cache.Set(book.ID, summary); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Summary cache write failed")
		}
	}
	metrics.RecordSummaryRequest("generated")
	return summary, false, nil
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// complete performs one upstream chat completion call.
func (c *Client) complete(ctx context.Context, book *models.Book) (string, error) {
	start := time.Now()
	defer func() {
		metrics.SummaryAPICallDuration.Observe(time.Since(start).Seconds())
	}()

	prompt := summaryPrompt(book)
	body, err := json.Marshal(completionRequest{
		Model: c.cfg.Model,
		Messages: []completionMessage{
			{Role: "system", Content: "You are a librarian writing concise, spoiler-free book summaries."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close completion response body")
		}
	}()

	// Bound the response read; summaries are small.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion response has no content")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func summaryPrompt(book *models.Book) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a 2-3 sentence summary of the book %q by %s.", book.Title, book.Author)
	if len(book.Genres) > 0 {
		fmt.Fprintf(&sb, " Genres: %s.", strings.Join(book.Genres, ", "))
	}
	if book.Description != "" {
		fmt.Fprintf(&sb, " Publisher description: %s", book.Description)
	}
	return sb.String()
}
