// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mverner/folio/internal/logging"
)

func TestRequestIDGenerated(t *testing.T) {
	var seenID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if seenID == "" {
		t.Fatal("handler should see a request ID in context")
	}
	if _, err := uuid.Parse(seenID); err != nil {
		t.Errorf("generated ID %q is not a UUID: %v", seenID, err)
	}
	if got := rec.Header().Get("X-Request-ID"); got != seenID {
		t.Errorf("response header ID = %q, want %q", got, seenID)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	const upstreamID = "upstream-trace-42"

	var ctxID, logID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
		logID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set("X-Request-ID", upstreamID)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if ctxID != upstreamID {
		t.Errorf("context ID = %q, want upstream %q", ctxID, upstreamID)
	}
	if logID != upstreamID {
		t.Errorf("logging context ID = %q, want upstream %q", logID, upstreamID)
	}
	if got := rec.Header().Get("X-Request-ID"); got != upstreamID {
		t.Errorf("response header ID = %q, want upstream %q", got, upstreamID)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty ID for bare context, got %q", got)
	}
}
