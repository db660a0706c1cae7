// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "books"))

	RecordDBQuery("select", "books", 10*time.Millisecond, nil)
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "books")); got != before {
		t.Errorf("successful query should not count as error, got %v", got)
	}

	RecordDBQuery("select", "books", 10*time.Millisecond, errors.New("io error"))
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "books")); got != before+1 {
		t.Errorf("error count = %v, want %v", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations", "200"))

	RecordAPIRequest("GET", "/api/v1/recommendations", "200", 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations", "200"))
	if after != before+1 {
		t.Errorf("request count = %v, want %v", after, before+1)
	}
}

func TestRecordRecommendationOutcomes(t *testing.T) {
	for _, outcome := range []string{"ok", "no_history", "error"} {
		before := testutil.ToFloat64(RecommendationRequests.WithLabelValues("personalized", outcome))
		RecordRecommendation("personalized", outcome, 5*time.Millisecond)
		after := testutil.ToFloat64(RecommendationRequests.WithLabelValues("personalized", outcome))
		if after != before+1 {
			t.Errorf("outcome %s: count = %v, want %v", outcome, after, before+1)
		}
	}
}

func TestRecordStatsRefresh(t *testing.T) {
	errsBefore := testutil.ToFloat64(StatsRefreshErrors)

	RecordStatsRefresh(time.Second, nil)
	if got := testutil.ToFloat64(StatsRefreshErrors); got != errsBefore {
		t.Errorf("successful refresh should not count as error")
	}
	if got := testutil.ToFloat64(StatsLastRefresh); got == 0 {
		t.Error("last refresh timestamp should be set")
	}

	RecordStatsRefresh(time.Second, errors.New("refresh failed"))
	if got := testutil.ToFloat64(StatsRefreshErrors); got != errsBefore+1 {
		t.Errorf("error count = %v, want %v", got, errsBefore+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Errorf("active requests = %v, want %v", got, base+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("active requests = %v, want %v", got, base)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("ai_summary", "closed", "open")
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("ai_summary")); got != 2 {
		t.Errorf("open state gauge = %v, want 2", got)
	}

	RecordBreakerTransition("ai_summary", "open", "half-open")
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("ai_summary")); got != 1 {
		t.Errorf("half-open state gauge = %v, want 1", got)
	}

	RecordBreakerTransition("ai_summary", "half-open", "closed")
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("ai_summary")); got != 0 {
		t.Errorf("closed state gauge = %v, want 0", got)
	}
}
