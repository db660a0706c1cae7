// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package validation

import (
	"strings"
	"testing"
)

type recommendationQuery struct {
	Limit    int    `validate:"min=0,max=50"`
	Genre    string `validate:"omitempty,genre"`
	DaysBack int    `validate:"min=0,max=365"`
}

func TestValidateStructPasses(t *testing.T) {
	q := recommendationQuery{Limit: 10, Genre: "science fiction", DaysBack: 30}
	if err := ValidateStruct(&q); err != nil {
		t.Errorf("expected valid query, got %v", err)
	}
}

func TestValidateStructLimitBounds(t *testing.T) {
	q := recommendationQuery{Limit: 51}
	err := ValidateStruct(&q)
	if err == nil {
		t.Fatal("expected validation error for limit above max")
	}
	if len(err.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(err.Errors()))
	}
	fe := err.Errors()[0]
	if fe.Field() != "Limit" || fe.Tag() != "max" || fe.Param() != "50" {
		t.Errorf("unexpected field error: %s/%s/%s", fe.Field(), fe.Tag(), fe.Param())
	}
	if want := "Limit must be at most 50"; fe.Error() != want {
		t.Errorf("message = %q, want %q", fe.Error(), want)
	}
}

func TestValidateStructGenreTag(t *testing.T) {
	tests := []struct {
		genre string
		valid bool
	}{
		{"fantasy", true},
		{"science fiction", true},
		{"coming-of-age", true},
		{"", true}, // omitempty
		{"Science Fiction", false},
		{"fantasy,", false},
		{"fantasy ", false},
	}
	for _, tt := range tests {
		q := recommendationQuery{Genre: tt.genre}
		err := ValidateStruct(&q)
		if tt.valid && err != nil {
			t.Errorf("genre %q: unexpected error %v", tt.genre, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("genre %q: expected validation error", tt.genre)
		}
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	q := recommendationQuery{Limit: -1}
	err := ValidateStruct(&q)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %s, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("details field = %v, want Limit", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	q := recommendationQuery{Limit: -1, DaysBack: 400}
	err := ValidateStruct(&q)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if !strings.Contains(apiErr.Message, "Limit") || !strings.Contains(apiErr.Message, "DaysBack") {
		t.Errorf("combined message should name both fields: %q", apiErr.Message)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("details fields = %v, want 2 entries", apiErr.Details["fields"])
	}
}

func TestValidateStructRequired(t *testing.T) {
	type reviewRequest struct {
		BookID string  `validate:"required,uuid"`
		Rating float64 `validate:"gte=1,lte=5"`
	}

	err := ValidateStruct(&reviewRequest{Rating: 3})
	if err == nil {
		t.Fatal("expected error for missing book ID")
	}
	if got := err.Errors()[0].Error(); got != "BookID is required" {
		t.Errorf("message = %q", got)
	}

	err = ValidateStruct(&reviewRequest{BookID: "9f4b1c2a-0d3e-4f5a-8b6c-7d8e9f0a1b2c", Rating: 6})
	if err == nil {
		t.Fatal("expected error for rating above 5")
	}
	if got := err.Errors()[0].Error(); got != "Rating must be less than or equal to 5" {
		t.Errorf("message = %q", got)
	}
}
