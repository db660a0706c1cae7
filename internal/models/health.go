// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package models

// HealthStatus reports service health for monitoring.
type HealthStatus struct {
	Status            string  `json:"status"` // healthy or degraded
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	SummariesEnabled  bool    `json:"summaries_enabled"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}
