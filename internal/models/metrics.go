package models

import "time"

// QueryMetrics summarises one client session.
type QueryMetrics struct {
	Submissions            uint64    `json:"submissions"`
	Successes              uint64    `json:"successes"`
	Failures               uint64    `json:"failures"`
	AverageQueryDurationMs float64   `json:"average_query_duration_ms"`
	Downloads              uint64    `json:"downloads"`
	DownloadFailures       uint64    `json:"download_failures"`
	GeneratedAt            time.Time `json:"generated_at"`
}
