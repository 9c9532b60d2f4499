package models

import "time"

// BotMetricsSnapshot summarises runtime counters for the stats endpoint.
type BotMetricsSnapshot struct {
	Evaluations      uint64    `json:"evaluations"`
	EvaluationErrors uint64    `json:"evaluation_errors"`
	RolesGranted     uint64    `json:"roles_granted"`
	RolesRevoked     uint64    `json:"roles_revoked"`
	Announcements    uint64    `json:"announcements"`
	LastSweepAt      time.Time `json:"last_sweep_at"`
	LastSweepMembers int       `json:"last_sweep_members"`
	CacheHitRatio    float64   `json:"cache_hit_ratio"`
	RequestsTotal    uint64    `json:"requests_total"`
	Goroutines       int       `json:"goroutines"`
	GeneratedAt      time.Time `json:"generated_at"`
}
