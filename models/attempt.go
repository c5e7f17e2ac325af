package models

import "time"

// AttemptRecord is one fetch attempt against an upstream source. Records are
// append-only; they are never mutated after creation.
type AttemptRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Strategy    string    `json:"strategy"`
	Success     bool      `json:"success"`
	Duration    float64   `json:"duration_seconds"`
	ResultCount int       `json:"result_count"`
	Error       string    `json:"error,omitempty"`
}

// StrategyScore is derived on demand from a window of attempt records; it is
// never stored. A negative SuccessRate means no data for the window.
type StrategyScore struct {
	Strategy    string  `json:"strategy"`
	SuccessRate float64 `json:"success_rate"`
	SampleCount int     `json:"sample_count"`
	AvgDuration float64 `json:"avg_duration_seconds"`
	Score       float64 `json:"score"`
}
