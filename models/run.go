package models

import "time"

// Run status values. A run is terminal once its status leaves "running".
const (
	RunStatusRunning = "running"
	RunStatusOK      = "ok"
	RunStatusError   = "error"
)

// RunState tracks one execution of a component for observability. Counters
// only ever increase; attributes are free-form.
type RunState struct {
	RunID      string                 `json:"run_id"`
	Component  string                 `json:"component"`
	Status     string                 `json:"status"`
	StartedAt  time.Time              `json:"started_at"`
	EndedAt    *time.Time             `json:"ended_at,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty"`
	Counters   map[string]float64     `json:"counters,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Duration returns the elapsed run time, using now for still-active runs.
func (r *RunState) Duration(now time.Time) time.Duration {
	end := now
	if r.EndedAt != nil {
		end = *r.EndedAt
	}
	d := end.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// RunSnapshot is a compact view of the tracker for health endpoints.
type RunSnapshot struct {
	ActiveRuns       int        `json:"active_runs"`
	RecentRuns       []RunState `json:"recent_runs"`
	CurrentlyRunning []RunState `json:"currently_running"`
}
