package services

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
)

const runHistoryLimit = 50

// RunTracker follows component executions for observability. Each run gets
// a short id, accumulates counters and attributes while active, and moves
// into a bounded history when finished.
type RunTracker struct {
	mu      sync.Mutex
	active  map[string]*models.RunState
	history []models.RunState
	now     func() time.Time
}

// NewRunTracker creates an empty tracker.
func NewRunTracker() *RunTracker {
	return &RunTracker{
		active: make(map[string]*models.RunState),
		now:    time.Now,
	}
}

// StartRun begins tracking a run of the named component and returns its id.
func (t *RunTracker) StartRun(component string, params map[string]interface{}) string {
	runID := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	t.mu.Lock()
	t.active[runID] = &models.RunState{
		RunID:      runID,
		Component:  component,
		Status:     models.RunStatusRunning,
		StartedAt:  t.now(),
		Params:     params,
		Counters:   make(map[string]float64),
		Attributes: make(map[string]interface{}),
	}
	t.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"component": component,
		"run_id":    runID,
		"event":     "run_started",
	}).Info("Run started")
	return runID
}

// AddCounter adds delta to a named counter on an active run. Unknown run
// ids are ignored.
func (t *RunTracker) AddCounter(runID, name string, delta float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if run, ok := t.active[runID]; ok {
		run.Counters[name] += delta
	}
}

// SetAttribute records a free-form attribute on an active run.
func (t *RunTracker) SetAttribute(runID, name string, value interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if run, ok := t.active[runID]; ok {
		run.Attributes[name] = value
	}
}

// EndRun finishes a run. A nil err marks it ok, otherwise the error string
// is stored as an attribute and the status becomes error. Finished runs
// move to the history, oldest dropped first.
func (t *RunTracker) EndRun(runID string, err error) {
	t.mu.Lock()
	run, ok := t.active[runID]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.active, runID)

	endedAt := t.now()
	run.EndedAt = &endedAt
	if err != nil {
		run.Status = models.RunStatusError
		run.Attributes["error"] = err.Error()
	} else {
		run.Status = models.RunStatusOK
	}

	t.history = append(t.history, *run)
	if len(t.history) > runHistoryLimit {
		t.history = t.history[len(t.history)-runHistoryLimit:]
	}
	t.mu.Unlock()

	fields := logrus.Fields{
		"component":   run.Component,
		"run_id":      runID,
		"event":       "run_finished",
		"status":      run.Status,
		"duration_ms": run.Duration(endedAt).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logrus.WithFields(fields).Error("Run failed")
		return
	}
	logrus.WithFields(fields).Info("Run finished")
}

// Snapshot returns the current tracker state for health endpoints.
func (t *RunTracker) Snapshot() models.RunSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := models.RunSnapshot{ActiveRuns: len(t.active)}
	for _, run := range t.active {
		snap.CurrentlyRunning = append(snap.CurrentlyRunning, *run)
	}
	snap.RecentRuns = make([]models.RunState, len(t.history))
	copy(snap.RecentRuns, t.history)
	return snap
}
