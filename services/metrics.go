package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/shared"
	"github.com/tripdeals/deals-backend/storage"
)

const (
	defaultMaxAttemptRecords = 500
	maxStoredErrorLength     = 200
)

// StrategyMetrics tracks fetch attempts per source and strategy. The record
// log is append-only, bounded, and mirrored into the durable store; queries
// aggregate over a sliding time window.
type StrategyMetrics struct {
	maxRecords int
	records    []models.AttemptRecord
	store      *storage.Store

	mutex sync.RWMutex
	now   func() time.Time
}

// NewStrategyMetrics creates a metrics tracker. A nil store means
// memory-only operation; a store load failure degrades the same way.
func NewStrategyMetrics(ctx context.Context, store *storage.Store) *StrategyMetrics {
	m := &StrategyMetrics{
		maxRecords: defaultMaxAttemptRecords,
		store:      store,
		now:        time.Now,
	}

	if store != nil {
		records, err := store.LoadAttempts(ctx, m.maxRecords)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "StrategyMetrics",
				"error":     err,
			}).Warn("Could not load attempt history, starting memory-only")
		} else {
			m.records = records
		}
	}

	return m
}

// Record appends one attempt record and persists it. Persistence failures
// are logged and never fail the caller.
func (m *StrategyMetrics) Record(ctx context.Context, source, strategy string, success bool, duration time.Duration, resultCount int, attemptErr error) {
	rec := models.AttemptRecord{
		Timestamp:   m.now(),
		Source:      source,
		Strategy:    strategy,
		Success:     success,
		Duration:    duration.Seconds(),
		ResultCount: resultCount,
	}
	if attemptErr != nil {
		rec.Error = shared.Truncate(attemptErr.Error(), maxStoredErrorLength)
	}

	m.mutex.Lock()
	m.records = append(m.records, rec)
	if len(m.records) > m.maxRecords {
		m.records = m.records[len(m.records)-m.maxRecords:]
	}
	m.mutex.Unlock()

	if m.store != nil {
		if err := m.store.AppendAttempt(ctx, rec); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "StrategyMetrics",
				"error":     err,
			}).Warn("Could not persist attempt record")
		}
	}
}

// GetRecentRecords returns records inside the window, optionally filtered by
// source and strategy. Empty filter strings match everything.
func (m *StrategyMetrics) GetRecentRecords(source, strategy string, window time.Duration) []models.AttemptRecord {
	cutoff := m.now().Add(-window)

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []models.AttemptRecord
	for _, rec := range m.records {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		if source != "" && rec.Source != source {
			continue
		}
		if strategy != "" && rec.Strategy != strategy {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// GetSuccessRate returns the success rate in [0,1] and the sample count for
// a source+strategy combination within the window. A rate of -1 signals no
// data.
func (m *StrategyMetrics) GetSuccessRate(source, strategy string, window time.Duration) (float64, int) {
	records := m.GetRecentRecords(source, strategy, window)
	if len(records) == 0 {
		return -1.0, 0
	}

	successes := 0
	for _, rec := range records {
		if rec.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(records)), len(records)
}

// GetAvgDuration returns the mean duration in seconds across successful
// attempts within the window, or 0 when there are none.
func (m *StrategyMetrics) GetAvgDuration(source, strategy string, window time.Duration) float64 {
	records := m.GetRecentRecords(source, strategy, window)

	var total float64
	count := 0
	for _, rec := range records {
		if rec.Success {
			total += rec.Duration
			count++
		}
	}
	if count == 0 {
		return 0.0
	}
	return total / float64(count)
}

// GetConsecutiveFailures counts failures for a source from the most recent
// attempt backward, stopping at the first success.
func (m *StrategyMetrics) GetConsecutiveFailures(source string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	count := 0
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Source != source {
			continue
		}
		if m.records[i].Success {
			break
		}
		count++
	}
	return count
}

// LastAttemptTime returns the timestamp of the most recent attempt for a
// source, or the zero time when the source has no attempts.
func (m *StrategyMetrics) LastAttemptTime(source string) time.Time {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Source == source {
			return m.records[i].Timestamp
		}
	}
	return time.Time{}
}

// Trim discards durable records beyond the in-memory bound. Used by the
// maintenance job.
func (m *StrategyMetrics) Trim(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.TrimAttempts(ctx, m.maxRecords)
}
