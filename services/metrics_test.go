package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestMetrics() (*StrategyMetrics, *time.Time) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := NewStrategyMetrics(context.Background(), nil)
	m.now = func() time.Time { return current }
	return m, &current
}

func TestSuccessRateNoDataSentinel(t *testing.T) {
	m, _ := newTestMetrics()

	rate, count := m.GetSuccessRate("booking", "http", time.Hour)
	assert.Equal(t, -1.0, rate)
	assert.Equal(t, 0, count)
}

func TestSuccessRateAndAvgDuration(t *testing.T) {
	m, _ := newTestMetrics()
	ctx := context.Background()

	m.Record(ctx, "booking", "http", true, 2*time.Second, 10, nil)
	m.Record(ctx, "booking", "http", true, 4*time.Second, 8, nil)
	m.Record(ctx, "booking", "http", false, 30*time.Second, 0, errors.New("boom"))

	rate, count := m.GetSuccessRate("booking", "http", time.Hour)
	assert.InDelta(t, 2.0/3.0, rate, 1e-9)
	assert.Equal(t, 3, count)

	// Average covers successful attempts only.
	assert.InDelta(t, 3.0, m.GetAvgDuration("booking", "http", time.Hour), 1e-9)
}

func TestRecentRecordsWindowAndFilters(t *testing.T) {
	m, current := newTestMetrics()
	ctx := context.Background()

	m.Record(ctx, "booking", "http", true, time.Second, 5, nil)
	*current = current.Add(2 * time.Hour)
	m.Record(ctx, "booking", "browser", false, time.Second, 0, errors.New("blocked"))
	m.Record(ctx, "airbnb", "browser", true, time.Second, 3, nil)

	// The two-hour-old record falls outside the window.
	assert.Len(t, m.GetRecentRecords("", "", time.Hour), 2)
	assert.Len(t, m.GetRecentRecords("booking", "", time.Hour), 1)
	assert.Len(t, m.GetRecentRecords("", "browser", time.Hour), 2)
	assert.Len(t, m.GetRecentRecords("", "", 3*time.Hour), 3)
}

func TestConsecutiveFailuresStopsAtSuccess(t *testing.T) {
	m, _ := newTestMetrics()
	ctx := context.Background()

	m.Record(ctx, "booking", "http", false, time.Second, 0, errors.New("429"))
	m.Record(ctx, "booking", "http", true, time.Second, 5, nil)
	m.Record(ctx, "booking", "http", false, time.Second, 0, errors.New("429"))
	m.Record(ctx, "booking", "browser", false, time.Second, 0, errors.New("timeout"))
	// Another source's attempts never count toward booking's streak.
	m.Record(ctx, "airbnb", "browser", false, time.Second, 0, errors.New("captcha"))

	assert.Equal(t, 2, m.GetConsecutiveFailures("booking"))
	assert.Equal(t, 1, m.GetConsecutiveFailures("airbnb"))
	assert.Equal(t, 0, m.GetConsecutiveFailures("center-parcs"))
}

func TestLastAttemptTime(t *testing.T) {
	m, current := newTestMetrics()
	ctx := context.Background()

	assert.True(t, m.LastAttemptTime("booking").IsZero())

	first := *current
	m.Record(ctx, "booking", "http", false, time.Second, 0, nil)
	*current = current.Add(10 * time.Minute)
	m.Record(ctx, "booking", "http", false, time.Second, 0, nil)

	assert.Equal(t, first.Add(10*time.Minute), m.LastAttemptTime("booking"))
}

func TestRecordBoundsHistory(t *testing.T) {
	m, _ := newTestMetrics()
	m.maxRecords = 10
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		m.Record(ctx, "booking", "http", true, time.Second, 1, nil)
	}
	assert.Len(t, m.GetRecentRecords("", "", time.Hour), 10)
}
