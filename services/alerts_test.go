package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlerts() (*PriceAlertSystem, *time.Time) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := NewPriceAlertSystem(context.Background(), 0, 0, nil)
	s.now = func() time.Time { return current }
	return s, &current
}

func TestSmallDropDoesNotTrigger(t *testing.T) {
	s, current := newTestAlerts()
	ctx := context.Background()

	assert.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 100, nil))
	*current = current.Add(time.Hour)
	// 10% below the default 20% threshold.
	assert.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 90, nil))
}

func TestBigDropTriggersOnceWithCooldown(t *testing.T) {
	s, current := newTestAlerts()
	ctx := context.Background()

	require.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 100, nil))

	*current = current.Add(time.Hour)
	msg := s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 70, nil)
	require.NotEmpty(t, msg)
	assert.Contains(t, msg, "Canal View")
	assert.Contains(t, msg, "booking")
	assert.Contains(t, msg, "-30%")

	// Another qualifying drop inside the 120-minute cooldown stays silent.
	*current = current.Add(time.Hour)
	assert.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 50, nil))

	// After the cooldown it may fire again.
	*current = current.Add(2 * time.Hour)
	assert.NotEmpty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 35, nil))
}

func TestPerCallThresholdOverride(t *testing.T) {
	s, current := newTestAlerts()
	ctx := context.Background()

	require.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 100, nil))
	*current = current.Add(time.Hour)

	opts := &AlertOptions{Threshold: 0.05}
	assert.NotEmpty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 90, opts))

	// The override does not stick: a later 10% drop with default options
	// stays below the 20% default.
	*current = current.Add(3 * time.Hour)
	assert.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 81, nil))
}

func TestDuplicateObservationDedupeWindow(t *testing.T) {
	s, current := newTestAlerts()
	ctx := context.Background()

	s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 100, nil)
	// Same price five minutes later is a duplicate scrape, not a data point.
	*current = current.Add(5 * time.Minute)
	s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 100, nil)
	assert.Len(t, s.History("p1"), 1)

	// The same price past the window is recorded.
	*current = current.Add(11 * time.Minute)
	s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 100, nil)
	assert.Len(t, s.History("p1"), 2)
}

func TestHistoryBounded(t *testing.T) {
	s, current := newTestAlerts()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", float64(100+i), nil)
		*current = current.Add(time.Hour)
	}

	history := s.History("p1")
	require.Len(t, history, 10)
	// Oldest entries dropped first.
	assert.Equal(t, 105.0, history[0].Price)
	assert.Equal(t, 114.0, history[9].Price)
}

func TestNonPositivePricesIgnored(t *testing.T) {
	s, _ := newTestAlerts()
	ctx := context.Background()

	assert.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", 0, nil))
	assert.Empty(t, s.TrackProperty(ctx, "p1", "Canal View", "https://x/1", "booking", -5, nil))
	assert.Equal(t, 0, s.TrackedCount())
}

func TestPropertyIDStable(t *testing.T) {
	a := PropertyID("https://x/1", "Canal View")
	b := PropertyID("https://x/1", "Different Name")
	assert.Equal(t, a, b)

	// Without a URL the name is the basis.
	c := PropertyID("", "Canal View")
	d := PropertyID("", "Canal View")
	assert.Equal(t, c, d)
	assert.NotEqual(t, a, c)
}
