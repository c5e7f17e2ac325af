package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() (*AdaptiveRouter, *StrategyMetrics, *time.Time) {
	m, current := newTestMetrics()
	r := NewAdaptiveRouter(m)
	r.now = func() time.Time { return *current }
	return r, m, current
}

func TestStrategyOrderPrefersProvenStrategies(t *testing.T) {
	r, m, _ := newTestRouter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.Record(ctx, "booking", "http", false, time.Second, 0, errors.New("blocked"))
		m.Record(ctx, "booking", "browser", true, 3*time.Second, 10, nil)
	}

	order := r.GetStrategyOrder("booking", []string{"http", "browser", "fallback"})
	assert.Equal(t, []string{"browser", "http", "fallback"}, order)
}

func TestStrategyOrderFallbackAlwaysLast(t *testing.T) {
	r, m, _ := newTestRouter()
	ctx := context.Background()

	// Even a perfect record cannot move the fallback off the last slot.
	for i := 0; i < 10; i++ {
		m.Record(ctx, "booking", "fallback", true, time.Millisecond, 5, nil)
		m.Record(ctx, "booking", "http", false, time.Second, 0, errors.New("429"))
	}

	order := r.GetStrategyOrder("booking", []string{"fallback", "http"})
	assert.Equal(t, "fallback", order[len(order)-1])
}

func TestStrategyOrderNeutralWithoutData(t *testing.T) {
	r, _, _ := newTestRouter()

	score := r.ScoreStrategy("booking", "http")
	assert.Equal(t, 0.5, score.Score)
	assert.Equal(t, 0, score.SampleCount)

	// With no data anywhere, input order is preserved.
	order := r.GetStrategyOrder("booking", []string{"http", "browser"})
	assert.Equal(t, []string{"http", "browser"}, order)
}

func TestScoreWeightsRateAndSpeed(t *testing.T) {
	r, m, _ := newTestRouter()
	ctx := context.Background()

	// 100% success at 30s average: 0.8*1.0 + 0.2*(1-30/60) = 0.9.
	m.Record(ctx, "booking", "http", true, 30*time.Second, 5, nil)
	m.Record(ctx, "booking", "http", true, 30*time.Second, 5, nil)
	score := r.ScoreStrategy("booking", "http")
	assert.InDelta(t, 0.9, score.Score, 1e-9)

	// Slower than the 60s reference floors the speed term at zero.
	m.Record(ctx, "airbnb", "browser", true, 2*time.Minute, 5, nil)
	score = r.ScoreStrategy("airbnb", "browser")
	assert.InDelta(t, 0.8, score.Score, 1e-9)
}

func TestStrategyOrderProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a fully succeeding strategy always orders before a fully failing one", prop.ForAll(
		func(goodAttempts, badAttempts int) bool {
			r, m, _ := newTestRouter()
			ctx := context.Background()
			for i := 0; i < goodAttempts; i++ {
				m.Record(ctx, "src", "good", true, time.Second, 5, nil)
			}
			for i := 0; i < badAttempts; i++ {
				m.Record(ctx, "src", "bad", false, time.Second, 0, errors.New("nope"))
			}

			order := r.GetStrategyOrder("src", []string{"bad", "good", "fallback"})
			return order[0] == "good" && order[len(order)-1] == "fallback"
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestShouldSkipSourceCooldown(t *testing.T) {
	r, m, current := newTestRouter()
	ctx := context.Background()

	assert.False(t, r.ShouldSkipSource("booking"))

	for i := 0; i < 4; i++ {
		m.Record(ctx, "booking", "http", false, time.Second, 0, errors.New("429"))
	}
	// Four consecutive failures are not enough.
	assert.False(t, r.ShouldSkipSource("booking"))

	m.Record(ctx, "booking", "http", false, time.Second, 0, errors.New("429"))
	assert.True(t, r.ShouldSkipSource("booking"))

	// The cooldown expires after 30 minutes and probing resumes.
	*current = current.Add(31 * time.Minute)
	assert.False(t, r.ShouldSkipSource("booking"))
}

func TestHealthReportListsSources(t *testing.T) {
	r, m, _ := newTestRouter()
	ctx := context.Background()

	m.Record(ctx, "booking", "http", true, 2*time.Second, 12, nil)
	m.Record(ctx, "airbnb", "browser", false, 40*time.Second, 0, errors.New("captcha wall"))

	report := r.HealthReport(time.Hour)
	assert.Contains(t, report, "BOOKING")
	assert.Contains(t, report, "AIRBNB")
	assert.Contains(t, report, "captcha wall")

	empty := NewAdaptiveRouter(NewStrategyMetrics(context.Background(), nil))
	assert.Contains(t, empty.HealthReport(time.Hour), "No fetch attempts")
}
