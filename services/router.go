package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
)

const (
	// FallbackStrategy is always tried last regardless of its score.
	FallbackStrategy = "fallback"

	neutralExplorationScore = 0.5
	successRateWeight       = 0.8
	speedWeight             = 0.2
	speedReferenceSeconds   = 60.0

	failureCooldownThreshold = 5
	failureCooldownWindow    = 30 * time.Minute

	defaultMetricsWindow = 60 * time.Minute
)

// AdaptiveRouter orders fetch strategies per source by recent performance
// and temporarily disables sources that keep failing.
type AdaptiveRouter struct {
	metrics *StrategyMetrics
	now     func() time.Time
}

// NewAdaptiveRouter creates a router over the given metrics.
func NewAdaptiveRouter(metrics *StrategyMetrics) *AdaptiveRouter {
	return &AdaptiveRouter{
		metrics: metrics,
		now:     time.Now,
	}
}

// ScoreStrategy computes the routing score for one source+strategy pair.
// With no recorded data the score is neutral (0.5) so unknown strategies
// still get explored.
func (r *AdaptiveRouter) ScoreStrategy(source, strategy string) models.StrategyScore {
	rate, count := r.metrics.GetSuccessRate(source, strategy, defaultMetricsWindow)
	avgDur := r.metrics.GetAvgDuration(source, strategy, defaultMetricsWindow)

	score := neutralExplorationScore
	if rate >= 0 {
		speedScore := 1.0 - avgDur/speedReferenceSeconds
		if speedScore < 0 {
			speedScore = 0
		}
		score = successRateWeight*rate + speedWeight*speedScore
	}

	return models.StrategyScore{
		Strategy:    strategy,
		SuccessRate: rate,
		SampleCount: count,
		AvgDuration: avgDur,
		Score:       score,
	}
}

// GetStrategyOrder returns the available strategies ordered best-first. The
// fallback strategy, when present, is pinned last; ties keep the input
// order.
func (r *AdaptiveRouter) GetStrategyOrder(source string, available []string) []string {
	hasFallback := false
	scored := make([]models.StrategyScore, 0, len(available))
	for _, strategy := range available {
		if strategy == FallbackStrategy {
			hasFallback = true
			continue
		}
		scored = append(scored, r.ScoreStrategy(source, strategy))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	order := make([]string, 0, len(available))
	for _, s := range scored {
		order = append(order, s.Strategy)
	}
	if hasFallback {
		order = append(order, FallbackStrategy)
	}

	logrus.WithFields(logrus.Fields{
		"component": "AdaptiveRouter",
		"source":    source,
		"order":     order,
	}).Debug("Computed strategy order")

	return order
}

// ShouldSkipSource reports whether a source is inside its failure cooldown:
// five or more consecutive failures with the latest one still recent. The
// cooldown expiring re-enables probing; this is a circuit breaker, not a
// permanent stop.
func (r *AdaptiveRouter) ShouldSkipSource(source string) bool {
	consecutive := r.metrics.GetConsecutiveFailures(source)
	if consecutive < failureCooldownThreshold {
		return false
	}

	lastAttempt := r.metrics.LastAttemptTime(source)
	if lastAttempt.IsZero() {
		return false
	}
	if r.now().Sub(lastAttempt) > failureCooldownWindow {
		return false
	}

	logrus.WithFields(logrus.Fields{
		"component":            "AdaptiveRouter",
		"source":               source,
		"consecutive_failures": consecutive,
	}).Warn("Source disabled for cooldown")
	return true
}

// HealthReport renders a per-source, per-strategy text report over the
// window for operators.
func (r *AdaptiveRouter) HealthReport(window time.Duration) string {
	records := r.metrics.GetRecentRecords("", "", window)

	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("SOURCE HEALTH REPORT\n")
	fmt.Fprintf(&b, "   Window: last %s\n", window)
	fmt.Fprintf(&b, "   Generated: %s\n", r.now().Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("=", 60) + "\n")

	if len(records) == 0 {
		b.WriteString("\n   No fetch attempts recorded in this window.\n")
		return b.String()
	}

	bySource := make(map[string]map[string][]models.AttemptRecord)
	for _, rec := range records {
		if bySource[rec.Source] == nil {
			bySource[rec.Source] = make(map[string][]models.AttemptRecord)
		}
		bySource[rec.Source][rec.Strategy] = append(bySource[rec.Source][rec.Strategy], rec)
	}

	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		fmt.Fprintf(&b, "\n%s\n", strings.ToUpper(source))
		b.WriteString(strings.Repeat("-", 40) + "\n")

		strategies := make([]string, 0, len(bySource[source]))
		for strategy := range bySource[source] {
			strategies = append(strategies, strategy)
		}
		sort.Strings(strategies)

		for _, strategy := range strategies {
			recs := bySource[source][strategy]
			total := len(recs)
			successes := 0
			var totalDur, totalResults float64
			var lastError string
			for _, rec := range recs {
				totalDur += rec.Duration
				if rec.Success {
					successes++
					totalResults += float64(rec.ResultCount)
				}
				if rec.Error != "" {
					lastError = rec.Error
				}
			}

			rate := float64(successes) / float64(total)
			status := "FAIL"
			if rate > 0.5 {
				status = "OK"
			} else if rate > 0.2 {
				status = "WARN"
			}
			avgResults := 0.0
			if successes > 0 {
				avgResults = totalResults / float64(successes)
			}

			fmt.Fprintf(&b, "   %-4s %-15s | rate: %3.0f%% (%d/%d) | avg: %5.1fs | results: %.0f\n",
				status, strategy, rate*100, successes, total, totalDur/float64(total), avgResults)
			if lastError != "" {
				if len(lastError) > 60 {
					lastError = lastError[:60]
				}
				fmt.Fprintf(&b, "        last error: %s\n", lastError)
			}
		}
	}

	b.WriteString("\n" + strings.Repeat("=", 60) + "\n")
	return b.String()
}
