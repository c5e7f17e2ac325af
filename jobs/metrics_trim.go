package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/services"
)

type MetricsTrimJob struct {
	Metrics *services.StrategyMetrics
}

func NewMetricsTrimJob(metrics *services.StrategyMetrics) *MetricsTrimJob {
	return &MetricsTrimJob{Metrics: metrics}
}

func (j *MetricsTrimJob) Run() {
	logrus.Info("Starting Metrics Trim Job")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := j.Metrics.Trim(ctx); err != nil {
		logrus.WithField("error", err.Error()).Warn("Metrics Trim Job failed")
		return
	}
	logrus.Info("Metrics Trim Job completed")
}
