package jobs

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/services"
)

type HealthReportJob struct {
	Router *services.AdaptiveRouter
}

func NewHealthReportJob(router *services.AdaptiveRouter) *HealthReportJob {
	return &HealthReportJob{Router: router}
}

func (j *HealthReportJob) Run() {
	report := j.Router.HealthReport(60 * time.Minute)
	logrus.WithField("component", "HealthReportJob").Info("Source health report\n" + report)
}
