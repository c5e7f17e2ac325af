package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/services"
)

type CacheCleanupJob struct {
	Cache *services.SearchCache
}

func NewCacheCleanupJob(cache *services.SearchCache) *CacheCleanupJob {
	return &CacheCleanupJob{Cache: cache}
}

func (j *CacheCleanupJob) Run() {
	logrus.Info("Starting Cache Cleanup Job")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	removed := j.Cache.Sweep(ctx)
	logrus.WithField("removed", removed).Info("Cache Cleanup Job completed")
}
