package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tripdeals/deals-backend/services"
)

type HealthHandler struct {
	Router *services.AdaptiveRouter
	Runs   *services.RunTracker
	Cache  *services.SearchCache
	Alerts *services.PriceAlertSystem
}

func NewHealthHandler(router *services.AdaptiveRouter, runs *services.RunTracker, cache *services.SearchCache, alerts *services.PriceAlertSystem) *HealthHandler {
	return &HealthHandler{Router: router, Runs: runs, Cache: cache, Alerts: alerts}
}

// Health returns liveness plus a few operational counters.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":             "ok",
		"cache_entries":      h.Cache.Len(),
		"tracked_properties": h.Alerts.TrackedCount(),
		"runs":               h.Runs.Snapshot(),
	})
}

// SourceHealth returns the per-source strategy health report as plain text.
// GET /health/sources?window_minutes=60
func (h *HealthHandler) SourceHealth(c *fiber.Ctx) error {
	window := time.Duration(c.QueryInt("window_minutes", 60)) * time.Minute
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(h.Router.HealthReport(window))
}
