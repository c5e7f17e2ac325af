package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/services"
)

type AdminHandler struct {
	Cache      *services.SearchCache
	Metrics    *services.StrategyMetrics
	AdminToken string
}

func NewAdminHandler(cache *services.SearchCache, metrics *services.StrategyMetrics, adminToken string) *AdminHandler {
	return &AdminHandler{
		Cache:      cache,
		Metrics:    metrics,
		AdminToken: adminToken,
	}
}

func (h *AdminHandler) authorize(c *fiber.Ctx) bool {
	if h.AdminToken == "" {
		return false
	}
	return c.Get("X-Admin-Token") == h.AdminToken
}

// ClearCache drops all cached search results.
func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	if !h.authorize(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}

	h.Cache.Clear(c.Context())
	logrus.WithField("component", "AdminHandler").Info("Cache cleared via admin endpoint")
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared",
	})
}

// TrimMetrics compacts the stored attempt history.
func (h *AdminHandler) TrimMetrics(c *fiber.Ctx) error {
	if !h.authorize(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}

	if err := h.Metrics.Trim(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Attempt history trimmed",
	})
}
