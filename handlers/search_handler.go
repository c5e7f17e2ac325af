package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/services"
)

type SearchHandler struct {
	Orchestrator *services.SearchOrchestrator
}

func NewSearchHandler(orchestrator *services.SearchOrchestrator) *SearchHandler {
	return &SearchHandler{Orchestrator: orchestrator}
}

// Search runs a deal search across the requested destinations.
// GET /search?destinations=Amsterdam,Utrecht&checkin=2026-09-05&checkout=2026-09-12&adults=4&pets=1&budget=150&budget_type=per_night
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	destinationsParam := c.Query("destinations")
	if destinationsParam == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "destinations is required",
		})
	}
	var destinations []string
	for _, d := range strings.Split(destinationsParam, ",") {
		if d = strings.TrimSpace(d); d != "" {
			destinations = append(destinations, d)
		}
	}

	checkin, err := time.Parse("2006-01-02", c.Query("checkin"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "checkin must be YYYY-MM-DD",
		})
	}
	checkout, err := time.Parse("2006-01-02", c.Query("checkout"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "checkout must be YYYY-MM-DD",
		})
	}
	if !checkout.After(checkin) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "checkout must be after checkin",
		})
	}

	budgetType := c.Query("budget_type", models.BudgetTypeNightly)
	if budgetType != models.BudgetTypeNightly && budgetType != models.BudgetTypeTotal {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "budget_type must be per_night or total",
		})
	}

	req := &models.SearchRequest{
		Destinations: destinations,
		CheckIn:      checkin,
		CheckOut:     checkout,
		GroupSize:    c.QueryInt("adults", 2),
		Pets:         c.QueryInt("pets", 0),
		Budget:       c.QueryFloat("budget", 0),
		BudgetType:   budgetType,
	}

	var rankOpts *services.RankOptions
	if bonus := c.QueryFloat("weather_bonus", 0); bonus > 0 {
		rankOpts = &services.RankOptions{WeatherBonus: bonus}
	}

	result, err := h.Orchestrator.FindBestDeals(c.Context(), req, rankOpts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}
