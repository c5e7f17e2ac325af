package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/services"
)

type FavoritesHandler struct {
	Service *services.FavoritesService
}

func NewFavoritesHandler(service *services.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{Service: service}
}

// GetFavorites returns every saved deal.
func (h *FavoritesHandler) GetFavorites(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Service.All(),
	})
}

// AddFavorite saves the deal in the request body.
func (h *FavoritesHandler) AddFavorite(c *fiber.Ctx) error {
	var deal models.ScoredDeal
	if err := c.BodyParser(&deal); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if deal.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "name is required",
		})
	}

	if !h.Service.Add(c.Context(), deal) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Deal already in favorites",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
	})
}

// RemoveFavorite deletes a saved deal by URL.
func (h *FavoritesHandler) RemoveFavorite(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "url is required",
		})
	}

	if !h.Service.Remove(c.Context(), url) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Favorite not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}
