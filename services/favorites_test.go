package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdeals/deals-backend/models"
)

func favoriteDeal(name, url string) models.ScoredDeal {
	return models.ScoredDeal{
		Name:          name,
		Location:      "Amsterdam",
		PricePerNight: 100,
		URL:           url,
		Source:        "booking",
	}
}

func TestFavoritesAddAndDedupe(t *testing.T) {
	s := NewFavoritesService(context.Background(), nil)
	ctx := context.Background()

	assert.True(t, s.Add(ctx, favoriteDeal("Canal View", "https://x/1")))
	assert.False(t, s.Add(ctx, favoriteDeal("Renamed", "https://x/1")), "same URL is a duplicate")
	assert.True(t, s.Add(ctx, favoriteDeal("Other", "https://x/2")))
	assert.Len(t, s.All(), 2)
}

func TestFavoritesDedupeByNameLocationWithoutURL(t *testing.T) {
	s := NewFavoritesService(context.Background(), nil)
	ctx := context.Background()

	assert.True(t, s.Add(ctx, favoriteDeal("Canal View", "")))
	assert.False(t, s.Add(ctx, favoriteDeal("Canal View", "")))
	assert.Len(t, s.All(), 1)
}

func TestFavoritesRemove(t *testing.T) {
	s := NewFavoritesService(context.Background(), nil)
	ctx := context.Background()

	require.True(t, s.Add(ctx, favoriteDeal("Canal View", "https://x/1")))
	assert.True(t, s.Remove(ctx, "https://x/1"))
	assert.False(t, s.Remove(ctx, "https://x/1"))
	assert.Empty(t, s.All())
}

func TestFavoritesAllReturnsCopy(t *testing.T) {
	s := NewFavoritesService(context.Background(), nil)
	ctx := context.Background()

	require.True(t, s.Add(ctx, favoriteDeal("Canal View", "https://x/1")))
	all := s.All()
	all[0].Name = "Mutated"
	assert.Equal(t, "Canal View", s.All()[0].Name)
}
