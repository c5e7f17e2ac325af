package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdeals/deals-backend/models"
)

func TestPetFriendlyMultiplierExact(t *testing.T) {
	r := NewDealRanker()

	plain := models.Listing{
		Name: "Plain", Location: "Utrecht", PricePerNight: 90, Currency: "EUR",
		Rating: 4.0, Reviews: 200, Source: "booking", URL: "https://x/plain",
	}
	withPets := plain
	withPets.Name = "With Pets"
	withPets.URL = "https://x/pets"
	withPets.PetFriendly = true

	deals := r.Rank([]models.Listing{plain, withPets}, 7, nil)
	require.Len(t, deals, 2)

	// base = (40 - 90/3) + 4*6 + 200/20 = 10 + 24 + 10 = 44
	var plainScore, petScore float64
	for _, d := range deals {
		if d.PetFriendly {
			petScore = d.RankScore
		} else {
			plainScore = d.RankScore
		}
	}
	assert.InDelta(t, 44.0, plainScore, 0.05)
	assert.InDelta(t, 44.0*1.4, petScore, 0.05)
	assert.Equal(t, "With Pets", deals[0].Name)
}

func TestWeatherBonusMultiplier(t *testing.T) {
	r := NewDealRanker()
	listing := models.Listing{
		Name: "Sunny", Location: "Zandvoort", PricePerNight: 60, Currency: "EUR",
		Rating: 4.0, Reviews: 100, Source: "booking", URL: "https://x/sunny",
	}

	base := r.Rank([]models.Listing{listing}, 7, nil)[0].RankScore
	boosted := r.Rank([]models.Listing{listing}, 7, &RankOptions{WeatherBonus: 1.2})[0].RankScore
	assert.InDelta(t, base*1.2, boosted, 0.1)
}

func TestCurrencyNormalization(t *testing.T) {
	r := NewDealRanker()

	usd := models.Listing{
		Name: "Dollar Flat", Location: "Amsterdam", PricePerNight: 100, Currency: "USD",
		Rating: 4.0, Reviews: 100, Source: "airbnb", URL: "https://x/usd",
	}
	deals := r.Rank([]models.Listing{usd}, 5, nil)
	require.Len(t, deals, 1)

	assert.Equal(t, 92.0, deals[0].PricePerNight)
	assert.Equal(t, 460.0, deals[0].TotalCostForTrip)
	assert.Equal(t, "EUR", deals[0].Currency)
	assert.Equal(t, "USD", deals[0].OriginalCurrency)
	assert.Equal(t, 100.0, deals[0].OriginalPrice)

	// Unknown currencies pass through at 1.0.
	unknown := usd
	unknown.Currency = "XYZ"
	deals = r.Rank([]models.Listing{unknown}, 5, nil)
	assert.Equal(t, 100.0, deals[0].PricePerNight)
}

func TestFXRateOverride(t *testing.T) {
	r := NewDealRanker()

	gbp := models.Listing{
		Name: "London Loft", Location: "London", PricePerNight: 100, Currency: "GBP",
		Rating: 4.0, Reviews: 100, Source: "booking", URL: "https://x/gbp",
	}
	opts := &RankOptions{FXRates: map[string]float64{"GBP": 1.25}}
	deals := r.Rank([]models.Listing{gbp}, 2, opts)
	assert.Equal(t, 125.0, deals[0].PricePerNight)
}

func TestRecommendationTiers(t *testing.T) {
	assert.Contains(t, recommendation(85, 500), "EXCELLENT")
	assert.Contains(t, recommendation(65, 500), "VERY GOOD")
	assert.Contains(t, recommendation(45, 500), "GOOD")
	assert.Contains(t, recommendation(30, 500), "BUDGET")
	// Boundary scores fall into the lower tier.
	assert.Contains(t, recommendation(80, 500), "VERY GOOD")
}

func TestRankSortsDescendingAndSkipsInvalid(t *testing.T) {
	r := NewDealRanker()

	listings := []models.Listing{
		{Name: "Pricey", Location: "A", PricePerNight: 300, Currency: "EUR", Rating: 3, Reviews: 10, Source: "s", URL: "https://x/1"},
		{Name: "Cheap Gem", Location: "A", PricePerNight: 50, Currency: "EUR", Rating: 4.8, Reviews: 400, Source: "s", URL: "https://x/2"},
		{Name: "", Location: "A", PricePerNight: 10, Currency: "EUR", Source: "s", URL: "https://x/3"},
		{Name: "Free?", Location: "A", PricePerNight: 0, Currency: "EUR", Source: "s", URL: "https://x/4"},
	}

	deals := r.Rank(listings, 7, nil)
	require.Len(t, deals, 2)
	assert.Equal(t, "Cheap Gem", deals[0].Name)
	assert.GreaterOrEqual(t, deals[0].RankScore, deals[1].RankScore)
}

func TestGenerateSummary(t *testing.T) {
	r := NewDealRanker()

	listings := []models.Listing{
		{Name: "Best", Location: "A", PricePerNight: 60, Currency: "EUR", Rating: 4.9, Reviews: 300, PetFriendly: true, Source: "s", URL: "https://x/1"},
		{Name: "Mid", Location: "A", PricePerNight: 100, Currency: "EUR", Rating: 4.0, Reviews: 150, Source: "s", URL: "https://x/2"},
		{Name: "Costly", Location: "A", PricePerNight: 180, Currency: "EUR", Rating: 4.5, Reviews: 80, Source: "s", URL: "https://x/3"},
		{Name: "Fourth", Location: "A", PricePerNight: 90, Currency: "EUR", Rating: 3.5, Reviews: 60, Source: "s", URL: "https://x/4"},
	}

	deals := r.Rank(listings, 7, nil)
	summary := r.GenerateSummary(deals, 7)

	assert.Equal(t, 7, summary.Nights)
	assert.Equal(t, 4, summary.TotalFound)
	assert.Equal(t, deals[0].Name, summary.BestOverall)
	assert.Equal(t, 60.0, summary.CheapestPerNight)
	assert.Equal(t, 180.0, summary.PriciestPerNight)
	assert.Equal(t, "Best", summary.Cheapest)
	assert.Equal(t, "Best", summary.TopRated)
	assert.Equal(t, 1, summary.PetFriendlyCount)
	require.Len(t, summary.TopThree, 3)
	assert.Equal(t, deals[0].Name, summary.TopThree[0].Name)

	empty := r.GenerateSummary(nil, 7)
	assert.Equal(t, 0, empty.TotalFound)
	assert.Empty(t, empty.TopThree)
}
