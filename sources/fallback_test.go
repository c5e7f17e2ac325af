package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackAlwaysReturnsParks(t *testing.T) {
	s := NewCenterParcsFallback()
	query := SearchQuery{
		Destination: "Amsterdam",
		CheckIn:     time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Adults:      4,
	}

	listings, err := s.Search(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, listings, 5)

	for _, l := range listings {
		assert.NotEmpty(t, l.Name)
		assert.NotEmpty(t, l.URL)
		assert.Greater(t, l.PricePerNight, 0.0)
		assert.True(t, l.PetFriendly)
		assert.Equal(t, "center-parcs", l.Source)
		assert.Equal(t, "EUR", l.Currency)
	}
}

func TestFallbackStrategyName(t *testing.T) {
	assert.Equal(t, StrategyFallback, NewCenterParcsFallback().Name())
}

func TestParseAirbnbRating(t *testing.T) {
	rating, reviews := parseAirbnbRating("4.92 out of 5 average rating, 187 reviews")
	assert.InDelta(t, 4.92, rating, 0.001)
	assert.Equal(t, 187, reviews)

	rating, reviews = parseAirbnbRating("")
	assert.Equal(t, 0.0, rating)
	assert.Equal(t, 0, reviews)
}

func TestSourceStrategyLookup(t *testing.T) {
	fallback := NewCenterParcsFallback()
	src := Source{Name: "center-parcs", Strategies: []SourceStrategy{fallback}}

	assert.Equal(t, []string{StrategyFallback}, src.StrategyNames())
	assert.Equal(t, fallback, src.ByName(StrategyFallback))
	assert.Nil(t, src.ByName("missing"))
}
