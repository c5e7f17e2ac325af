package services

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdeals/deals-backend/models"
)

func newTestCache(ttl time.Duration) (*SearchCache, *time.Time) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := NewSearchCache(context.Background(), ttl, nil)
	c.now = func() time.Time { return current }
	return c, &current
}

func sampleListings() []models.Listing {
	return []models.Listing{
		{
			Name:          "Canal View Apartment",
			Location:      "Amsterdam",
			PricePerNight: 120,
			Currency:      "EUR",
			Rating:        4.7,
			Reviews:       310,
			PetFriendly:   true,
			Source:        "booking",
			URL:           "https://example.com/canal-view",
		},
	}
}

func TestCacheHitBeforeTTLMissAfter(t *testing.T) {
	c, current := newTestCache(30 * time.Minute)
	ctx := context.Background()

	c.Set(ctx, "key", sampleListings())

	*current = current.Add(29 * time.Minute)
	got, ok := c.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, "Canal View Apartment", got[0].Name)

	*current = current.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "key")
	assert.False(t, ok)

	// The expired entry was evicted lazily on read.
	assert.Equal(t, 0, c.Len())
}

func TestCacheMissForUnknownKey(t *testing.T) {
	c, _ := newTestCache(0)
	_, ok := c.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	ctx := context.Background()

	c.Set(ctx, "a", sampleListings())
	c.Set(ctx, "b", sampleListings())
	require.Equal(t, 2, c.Len())

	c.Clear(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestCacheSweepRemovesExpired(t *testing.T) {
	c, current := newTestCache(30 * time.Minute)
	ctx := context.Background()

	c.Set(ctx, "old", sampleListings())
	*current = current.Add(31 * time.Minute)
	c.Set(ctx, "fresh", sampleListings())

	removed := c.Sweep(ctx)
	assert.Equal(t, 1, removed)
	_, ok := c.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestMakeKeyIgnoresParamOrder(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("key depends on content, not parameter insertion order", prop.ForAll(
		func(dest, checkin string, adults int) bool {
			a := map[string]string{}
			a["destination"] = dest
			a["checkin"] = checkin
			a["adults"] = string(rune('0' + adults%10))

			b := map[string]string{}
			b["adults"] = a["adults"]
			b["checkin"] = checkin
			b["destination"] = dest

			return MakeKey("booking", a) == MakeKey("booking", b)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, 9),
	))

	properties.TestingRun(t)
}

func TestMakeKeyDistinguishesQueries(t *testing.T) {
	base := map[string]string{"destination": "Amsterdam", "checkin": "2026-09-05"}
	other := map[string]string{"destination": "Utrecht", "checkin": "2026-09-05"}

	assert.NotEqual(t, MakeKey("booking", base), MakeKey("booking", other))
	assert.NotEqual(t, MakeKey("booking", base), MakeKey("airbnb", base))
	assert.Len(t, MakeKey("booking", base), 16)
}
