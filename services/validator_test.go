package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdeals/deals-backend/models"
)

func validListing() models.Listing {
	return models.Listing{
		Name:          "Canal View Apartment",
		Location:      "Amsterdam",
		PricePerNight: 120,
		Currency:      "eur",
		Rating:        4.7,
		Reviews:       310,
		PetFriendly:   true,
		Source:        "booking",
		URL:           "https://example.com/canal-view",
	}
}

func nightlyRequest(budget float64, pets int) *models.SearchRequest {
	return &models.SearchRequest{
		Destinations: []string{"Amsterdam"},
		CheckIn:      time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		GroupSize:    4,
		Pets:         pets,
		Budget:       budget,
		BudgetType:   models.BudgetTypeNightly,
	}
}

func TestValidateAccepts(t *testing.T) {
	v := NewListingValidator()

	accepted, report := v.Validate([]models.Listing{validListing()}, nightlyRequest(150, 1))
	require.Len(t, accepted, 1)
	assert.Equal(t, 1, report.ValidCount)
	assert.Equal(t, 0, report.RejectedCount)
	assert.Equal(t, "EUR", accepted[0].Currency)
}

func TestValidateRejectionReasons(t *testing.T) {
	v := NewListingValidator()
	req := nightlyRequest(150, 1)

	cases := []struct {
		mutate func(*models.Listing)
		reason string
	}{
		{func(l *models.Listing) { l.Name = "  " }, models.RejectMissingName},
		{func(l *models.Listing) { l.Location = "" }, models.RejectMissingLocation},
		{func(l *models.Listing) { l.Source = "" }, models.RejectMissingSource},
		{func(l *models.Listing) { l.URL = "" }, models.RejectMissingURL},
		{func(l *models.Listing) { l.PricePerNight = 0 }, models.RejectInvalidPrice},
		{func(l *models.Listing) { l.PricePerNight = -10 }, models.RejectInvalidPrice},
		{func(l *models.Listing) { l.PricePerNight = 200 }, models.RejectOverBudget},
		{func(l *models.Listing) { l.Rating = 5.5 }, models.RejectInvalidRating},
		{func(l *models.Listing) { l.Rating = -1 }, models.RejectInvalidRating},
		{func(l *models.Listing) { l.Reviews = -3 }, models.RejectInvalidReviews},
		{func(l *models.Listing) { l.PetFriendly = false }, models.RejectNotPetFriendly},
	}

	for _, tc := range cases {
		listing := validListing()
		tc.mutate(&listing)

		accepted, report := v.Validate([]models.Listing{listing}, req)
		assert.Empty(t, accepted, "expected rejection for %s", tc.reason)
		assert.Equal(t, 1, report.RejectedReasons[tc.reason], "expected reason %s, got %v", tc.reason, report.RejectedReasons)
	}
}

func TestPetRuleOnlyAppliesWhenPetsRequested(t *testing.T) {
	v := NewListingValidator()

	listing := validListing()
	listing.PetFriendly = false

	accepted, _ := v.Validate([]models.Listing{listing}, nightlyRequest(150, 0))
	assert.Len(t, accepted, 1)
}

func TestTotalBudgetDividesByNights(t *testing.T) {
	v := NewListingValidator()

	req := nightlyRequest(0, 0)
	req.Budget = 700 // 7 nights, 100 per night cap
	req.BudgetType = models.BudgetTypeTotal

	listing := validListing()
	listing.PricePerNight = 120

	accepted, report := v.Validate([]models.Listing{listing}, req)
	assert.Empty(t, accepted)
	assert.Equal(t, 1, report.RejectedReasons[models.RejectOverBudget])

	listing.PricePerNight = 95
	accepted, _ = v.Validate([]models.Listing{listing}, req)
	assert.Len(t, accepted, 1)
}

func TestNormalization(t *testing.T) {
	v := NewListingValidator()

	listing := validListing()
	listing.PricePerNight = 99.999
	listing.Currency = ""

	accepted, _ := v.Validate([]models.Listing{listing}, nightlyRequest(150, 0))
	require.Len(t, accepted, 1)
	assert.Equal(t, 100.0, accepted[0].PricePerNight)
	assert.Equal(t, "EUR", accepted[0].Currency)
}

func TestZeroBudgetMeansNoCap(t *testing.T) {
	v := NewListingValidator()

	listing := validListing()
	listing.PricePerNight = 5000

	accepted, _ := v.Validate([]models.Listing{listing}, nightlyRequest(0, 0))
	assert.Len(t, accepted, 1)
}
