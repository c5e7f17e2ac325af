package services

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
)

// ListingValidator filters raw listings against the search constraints and
// normalizes the survivors. Every rejection is counted under a reason code
// so callers see what the filter did.
type ListingValidator struct {
	maxRating float64
}

// NewListingValidator creates a validator with the standard 0..5 rating scale.
func NewListingValidator() *ListingValidator {
	return &ListingValidator{maxRating: 5.0}
}

// Validate partitions listings into accepted (normalized) and rejected,
// applying the nightly budget cap and the pet requirement from the request.
// Each listing is rejected under its first failing check.
func (v *ListingValidator) Validate(listings []models.Listing, req *models.SearchRequest) ([]models.Listing, models.ValidationReport) {
	report := models.ValidationReport{
		TotalRaw:        len(listings),
		RejectedReasons: make(map[string]int),
	}
	nightlyCap := req.NightlyCap()
	needsPets := req.Pets > 0

	accepted := make([]models.Listing, 0, len(listings))
	for _, listing := range listings {
		if reason := v.check(listing, nightlyCap, needsPets); reason != "" {
			report.RejectedCount++
			report.RejectedReasons[reason]++
			continue
		}
		accepted = append(accepted, v.normalize(listing))
	}
	report.ValidCount = len(accepted)

	if report.RejectedCount > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "ListingValidator",
			"raw":       report.TotalRaw,
			"valid":     report.ValidCount,
			"rejected":  report.RejectedReasons,
		}).Info("Validated listings")
	}

	return accepted, report
}

func (v *ListingValidator) check(l models.Listing, nightlyCap float64, needsPets bool) string {
	switch {
	case strings.TrimSpace(l.Name) == "":
		return models.RejectMissingName
	case strings.TrimSpace(l.Location) == "":
		return models.RejectMissingLocation
	case strings.TrimSpace(l.Source) == "":
		return models.RejectMissingSource
	case strings.TrimSpace(l.URL) == "":
		return models.RejectMissingURL
	case l.PricePerNight <= 0 || math.IsNaN(l.PricePerNight) || math.IsInf(l.PricePerNight, 0):
		return models.RejectInvalidPrice
	case nightlyCap > 0 && l.PricePerNight > nightlyCap:
		return models.RejectOverBudget
	case l.Rating < 0 || l.Rating > v.maxRating || math.IsNaN(l.Rating):
		return models.RejectInvalidRating
	case l.Reviews < 0:
		return models.RejectInvalidReviews
	case needsPets && !l.PetFriendly:
		return models.RejectNotPetFriendly
	}
	return ""
}

// normalize rounds the price to cents, clamps the rating into scale, floors
// reviews at zero and upper-cases the currency (EUR when absent).
func (v *ListingValidator) normalize(l models.Listing) models.Listing {
	l.PricePerNight = math.Round(l.PricePerNight*100) / 100

	if l.Rating < 0 {
		l.Rating = 0
	} else if l.Rating > v.maxRating {
		l.Rating = v.maxRating
	}
	if l.Reviews < 0 {
		l.Reviews = 0
	}

	l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
	if l.Currency == "" {
		l.Currency = "EUR"
	}

	return l
}
