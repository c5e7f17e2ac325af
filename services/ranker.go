package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
)

const (
	petFriendlyMultiplier = 1.4
	defaultWeatherBonus   = 1.0

	tierExcellent = 80.0
	tierVeryGood  = 60.0
	tierGood      = 40.0
)

// fxRatesToEUR converts source currencies to EUR for fair cross-source
// ranking. Unknown currencies pass through at 1.0.
var fxRatesToEUR = map[string]float64{
	"EUR": 1.0,
	"USD": 0.92,
	"GBP": 1.17,
	"CHF": 1.03,
	"NOK": 0.085,
	"SEK": 0.088,
	"DKK": 0.134,
}

// RankOptions tunes a ranking pass. WeatherBonus defaults to 1.0; FXRates
// overrides individual currency rates without touching the built-in table.
type RankOptions struct {
	WeatherBonus float64
	FXRates      map[string]float64
}

// DealRanker scores validated listings and orders them best-first.
//
// Scoring: price 0-40 points (cheaper is better), rating 0-30 (rating*6),
// reviews 0-20 (reviews/20 capped), then a 1.4x pet-friendly multiplier
// and the caller's weather bonus.
type DealRanker struct{}

// NewDealRanker creates a ranker.
func NewDealRanker() *DealRanker {
	return &DealRanker{}
}

// Rank scores every listing, converts prices to EUR, and returns the deals
// sorted descending by score.
func (r *DealRanker) Rank(listings []models.Listing, nights int, opts *RankOptions) []models.ScoredDeal {
	weatherBonus := defaultWeatherBonus
	var fxOverride map[string]float64
	if opts != nil {
		if opts.WeatherBonus > 0 {
			weatherBonus = opts.WeatherBonus
		}
		fxOverride = opts.FXRates
	}

	deals := make([]models.ScoredDeal, 0, len(listings))
	for _, l := range listings {
		if l.Name == "" || l.PricePerNight <= 0 {
			continue
		}

		eurPrice := normalizeToEUR(l.PricePerNight, l.Currency, fxOverride)
		score := baseScore(eurPrice, l.Rating, l.Reviews)
		if l.PetFriendly {
			score *= petFriendlyMultiplier
		}
		score *= weatherBonus

		totalCost := eurPrice * float64(nights)
		deals = append(deals, models.ScoredDeal{
			RankScore:        roundTo(score, 1),
			Name:             l.Name,
			Location:         l.Location,
			PricePerNight:    roundTo(eurPrice, 2),
			TotalCostForTrip: roundTo(totalCost, 2),
			Rating:           l.Rating,
			Reviews:          l.Reviews,
			PetFriendly:      l.PetFriendly,
			Source:           l.Source,
			URL:              l.URL,
			ImageURL:         l.ImageURL,
			Images:           l.Images,
			Currency:         "EUR",
			OriginalCurrency: strings.ToUpper(l.Currency),
			OriginalPrice:    l.PricePerNight,
			Recommendation:   recommendation(score, totalCost),
			FromCache:        l.FromCache,
		})
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].RankScore > deals[j].RankScore
	})

	logrus.WithFields(logrus.Fields{
		"component": "DealRanker",
		"listings":  len(listings),
		"ranked":    len(deals),
	}).Debug("Ranked deals")

	return deals
}

// GenerateSummary aggregates headline numbers over an already-ranked list.
func (r *DealRanker) GenerateSummary(deals []models.ScoredDeal, nights int) models.DealSummary {
	summary := models.DealSummary{Nights: nights, TotalFound: len(deals)}
	if len(deals) == 0 {
		return summary
	}

	summary.BestOverall = deals[0].Name
	summary.CheapestPerNight = deals[0].PricePerNight
	summary.PriciestPerNight = deals[0].PricePerNight

	var sum float64
	topRated := deals[0]
	cheapest := deals[0]
	for _, d := range deals {
		sum += d.PricePerNight
		if d.PricePerNight < summary.CheapestPerNight {
			summary.CheapestPerNight = d.PricePerNight
		}
		if d.PricePerNight > summary.PriciestPerNight {
			summary.PriciestPerNight = d.PricePerNight
		}
		if d.PetFriendly {
			summary.PetFriendlyCount++
		}
		if d.Rating > topRated.Rating {
			topRated = d
		}
		if d.PricePerNight < cheapest.PricePerNight {
			cheapest = d
		}
	}
	summary.AveragePerNight = roundTo(sum/float64(len(deals)), 2)
	summary.TopRated = topRated.Name
	summary.Cheapest = cheapest.Name

	top := len(deals)
	if top > 3 {
		top = 3
	}
	for _, d := range deals[:top] {
		summary.TopThree = append(summary.TopThree, models.TopDealDigest{
			Name:      d.Name,
			Score:     d.RankScore,
			TotalCost: d.TotalCostForTrip,
		})
	}

	return summary
}

func baseScore(eurPrice, rating float64, reviews int) float64 {
	priceScore := 40.0 - eurPrice/3.0
	if priceScore < 0 {
		priceScore = 0
	}

	reviewScore := float64(reviews) / 20.0
	if reviewScore > 20 {
		reviewScore = 20
	}

	return priceScore + rating*6 + reviewScore
}

func normalizeToEUR(price float64, currency string, override map[string]float64) float64 {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "EUR"
	}
	if rate, ok := override[code]; ok && rate > 0 {
		return price * rate
	}
	rate, ok := fxRatesToEUR[code]
	if !ok {
		rate = 1.0
	}
	return price * rate
}

func recommendation(score, totalCost float64) string {
	tier := "BUDGET"
	switch {
	case score > tierExcellent:
		tier = "EXCELLENT"
	case score > tierVeryGood:
		tier = "VERY GOOD"
	case score > tierGood:
		tier = "GOOD"
	}
	return fmt.Sprintf("%s | EUR %.0f total", tier, totalCost)
}

func roundTo(value float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(value*factor) / factor
}
