package models

import "time"

// Budget types accepted by a search. A total budget is divided by the number
// of nights to obtain the nightly cap used for validation.
const (
	BudgetTypeNightly = "per_night"
	BudgetTypeTotal   = "total"
)

// Validation rejection reason codes.
const (
	RejectMissingName     = "missing_name"
	RejectMissingLocation = "missing_location"
	RejectMissingSource   = "missing_source"
	RejectMissingURL      = "missing_url"
	RejectInvalidPrice    = "invalid_price"
	RejectOverBudget      = "over_budget"
	RejectInvalidRating   = "invalid_rating"
	RejectInvalidReviews  = "invalid_reviews"
	RejectNotPetFriendly  = "not_pet_friendly"
)

// SearchRequest describes one deal search across a set of destinations.
type SearchRequest struct {
	Destinations []string  `json:"destinations"`
	CheckIn      time.Time `json:"checkin"`
	CheckOut     time.Time `json:"checkout"`
	GroupSize    int       `json:"group_size"`
	Pets         int       `json:"pets"`
	Budget       float64   `json:"budget"`
	BudgetType   string    `json:"budget_type"`
}

// Nights returns the stay length in whole nights.
func (r *SearchRequest) Nights() int {
	n := int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// NightlyCap returns the per-night budget limit implied by the request.
func (r *SearchRequest) NightlyCap() float64 {
	if r.BudgetType == BudgetTypeTotal {
		if n := r.Nights(); n > 0 {
			return r.Budget / float64(n)
		}
	}
	return r.Budget
}

// ValidationReport carries per-reason rejection counts so filtering is
// visible in the result payload rather than silent.
type ValidationReport struct {
	TotalRaw        int            `json:"total_raw"`
	ValidCount      int            `json:"valid_count"`
	RejectedCount   int            `json:"rejected_count"`
	RejectedReasons map[string]int `json:"rejected_reasons"`
}

// DealSummary aggregates headline numbers over the ranked deals.
type DealSummary struct {
	BestOverall      string          `json:"best_overall,omitempty"`
	Nights           int             `json:"nights"`
	CheapestPerNight float64         `json:"cheapest_per_night"`
	PriciestPerNight float64         `json:"most_expensive_per_night"`
	AveragePerNight  float64         `json:"average_per_night"`
	PetFriendlyCount int             `json:"pet_friendly_options"`
	TopRated         string          `json:"top_rated_property,omitempty"`
	Cheapest         string          `json:"cheapest_option,omitempty"`
	TotalFound       int             `json:"total_options_found"`
	TopThree         []TopDealDigest `json:"top_3_recommendations,omitempty"`
}

// TopDealDigest is the short form of a top-ranked deal used in summaries.
type TopDealDigest struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	TotalCost float64 `json:"total_cost"`
}

// SearchResult is the only payload consumed by presentation layers.
type SearchResult struct {
	Timestamp      time.Time        `json:"timestamp"`
	Destinations   []string         `json:"destinations"`
	CheckIn        string           `json:"checkin"`
	CheckOut       string           `json:"checkout"`
	Nights         int              `json:"nights"`
	GroupSize      int              `json:"group_size"`
	Pets           int              `json:"pets"`
	Budget         float64          `json:"budget"`
	BudgetType     string           `json:"budget_type"`
	TotalDeals     int              `json:"total_deals_found"`
	Validation     ValidationReport `json:"validation"`
	PriceAlerts    []string         `json:"price_alerts"`
	Deals          []ScoredDeal     `json:"deals"`
	Summary        DealSummary      `json:"summary"`
	FailedSearches []string         `json:"failed_searches,omitempty"`
}
