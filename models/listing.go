package models

// Listing is a single accommodation offer as returned by a source strategy.
// Prices are per night in the source currency; strategies are responsible
// for returning nightly rates, never total-stay amounts.
type Listing struct {
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	PricePerNight float64  `json:"price_per_night"`
	Currency      string   `json:"currency"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
	PetFriendly   bool     `json:"pet_friendly"`
	Source        string   `json:"source"`
	URL           string   `json:"url"`
	ImageURL      string   `json:"image_url,omitempty"`
	Images        []string `json:"images,omitempty"`
	// FromCache marks a listing served from the search cache instead of a
	// live fetch. It is set on the way out and never persisted.
	FromCache bool `json:"from_cache,omitempty"`
}

// ScoredDeal is a validated listing after ranking. Prices are normalized to
// EUR; the original currency and price are preserved for display.
type ScoredDeal struct {
	RankScore        float64  `json:"rank_score"`
	Name             string   `json:"name"`
	Location         string   `json:"location"`
	PricePerNight    float64  `json:"price_per_night"`
	TotalCostForTrip float64  `json:"total_cost_for_trip"`
	Rating           float64  `json:"rating"`
	Reviews          int      `json:"reviews"`
	PetFriendly      bool     `json:"pet_friendly"`
	Source           string   `json:"source"`
	URL              string   `json:"url"`
	ImageURL         string   `json:"image_url,omitempty"`
	Images           []string `json:"images,omitempty"`
	Currency         string   `json:"currency"`
	OriginalCurrency string   `json:"original_currency"`
	OriginalPrice    float64  `json:"original_price_per_night"`
	Recommendation   string   `json:"recommendation"`
	FromCache        bool     `json:"from_cache,omitempty"`
}
