package models

import "time"

// PriceObservation is one recorded price point for a tracked property.
type PriceObservation struct {
	Price  float64   `json:"price"`
	Date   time.Time `json:"date"`
	Source string    `json:"source"`
}

// TrackedProperty holds the bounded price history and alert state for one
// property. History is append-only and trimmed to the most recent entries;
// LastAlert supports the alert cooldown.
type TrackedProperty struct {
	Name           string             `json:"name"`
	URL            string             `json:"url"`
	Source         string             `json:"source"`
	Prices         []PriceObservation `json:"prices"`
	AlertThreshold float64            `json:"alert_threshold"`
	LastAlert      *time.Time         `json:"last_alert,omitempty"`
}
