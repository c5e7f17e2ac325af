// Package sources contains the pluggable fetch strategies for each upstream
// listing provider. The rest of the system only sees the SourceStrategy
// contract and never touches site-specific markup.
package sources

import (
	"context"
	"strconv"
	"time"

	"github.com/tripdeals/deals-backend/models"
)

// Strategy names. The fallback strategy is always routed last.
const (
	StrategyHTTP     = "http"
	StrategyBrowser  = "browser"
	StrategyFallback = "fallback"
)

// SearchQuery carries the parameters one strategy invocation needs.
type SearchQuery struct {
	Destination string
	CheckIn     time.Time
	CheckOut    time.Time
	Adults      int
	Children    int
	Pets        int
	BudgetMax   float64
}

// Nights returns the stay length in whole nights.
func (q SearchQuery) Nights() int {
	n := int(q.CheckOut.Sub(q.CheckIn).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// Params flattens the query into a string map for cache key derivation.
func (q SearchQuery) Params() map[string]string {
	return map[string]string{
		"destination": q.Destination,
		"checkin":     q.CheckIn.Format("2006-01-02"),
		"checkout":    q.CheckOut.Format("2006-01-02"),
		"adults":      strconv.Itoa(q.Adults),
		"children":    strconv.Itoa(q.Children),
		"pets":        strconv.Itoa(q.Pets),
	}
}

// SourceStrategy is one fetch method for one upstream provider. Search
// returns nightly-priced listings or fails with a typed fetch error so the
// router and backoff can switch on the error kind.
type SourceStrategy interface {
	Name() string
	Search(ctx context.Context, query SearchQuery) ([]models.Listing, error)
}

// Source groups the strategies available for one upstream provider.
type Source struct {
	Name       string
	Strategies []SourceStrategy
}

// StrategyNames lists this source's strategy names in configured order.
func (s Source) StrategyNames() []string {
	names := make([]string, len(s.Strategies))
	for i, st := range s.Strategies {
		names[i] = st.Name()
	}
	return names
}

// ByName returns the strategy with the given name, or nil.
func (s Source) ByName(name string) SourceStrategy {
	for _, st := range s.Strategies {
		if st.Name() == name {
			return st
		}
	}
	return nil
}
