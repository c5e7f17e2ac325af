package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/shared"
	"github.com/tripdeals/deals-backend/sources"
)

const (
	destinationStagger = 500 * time.Millisecond
	fetchMaxRetries    = 3
	fetchBaseDelay     = 2 * time.Second
)

// SearchOrchestrator coordinates the whole search: per-destination fan-out,
// cache lookups, router-ordered strategy attempts with pacing and retries,
// then validation, alerting and ranking of the aggregate.
type SearchOrchestrator struct {
	sources   []sources.Source
	router    *AdaptiveRouter
	metrics   *StrategyMetrics
	cache     *SearchCache
	delayer   *shared.RequestDelayer
	alerts    *PriceAlertSystem
	validator *ListingValidator
	ranker    *DealRanker
	warmer    *SessionWarmer
	runs      *RunTracker

	backoffBase time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// OrchestratorDeps carries the collaborating services; all are required
// except Warmer and Runs.
type OrchestratorDeps struct {
	Sources   []sources.Source
	Router    *AdaptiveRouter
	Metrics   *StrategyMetrics
	Cache     *SearchCache
	Delayer   *shared.RequestDelayer
	Alerts    *PriceAlertSystem
	Validator *ListingValidator
	Ranker    *DealRanker
	Warmer    *SessionWarmer
	Runs      *RunTracker
}

// NewSearchOrchestrator wires the orchestrator from its dependencies.
func NewSearchOrchestrator(deps OrchestratorDeps) *SearchOrchestrator {
	return &SearchOrchestrator{
		sources:     deps.Sources,
		router:      deps.Router,
		metrics:     deps.Metrics,
		cache:       deps.Cache,
		delayer:     deps.Delayer,
		alerts:      deps.Alerts,
		validator:   deps.Validator,
		ranker:      deps.Ranker,
		warmer:      deps.Warmer,
		runs:        deps.Runs,
		backoffBase: fetchBaseDelay,
		sleep:       sleepFor,
		now:         time.Now,
	}
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type destinationResult struct {
	destination string
	listings    []models.Listing
	failed      bool
}

// FindBestDeals runs the full search for the request and returns the ranked
// result payload. Individual destination failures degrade to empty results
// and are reported in FailedSearches, never as an error.
func (o *SearchOrchestrator) FindBestDeals(ctx context.Context, req *models.SearchRequest, rankOpts *RankOptions) (*models.SearchResult, error) {
	if len(req.Destinations) == 0 {
		return nil, fmt.Errorf("no destinations given")
	}

	var runID string
	if o.runs != nil {
		runID = o.runs.StartRun("SearchOrchestrator", map[string]interface{}{
			"destinations": req.Destinations,
			"budget":       req.Budget,
		})
	}

	logrus.WithFields(logrus.Fields{
		"component":    "SearchOrchestrator",
		"destinations": len(req.Destinations),
		"nights":       req.Nights(),
	}).Info("Starting deal search")

	results := make(chan destinationResult, len(req.Destinations))
	var wg sync.WaitGroup
	for i, destination := range req.Destinations {
		wg.Add(1)
		go func(index int, dest string) {
			defer wg.Done()
			stagger := time.Duration(index) * destinationStagger
			listings, failed := o.searchDestination(ctx, dest, req, stagger)
			results <- destinationResult{destination: dest, listings: listings, failed: failed}
		}(i, destination)
	}
	wg.Wait()
	close(results)

	var raw []models.Listing
	var failedSearches []string
	for res := range results {
		raw = append(raw, res.listings...)
		if res.failed {
			failedSearches = append(failedSearches, res.destination)
			if o.runs != nil {
				o.runs.AddCounter(runID, "destinations_failed", 1)
			}
		}
	}

	raw = dedupeListings(raw)
	valid, report := o.validator.Validate(raw, req)

	var alertMessages []string
	if o.alerts != nil {
		for _, l := range valid {
			id := PropertyID(l.URL, l.Name)
			if msg := o.alerts.TrackProperty(ctx, id, l.Name, l.URL, l.Source, l.PricePerNight, nil); msg != "" {
				alertMessages = append(alertMessages, msg)
			}
		}
	}

	nights := req.Nights()
	deals := o.ranker.Rank(valid, nights, rankOpts)
	summary := o.ranker.GenerateSummary(deals, nights)

	if o.runs != nil {
		o.runs.AddCounter(runID, "raw_listings", float64(report.TotalRaw))
		o.runs.AddCounter(runID, "valid_listings", float64(report.ValidCount))
		o.runs.SetAttribute(runID, "failed_searches", failedSearches)
		o.runs.EndRun(runID, nil)
	}

	return &models.SearchResult{
		Timestamp:      o.now(),
		Destinations:   req.Destinations,
		CheckIn:        req.CheckIn.Format("2006-01-02"),
		CheckOut:       req.CheckOut.Format("2006-01-02"),
		Nights:         nights,
		GroupSize:      req.GroupSize,
		Pets:           req.Pets,
		Budget:         req.Budget,
		BudgetType:     req.BudgetType,
		TotalDeals:     len(deals),
		Validation:     report,
		PriceAlerts:    alertMessages,
		Deals:          deals,
		Summary:        summary,
		FailedSearches: failedSearches,
	}, nil
}

// searchDestination gathers listings for one destination from every source.
// The bool result reports whether every source ended in failure. Cache hits
// skip the stagger delay; only live fetches are spread out.
func (o *SearchOrchestrator) searchDestination(ctx context.Context, destination string, req *models.SearchRequest, stagger time.Duration) ([]models.Listing, bool) {
	query := sources.SearchQuery{
		Destination: destination,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Adults:      req.GroupSize,
		Pets:        req.Pets,
		BudgetMax:   req.NightlyCap(),
	}

	cacheKey := MakeKey("search", withDestination(query.Params(), req))
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, cacheKey); ok {
			for i := range cached {
				cached[i].FromCache = true
			}
			logrus.WithFields(logrus.Fields{
				"component":   "SearchOrchestrator",
				"destination": destination,
				"listings":    len(cached),
			}).Info("Serving destination from cache")
			return cached, false
		}
	}

	// Spread live fetches out so the destinations do not all hit the
	// upstreams at the same instant.
	if stagger > 0 {
		if err := o.sleep(ctx, stagger); err != nil {
			return nil, true
		}
	}

	type sourceOutcome struct {
		listings []models.Listing
		err      error
	}
	outcomes := make(chan sourceOutcome, len(o.sources))
	var wg sync.WaitGroup
	for _, src := range o.sources {
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()
			listings, err := o.searchSource(ctx, src, query)
			outcomes <- sourceOutcome{listings: listings, err: err}
		}(src)
	}
	wg.Wait()
	close(outcomes)

	var listings []models.Listing
	failures := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			failures++
			continue
		}
		listings = append(listings, outcome.listings...)
	}

	if len(listings) > 0 && o.cache != nil {
		o.cache.Set(ctx, cacheKey, listings)
	}

	allFailed := failures == len(o.sources) && len(o.sources) > 0
	if allFailed {
		logrus.WithFields(logrus.Fields{
			"component":   "SearchOrchestrator",
			"destination": destination,
			"event":       "destination_degraded",
		}).Warn("Every source failed for destination")
	}
	return listings, allFailed
}

// searchSource walks the router-ordered strategies for one source until one
// yields listings. Transient failures retry with backoff inside a strategy;
// permanent ones move straight to the next strategy.
func (o *SearchOrchestrator) searchSource(ctx context.Context, src sources.Source, query sources.SearchQuery) ([]models.Listing, error) {
	if o.router.ShouldSkipSource(src.Name) {
		return nil, shared.NewFetchError(shared.ErrKindOther, src.Name, "",
			"source in failure cooldown", nil)
	}

	order := o.router.GetStrategyOrder(src.Name, src.StrategyNames())
	var lastErr error
	for _, strategyName := range order {
		strategy := src.ByName(strategyName)
		if strategy == nil {
			continue
		}
		listings, err := o.attemptStrategy(ctx, src.Name, strategy, query)
		if err == nil {
			return listings, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = shared.NewFetchError(shared.ErrKindOther, src.Name, "", "no strategies configured", nil)
	}
	return nil, lastErr
}

func (o *SearchOrchestrator) attemptStrategy(ctx context.Context, sourceName string, strategy sources.SourceStrategy, query sources.SearchQuery) ([]models.Listing, error) {
	backoff := shared.NewExponentialBackoff(fetchMaxRetries, o.backoffBase)

	for {
		if err := o.delayer.Wait(ctx); err != nil {
			return nil, err
		}
		if o.warmer != nil && strategy.Name() == sources.StrategyHTTP {
			o.warmer.Warm(ctx, "https://www.booking.com/")
		}

		start := o.now()
		listings, err := strategy.Search(ctx, query)
		duration := o.now().Sub(start)

		o.metrics.Record(ctx, sourceName, strategy.Name(), err == nil, duration, len(listings), err)

		if err == nil {
			backoff.Reset()
			return listings, nil
		}

		if fe, ok := err.(*shared.FetchError); ok {
			fe.LogError()
		}
		if shared.KindOf(err) == shared.ErrKindRateLimited {
			o.delayer.NotifyPressure()
		}
		if !shared.IsTransient(err) || !backoff.ShouldRetry() {
			return nil, err
		}
		if werr := backoff.Wait(ctx); werr != nil {
			return nil, werr
		}
	}
}

// withDestination folds the request-level knobs that affect results into
// the cache key parameters.
func withDestination(params map[string]string, req *models.SearchRequest) map[string]string {
	params["budget"] = fmt.Sprintf("%.2f", req.Budget)
	params["budget_type"] = req.BudgetType
	return params
}

// dedupeListings drops duplicates by URL, falling back to name+location for
// listings without one. First occurrence wins.
func dedupeListings(listings []models.Listing) []models.Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		key := l.URL
		if key == "" {
			key = l.Name + "|" + l.Location
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
