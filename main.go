package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/config"
	"github.com/tripdeals/deals-backend/handlers"
	"github.com/tripdeals/deals-backend/jobs"
	"github.com/tripdeals/deals-backend/services"
	"github.com/tripdeals/deals-backend/shared"
	"github.com/tripdeals/deals-backend/sources"
	"github.com/tripdeals/deals-backend/storage"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Open the embedded store; services degrade to memory-only when it is
	// unavailable, so a failure here is not fatal.
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.StorePath)
	if err != nil {
		log.Printf("Store unavailable, running memory-only: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	// Core services
	metrics := services.NewStrategyMetrics(ctx, store)
	router := services.NewAdaptiveRouter(metrics)
	cache := services.NewSearchCache(ctx, cfg.GetCacheTTL(), store)
	alerts := services.NewPriceAlertSystem(ctx, cfg.GetAlertThreshold(), cfg.GetAlertCooldown(), store)
	favorites := services.NewFavoritesService(ctx, store)
	runs := services.NewRunTracker()

	minDelay, maxDelay := cfg.GetRequestDelays()
	delayer := shared.NewRequestDelayer(minDelay, maxDelay)
	clients := shared.NewHTTPClientFactory(cfg.GetFetchTimeout())
	warmer := services.NewSessionWarmer(clients)

	// Upstream sources and their fetch strategies
	fetchTimeout := cfg.GetFetchTimeout()
	sourceList := []sources.Source{
		{
			Name: "booking",
			Strategies: []sources.SourceStrategy{
				sources.NewBookingHTTPStrategy(fetchTimeout),
			},
		},
		{
			Name: "airbnb",
			Strategies: []sources.SourceStrategy{
				sources.NewAirbnbBrowserStrategy(2 * fetchTimeout),
			},
		},
		{
			Name: "center-parcs",
			Strategies: []sources.SourceStrategy{
				sources.NewCenterParcsFallback(),
			},
		},
	}

	orchestrator := services.NewSearchOrchestrator(services.OrchestratorDeps{
		Sources:   sourceList,
		Router:    router,
		Metrics:   metrics,
		Cache:     cache,
		Delayer:   delayer,
		Alerts:    alerts,
		Validator: services.NewListingValidator(),
		Ranker:    services.NewDealRanker(),
		Warmer:    warmer,
		Runs:      runs,
	})

	log.Println("Deal search services initialized:")
	log.Printf("  - Search cache (TTL: %v)", cfg.GetCacheTTL())
	log.Printf("  - Request pacing (%v - %v base window)", minDelay, maxDelay)
	log.Printf("  - Price alerts (threshold: %.0f%%, cooldown: %v)",
		cfg.GetAlertThreshold()*100, cfg.GetAlertCooldown())
	log.Printf("  - %d upstream sources configured", len(sourceList))

	// Background jobs
	cleanupJob := jobs.NewCacheCleanupJob(cache)
	trimJob := jobs.NewMetricsTrimJob(metrics)
	healthJob := jobs.NewHealthReportJob(router)

	go func() {
		cleanupTicker := time.NewTicker(1 * time.Hour)
		trimTicker := time.NewTicker(12 * time.Hour)
		healthTicker := time.NewTicker(6 * time.Hour)

		for {
			select {
			case <-cleanupTicker.C:
				cleanupJob.Run()
			case <-trimTicker.C:
				trimJob.Run()
			case <-healthTicker.C:
				healthJob.Run()
			}
		}
	}()

	// Handlers
	searchHandler := handlers.NewSearchHandler(orchestrator)
	favoritesHandler := handlers.NewFavoritesHandler(favorites)
	healthHandler := handlers.NewHealthHandler(router, runs, cache, alerts)
	adminHandler := handlers.NewAdminHandler(cache, metrics, cfg.AdminToken)

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", healthHandler.Health)
	app.Get("/health/sources", healthHandler.SourceHealth)

	// Routes
	api := app.Group("/api/v1")

	api.Get("/search", searchHandler.Search)

	api.Get("/favorites", favoritesHandler.GetFavorites)
	api.Post("/favorites", favoritesHandler.AddFavorite)
	api.Delete("/favorites", favoritesHandler.RemoveFavorite)

	admin := api.Group("/admin")
	admin.Delete("/cache", adminHandler.ClearCache)
	admin.Post("/metrics/trim", adminHandler.TrimMetrics)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
