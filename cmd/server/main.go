package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/romangod6/store-insights/config"
	"github.com/romangod6/store-insights/internal/api"
	"github.com/romangod6/store-insights/internal/competitor"
	"github.com/romangod6/store-insights/internal/fetch"
	"github.com/romangod6/store-insights/internal/scraper"
	"github.com/romangod6/store-insights/internal/service"
	"github.com/romangod6/store-insights/internal/storage"
	"github.com/romangod6/store-insights/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	fetcher := fetch.NewFetcher(fetch.Options{
		UserAgent:      cfg.Scraper.UserAgent,
		RequestTimeout: cfg.GetRequestTimeout(),
	})

	aggregator := scraper.NewAggregator(fetcher, scraper.DefaultScrapers(fetcher, scraper.Options{
		Currency:        cfg.Scraper.Currency,
		MaxProductPages: cfg.Scraper.MaxProductPages,
		MaxHeroProducts: cfg.Scraper.MaxHeroProducts,
		PolicyMaxChars:  cfg.Scraper.PolicyMaxChars,
	}), scraper.AggregatorConfig{
		FieldTimeout: cfg.GetFieldTimeout(),
		HomeTimeout:  cfg.GetRequestTimeout(),
		Logging: utils.LoggerOptions{
			Dir:   cfg.Logging.Dir,
			Debug: cfg.Logging.Debug,
		},
	})

	finder := competitor.NewFinder(competitor.FinderConfig{
		SearchURL:      cfg.Competitor.SearchURL,
		UserAgent:      cfg.Scraper.UserAgent,
		RequestTimeout: cfg.GetSearchTimeout(),
		DefaultResults: cfg.Competitor.DefaultResults,
		ResultLimit:    cfg.Competitor.ResultLimit,
	})

	svc := service.New(store, aggregator, finder, service.Config{
		MaxConcurrentCompetitors: cfg.Competitor.MaxConcurrent,
	})

	// Initialize API server
	server := api.NewServer(api.ServerConfig{
		Port:         cfg.Server.Port,
		WriteTimeout: cfg.GetWriteTimeout(),
	}, svc)

	// Start the API server
	go func() {
		log.Printf("Starting API server on port %d (%s storage)", cfg.Server.Port, cfg.Database.Driver)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	// Wait for shutdown
	waitForShutdown(cancel, server)
}

func waitForShutdown(cancel context.CancelFunc, server *api.Server) {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down...")
	cancel()

	// Graceful server shutdown
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	log.Println("Server shut down gracefully")
}
