package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/romangod6/store-insights/internal/models"
	"github.com/romangod6/store-insights/internal/utils"
)

// ErrStoreUnreachable means the store's home page could not be fetched, so no
// field scraper was run.
var ErrStoreUnreachable = errors.New("store unreachable")

type AggregatorConfig struct {
	// FieldTimeout bounds each scraper individually.
	FieldTimeout time.Duration
	// HomeTimeout bounds the initial home page fetch.
	HomeTimeout time.Duration
	Logging     utils.LoggerOptions
}

// Aggregator runs every field scraper for one store and merges the results.
type Aggregator struct {
	fetcher  PageFetcher
	scrapers []Scraper
	config   AggregatorConfig
}

func NewAggregator(fetcher PageFetcher, scrapers []Scraper, config AggregatorConfig) *Aggregator {
	if config.FieldTimeout <= 0 {
		config.FieldTimeout = 20 * time.Second
	}
	if config.HomeTimeout <= 0 {
		config.HomeTimeout = config.FieldTimeout
	}
	return &Aggregator{
		fetcher:  fetcher,
		scrapers: scrapers,
		config:   config,
	}
}

type outcome struct {
	content  *models.StoreContent
	err      error
	duration time.Duration
}

// Aggregate extracts a complete StoreInsights record for rawURL.
func (a *Aggregator) Aggregate(ctx context.Context, rawURL string) (*models.StoreInsights, error) {
	storeURL, err := models.NormalizeStoreURL(rawURL)
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewExtractionLogger(models.StoreHost(storeURL), a.config.Logging)
	if err != nil {
		log.Printf("Failed to create extraction logger for %s: %v", storeURL, err)
		logger = utils.NewDiscardLogger()
	}
	defer logger.Close()

	logger.LogInfo("Starting extraction for %s with %d scrapers", storeURL, len(a.scrapers))

	homeCtx, cancel := context.WithTimeout(ctx, a.config.HomeTimeout)
	home, err := a.fetcher.Get(homeCtx, storeURL)
	cancel()
	if err != nil {
		logger.LogError("Home page unreachable: %v", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnreachable, storeURL, err)
	}
	if !home.OK() {
		logger.LogError("Home page answered HTTP %d", home.StatusCode)
		return nil, fmt.Errorf("%w: %s answered HTTP %d", ErrStoreUnreachable, storeURL, home.StatusCode)
	}

	site := &Storefront{BaseURL: storeURL, HomeHTML: home.Body}

	// Each goroutine writes only its own slot.
	results := make([]outcome, len(a.scrapers))
	var wg sync.WaitGroup
	for i, s := range a.scrapers {
		wg.Add(1)
		go func(i int, s Scraper) {
			defer wg.Done()
			results[i] = a.run(ctx, s, site)
		}(i, s)
	}
	wg.Wait()

	insights := models.NewStoreInsights(storeURL)
	for i, s := range a.scrapers {
		a.merge(insights, s, results[i], logger)
	}
	insights.EnsureCollections()

	logger.LogInfo("Extraction finished for %s: %d products, %d hero products, %d/3 policies, %d FAQs",
		storeURL, len(insights.Products), len(insights.HeroProducts), insights.PolicyCount(), len(insights.FAQs))

	return insights, nil
}

// run executes one scraper under its own deadline. It returns when the
// scraper finishes or the deadline passes, whichever comes first, so a
// scraper that ignores its context cannot hold up the aggregation.
func (a *Aggregator) run(parent context.Context, s Scraper, site *Storefront) outcome {
	ctx, cancel := context.WithTimeout(parent, a.config.FieldTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("scraper %s panicked: %v", s.Name(), r)}
			}
		}()
		content, err := s.Extract(ctx, site)
		done <- outcome{content: content, err: err}
	}()

	select {
	case res := <-done:
		res.duration = time.Since(start)
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.err = fmt.Errorf("timed out after %s: %w", a.config.FieldTimeout, res.err)
		}
		if res.err == nil && res.content == nil {
			res.err = fmt.Errorf("scraper %s returned no content", s.Name())
		}
		return res
	case <-ctx.Done():
		err := fmt.Errorf("cancelled: %w", ctx.Err())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", a.config.FieldTimeout, ctx.Err())
		}
		return outcome{err: err, duration: time.Since(start)}
	}
}

func (a *Aggregator) merge(insights *models.StoreInsights, s Scraper, res outcome, logger *utils.ExtractionLogger) {
	if res.err != nil {
		logger.LogError("Scraper %s failed after %s: %v", s.Name(), res.duration, res.err)
		for _, f := range s.Fields() {
			insights.FieldStatus[f] = models.Failed(res.err.Error())
		}
		return
	}

	for _, f := range s.Fields() {
		status := res.content.Status(f)
		if status.State == models.FieldPresent {
			insights.CopyField(f, res.content)
		}
		insights.FieldStatus[f] = status
		logger.LogDebug("Field %s: %s %s", f, status.State, status.Reason)
	}

	logger.LogInfo("Scraper %s finished in %s", s.Name(), res.duration)
}
