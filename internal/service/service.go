package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/romangod6/store-insights/internal/models"
	"github.com/romangod6/store-insights/internal/storage"
)

// ErrNotFound means the store has no cached insights.
var ErrNotFound = errors.New("store insights not found")

// PersistenceError reports a cache failure. Insights extracted before the
// failure are still returned next to it.
type PersistenceError struct {
	StoreURL string
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.StoreURL == "" {
		return fmt.Sprintf("insights cache: %v", e.Err)
	}
	return fmt.Sprintf("insights cache for %s: %v", e.StoreURL, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Aggregator interface {
	Aggregate(ctx context.Context, rawURL string) (*models.StoreInsights, error)
}

type CompetitorFinder interface {
	Find(ctx context.Context, brand string, maxResults int, exclude ...string) ([]string, error)
}

type Config struct {
	// MaxConcurrentCompetitors bounds the competitor aggregations running at
	// once for one analysis.
	MaxConcurrentCompetitors int
}

// Service is the request-level entry point: it answers from the cache when
// it can and runs an aggregation when it must.
type Service struct {
	store      storage.Store
	aggregator Aggregator
	finder     CompetitorFinder
	config     Config
}

func New(store storage.Store, aggregator Aggregator, finder CompetitorFinder, config Config) *Service {
	if config.MaxConcurrentCompetitors <= 0 {
		config.MaxConcurrentCompetitors = 3
	}
	return &Service{
		store:      store,
		aggregator: aggregator,
		finder:     finder,
		config:     config,
	}
}

// Extract returns the insights for rawURL and whether they came from the
// cache. A fresh aggregation runs on a cache miss or when refresh is set,
// and its result replaces the cached record.
func (s *Service) Extract(ctx context.Context, rawURL string, refresh bool) (*models.StoreInsights, bool, error) {
	storeURL, err := models.NormalizeStoreURL(rawURL)
	if err != nil {
		return nil, false, err
	}

	if !refresh {
		cached, err := s.store.GetStoreInsights(ctx, storeURL)
		switch {
		case err != nil:
			log.Printf("Cache lookup failed for %s, extracting: %v", storeURL, err)
		case cached != nil:
			return cached, true, nil
		}
	}

	insights, err := s.aggregator.Aggregate(ctx, storeURL)
	if err != nil {
		return nil, false, err
	}

	if err := s.store.SaveStoreInsights(ctx, insights); err != nil {
		log.Printf("Failed to save insights for %s: %v", storeURL, err)
		return insights, false, &PersistenceError{StoreURL: storeURL, Err: err}
	}

	return insights, false, nil
}

// Get returns the cached insights for rawURL or ErrNotFound.
func (s *Service) Get(ctx context.Context, rawURL string) (*models.StoreInsights, error) {
	storeURL, err := models.NormalizeStoreURL(rawURL)
	if err != nil {
		return nil, err
	}

	insights, err := s.store.GetStoreInsights(ctx, storeURL)
	if err != nil {
		return nil, &PersistenceError{StoreURL: storeURL, Err: err}
	}
	if insights == nil {
		return nil, ErrNotFound
	}
	return insights, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.StoreInsights, error) {
	list, err := s.store.ListStoreInsights(ctx, limit, offset)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return list, nil
}

// Delete removes the cached insights for rawURL and reports whether there
// were any.
func (s *Service) Delete(ctx context.Context, rawURL string) (bool, error) {
	storeURL, err := models.NormalizeStoreURL(rawURL)
	if err != nil {
		return false, err
	}

	deleted, err := s.store.DeleteStoreInsights(ctx, storeURL)
	if err != nil {
		return false, &PersistenceError{StoreURL: storeURL, Err: err}
	}
	return deleted, nil
}

// Ping checks the cache connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
