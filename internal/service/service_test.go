package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/store-insights/internal/models"
	"github.com/romangod6/store-insights/internal/scraper"
	"github.com/romangod6/store-insights/internal/storage"
)

type stubAggregator struct {
	mu       sync.Mutex
	calls    map[string]int
	build    func(storeURL string) (*models.StoreInsights, error)
	delay    time.Duration
	inFlight int
	maxSeen  int
}

func newStubAggregator(build func(storeURL string) (*models.StoreInsights, error)) *stubAggregator {
	return &stubAggregator{calls: map[string]int{}, build: build}
}

func (a *stubAggregator) Aggregate(ctx context.Context, rawURL string) (*models.StoreInsights, error) {
	storeURL, err := models.NormalizeStoreURL(rawURL)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.calls[storeURL]++
	a.inFlight++
	if a.inFlight > a.maxSeen {
		a.maxSeen = a.inFlight
	}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight--
		a.mu.Unlock()
	}()

	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	return a.build(storeURL)
}

func (a *stubAggregator) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		n += c
	}
	return n
}

func (a *stubAggregator) count(storeURL string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[storeURL]
}

type stubFinder struct {
	urls    []string
	err     error
	brand   string
	exclude []string
}

func (f *stubFinder) Find(ctx context.Context, brand string, maxResults int, exclude ...string) ([]string, error) {
	f.brand = brand
	f.exclude = exclude
	if maxResults > 0 && len(f.urls) > maxResults {
		return f.urls[:maxResults], f.err
	}
	return f.urls, f.err
}

// failingStore fails every write.
type failingStore struct {
	storage.Store
}

func (s *failingStore) SaveStoreInsights(ctx context.Context, insights *models.StoreInsights) error {
	return errors.New("database is locked")
}

func newSQLiteStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Initialize())
	t.Cleanup(func() { s.Close() })
	return s
}

func storeWithProducts(storeURL, brand string, prices ...string) *models.StoreInsights {
	in := models.NewStoreInsights(storeURL)
	in.BrandName = brand
	for i, p := range prices {
		in.Products = append(in.Products, models.Product{
			ID:       fmt.Sprintf("%d", i+1),
			Title:    fmt.Sprintf("%s item %d", brand, i+1),
			Price:    p,
			Category: "Shirts",
			Tags:     []string{"linen"},
		})
	}
	in.FieldStatus[models.FieldProducts] = models.Present()
	return in
}

func TestExtractCachesResult(t *testing.T) {
	store := newSQLiteStore(t)
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return storeWithProducts(storeURL, "Example", "10.00", "20.00"), nil
	})
	svc := New(store, agg, &stubFinder{}, Config{})
	ctx := context.Background()

	first, cached, err := svc.Extract(ctx, "Example.com/collections/all", false)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "https://example.com", first.StoreURL)
	assert.Len(t, first.Products, 2)

	second, cached, err := svc.Extract(ctx, "https://example.com", false)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, agg.count("https://example.com"))

	refreshed, cached, err := svc.Extract(ctx, "https://example.com", true)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, agg.count("https://example.com"))
	// The cached record keeps its identity across re-extraction.
	assert.Equal(t, first.ID, refreshed.ID)
}

func TestExtractUnreachableWritesNothing(t *testing.T) {
	store := newSQLiteStore(t)
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return nil, fmt.Errorf("%w: %s: connection refused", scraper.ErrStoreUnreachable, storeURL)
	})
	svc := New(store, agg, &stubFinder{}, Config{})
	ctx := context.Background()

	insights, _, err := svc.Extract(ctx, "https://unreachable.invalid", false)
	assert.ErrorIs(t, err, scraper.ErrStoreUnreachable)
	assert.Nil(t, insights)

	list, err := store.ListStoreInsights(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExtractInvalidURL(t *testing.T) {
	agg := newStubAggregator(func(string) (*models.StoreInsights, error) {
		t.Fatal("aggregator must not run for invalid input")
		return nil, nil
	})
	svc := New(newSQLiteStore(t), agg, &stubFinder{}, Config{})

	_, _, err := svc.Extract(context.Background(), "ftp://example.com", false)
	assert.ErrorIs(t, err, models.ErrInvalidURL)
}

func TestExtractPersistenceErrorKeepsData(t *testing.T) {
	store := &failingStore{Store: newSQLiteStore(t)}
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return storeWithProducts(storeURL, "Example", "10.00"), nil
	})
	svc := New(store, agg, &stubFinder{}, Config{})

	insights, _, err := svc.Extract(context.Background(), "https://example.com", false)
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "https://example.com", persistErr.StoreURL)
	require.NotNil(t, insights)
	assert.Len(t, insights.Products, 1)
}

func TestGetAndDelete(t *testing.T) {
	store := newSQLiteStore(t)
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return storeWithProducts(storeURL, "Example", "10.00"), nil
	})
	svc := New(store, agg, &stubFinder{}, Config{})
	ctx := context.Background()

	_, err := svc.Get(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.Extract(ctx, "https://example.com", false)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "HTTPS://EXAMPLE.COM/")
	require.NoError(t, err)
	assert.Equal(t, "Example", got.BrandName)

	list, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := svc.Delete(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Get(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeCompetitors(t *testing.T) {
	store := newSQLiteStore(t)
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		switch storeURL {
		case "https://origin.com":
			return storeWithProducts(storeURL, "Origin", "20.00", "40.00"), nil
		case "https://close.com":
			return storeWithProducts(storeURL, "Close", "30.00"), nil
		case "https://far.com":
			return storeWithProducts(storeURL, "Far", "300.00"), nil
		default:
			return nil, fmt.Errorf("%w: %s", scraper.ErrStoreUnreachable, storeURL)
		}
	})
	finder := &stubFinder{urls: []string{"https://far.com", "https://down.com", "https://close.com"}}
	svc := New(store, agg, finder, Config{MaxConcurrentCompetitors: 2})
	ctx := context.Background()

	report, err := svc.AnalyzeCompetitors(ctx, "origin.com", 5)
	require.NoError(t, err)

	assert.Equal(t, "Origin", finder.brand)
	assert.Equal(t, []string{"https://origin.com"}, finder.exclude)
	assert.Equal(t, "https://origin.com", report.Store.StoreURL)

	require.Len(t, report.Competitors, 2)
	assert.Equal(t, "https://close.com", report.Competitors[0].Insights.StoreURL)
	assert.Equal(t, 1, report.Competitors[0].Rank)
	assert.Equal(t, "https://far.com", report.Competitors[1].Insights.StoreURL)
	assert.Equal(t, 2, report.Competitors[1].Rank)
	assert.Greater(t, report.Competitors[0].Similarity, report.Competitors[1].Similarity)
	assert.Contains(t, report.Summary, "Competitors analyzed: 2")

	// Competitors are cached like any other store.
	cached, err := svc.Get(ctx, "https://close.com")
	require.NoError(t, err)
	assert.Equal(t, "Close", cached.BrandName)

	analyses, err := svc.ListAnalyses(ctx, "https://origin.com")
	require.NoError(t, err)
	assert.Len(t, analyses, 2)
}

func TestAnalyzeCompetitorsRespectsMax(t *testing.T) {
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return storeWithProducts(storeURL, "Brand", "10.00"), nil
	})
	finder := &stubFinder{urls: []string{"https://a.com", "https://b.com", "https://c.com", "https://d.com", "https://e.com"}}
	svc := New(newSQLiteStore(t), agg, finder, Config{MaxConcurrentCompetitors: 2})
	agg.delay = 20 * time.Millisecond

	report, err := svc.AnalyzeCompetitors(context.Background(), "https://origin.com", 3)
	require.NoError(t, err)
	assert.Len(t, report.Competitors, 3)
	assert.LessOrEqual(t, agg.maxSeen, 2)
}

func TestAnalyzeCompetitorsFallsBackToDomainBrand(t *testing.T) {
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return models.NewStoreInsights(storeURL), nil
	})
	finder := &stubFinder{err: errors.New("search unavailable")}
	svc := New(newSQLiteStore(t), agg, finder, Config{})

	report, err := svc.AnalyzeCompetitors(context.Background(), "https://www.allbirds.com", 0)
	require.NoError(t, err)
	assert.Equal(t, "allbirds", finder.brand)
	assert.Empty(t, report.Competitors)
	assert.NotNil(t, report.Competitors)
}

func TestAnalyzeCompetitorsOriginUnreachable(t *testing.T) {
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return nil, scraper.ErrStoreUnreachable
	})
	svc := New(newSQLiteStore(t), agg, &stubFinder{}, Config{})

	_, err := svc.AnalyzeCompetitors(context.Background(), "https://origin.com", 3)
	assert.ErrorIs(t, err, scraper.ErrStoreUnreachable)
}

func TestExtractCompetitorsStopsOnCancel(t *testing.T) {
	agg := newStubAggregator(func(storeURL string) (*models.StoreInsights, error) {
		return storeWithProducts(storeURL, "Brand", "10.00"), nil
	})
	svc := New(newSQLiteStore(t), agg, &stubFinder{}, Config{MaxConcurrentCompetitors: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan []*models.StoreInsights)
	go func() {
		done <- svc.extractCompetitors(ctx, []string{"https://a.com", "https://b.com", "https://c.com"})
	}()

	select {
	case results := <-done:
		assert.Len(t, results, 3)
		for _, r := range results {
			assert.Nil(t, r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("extraction did not stop after cancellation")
	}
	assert.Equal(t, 0, agg.total())
}
