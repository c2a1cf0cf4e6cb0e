package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/romangod6/store-insights/internal/fetch"
	"github.com/romangod6/store-insights/internal/models"
)

// PageFetcher is the subset of fetch.Fetcher the scrapers need.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// Scraper extracts the fields it owns from one store.
//
// The returned content carries a status for each owned field: present when
// data was found, absent when the store simply does not have it. Extract
// returns an error only when the data could not be determined at all, e.g.
// every candidate page failed at the transport level. A multi-field scraper
// may mark individual fields failed in the returned content instead.
type Scraper interface {
	Name() string
	Fields() []models.Field
	Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error)
}

// Storefront is the read-only view of a store shared by all scrapers of one
// aggregation. HomeHTML must not be modified.
type Storefront struct {
	BaseURL  string
	HomeHTML []byte
}

// Resolve turns a path or relative link into an absolute URL on the store.
func (s *Storefront) Resolve(ref string) string {
	return resolveURL(s.BaseURL, ref)
}

type Options struct {
	Currency        string
	ProductPageSize int
	MaxProductPages int
	MaxHeroProducts int
	PolicyMaxChars  int
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.ProductPageSize <= 0 || o.ProductPageSize > 250 {
		o.ProductPageSize = 250
	}
	if o.MaxProductPages <= 0 {
		o.MaxProductPages = 20
	}
	if o.MaxHeroProducts <= 0 {
		o.MaxHeroProducts = 10
	}
	if o.PolicyMaxChars <= 0 {
		o.PolicyMaxChars = 2000
	}
	return o
}

// DefaultScrapers assembles the fixed, ordered scraper set used for every
// aggregation.
func DefaultScrapers(f PageFetcher, opts Options) []Scraper {
	opts = opts.withDefaults()
	return []Scraper{
		&BrandScraper{},
		&ProductsScraper{fetcher: f, opts: opts},
		&HeroProductsScraper{opts: opts},
		&PoliciesScraper{fetcher: f, opts: opts},
		&FAQScraper{fetcher: f},
		&SocialScraper{},
		&ContactScraper{fetcher: f},
		&LinksScraper{},
	}
}

func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// firstFound fetches candidate paths in order and returns the first page that
// answers 2xx. A nil page with a nil error means every candidate answered but
// none had the page; a non-nil error means no answer was usable and at least
// one request failed at the transport level.
func firstFound(ctx context.Context, f PageFetcher, site *Storefront, paths []string) (*fetch.Page, error) {
	var transportErr error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := f.Get(ctx, site.Resolve(p))
		if err != nil {
			transportErr = err
			continue
		}
		if page.OK() && len(page.Body) > 0 {
			return page, nil
		}
	}
	return nil, transportErr
}
