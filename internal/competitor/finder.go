package competitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/romangod6/store-insights/internal/models"
)

// DefaultSearchURL is DuckDuckGo's script-free results page. The %s is
// replaced by the escaped query.
const DefaultSearchURL = "https://html.duckduckgo.com/html/?q=%s"

// ErrSearchFailed is returned when no search query could be completed.
var ErrSearchFailed = errors.New("competitor search failed")

type FinderConfig struct {
	SearchURL      string
	UserAgent      string
	RequestTimeout time.Duration
	// DefaultResults applies when the caller asks for zero or fewer results.
	DefaultResults int
	// ResultLimit caps every request.
	ResultLimit int
}

// Finder discovers candidate competitor storefronts for a brand through a
// search results page. It never scrapes the candidates themselves.
type Finder struct {
	config     FinderConfig
	searchHost string
}

var queryTemplates = []string{
	"%s competitors",
	"similar brands to %s",
	"alternative to %s",
	"brands like %s",
}

var shopifyIndicators = []string{".myshopify.com", "shopify", "/products", "/collections", "/cart"}

// Marketplaces, social networks and search engines are never storefronts
// of an independent brand.
var blockedDomains = []string{
	"duckduckgo.com", "google.com", "bing.com", "yahoo.com",
	"amazon.com", "ebay.com", "etsy.com", "walmart.com", "aliexpress.com", "target.com",
	"facebook.com", "instagram.com", "twitter.com", "x.com", "tiktok.com",
	"youtube.com", "pinterest.com", "linkedin.com", "reddit.com", "quora.com",
	"wikipedia.org", "shopify.com",
}

func NewFinder(config FinderConfig) *Finder {
	if config.SearchURL == "" {
		config.SearchURL = DefaultSearchURL
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 15 * time.Second
	}
	if config.ResultLimit <= 0 {
		config.ResultLimit = 10
	}
	if config.DefaultResults <= 0 {
		config.DefaultResults = 5
	}
	if config.DefaultResults > config.ResultLimit {
		config.DefaultResults = config.ResultLimit
	}

	f := &Finder{config: config}
	if u, err := url.Parse(fmt.Sprintf(config.SearchURL, "")); err == nil {
		f.searchHost = strings.ToLower(u.Hostname())
	}
	return f
}

// Limit returns the number of results Find will return at most for a request
// of maxResults.
func (f *Finder) Limit(maxResults int) int {
	if maxResults <= 0 {
		return f.config.DefaultResults
	}
	if maxResults > f.config.ResultLimit {
		return f.config.ResultLimit
	}
	return maxResults
}

// Find returns up to maxResults normalized store URLs that look like Shopify
// storefronts competing with brand. URLs equal to any of exclude, after
// normalization, are skipped.
func (f *Finder) Find(ctx context.Context, brand string, maxResults int, exclude ...string) ([]string, error) {
	found := []string{}
	brand = normalizeBrand(brand)
	if brand == "" {
		return found, nil
	}
	limit := f.Limit(maxResults)

	seen := make(map[string]struct{})
	for _, raw := range exclude {
		if n, err := models.NormalizeStoreURL(raw); err == nil {
			seen[n] = struct{}{}
		}
	}

	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.config.RequestTimeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if len(found) >= limit {
			return
		}
		candidate, ok := f.candidateURL(e.Request.AbsoluteURL(e.Attr("href")))
		if !ok {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		found = append(found, candidate)
	})

	var lastErr error
	completed := 0
	for _, tmpl := range queryTemplates {
		if len(found) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return found, err
		}

		query := fmt.Sprintf(tmpl, brand)
		searchURL := fmt.Sprintf(f.config.SearchURL, url.QueryEscape(query))
		if err := c.Visit(searchURL); err != nil {
			log.Printf("Competitor search %q failed: %v", query, err)
			lastErr = err
			continue
		}
		completed++
	}

	if completed == 0 && lastErr != nil && len(found) == 0 {
		return found, fmt.Errorf("%w: %w", ErrSearchFailed, lastErr)
	}
	return found, nil
}

// candidateURL decodes a search result link and reports whether it points at
// a plausible storefront. The returned URL is normalized.
func (f *Finder) candidateURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	// Result links on the HTML endpoint are redirects carrying the target in uddg.
	if target := u.Query().Get("uddg"); target != "" {
		t, err := url.Parse(target)
		if err != nil {
			return "", false
		}
		u = t
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || host == f.searchHost || blocked(host) {
		return "", false
	}
	if !looksLikeShopify(u) {
		return "", false
	}

	normalized, err := models.NormalizeStoreURL(u.String())
	if err != nil {
		return "", false
	}
	return normalized, true
}

func blocked(host string) bool {
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func looksLikeShopify(u *url.URL) bool {
	s := strings.ToLower(u.String())
	for _, indicator := range shopifyIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

var domainSuffix = regexp.MustCompile(`\.(myshopify\.com|com|co\.in|co\.uk|com\.au|in|org|net|co|store|shop)$`)

// BrandFromURL derives a brand name from a store URL's domain, for stores
// whose home page does not name the brand.
func BrandFromURL(storeURL string) string {
	normalized, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(models.StoreHost(normalized), "www.")
	return domainSuffix.ReplaceAllString(host, "")
}

func normalizeBrand(brand string) string {
	return strings.Join(strings.Fields(brand), " ")
}
