package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/romangod6/store-insights/internal/fetch"
)

const homeHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Example Store – Everyday goods</title>
  <meta name="description" content="Goods for every day.">
  <meta property="og:site_name" content="Example Store">
</head>
<body>
  <section class="featured">
    <div class="product-card" data-product-id="101">
      <a href="/products/blue-shirt"><img src="//cdn.example.com/blue.jpg" alt="Blue Shirt"><h3 class="card__heading">Blue Shirt</h3></a>
      <span class="price">$20.00</span>
    </div>
    <div class="product-card">
      <a href="/collections/summer/products/red-hat?variant=7"><h3 class="card__heading">Red Hat</h3></a>
    </div>
  </section>
  <footer>
    <a href="https://instagram.com/examplestore">Instagram</a>
    <a href="https://www.facebook.com/sharer/sharer.php?u=x">Share</a>
    <a href="https://facebook.com/examplestore/">Facebook</a>
    <a href="https://x.com/examplestore">X</a>
    <a href="https://www.fox.com/news">Partner</a>
    <a href="/pages/about-us">About us</a>
    <a href="/apps/track-order">Track your order</a>
    <a href="/collections/all">Shop all</a>
    <a href="#top">Back to top</a>
    <a href="mailto:Hello@Example-Store.com?subject=Hi">Email us</a>
  </footer>
</body>
</html>`

const productsPage1 = `{"products":[
  {"id": 1001, "title": "Linen Shirt", "handle": "linen-shirt", "body_html": "<p>Soft <strong>linen</strong> &amp; cotton</p>",
   "vendor": "Example", "product_type": "Shirts", "tags": ["summer", "linen"],
   "variants": [{"price": "49.00", "available": false}, {"price": "52.00", "available": true}],
   "images": [{"src": "https://cdn.example.com/linen.jpg"}]},
  {"id": 1002, "title": "Canvas Tote", "handle": "canvas-tote", "body_html": "", "product_type": "Bags",
   "tags": "eco, bags", "variants": [{"price": "15.00", "available": false}], "images": []}
]}`

// fakeStore serves a minimal storefront. Unknown paths answer 404.
func fakeStore(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}
}

// productsHandler serves pages in order and an empty page afterwards.
func productsHandler(pages ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		page := 1
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		if page >= 1 && page <= len(pages) {
			fmt.Fprint(w, pages[page-1])
			return
		}
		fmt.Fprint(w, `{"products":[]}`)
	}
}

func testFetcher() *fetch.Fetcher {
	return fetch.NewFetcher(fetch.Options{UserAgent: "store-insights-test"})
}

func testSite(t *testing.T, srv *httptest.Server, home string) *Storefront {
	t.Helper()
	return &Storefront{BaseURL: srv.URL, HomeHTML: []byte(home)}
}

// failingFetcher fails every URL matched by fail with a transport error and
// counts all requests.
type failingFetcher struct {
	inner PageFetcher
	fail  func(rawURL string) bool
	calls atomic.Int64
}

func (f *failingFetcher) Get(ctx context.Context, rawURL string) (*fetch.Page, error) {
	f.calls.Add(1)
	if f.fail != nil && f.fail(rawURL) {
		return nil, fmt.Errorf("%w: GET %s: connection reset by peer", fetch.ErrTransport, rawURL)
	}
	return f.inner.Get(ctx, rawURL)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
