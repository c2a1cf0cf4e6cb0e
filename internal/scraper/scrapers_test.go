package scraper

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/store-insights/internal/models"
)

func TestProductsScraperFeed(t *testing.T) {
	srv := fakeStore(t, map[string]http.HandlerFunc{
		"/products.json": productsHandler(productsPage1),
	})
	s := &ProductsScraper{fetcher: testFetcher(), opts: Options{Currency: "EUR"}.withDefaults()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)
	require.Equal(t, models.FieldPresent, content.Status(models.FieldProducts).State)

	want := []models.Product{
		{
			ID:          "1001",
			Title:       "Linen Shirt",
			Handle:      "linen-shirt",
			Description: "Soft linen & cotton",
			Price:       "49.00",
			Currency:    "EUR",
			ImageURL:    "https://cdn.example.com/linen.jpg",
			Images:      []string{"https://cdn.example.com/linen.jpg"},
			URL:         srv.URL + "/products/linen-shirt",
			Available:   true,
			Tags:        []string{"summer", "linen"},
			Category:    "Shirts",
			Vendor:      "Example",
		},
		{
			ID:        "1002",
			Title:     "Canvas Tote",
			Handle:    "canvas-tote",
			Price:     "15.00",
			Currency:  "EUR",
			Images:    []string{},
			URL:       srv.URL + "/products/canvas-tote",
			Available: false,
			Tags:      []string{"eco", "bags"},
			Category:  "Bags",
		},
	}
	if diff := cmp.Diff(want, content.Products); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}
}

func TestProductsScraperStopsWhenPageRepeats(t *testing.T) {
	var requests atomic.Int64
	srv := fakeStore(t, map[string]http.HandlerFunc{
		// Ignores the page parameter entirely.
		"/products.json": func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(productsPage1))
		},
	})
	s := &ProductsScraper{fetcher: testFetcher(), opts: Options{}.withDefaults()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)
	assert.Len(t, content.Products, 2)
	assert.Equal(t, int64(2), requests.Load())
}

func TestProductsScraperInvalidLaterPage(t *testing.T) {
	srv := fakeStore(t, map[string]http.HandlerFunc{
		"/products.json": productsHandler(productsPage1, `{"products": [`),
	})
	s := &ProductsScraper{fetcher: testFetcher(), opts: Options{}.withDefaults()}

	_, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	assert.ErrorContains(t, err, "page 2")
}

func TestProductsScraperNotShopify(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "no feed", handler: http.NotFound},
		{name: "html instead of json", handler: htmlHandler("<html><body>Welcome</body></html>")},
		{name: "empty feed", handler: productsHandler(`{"products":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeStore(t, map[string]http.HandlerFunc{"/products.json": tt.handler})
			s := &ProductsScraper{fetcher: testFetcher(), opts: Options{}.withDefaults()}

			content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
			require.NoError(t, err)
			assert.Empty(t, content.Products)
			assert.Equal(t, models.FieldAbsent, content.Status(models.FieldProducts).State)
		})
	}
}

func TestProductsScraperSkipsIncompleteEntries(t *testing.T) {
	srv := fakeStore(t, map[string]http.HandlerFunc{
		"/products.json": productsHandler(`{"products":[
			{"id": 1, "title": ""},
			{"title": "No id"},
			{"id": 2, "title": "Kept", "handle": "kept"},
			{"id": 2, "title": "Duplicate", "handle": "kept"}
		]}`),
	})
	s := &ProductsScraper{fetcher: testFetcher(), opts: Options{}.withDefaults()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)
	require.Len(t, content.Products, 1)
	assert.Equal(t, "Kept", content.Products[0].Title)
	assert.True(t, content.Products[0].Available)
	assert.Equal(t, "0", content.Products[0].Price)
}

func TestProductsScraperToleratesOddScalars(t *testing.T) {
	srv := fakeStore(t, map[string]http.HandlerFunc{
		"/products.json": productsHandler(`{"products":[
			{"id": 1, "title": "Blank price", "variants": [{"price": "", "available": true}]},
			{"id": "2", "title": "String id", "variants": [{"price": 12.5}]},
			{"id": 3, "title": "Null price", "variants": [{"price": null}, {"price": {"amount": "9"}}]}
		]}`),
	})
	s := &ProductsScraper{fetcher: testFetcher(), opts: Options{}.withDefaults()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)
	assert.Equal(t, models.FieldPresent, content.Status(models.FieldProducts).State)
	require.Len(t, content.Products, 3)

	prices := map[string]string{}
	for _, p := range content.Products {
		prices[p.ID] = p.Price
	}
	assert.Equal(t, map[string]string{"1": "0", "2": "12.5", "3": "0"}, prices)
}

func TestBrandScraper(t *testing.T) {
	tests := []struct {
		name     string
		home     string
		wantName string
		wantDesc string
		want     models.FieldState
	}{
		{
			name:     "og site name",
			home:     homeHTML,
			wantName: "Example Store",
			wantDesc: "Goods for every day.",
			want:     models.FieldPresent,
		},
		{
			name:     "title with tagline",
			home:     `<html><head><title>Acme Goods | Handmade since 1990</title></head><body></body></html>`,
			wantName: "Acme Goods",
			want:     models.FieldPresent,
		},
		{
			name:     "og description fallback",
			home:     `<html><head><meta property="og:description" content="  Tea,   loose leaf "></head><body><h1>Leafy</h1></body></html>`,
			wantName: "Leafy",
			wantDesc: "Tea, loose leaf",
			want:     models.FieldPresent,
		},
		{
			name: "nothing",
			home: `<html><body><p>hello</p></body></html>`,
			want: models.FieldAbsent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := (&BrandScraper{}).Extract(context.Background(), &Storefront{BaseURL: "https://shop.example", HomeHTML: []byte(tt.home)})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, content.BrandName)
			assert.Equal(t, tt.wantDesc, content.BrandDescription)
			assert.Equal(t, tt.want, content.Status(models.FieldBrand).State)
		})
	}
}

func TestHeroProductsScraper(t *testing.T) {
	site := &Storefront{BaseURL: "https://shop.example", HomeHTML: []byte(homeHTML)}
	s := &HeroProductsScraper{opts: Options{}.withDefaults()}

	content, err := s.Extract(context.Background(), site)
	require.NoError(t, err)
	require.Len(t, content.HeroProducts, 2)

	first := content.HeroProducts[0]
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "Blue Shirt", first.Title)
	assert.Equal(t, "blue-shirt", first.Handle)
	assert.Equal(t, "$20.00", first.Price)
	assert.Equal(t, "https://shop.example/products/blue-shirt", first.URL)
	assert.Equal(t, "https://cdn.example.com/blue.jpg", first.ImageURL)

	second := content.HeroProducts[1]
	assert.Equal(t, "red-hat", second.ID)
	assert.Equal(t, "Red Hat", second.Title)
}

func TestHeroProductsScraperLimit(t *testing.T) {
	home := `<html><body>
		<a href="/products/a">A</a><a href="/products/b">B</a><a href="/products/c">C</a>
	</body></html>`
	s := &HeroProductsScraper{opts: Options{MaxHeroProducts: 2}.withDefaults()}

	content, err := s.Extract(context.Background(), &Storefront{BaseURL: "https://shop.example", HomeHTML: []byte(home)})
	require.NoError(t, err)
	assert.Len(t, content.HeroProducts, 2)
}

func TestProductHandle(t *testing.T) {
	assert.Equal(t, "blue-shirt", productHandle("/products/blue-shirt"))
	assert.Equal(t, "red-hat", productHandle("https://shop.example/collections/x/products/red-hat?variant=1"))
	assert.Equal(t, "", productHandle("/collections/all"))
	assert.Equal(t, "", productHandle("/products/"))
}

func TestPoliciesScraper(t *testing.T) {
	privacy := `<html><head><title>Privacy Policy – Example Store</title></head><body>
		<header><nav><a href="/">Home</a></nav></header>
		<main><article><h1>Privacy Policy</h1>
		<p>We collect the information you provide when you place an order with us, including your name and shipping address.</p>
		<p>We never sell your personal information to third parties. You can ask us to delete your data at any time.</p>
		</article></main></body></html>`
	srv := fakeStore(t, map[string]http.HandlerFunc{
		"/pages/privacy": htmlHandler(privacy),
		"/pages/returns": htmlHandler(`<html><body><main><p>Returns accepted within 30 days.</p></main></body></html>`),
	})
	s := &PoliciesScraper{fetcher: testFetcher(), opts: Options{}.withDefaults()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)

	require.NotNil(t, content.Policies.Privacy)
	assert.Contains(t, content.Policies.Privacy.Title, "Privacy Policy")
	assert.Contains(t, content.Policies.Privacy.Content, "never sell your personal information")
	assert.Equal(t, srv.URL+"/pages/privacy", content.Policies.Privacy.URL)

	require.NotNil(t, content.Policies.Return)
	assert.Contains(t, content.Policies.Return.Content, "within 30 days")

	assert.Nil(t, content.Policies.Refund)
	assert.Equal(t, models.FieldAbsent, content.Status(models.FieldRefundPolicy).State)
	assert.Equal(t, 2, content.PolicyCount())
}

func TestPoliciesScraperTruncates(t *testing.T) {
	long := "<html><body><main><p>"
	for i := 0; i < 200; i++ {
		long += "Shipping costs are not refundable. "
	}
	long += "</p></main></body></html>"
	srv := fakeStore(t, map[string]http.HandlerFunc{"/policies/refund-policy": htmlHandler(long)})
	s := &PoliciesScraper{fetcher: testFetcher(), opts: Options{PolicyMaxChars: 100}.withDefaults()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)
	require.NotNil(t, content.Policies.Refund)
	assert.LessOrEqual(t, len([]rune(content.Policies.Refund.Content)), 103)
}

func TestFAQScraper(t *testing.T) {
	faqPage := `<html><body><main>
		<details><summary>Do you ship abroad?</summary><p>Yes, to 40 countries.</p></details>
		<div class="faq-item"><h3>How long is delivery?</h3><div class="answer">3 to 5 business days.</div></div>
		<div class="faq-item"><h3>Do you ship abroad?</h3><div class="answer">Duplicate question.</div></div>
		<dl><dt>Can I cancel?</dt><dd>Within one hour of ordering.</dd></dl>
	</main></body></html>`
	srv := fakeStore(t, map[string]http.HandlerFunc{"/pages/faqs": htmlHandler(faqPage)})
	s := &FAQScraper{fetcher: testFetcher()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)

	want := []models.FAQ{
		{Question: "Do you ship abroad?", Answer: "Yes, to 40 countries."},
		{Question: "How long is delivery?", Answer: "3 to 5 business days."},
		{Question: "Can I cancel?", Answer: "Within one hour of ordering."},
	}
	if diff := cmp.Diff(want, content.FAQs); diff != "" {
		t.Errorf("faqs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.FieldPresent, content.Status(models.FieldFAQs).State)
}

func TestFAQScraperTransportFailure(t *testing.T) {
	f := &failingFetcher{inner: testFetcher(), fail: func(string) bool { return true }}
	s := &FAQScraper{fetcher: f}

	_, err := s.Extract(context.Background(), &Storefront{BaseURL: "https://shop.example", HomeHTML: []byte(homeHTML)})
	require.Error(t, err)
	assert.Equal(t, int64(len(faqPaths)), f.calls.Load())
}

func TestSocialScraper(t *testing.T) {
	content, err := (&SocialScraper{}).Extract(context.Background(), &Storefront{BaseURL: "https://shop.example", HomeHTML: []byte(homeHTML)})
	require.NoError(t, err)

	want := map[string]models.SocialHandle{
		"instagram": {Handle: "examplestore", URL: "https://instagram.com/examplestore"},
		"facebook":  {Handle: "examplestore", URL: "https://facebook.com/examplestore/"},
		"twitter":   {Handle: "examplestore", URL: "https://x.com/examplestore"},
	}
	if diff := cmp.Diff(want, content.SocialHandles); diff != "" {
		t.Errorf("social handles mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchSocial(t *testing.T) {
	tests := []struct {
		href         string
		wantPlatform string
		wantHandle   string
		wantOK       bool
	}{
		{"https://www.tiktok.com/@brand.co", "tiktok", "brand.co", true},
		{"https://www.youtube.com/@brandtv", "youtube", "@brandtv", true},
		{"https://www.linkedin.com/company/brand-inc/", "linkedin", "company/brand-inc", true},
		{"https://pinterest.co.uk/brandpins/", "pinterest", "brandpins", true},
		{"https://twitter.com/intent/tweet?text=hi", "", "", false},
		{"https://www.youtube.com/watch?v=abc", "", "", false},
		{"https://www.netflix.com/title", "", "", false},
		{"https://example.com/fb.com", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			platform, handle, ok := matchSocial(tt.href)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPlatform, platform)
			assert.Equal(t, tt.wantHandle, handle)
		})
	}
}

func TestContactScraper(t *testing.T) {
	contact := `<html><body><main>
		<p>Write to support@example-store.com or call +1 (555) 010-2030.</p>
		<p>Order #12345 ships in 2024.</p>
		<a href="tel:+44%2020%207946%200958">Call UK</a>
		<a href="mailto:orders+eu@example-store.com?subject=Order">EU orders</a>
		<address>1 Market Street, Springfield</address>
		<img src="logo@2x.png">
	</main></body></html>`
	srv := fakeStore(t, map[string]http.HandlerFunc{"/pages/contact-us": htmlHandler(contact)})
	s := &ContactScraper{fetcher: testFetcher()}

	content, err := s.Extract(context.Background(), testSite(t, srv, homeHTML))
	require.NoError(t, err)

	want := models.ContactInfo{
		Emails:    []string{"hello@example-store.com", "orders+eu@example-store.com", "support@example-store.com"},
		Phones:    []string{"+1 (555) 010-2030", "+44 20 7946 0958"},
		Addresses: []string{"1 Market Street, Springfield"},
	}
	if diff := cmp.Diff(want, content.Contact, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("contact mismatch (-want +got):\n%s", diff)
	}
}

func TestContactScraperNothingFound(t *testing.T) {
	srv := fakeStore(t, nil)
	s := &ContactScraper{fetcher: testFetcher()}

	content, err := s.Extract(context.Background(), testSite(t, srv, `<html><body>Nothing here</body></html>`))
	require.NoError(t, err)
	assert.Equal(t, models.FieldAbsent, content.Status(models.FieldContactInfo).State)
}

func TestParseContactsKeepsPlusSigns(t *testing.T) {
	doc, err := parseDocument([]byte(`<html><body>
		<a href="mailto:orders+eu@shop.example">Orders</a>
		<a href="tel:+14155550100">Call</a>
		<a href="tel:+1%20415%20555%200101">Call again</a>
	</body></html>`))
	require.NoError(t, err)

	emails, phones, _ := parseContacts(doc, false)
	assert.Equal(t, []string{"orders+eu@shop.example"}, emails)
	assert.Equal(t, []string{"+14155550100", "+1 415 555 0101"}, phones)
}

func TestLinksScraper(t *testing.T) {
	content, err := (&LinksScraper{}).Extract(context.Background(), &Storefront{BaseURL: "https://shop.example", HomeHTML: []byte(homeHTML)})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example/apps/track-order", content.ImportantLinks["Track your order"])
	assert.Equal(t, "https://shop.example/pages/about-us", content.ImportantLinks["About us"])
	assert.NotContains(t, content.ImportantLinks, "Shop all")
	assert.NotContains(t, content.ImportantLinks, "Email us")
	assert.NotContains(t, content.ImportantLinks, "Back to top")
	assert.Equal(t, models.FieldPresent, content.Status(models.FieldImportantLinks).State)
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "Hello world", textFromHTML(`<div>Hello <script>var x=1;</script><b>world</b><!-- note --></div>`))
	assert.Equal(t, "a b c", normalizeSpace("  a\n\tb   c "))
	assert.Equal(t, "héllo...", truncateRunes("héllo wörld", 5))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, []string{"a", "b"}, sortedSet([]string{"b", " a ", "", "b"}))
	assert.Equal(t, "https://shop.example/pages/faq", resolveURL("https://shop.example", "/pages/faq"))
}
