package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/store-insights/internal/models"
)

// HeroProductsScraper picks the products featured on the home page.
type HeroProductsScraper struct {
	opts Options
}

func (s *HeroProductsScraper) Name() string { return "hero_products" }

func (s *HeroProductsScraper) Fields() []models.Field {
	return []models.Field{models.FieldHeroProducts}
}

var heroSelectors = []string{
	".hero-product",
	".featured-product",
	".product-hero",
	".main-product",
	"[data-product-id]",
	".product-card",
	".product-item",
	".card--product",
	`a[href*="/products/"]`,
}

func (s *HeroProductsScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	doc, err := parseDocument(site.HomeHTML)
	if err != nil {
		return nil, err
	}

	content := models.NewStoreContent()
	seen := make(map[string]struct{})

	for _, sel := range heroSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if len(content.HeroProducts) >= s.opts.MaxHeroProducts {
				return false
			}
			p, ok := parseProductElement(el, site)
			if !ok {
				return true
			}
			// The same card is often matched by several selectors.
			if _, dup := seen["id:"+p.ID]; dup {
				return true
			}
			if _, dup := seen["handle:"+p.Handle]; dup && p.Handle != "" {
				return true
			}
			seen["id:"+p.ID] = struct{}{}
			seen["handle:"+p.Handle] = struct{}{}
			content.HeroProducts = append(content.HeroProducts, p)
			return true
		})
		if len(content.HeroProducts) >= s.opts.MaxHeroProducts {
			break
		}
	}

	if len(content.HeroProducts) > 0 {
		content.FieldStatus[models.FieldHeroProducts] = models.Present()
	} else {
		content.FieldStatus[models.FieldHeroProducts] = models.Absent()
	}
	return content, nil
}

func parseProductElement(el *goquery.Selection, site *Storefront) (models.Product, bool) {
	href := ""
	if goquery.NodeName(el) == "a" {
		href, _ = el.Attr("href")
	}
	if href == "" {
		href = firstAttr(el, "href", `a[href*="/products/"]`, "a[href]")
	}
	handle := productHandle(href)

	id := strings.TrimSpace(el.AttrOr("data-product-id", ""))
	if id == "" {
		id = firstAttr(el, "data-product-id", "[data-product-id]")
	}
	if id == "" {
		id = handle
	}

	title := firstText(el, ".product-title", ".product-card__title", ".card__heading", ".product-item__title", "h2", "h3", "h4")
	if title == "" {
		title = normalizeSpace(el.Text())
	}
	if title == "" {
		title = normalizeSpace(firstAttr(el, "alt", "img[alt]"))
	}
	title = truncateRunes(title, 200)

	if id == "" || title == "" {
		return models.Product{}, false
	}

	p := models.Product{
		ID:        id,
		Title:     title,
		Handle:    handle,
		Price:     firstText(el, ".price-item--sale", ".price", ".money"),
		Images:    []string{},
		Available: el.Find(".sold-out, .badge--sold-out").Length() == 0,
		Tags:      []string{},
	}
	if href != "" {
		p.URL = site.Resolve(href)
	}
	if img := firstAttr(el, "src", "img[src]"); img != "" {
		p.ImageURL = site.Resolve(img)
	} else if img := firstAttr(el, "data-src", "img[data-src]"); img != "" {
		p.ImageURL = site.Resolve(img)
	}
	if p.ImageURL != "" {
		p.Images = append(p.Images, p.ImageURL)
	}
	return p, true
}

// productHandle extracts <handle> from links like /products/<handle> or
// /collections/x/products/<handle>?variant=1.
func productHandle(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "products" && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}
