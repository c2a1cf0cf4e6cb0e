package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/store-insights/internal/models"
)

// BrandScraper reads the brand name and description from the home page.
type BrandScraper struct{}

func (s *BrandScraper) Name() string { return "brand" }

func (s *BrandScraper) Fields() []models.Field { return []models.Field{models.FieldBrand} }

func (s *BrandScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	doc, err := parseDocument(site.HomeHTML)
	if err != nil {
		return nil, err
	}

	content := models.NewStoreContent()
	content.BrandName = extractBrandName(doc)
	content.BrandDescription = extractBrandDescription(doc)

	if content.BrandName != "" || content.BrandDescription != "" {
		content.FieldStatus[models.FieldBrand] = models.Present()
	} else {
		content.FieldStatus[models.FieldBrand] = models.Absent()
	}
	return content, nil
}

var titleSeparators = []string{" – ", " — ", " | ", " - ", " :: "}

func extractBrandName(doc *goquery.Document) string {
	for _, sel := range []string{`meta[property="og:site_name"]`, `meta[name="application-name"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return normalizeSpace(v)
		}
	}

	if name := firstText(doc.Selection, ".brand-name", ".site-title", ".logo-text", "[data-brand-name]"); name != "" {
		return name
	}

	if title := normalizeSpace(doc.Find("title").First().Text()); title != "" {
		// "Brand – Tagline" style titles
		for _, sep := range titleSeparators {
			if i := strings.Index(title, sep); i > 0 {
				return strings.TrimSpace(title[:i])
			}
		}
		return title
	}

	return firstText(doc.Selection, "h1")
}

func extractBrandDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return normalizeSpace(v)
		}
	}
	return firstText(doc.Selection, ".brand-description", ".site-description", ".hero-description", ".main-description")
}
