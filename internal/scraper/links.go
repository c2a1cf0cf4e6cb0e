package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/store-insights/internal/models"
)

// LinksScraper keeps the home page links a shopper would look for: order
// tracking, shipping, blog, about, support and size guides.
type LinksScraper struct{}

var importantKeywords = []string{
	"track", "order", "shipping", "delivery",
	"blog", "news", "about", "story",
	"help", "support", "contact",
	"size", "guide", "measurement",
}

const maxImportantLinks = 50

func (s *LinksScraper) Name() string { return "important_links" }

func (s *LinksScraper) Fields() []models.Field {
	return []models.Field{models.FieldImportantLinks}
}

func (s *LinksScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	doc, err := parseDocument(site.HomeHTML)
	if err != nil {
		return nil, err
	}

	content := models.NewStoreContent()
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(content.ImportantLinks) >= maxImportantLinks {
			return false
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !followable(href) {
			return true
		}
		label := truncateRunes(normalizeSpace(a.Text()), 100)
		if label == "" {
			label = normalizeSpace(a.AttrOr("aria-label", a.AttrOr("title", "")))
		}
		if label == "" {
			return true
		}
		if _, exists := content.ImportantLinks[label]; exists {
			return true
		}
		if !matchesKeyword(strings.ToLower(label)) && !matchesKeyword(strings.ToLower(href)) {
			return true
		}
		content.ImportantLinks[label] = site.Resolve(href)
		return true
	})

	if len(content.ImportantLinks) > 0 {
		content.FieldStatus[models.FieldImportantLinks] = models.Present()
	} else {
		content.FieldStatus[models.FieldImportantLinks] = models.Absent()
	}
	return content, nil
}

func followable(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "sms:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

func matchesKeyword(s string) bool {
	for _, kw := range importantKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
