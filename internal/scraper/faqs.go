package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/store-insights/internal/models"
)

// FAQScraper collects question/answer pairs from the store's FAQ page.
type FAQScraper struct {
	fetcher PageFetcher
}

var faqPaths = []string{"/pages/faq", "/pages/faqs", "/faq", "/faqs", "/pages/help", "/help", "/support"}

var faqContainers = []string{".faq-item", ".faq", ".accordion-item", ".accordion", "[data-faq]", ".collapsible-content__item"}

func (s *FAQScraper) Name() string { return "faqs" }

func (s *FAQScraper) Fields() []models.Field { return []models.Field{models.FieldFAQs} }

func (s *FAQScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	content := models.NewStoreContent()

	var transportErr error
	for _, path := range faqPaths {
		page, err := firstFound(ctx, s.fetcher, site, []string{path})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			transportErr = err
			continue
		}
		if page == nil {
			continue
		}

		doc, err := parseDocument(page.Body)
		if err != nil {
			continue
		}
		if faqs := parseFAQs(doc); len(faqs) > 0 {
			content.FAQs = faqs
			content.FieldStatus[models.FieldFAQs] = models.Present()
			return content, nil
		}
	}

	if transportErr != nil {
		return nil, transportErr
	}
	content.FieldStatus[models.FieldFAQs] = models.Absent()
	return content, nil
}

func parseFAQs(doc *goquery.Document) []models.FAQ {
	faqs := []models.FAQ{}
	seen := make(map[string]struct{})

	add := func(q, a string) {
		q, a = normalizeSpace(q), normalizeSpace(a)
		if q == "" || a == "" || q == a {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		faqs = append(faqs, models.FAQ{Question: q, Answer: a})
	}

	// <details><summary>Q</summary>A</details>
	doc.Find("details").Each(func(_ int, d *goquery.Selection) {
		summary := d.Find("summary").First()
		clone := d.Clone()
		clone.Find("summary").Remove()
		add(selectionText(summary), selectionText(clone))
	})

	for _, sel := range faqContainers {
		doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			q := el.Find("h2, h3, h4, h5, .question, .faq-question, .accordion__title, button").First()
			if q.Length() == 0 {
				return
			}
			var answer string
			for _, asel := range []string{".answer", ".faq-answer", ".accordion__content", ".rte", "p", "div"} {
				a := el.Find(asel).NotSelection(q).FilterFunction(func(_ int, s *goquery.Selection) bool {
					return s.Find("h2, h3, h4, h5, .question, .faq-question").Length() == 0
				}).First()
				if text := selectionText(a); text != "" {
					answer = text
					break
				}
			}
			add(selectionText(q), answer)
		})
	}

	// <dl><dt>Q</dt><dd>A</dd></dl>
	doc.Find("dl dt").Each(func(_ int, dt *goquery.Selection) {
		add(selectionText(dt), selectionText(dt.NextFiltered("dd")))
	})

	return faqs
}
