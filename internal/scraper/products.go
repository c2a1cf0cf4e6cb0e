package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/romangod6/store-insights/internal/models"
)

// ProductsScraper walks the store's /products.json feed.
type ProductsScraper struct {
	fetcher PageFetcher
	opts    Options
}

func (s *ProductsScraper) Name() string { return "products" }

func (s *ProductsScraper) Fields() []models.Field { return []models.Field{models.FieldProducts} }

type productFeed struct {
	Products []feedProduct `json:"products"`
}

type feedProduct struct {
	ID          feedScalar    `json:"id"`
	Title       string        `json:"title"`
	Handle      string        `json:"handle"`
	BodyHTML    string        `json:"body_html"`
	Vendor      string        `json:"vendor"`
	ProductType string        `json:"product_type"`
	Tags        feedTags      `json:"tags"`
	Variants    []feedVariant `json:"variants"`
	Images      []feedImage   `json:"images"`
}

type feedVariant struct {
	Price     feedScalar `json:"price"`
	Available *bool       `json:"available"`
}

type feedImage struct {
	Src string `json:"src"`
}

// feedTags accepts both the array form and the older comma separated string.
type feedTags []string

func (t *feedTags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var tags []string
		if err := json.Unmarshal(data, &tags); err != nil {
			return err
		}
		*t = tags
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	var tags []string
	for _, tag := range strings.Split(joined, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	*t = tags
	return nil
}

// feedScalar keeps the text of a JSON string or number. Anything else, such
// as an object or boolean, decodes to "" so one odd entry cannot break a page.
type feedScalar string

func (v *feedScalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = ""
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = feedScalar(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = feedScalar(n)
	}
	return nil
}

var descriptionPolicy = bluemonday.StrictPolicy()

func (s *ProductsScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	content := models.NewStoreContent()
	seen := make(map[string]struct{})

	for page := 1; page <= s.opts.MaxProductPages; page++ {
		feedURL := fmt.Sprintf("%s/products.json?limit=%d&page=%d", site.BaseURL, s.opts.ProductPageSize, page)
		resp, err := s.fetcher.Get(ctx, feedURL)
		if err != nil {
			return nil, fmt.Errorf("product feed page %d: %w", page, err)
		}
		if !resp.OK() {
			// No feed at all means this is not a Shopify store.
			break
		}

		var feed productFeed
		if err := json.Unmarshal(resp.Body, &feed); err != nil {
			if page == 1 {
				break
			}
			return nil, fmt.Errorf("product feed page %d: invalid JSON: %w", page, err)
		}
		if len(feed.Products) == 0 {
			break
		}

		added := 0
		for _, fp := range feed.Products {
			p, ok := s.toProduct(fp, site)
			if !ok {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			content.Products = append(content.Products, p)
			added++
		}
		// Stores that ignore the page parameter keep returning the first page.
		if added == 0 {
			break
		}
	}

	if len(content.Products) > 0 {
		content.FieldStatus[models.FieldProducts] = models.Present()
	} else {
		content.FieldStatus[models.FieldProducts] = models.Absent()
	}
	return content, nil
}

func (s *ProductsScraper) toProduct(fp feedProduct, site *Storefront) (models.Product, bool) {
	id := string(fp.ID)
	title := normalizeSpace(fp.Title)
	if id == "" || title == "" {
		return models.Product{}, false
	}

	p := models.Product{
		ID:          id,
		Title:       title,
		Handle:      fp.Handle,
		Description: normalizeSpace(html.UnescapeString(descriptionPolicy.Sanitize(fp.BodyHTML))),
		Price:       "0",
		Currency:    s.opts.Currency,
		Images:      []string{},
		Available:   len(fp.Variants) == 0,
		Tags:        []string(fp.Tags),
		Category:    fp.ProductType,
		Vendor:      fp.Vendor,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if fp.Handle != "" {
		p.URL = site.Resolve("/products/" + url.PathEscape(fp.Handle))
	}

	for i, v := range fp.Variants {
		if i == 0 && v.Price != "" {
			p.Price = string(v.Price)
		}
		if v.Available == nil || *v.Available {
			p.Available = true
		}
	}

	for _, img := range fp.Images {
		if img.Src != "" {
			p.Images = append(p.Images, img.Src)
		}
	}
	if len(p.Images) > 0 {
		p.ImageURL = p.Images[0]
	}

	return p, true
}
