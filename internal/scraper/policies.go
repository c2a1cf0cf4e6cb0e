package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"

	readability "github.com/go-shiori/go-readability"
	"github.com/romangod6/store-insights/internal/fetch"
	"github.com/romangod6/store-insights/internal/models"
)

// PoliciesScraper looks up the privacy, return and refund policy pages.
// Each policy is an independent field.
type PoliciesScraper struct {
	fetcher PageFetcher
	opts    Options
}

type policyKind struct {
	field        models.Field
	defaultTitle string
	paths        []string
}

var policyKinds = []policyKind{
	{
		field:        models.FieldPrivacyPolicy,
		defaultTitle: "Privacy Policy",
		paths:        []string{"/policies/privacy-policy", "/pages/privacy-policy", "/pages/privacy", "/privacy-policy", "/privacy"},
	},
	{
		field:        models.FieldReturnPolicy,
		defaultTitle: "Return Policy",
		paths:        []string{"/pages/return-policy", "/pages/returns", "/return-policy", "/returns"},
	},
	{
		field:        models.FieldRefundPolicy,
		defaultTitle: "Refund Policy",
		paths:        []string{"/policies/refund-policy", "/pages/refund-policy", "/pages/refunds", "/refund-policy", "/refunds"},
	},
}

func (s *PoliciesScraper) Name() string { return "policies" }

func (s *PoliciesScraper) Fields() []models.Field {
	fields := make([]models.Field, 0, len(policyKinds))
	for _, k := range policyKinds {
		fields = append(fields, k.field)
	}
	return fields
}

type policyResult struct {
	policy *models.Policy
	err    error
}

func (s *PoliciesScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	results := make([]policyResult, len(policyKinds))

	var wg sync.WaitGroup
	for i, kind := range policyKinds {
		wg.Add(1)
		go func(i int, kind policyKind) {
			defer wg.Done()
			policy, err := s.findPolicy(ctx, site, kind)
			results[i] = policyResult{policy: policy, err: err}
		}(i, kind)
	}
	wg.Wait()

	content := models.NewStoreContent()
	failures := 0
	for i, kind := range policyKinds {
		res := results[i]
		switch {
		case res.err != nil:
			failures++
			content.FieldStatus[kind.field] = models.Failed(res.err.Error())
		case res.policy == nil:
			content.FieldStatus[kind.field] = models.Absent()
		default:
			setPolicy(content, kind.field, res.policy)
			content.FieldStatus[kind.field] = models.Present()
		}
	}

	if failures == len(policyKinds) {
		return nil, fmt.Errorf("all policy lookups failed: %w", results[0].err)
	}
	return content, nil
}

func setPolicy(content *models.StoreContent, field models.Field, p *models.Policy) {
	switch field {
	case models.FieldPrivacyPolicy:
		content.Policies.Privacy = p
	case models.FieldReturnPolicy:
		content.Policies.Return = p
	case models.FieldRefundPolicy:
		content.Policies.Refund = p
	}
}

func (s *PoliciesScraper) findPolicy(ctx context.Context, site *Storefront, kind policyKind) (*models.Policy, error) {
	var transportErr error
	for _, path := range kind.paths {
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
		if policy := s.parsePolicy(page, kind.defaultTitle); policy != nil {
			return policy, nil
		}
	}
	return nil, transportErr
}

func (s *PoliciesScraper) parsePolicy(page *fetch.Page, defaultTitle string) *models.Policy {
	title, text := readableText(page)
	if text == "" {
		return nil
	}
	if title == "" {
		title = defaultTitle
	}
	return &models.Policy{
		Title:   truncateRunes(title, 200),
		Content: truncateRunes(text, s.opts.PolicyMaxChars),
		URL:     page.URL,
	}
}

// readableText extracts the main text of a page with readability, falling
// back to the whole visible body when readability finds nothing.
func readableText(page *fetch.Page) (string, string) {
	var title, text string

	pageURL, err := url.Parse(page.URL)
	if err == nil {
		readabilityParser := readability.NewParser()
		article, err := readabilityParser.Parse(bytes.NewReader(page.Body), pageURL)
		if err == nil {
			title = normalizeSpace(article.Title)
			text = textFromHTML(article.Content)
		}
	}

	if text == "" || title == "" {
		doc, err := parseDocument(page.Body)
		if err != nil {
			return title, text
		}
		if title == "" {
			title = firstText(doc.Selection, "main h1", "h1", "title")
		}
		if text == "" {
			body := doc.Find("main").First()
			if body.Length() == 0 {
				body = doc.Find("body")
			}
			text = selectionText(body)
		}
	}

	return title, text
}
