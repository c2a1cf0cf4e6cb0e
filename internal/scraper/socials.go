package scraper

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/store-insights/internal/models"
)

// SocialScraper maps social platforms to the handles linked from the home page.
type SocialScraper struct{}

type socialPattern struct {
	platform string
	re       *regexp.Regexp
}

var socialPatterns = []socialPattern{
	{"instagram", regexp.MustCompile(`(?i)(?:^|//|\.)instagram\.com/([A-Za-z0-9_.]+)`)},
	{"facebook", regexp.MustCompile(`(?i)(?:^|//|\.)(?:facebook|fb)\.com/([A-Za-z0-9_.\-]+)`)},
	{"twitter", regexp.MustCompile(`(?i)(?:^|//|\.)(?:twitter|x)\.com/([A-Za-z0-9_]+)`)},
	{"tiktok", regexp.MustCompile(`(?i)(?:^|//|\.)tiktok\.com/@([A-Za-z0-9_.]+)`)},
	{"youtube", regexp.MustCompile(`(?i)(?:^|//|\.)youtube\.com/((?:@|c/|channel/|user/)?[A-Za-z0-9_.\-]+)`)},
	{"linkedin", regexp.MustCompile(`(?i)(?:^|//|\.)linkedin\.com/((?:company|in)/[A-Za-z0-9_\-]+)`)},
	{"pinterest", regexp.MustCompile(`(?i)(?:^|//|\.)pinterest\.[a-z.]+/([A-Za-z0-9_]+)`)},
}

// Path segments that are share widgets or navigation, not accounts.
var ignoredHandles = map[string]struct{}{
	"sharer": {}, "sharer.php": {}, "share": {}, "share.php": {}, "intent": {}, "home": {},
	"hashtag": {}, "p": {}, "reel": {}, "watch": {}, "dialog": {}, "plugins": {}, "tr": {},
	"pin": {}, "embed": {}, "explore": {}, "login": {}, "shopify": {},
}

func (s *SocialScraper) Name() string { return "social_handles" }

func (s *SocialScraper) Fields() []models.Field {
	return []models.Field{models.FieldSocialHandles}
}

func (s *SocialScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	doc, err := parseDocument(site.HomeHTML)
	if err != nil {
		return nil, err
	}

	content := models.NewStoreContent()
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		platform, handle, ok := matchSocial(href)
		if !ok {
			return
		}
		if _, exists := content.SocialHandles[platform]; exists {
			return
		}
		content.SocialHandles[platform] = models.SocialHandle{Handle: handle, URL: site.Resolve(href)}
	})

	if len(content.SocialHandles) > 0 {
		content.FieldStatus[models.FieldSocialHandles] = models.Present()
	} else {
		content.FieldStatus[models.FieldSocialHandles] = models.Absent()
	}
	return content, nil
}

func matchSocial(href string) (platform, handle string, ok bool) {
	for _, p := range socialPatterns {
		m := p.re.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		handle = strings.TrimRight(m[1], "./")
		if _, ignored := ignoredHandles[strings.ToLower(handle)]; ignored || handle == "" {
			return "", "", false
		}
		return p.platform, handle, true
	}
	return "", "", false
}
