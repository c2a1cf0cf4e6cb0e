package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/store-insights/internal/models"
)

// ContactScraper gathers emails, phone numbers and postal addresses from the
// contact page and the home page.
type ContactScraper struct {
	fetcher PageFetcher
}

var contactPaths = []string{"/pages/contact", "/pages/contact-us", "/contact", "/contact-us"}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{6,}\d`)
)

var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}

func (s *ContactScraper) Name() string { return "contact_info" }

func (s *ContactScraper) Fields() []models.Field { return []models.Field{models.FieldContactInfo} }

func (s *ContactScraper) Extract(ctx context.Context, site *Storefront) (*models.StoreContent, error) {
	var emails, phones, addresses []string

	page, fetchErr := firstFound(ctx, s.fetcher, site, contactPaths)
	if page != nil {
		if doc, err := parseDocument(page.Body); err == nil {
			e, p, a := parseContacts(doc, true)
			emails, phones, addresses = append(emails, e...), append(phones, p...), append(addresses, a...)
		}
	}

	// Footers usually repeat the support email and phone.
	if home, err := parseDocument(site.HomeHTML); err == nil {
		e, p, a := parseContacts(home, false)
		emails, phones, addresses = append(emails, e...), append(phones, p...), append(addresses, a...)
	}

	content := models.NewStoreContent()
	content.Contact = models.ContactInfo{
		Emails:    sortedSet(emails),
		Phones:    sortedSet(phones),
		Addresses: sortedSet(addresses),
	}

	found := len(content.Contact.Emails)+len(content.Contact.Phones)+len(content.Contact.Addresses) > 0
	switch {
	case found:
		content.FieldStatus[models.FieldContactInfo] = models.Present()
	case fetchErr != nil:
		return nil, fetchErr
	default:
		content.FieldStatus[models.FieldContactInfo] = models.Absent()
	}
	return content, nil
}

// parseContacts scans links and visible text. Free-text phone matching is
// only done on dedicated contact pages, where numbers are rarely prices or years.
func parseContacts(doc *goquery.Document, contactPage bool) (emails, phones, addresses []string) {
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, a *goquery.Selection) {
		addr := strings.TrimPrefix(a.AttrOr("href", ""), "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if decoded, err := url.PathUnescape(addr); err == nil {
			addr = decoded
		}
		if isEmail(addr) {
			emails = append(emails, strings.ToLower(addr))
		}
	})

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, a *goquery.Selection) {
		num := strings.TrimPrefix(a.AttrOr("href", ""), "tel:")
		if decoded, err := url.PathUnescape(num); err == nil {
			num = decoded
		}
		if n := normalizeSpace(num); digitCount(n) >= 6 {
			phones = append(phones, n)
		}
	})

	text := selectionText(doc.Find("body"))
	for _, m := range emailPattern.FindAllString(text, -1) {
		if isEmail(m) {
			emails = append(emails, strings.ToLower(m))
		}
	}
	if contactPage {
		for _, m := range phonePattern.FindAllString(text, -1) {
			m = normalizeSpace(m)
			if d := digitCount(m); (d >= 10 && d <= 15) || (strings.HasPrefix(m, "+") && d >= 8 && d <= 15) {
				phones = append(phones, m)
			}
		}
	}

	doc.Find(`address, .address, .contact-address, [itemprop="address"]`).Each(func(_ int, el *goquery.Selection) {
		if text := selectionText(el); text != "" {
			addresses = append(addresses, text)
		}
	})

	return emails, phones, addresses
}

func isEmail(s string) bool {
	if !emailPattern.MatchString(s) || emailPattern.FindString(s) != s {
		return false
	}
	lower := strings.ToLower(s)
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
