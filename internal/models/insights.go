package models

import (
	"time"

	"github.com/google/uuid"
)

// NewStoreInsights creates an empty record for storeURL with generated UUID
// and timestamps. Every field starts out absent.
func NewStoreInsights(storeURL string) *StoreInsights {
	now := time.Now().UTC()
	in := &StoreInsights{
		ID:        uuid.New(),
		StoreURL:  storeURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.EnsureCollections()
	for _, f := range AllFields {
		in.FieldStatus[f] = Absent()
	}
	return in
}

// NewStoreContent returns content with every collection allocated.
func NewStoreContent() *StoreContent {
	c := &StoreContent{}
	c.EnsureCollections()
	return c
}

// EnsureCollections replaces nil slices and maps with empty ones so the
// JSON form always carries arrays and objects.
func (c *StoreContent) EnsureCollections() {
	if c.Products == nil {
		c.Products = []Product{}
	}
	if c.HeroProducts == nil {
		c.HeroProducts = []Product{}
	}
	if c.FAQs == nil {
		c.FAQs = []FAQ{}
	}
	if c.SocialHandles == nil {
		c.SocialHandles = map[string]SocialHandle{}
	}
	if c.Contact.Emails == nil {
		c.Contact.Emails = []string{}
	}
	if c.Contact.Phones == nil {
		c.Contact.Phones = []string{}
	}
	if c.Contact.Addresses == nil {
		c.Contact.Addresses = []string{}
	}
	if c.ImportantLinks == nil {
		c.ImportantLinks = map[string]string{}
	}
	if c.FieldStatus == nil {
		c.FieldStatus = map[Field]FieldStatus{}
	}
}

// Status returns the recorded status of f, absent when nothing was recorded.
func (c *StoreContent) Status(f Field) FieldStatus {
	if s, ok := c.FieldStatus[f]; ok {
		return s
	}
	return Absent()
}

// CopyField copies the value owned by f from src into c.
func (c *StoreContent) CopyField(f Field, src *StoreContent) {
	switch f {
	case FieldBrand:
		c.BrandName = src.BrandName
		c.BrandDescription = src.BrandDescription
	case FieldProducts:
		c.Products = src.Products
	case FieldHeroProducts:
		c.HeroProducts = src.HeroProducts
	case FieldPrivacyPolicy:
		c.Policies.Privacy = src.Policies.Privacy
	case FieldReturnPolicy:
		c.Policies.Return = src.Policies.Return
	case FieldRefundPolicy:
		c.Policies.Refund = src.Policies.Refund
	case FieldFAQs:
		c.FAQs = src.FAQs
	case FieldSocialHandles:
		c.SocialHandles = src.SocialHandles
	case FieldContactInfo:
		c.Contact = src.Contact
	case FieldImportantLinks:
		c.ImportantLinks = src.ImportantLinks
	}
}

// PolicyCount reports how many of the three policies were found.
func (c *StoreContent) PolicyCount() int {
	n := 0
	for _, p := range []*Policy{c.Policies.Privacy, c.Policies.Return, c.Policies.Refund} {
		if p != nil {
			n++
		}
	}
	return n
}
