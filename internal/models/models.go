package models

import (
	"time"

	"github.com/google/uuid"
)

// Field names one category of extracted data.
type Field string

const (
	FieldBrand          Field = "brand"
	FieldProducts       Field = "products"
	FieldHeroProducts   Field = "hero_products"
	FieldPrivacyPolicy  Field = "privacy_policy"
	FieldReturnPolicy   Field = "return_policy"
	FieldRefundPolicy   Field = "refund_policy"
	FieldFAQs           Field = "faqs"
	FieldSocialHandles  Field = "social_handles"
	FieldContactInfo    Field = "contact_info"
	FieldImportantLinks Field = "important_links"
)

// AllFields lists every field in the order it is reported.
var AllFields = []Field{
	FieldBrand,
	FieldProducts,
	FieldHeroProducts,
	FieldPrivacyPolicy,
	FieldReturnPolicy,
	FieldRefundPolicy,
	FieldFAQs,
	FieldSocialHandles,
	FieldContactInfo,
	FieldImportantLinks,
}

type FieldState string

const (
	FieldPresent FieldState = "present"
	FieldAbsent  FieldState = "absent"
	FieldFailed  FieldState = "failed"
)

// FieldStatus is the extraction outcome of a single field. Reason is only
// set for failed fields.
type FieldStatus struct {
	State  FieldState `json:"state"`
	Reason string     `json:"reason,omitempty"`
}

func Present() FieldStatus { return FieldStatus{State: FieldPresent} }

func Absent() FieldStatus { return FieldStatus{State: FieldAbsent} }

func Failed(reason string) FieldStatus {
	return FieldStatus{State: FieldFailed, Reason: reason}
}

type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Handle      string   `json:"handle"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Currency    string   `json:"currency"`
	ImageURL    string   `json:"image_url"`
	Images      []string `json:"images"`
	URL         string   `json:"url"`
	Available   bool     `json:"available"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Vendor      string   `json:"vendor"`
}

type Policy struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type Policies struct {
	Privacy *Policy `json:"privacy"`
	Return  *Policy `json:"return"`
	Refund  *Policy `json:"refund"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type SocialHandle struct {
	Handle string `json:"handle"`
	URL    string `json:"url"`
}

type ContactInfo struct {
	Emails    []string `json:"emails"`
	Phones    []string `json:"phones"`
	Addresses []string `json:"addresses"`
}

// StoreContent is everything extracted from a store. It is persisted as a
// single document so a record is always replaced as a whole.
type StoreContent struct {
	BrandName        string                  `json:"brand_name"`
	BrandDescription string                  `json:"brand_description"`
	Products         []Product               `json:"products"`
	HeroProducts     []Product               `json:"hero_products"`
	Policies         Policies                `json:"policies"`
	FAQs             []FAQ                   `json:"faqs"`
	SocialHandles    map[string]SocialHandle `json:"social_handles"`
	Contact          ContactInfo             `json:"contact_info"`
	ImportantLinks   map[string]string       `json:"important_links"`
	FieldStatus      map[Field]FieldStatus   `json:"field_status"`
}

type StoreInsights struct {
	ID       uuid.UUID `json:"id"`
	StoreURL string    `json:"store_url"`
	StoreContent
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompetitorResult is a competitor's insights ranked against the origin store.
type CompetitorResult struct {
	Insights   *StoreInsights `json:"insights"`
	Similarity float64        `json:"similarity"`
	Rank       int            `json:"rank"`
}

type CompetitorAnalysis struct {
	ID            uuid.UUID `json:"id"`
	StoreURL      string    `json:"store_url"`
	CompetitorURL string    `json:"competitor_url"`
	Similarity    float64   `json:"similarity"`
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"created_at"`
}
