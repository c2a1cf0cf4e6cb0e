package competitor

import (
	"fmt"
	"strings"

	"github.com/romangod6/store-insights/internal/models"
)

// Summary compares origin with its competitors on catalog size, social
// presence, FAQ coverage and policy completeness.
func Summary(origin *models.StoreInsights, competitors []*models.StoreInsights) string {
	if origin == nil {
		return ""
	}

	name := origin.BrandName
	if name == "" {
		name = BrandFromURL(origin.StoreURL)
	}

	average := func(metric func(*models.StoreInsights) int) float64 {
		if len(competitors) == 0 {
			return 0
		}
		total := 0
		for _, c := range competitors {
			total += metric(c)
		}
		return float64(total) / float64(len(competitors))
	}
	products := func(in *models.StoreInsights) int { return len(in.Products) }
	socials := func(in *models.StoreInsights) int { return len(in.SocialHandles) }
	faqs := func(in *models.StoreInsights) int { return len(in.FAQs) }
	policies := func(in *models.StoreInsights) int { return in.PolicyCount() }

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis summary for %s\n", name)
	fmt.Fprintf(&b, "Competitors analyzed: %d\n", len(competitors))
	fmt.Fprintf(&b, "\nProduct catalog:\n- %s: %d products\n- Competitor average: %.1f\n", name, products(origin), average(products))
	fmt.Fprintf(&b, "\nSocial presence:\n- %s: %d platforms\n- Competitor average: %.1f\n", name, socials(origin), average(socials))
	fmt.Fprintf(&b, "\nCustomer support (FAQs):\n- %s: %d FAQs\n- Competitor average: %.1f\n", name, faqs(origin), average(faqs))
	fmt.Fprintf(&b, "\nPolicy completeness:\n- %s: %d/3\n- Competitor average: %.1f/3", name, policies(origin), average(policies))
	return b.String()
}
