package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/romangod6/store-insights/internal/models"
)

func TestRenderSummary(t *testing.T) {
	in := models.NewStoreInsights("https://example.com")
	in.BrandName = "Example"
	in.Products = []models.Product{{ID: "1"}, {ID: "2"}}
	in.FieldStatus[models.FieldBrand] = models.Present()
	in.FieldStatus[models.FieldProducts] = models.Present()
	in.FieldStatus[models.FieldPrivacyPolicy] = models.Failed("timed out")

	var out bytes.Buffer
	renderSummary(&out, in)

	got := out.String()
	assert.Contains(t, got, "https://example.com (Example)")
	assert.Contains(t, got, "privacy_policy")
	assert.Contains(t, got, "timed out")
	assert.Contains(t, got, "failed")
	assert.Equal(t, 2, fieldCount(in, models.FieldProducts))
	assert.Equal(t, 0, fieldCount(in, models.FieldRefundPolicy))
}
