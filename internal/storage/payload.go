package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/romangod6/store-insights/internal/models"
)

const defaultListLimit = 50

// record is the row form shared by all drivers. The extracted content is
// kept as a single JSON document so a record is always written whole.
type record struct {
	ID               uuid.UUID
	StoreURL         string
	BrandName        string
	BrandDescription string
	Content          []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// prepareRecord normalizes the key of insights in place and encodes it.
func prepareRecord(insights *models.StoreInsights) (*record, error) {
	storeURL, err := models.NormalizeStoreURL(insights.StoreURL)
	if err != nil {
		return nil, err
	}
	insights.StoreURL = storeURL

	if insights.ID == uuid.Nil {
		insights.ID = uuid.New()
	}
	now := time.Now().UTC()
	if insights.CreatedAt.IsZero() {
		insights.CreatedAt = now
	}
	insights.UpdatedAt = now

	content := insights.StoreContent
	content.EnsureCollections()
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("error encoding insights for %s: %w", storeURL, err)
	}

	return &record{
		ID:               insights.ID,
		StoreURL:         storeURL,
		BrandName:        insights.BrandName,
		BrandDescription: insights.BrandDescription,
		Content:          data,
		CreatedAt:        insights.CreatedAt.UTC(),
		UpdatedAt:        insights.UpdatedAt,
	}, nil
}

func (r *record) insights() (*models.StoreInsights, error) {
	in := &models.StoreInsights{
		ID:        r.ID,
		StoreURL:  r.StoreURL,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if len(r.Content) > 0 {
		if err := json.Unmarshal(r.Content, &in.StoreContent); err != nil {
			return nil, fmt.Errorf("error decoding insights for %s: %w", r.StoreURL, err)
		}
	}
	in.BrandName = r.BrandName
	in.BrandDescription = r.BrandDescription
	in.EnsureCollections()
	return in, nil
}

func normalizeLimit(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func prepareAnalysis(a *models.CompetitorAnalysis) error {
	storeURL, err := models.NormalizeStoreURL(a.StoreURL)
	if err != nil {
		return err
	}
	competitorURL, err := models.NormalizeStoreURL(a.CompetitorURL)
	if err != nil {
		return err
	}
	a.StoreURL, a.CompetitorURL = storeURL, competitorURL
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.StoreInsights, error) {
	var r record
	if err := row.Scan(&r.ID, &r.StoreURL, &r.BrandName, &r.BrandDescription, &r.Content, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r.insights()
}

func scanAnalysis(row rowScanner) (*models.CompetitorAnalysis, error) {
	a := &models.CompetitorAnalysis{}
	if err := row.Scan(&a.ID, &a.StoreURL, &a.CompetitorURL, &a.Similarity, &a.Summary, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}
