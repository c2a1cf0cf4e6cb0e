package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/romangod6/store-insights/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS store_insights (
            id UUID PRIMARY KEY,
            store_url VARCHAR(500) UNIQUE NOT NULL,
            brand_name VARCHAR(255) NOT NULL DEFAULT '',
            brand_description TEXT NOT NULL DEFAULT '',
            content JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_store_insights_updated_at ON store_insights(updated_at)`,
		`CREATE TABLE IF NOT EXISTS competitor_analyses (
            id UUID PRIMARY KEY,
            store_url VARCHAR(500) NOT NULL,
            competitor_url VARCHAR(500) NOT NULL,
            similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
            summary TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_competitor_analyses_store_url ON competitor_analyses(store_url)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) SaveStoreInsights(ctx context.Context, insights *models.StoreInsights) error {
	rec, err := prepareRecord(insights)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO store_insights (id, store_url, brand_name, brand_description, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (store_url) DO UPDATE SET
            brand_name = EXCLUDED.brand_name,
            brand_description = EXCLUDED.brand_description,
            content = EXCLUDED.content,
            updated_at = EXCLUDED.updated_at
        RETURNING id, created_at
    `

	err = s.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.StoreURL,
		rec.BrandName,
		rec.BrandDescription,
		string(rec.Content),
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&insights.ID, &insights.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving insights for %s: %w", rec.StoreURL, err)
	}

	insights.CreatedAt = insights.CreatedAt.UTC()
	return nil
}

func (s *PostgresStore) GetStoreInsights(ctx context.Context, storeURL string) (*models.StoreInsights, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, store_url, brand_name, brand_description, content, created_at, updated_at
        FROM store_insights
        WHERE store_url = $1
    `

	insights, err := scanRecord(s.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return insights, nil
}

func (s *PostgresStore) DeleteStoreInsights(ctx context.Context, storeURL string) (bool, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM store_insights WHERE store_url = $1`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) ListStoreInsights(ctx context.Context, limit, offset int) ([]*models.StoreInsights, error) {
	limit, offset = normalizeLimit(limit, offset)

	query := `
        SELECT id, store_url, brand_name, brand_description, content, created_at, updated_at
        FROM store_insights
        ORDER BY updated_at DESC, store_url
        LIMIT $1 OFFSET $2
    `

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*models.StoreInsights{}
	for rows.Next() {
		insights, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, insights)
	}

	return list, rows.Err()
}

func (s *PostgresStore) SaveCompetitorAnalysis(ctx context.Context, analysis *models.CompetitorAnalysis) error {
	if err := prepareAnalysis(analysis); err != nil {
		return err
	}

	query := `
        INSERT INTO competitor_analyses (id, store_url, competitor_url, similarity, summary, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := s.db.ExecContext(ctx, query,
		analysis.ID,
		analysis.StoreURL,
		analysis.CompetitorURL,
		analysis.Similarity,
		analysis.Summary,
		analysis.CreatedAt,
	)

	return err
}

func (s *PostgresStore) ListCompetitorAnalyses(ctx context.Context, storeURL string) ([]*models.CompetitorAnalysis, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, store_url, competitor_url, similarity, summary, created_at
        FROM competitor_analyses
        WHERE store_url = $1
        ORDER BY created_at DESC, similarity DESC
    `

	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []*models.CompetitorAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
