package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/romangod6/store-insights/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS store_insights (
            id TEXT PRIMARY KEY,
            store_url TEXT UNIQUE NOT NULL,
            brand_name TEXT NOT NULL DEFAULT '',
            brand_description TEXT NOT NULL DEFAULT '',
            content TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_store_insights_updated_at ON store_insights(updated_at)`,
		`CREATE TABLE IF NOT EXISTS competitor_analyses (
            id TEXT PRIMARY KEY,
            store_url TEXT NOT NULL,
            competitor_url TEXT NOT NULL,
            similarity REAL NOT NULL DEFAULT 0,
            summary TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) SaveStoreInsights(ctx context.Context, insights *models.StoreInsights) error {
	rec, err := prepareRecord(insights)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO store_insights (id, store_url, brand_name, brand_description, content, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(store_url) DO UPDATE SET
            brand_name = excluded.brand_name,
            brand_description = excluded.brand_description,
            content = excluded.content,
            updated_at = excluded.updated_at
        RETURNING id, created_at
    `

	var created any
	err = s.db.QueryRowContext(ctx, query,
		rec.ID.String(),
		rec.StoreURL,
		rec.BrandName,
		rec.BrandDescription,
		string(rec.Content),
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&insights.ID, &created)
	if err != nil {
		return fmt.Errorf("error saving insights for %s: %w", rec.StoreURL, err)
	}

	createdAt, err := sqliteTime(created)
	if err != nil {
		return err
	}
	insights.CreatedAt = createdAt
	return nil
}

func (s *SQLiteStore) GetStoreInsights(ctx context.Context, storeURL string) (*models.StoreInsights, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, store_url, brand_name, brand_description, content, created_at, updated_at
        FROM store_insights
        WHERE store_url = ?
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

func (s *SQLiteStore) DeleteStoreInsights(ctx context.Context, storeURL string) (bool, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM store_insights WHERE store_url = ?`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListStoreInsights(ctx context.Context, limit, offset int) ([]*models.StoreInsights, error) {
	limit, offset = normalizeLimit(limit, offset)

	query := `
        SELECT id, store_url, brand_name, brand_description, content, created_at, updated_at
        FROM store_insights
        ORDER BY updated_at DESC, store_url
        LIMIT ? OFFSET ?
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

func (s *SQLiteStore) SaveCompetitorAnalysis(ctx context.Context, analysis *models.CompetitorAnalysis) error {
	if err := prepareAnalysis(analysis); err != nil {
		return err
	}

	query := `
        INSERT INTO competitor_analyses (id, store_url, competitor_url, similarity, summary, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `

	_, err := s.db.ExecContext(ctx, query,
		analysis.ID.String(),
		analysis.StoreURL,
		analysis.CompetitorURL,
		analysis.Similarity,
		analysis.Summary,
		analysis.CreatedAt,
	)

	return err
}

func (s *SQLiteStore) ListCompetitorAnalyses(ctx context.Context, storeURL string) ([]*models.CompetitorAnalysis, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, store_url, competitor_url, similarity, summary, created_at
        FROM competitor_analyses
        WHERE store_url = ?
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteTime converts a timestamp read without a declared column type, as
// RETURNING yields it, into a time.Time.
func sqliteTime(v any) (time.Time, error) {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}

	s = strings.TrimSuffix(s, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
