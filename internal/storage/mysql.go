package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/romangod6/store-insights/internal/models"
)

type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore connects with dsn, forcing parseTime and UTC so timestamps
// scan into time.Time.
func NewMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS store_insights (
            id CHAR(36) PRIMARY KEY,
            store_url VARCHAR(500) NOT NULL,
            brand_name VARCHAR(255) NOT NULL DEFAULT '',
            brand_description TEXT NOT NULL,
            content JSON NOT NULL,
            created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
            updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
            UNIQUE KEY uq_store_insights_store_url (store_url),
            KEY idx_store_insights_updated_at (updated_at)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS competitor_analyses (
            id CHAR(36) PRIMARY KEY,
            store_url VARCHAR(500) NOT NULL,
            competitor_url VARCHAR(500) NOT NULL,
            similarity DOUBLE NOT NULL DEFAULT 0,
            summary TEXT NOT NULL,
            created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
            KEY idx_competitor_analyses_store_url (store_url)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveStoreInsights upserts in one statement and reads back the surviving
// id and created_at in the same transaction.
func (s *MySQLStore) SaveStoreInsights(ctx context.Context, insights *models.StoreInsights) error {
	rec, err := prepareRecord(insights)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO store_insights
  (id, store_url, brand_name, brand_description, content, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  brand_name=VALUES(brand_name), brand_description=VALUES(brand_description),
  content=VALUES(content), updated_at=VALUES(updated_at);
`
	_, err = tx.ExecContext(ctx, upsert,
		rec.ID.String(),
		rec.StoreURL,
		rec.BrandName,
		rec.BrandDescription,
		string(rec.Content),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving insights for %s: %w", rec.StoreURL, err)
	}

	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM store_insights WHERE store_url = ?`, rec.StoreURL).
		Scan(&insights.ID, &insights.CreatedAt)
	if err != nil {
		return fmt.Errorf("error reading back insights for %s: %w", rec.StoreURL, err)
	}
	insights.CreatedAt = insights.CreatedAt.UTC()

	return tx.Commit()
}

func (s *MySQLStore) GetStoreInsights(ctx context.Context, storeURL string) (*models.StoreInsights, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}

	const q = `
SELECT id, store_url, brand_name, brand_description, content, created_at, updated_at
FROM store_insights
WHERE store_url=?;
`
	insights, err := scanRecord(s.db.QueryRowContext(ctx, q, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return insights, nil
}

func (s *MySQLStore) DeleteStoreInsights(ctx context.Context, storeURL string) (bool, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM store_insights WHERE store_url=?`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MySQLStore) ListStoreInsights(ctx context.Context, limit, offset int) ([]*models.StoreInsights, error) {
	limit, offset = normalizeLimit(limit, offset)

	const q = `
SELECT id, store_url, brand_name, brand_description, content, created_at, updated_at
FROM store_insights
ORDER BY updated_at DESC, store_url
LIMIT ? OFFSET ?;
`
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.StoreInsights{}
	for rows.Next() {
		insights, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, insights)
	}
	return out, rows.Err()
}

func (s *MySQLStore) SaveCompetitorAnalysis(ctx context.Context, analysis *models.CompetitorAnalysis) error {
	if err := prepareAnalysis(analysis); err != nil {
		return err
	}

	const q = `
INSERT INTO competitor_analyses
  (id, store_url, competitor_url, similarity, summary, created_at)
VALUES (?,?,?,?,?,?);
`
	_, err := s.db.ExecContext(ctx, q,
		analysis.ID.String(),
		analysis.StoreURL,
		analysis.CompetitorURL,
		analysis.Similarity,
		analysis.Summary,
		analysis.CreatedAt,
	)
	return err
}

func (s *MySQLStore) ListCompetitorAnalyses(ctx context.Context, storeURL string) ([]*models.CompetitorAnalysis, error) {
	key, err := models.NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}

	const q = `
SELECT id, store_url, competitor_url, similarity, summary, created_at
FROM competitor_analyses
WHERE store_url=?
ORDER BY created_at DESC, similarity DESC;
`
	rows, err := s.db.QueryContext(ctx, q, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.CompetitorAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
