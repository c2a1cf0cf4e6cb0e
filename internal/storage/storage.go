package storage

import (
	"context"
	"fmt"

	"github.com/romangod6/store-insights/internal/models"
)

// Store is the cache of extracted store insights, keyed by normalized store
// URL. Every method normalizes the URL it is given, so equivalent spellings
// of a store address the same record.
type Store interface {
	Initialize() error
	Close() error
	Ping(ctx context.Context) error

	// GetStoreInsights returns nil, nil when the store is not cached.
	GetStoreInsights(ctx context.Context, storeURL string) (*models.StoreInsights, error)
	// SaveStoreInsights inserts or fully replaces the record for the store.
	// The stored id and created_at are kept on replace and copied back
	// into insights.
	SaveStoreInsights(ctx context.Context, insights *models.StoreInsights) error
	// DeleteStoreInsights reports whether a record existed.
	DeleteStoreInsights(ctx context.Context, storeURL string) (bool, error)
	ListStoreInsights(ctx context.Context, limit, offset int) ([]*models.StoreInsights, error)

	SaveCompetitorAnalysis(ctx context.Context, analysis *models.CompetitorAnalysis) error
	ListCompetitorAnalyses(ctx context.Context, storeURL string) ([]*models.CompetitorAnalysis, error)
}

// Open connects the Store for driver (postgres, sqlite or mysql) and creates
// its tables.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		store Store
		err   error
	)
	switch driver {
	case "postgres":
		store, err = NewPostgresStore(dsn)
	case "sqlite":
		store, err = NewSQLiteStore(dsn)
	case "mysql":
		store, err = NewMySQLStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize %s tables: %w", driver, err)
	}
	return store, nil
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MySQLStore)(nil)
)
