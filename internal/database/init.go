package database

import (
	"context"
	"fmt"

	"github.com/yourusername/pitch-edge/internal/config"
)

// requiredTables are the tables the pipeline cannot run without.
var requiredTables = []string{"matches", "odds_snapshots", "picks"}

// Initialize creates a database connection pool and verifies the schema
// is present before any pipeline work starts.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	for _, table := range requiredTables {
		var exists bool
		err = db.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			table,
		).Scan(&exists)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to check for table %s: %w", table, err)
		}
		if !exists {
			db.Close()
			return nil, fmt.Errorf("required table %s not found; run database migrations first", table)
		}
	}

	// Verify migrations are applied by checking schema_migrations table
	var migrationCount int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&migrationCount)
	if err != nil {
		// Table might not exist yet, which is OK for initial setup
		return db, nil
	}

	if migrationCount == 0 {
		fmt.Println("Warning: No migrations have been applied. Please run database migrations.")
	}

	return db, nil
}
