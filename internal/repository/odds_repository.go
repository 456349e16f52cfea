package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/models"
)

const oddsColumns = `id, match_id, bookmaker, over_odds, under_odds, btts_yes_odds, btts_no_odds, recorded_at`

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// Insert stores an odds snapshot
func (r *PostgresOddsRepository) Insert(ctx context.Context, odds *models.OddsSnapshot) error {
	query := `
		INSERT INTO odds_snapshots (id, match_id, bookmaker, over_odds, under_odds,
		                            btts_yes_odds, btts_no_odds, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		odds.ID, odds.MatchID, odds.Bookmaker, odds.OverOdds, odds.UnderOdds,
		odds.BTTSYesOdds, odds.BTTSNoOdds, odds.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert odds snapshot: %w", err)
	}

	return nil
}

// InsertBatch stores multiple odds snapshots in a single transaction
func (r *PostgresOddsRepository) InsertBatch(ctx context.Context, snapshots []*models.OddsSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO odds_snapshots (id, match_id, bookmaker, over_odds, under_odds,
			                            btts_yes_odds, btts_no_odds, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for _, odds := range snapshots {
			if _, err := tx.Exec(ctx, query,
				odds.ID, odds.MatchID, odds.Bookmaker, odds.OverOdds, odds.UnderOdds,
				odds.BTTSYesOdds, odds.BTTSNoOdds, odds.RecordedAt,
			); err != nil {
				return fmt.Errorf("failed to insert odds snapshot batch: %w", err)
			}
		}
		return nil
	})
}

// GetLatest retrieves the most recent odds snapshot for a match
func (r *PostgresOddsRepository) GetLatest(ctx context.Context, matchID uuid.UUID) (*models.OddsSnapshot, error) {
	query := `
		SELECT ` + oddsColumns + `
		FROM odds_snapshots
		WHERE match_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, matchID)
}

// GetLatestBefore retrieves the most recent snapshot taken at or before the
// given instant. Backtests use it to price picks with only the odds that were
// knowable at replay time.
func (r *PostgresOddsRepository) GetLatestBefore(ctx context.Context, matchID uuid.UUID, before time.Time) (*models.OddsSnapshot, error) {
	query := `
		SELECT ` + oddsColumns + `
		FROM odds_snapshots
		WHERE match_id = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, matchID, before)
}

func (r *PostgresOddsRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.OddsSnapshot, error) {
	odds := &models.OddsSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, args...).Scan(
		&odds.ID, &odds.MatchID, &odds.Bookmaker, &odds.OverOdds, &odds.UnderOdds,
		&odds.BTTSYesOdds, &odds.BTTSNoOdds, &odds.RecordedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get odds snapshot: %w", err)
	}

	return odds, nil
}
