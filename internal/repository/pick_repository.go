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

const pickColumns = `id, match_id, prediction_type, side, model_probability, odds,
	       implied_probability, edge, confidence, model_version, pick_date, created_at`

// PostgresPickRepository implements PickRepository for PostgreSQL
type PostgresPickRepository struct {
	db *database.DB
}

// NewPostgresPickRepository creates a new pick repository
func NewPostgresPickRepository(db *database.DB) PickRepository {
	return &PostgresPickRepository{db: db}
}

// Create inserts a pick. The picks table carries a unique constraint on
// (match_id, prediction_type, pick_date); ON CONFLICT DO NOTHING makes
// concurrent and repeated runs race-free, and a suppressed insert surfaces
// as models.ErrDuplicatePick so callers can count it rather than fail.
func (r *PostgresPickRepository) Create(ctx context.Context, pick *models.Pick) error {
	query := `
		INSERT INTO picks (id, match_id, prediction_type, side, model_probability, odds,
		                   implied_probability, edge, confidence, model_version, pick_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (match_id, prediction_type, pick_date) DO NOTHING
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		pick.ID, pick.MatchID, pick.PredictionType, pick.Side, pick.ModelProbability,
		pick.Odds, pick.ImpliedProbability, pick.Edge, pick.Confidence,
		pick.ModelVersion, pick.PickDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create pick: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrDuplicatePick
	}

	return nil
}

// GetByID retrieves a pick by ID
func (r *PostgresPickRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks WHERE id = $1`

	pick := &models.Pick{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(pickScanTargets(pick)...)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}

	return pick, nil
}

// GetByMatchID retrieves all picks for a specific match
func (r *PostgresPickRepository) GetByMatchID(ctx context.Context, matchID uuid.UUID) ([]*models.Pick, error) {
	query := `
		SELECT ` + pickColumns + `
		FROM picks
		WHERE match_id = $1
		ORDER BY created_at DESC
	`

	return r.queryPicks(ctx, query, matchID)
}

// GetByDate retrieves all picks published on a given calendar day
func (r *PostgresPickRepository) GetByDate(ctx context.Context, date time.Time) ([]*models.Pick, error) {
	query := `
		SELECT ` + pickColumns + `
		FROM picks
		WHERE pick_date = $1
		ORDER BY created_at ASC
	`

	return r.queryPicks(ctx, query, date.UTC().Truncate(24*time.Hour))
}

// GetRecent retrieves the most recently published picks
func (r *PostgresPickRepository) GetRecent(ctx context.Context, limit int) ([]*models.Pick, error) {
	query := `
		SELECT ` + pickColumns + `
		FROM picks
		ORDER BY created_at DESC
		LIMIT $1
	`

	return r.queryPicks(ctx, query, limit)
}

func (r *PostgresPickRepository) queryPicks(ctx context.Context, query string, args ...interface{}) ([]*models.Pick, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	var picks []*models.Pick
	for rows.Next() {
		pick := &models.Pick{}
		if err := rows.Scan(pickScanTargets(pick)...); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, pick)
	}

	return picks, rows.Err()
}

func pickScanTargets(p *models.Pick) []interface{} {
	return []interface{}{
		&p.ID, &p.MatchID, &p.PredictionType, &p.Side, &p.ModelProbability,
		&p.Odds, &p.ImpliedProbability, &p.Edge, &p.Confidence,
		&p.ModelVersion, &p.PickDate, &p.CreatedAt,
	}
}
