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

const matchColumns = `id, external_id, league, season, home_team, away_team, kickoff, status,
	       home_goals, away_goals, home_shots, away_shots, home_shots_on_target,
	       away_shots_on_target, home_corners, away_corners, created_at, updated_at`

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// Create inserts a new match
func (r *PostgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (id, external_id, league, season, home_team, away_team, kickoff, status,
		                     home_goals, away_goals, home_shots, away_shots, home_shots_on_target,
		                     away_shots_on_target, home_corners, away_corners)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		match.ID, match.ExternalID, match.League, match.Season, match.HomeTeam, match.AwayTeam,
		match.Kickoff, match.Status, match.HomeGoals, match.AwayGoals, match.HomeShots,
		match.AwayShots, match.HomeShotsOnTarget, match.AwayShotsOnTarget,
		match.HomeCorners, match.AwayCorners,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	return nil
}

// upsertMatchQuery refreshes result columns keyed on external_id. The unique
// index on external_id is partial (empty IDs are exempt), and PostgreSQL only
// picks a partial index as the conflict arbiter when the conflict target
// repeats its predicate.
const upsertMatchQuery = `
		INSERT INTO matches (id, external_id, league, season, home_team, away_team, kickoff, status,
		                     home_goals, away_goals, home_shots, away_shots, home_shots_on_target,
		                     away_shots_on_target, home_corners, away_corners)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (external_id) WHERE external_id <> '' DO UPDATE SET
			kickoff = EXCLUDED.kickoff,
			status = EXCLUDED.status,
			home_goals = EXCLUDED.home_goals,
			away_goals = EXCLUDED.away_goals,
			home_shots = EXCLUDED.home_shots,
			away_shots = EXCLUDED.away_shots,
			home_shots_on_target = EXCLUDED.home_shots_on_target,
			away_shots_on_target = EXCLUDED.away_shots_on_target,
			home_corners = EXCLUDED.home_corners,
			away_corners = EXCLUDED.away_corners,
			updated_at = NOW()
	`

// Upsert inserts a match or refreshes its result columns keyed on external_id.
// Used by ingestion where the same fixture arrives repeatedly as it
// progresses. Rows without an external ID cannot be deduplicated, so they are
// rejected rather than silently duplicated on every sync.
func (r *PostgresMatchRepository) Upsert(ctx context.Context, match *models.Match) error {
	if match.ExternalID == "" {
		return fmt.Errorf("match %s has no external ID; refusing upsert", match.ID)
	}

	_, err := r.db.GetPool().Exec(ctx, upsertMatchQuery,
		match.ID, match.ExternalID, match.League, match.Season, match.HomeTeam, match.AwayTeam,
		match.Kickoff, match.Status, match.HomeGoals, match.AwayGoals, match.HomeShots,
		match.AwayShots, match.HomeShotsOnTarget, match.AwayShotsOnTarget,
		match.HomeCorners, match.AwayCorners,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}

	return nil
}

// GetByID retrieves a match by ID
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(scanTargets(match)...)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// GetByExternalID retrieves a match by its provider key
func (r *PostgresMatchRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE external_id = $1`

	match := &models.Match{}
	err := r.db.GetPool().QueryRow(ctx, query, externalID).Scan(scanTargets(match)...)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by external ID: %w", err)
	}

	return match, nil
}

// GetUpcoming retrieves scheduled matches kicking off within [from, to]
func (r *PostgresMatchRepository) GetUpcoming(ctx context.Context, from, to time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'scheduled' AND kickoff >= $1 AND kickoff <= $2
		ORDER BY kickoff ASC
	`

	return r.queryMatches(ctx, query, from, to)
}

// GetFinishedBetween retrieves finished matches in chronological order
func (r *PostgresMatchRepository) GetFinishedBetween(ctx context.Context, start, end time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'finished' AND kickoff >= $1 AND kickoff <= $2
		ORDER BY kickoff ASC
	`

	return r.queryMatches(ctx, query, start, end)
}

// GetTeamHistoryBefore retrieves a team's most recent finished matches strictly
// before the given cutoff, newest first. The cutoff keeps feature computation
// free of information from the match being predicted.
func (r *PostgresMatchRepository) GetTeamHistoryBefore(ctx context.Context, team string, before time.Time, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'finished' AND (home_team = $1 OR away_team = $1) AND kickoff < $2
		ORDER BY kickoff DESC
		LIMIT $3
	`

	return r.queryMatches(ctx, query, team, before, limit)
}

// GetHeadToHeadBefore retrieves prior meetings between two teams (either venue),
// newest first, strictly before the cutoff.
func (r *PostgresMatchRepository) GetHeadToHeadBefore(ctx context.Context, homeTeam, awayTeam string, before time.Time, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'finished'
		  AND ((home_team = $1 AND away_team = $2) OR (home_team = $2 AND away_team = $1))
		  AND kickoff < $3
		ORDER BY kickoff DESC
		LIMIT $4
	`

	return r.queryMatches(ctx, query, homeTeam, awayTeam, before, limit)
}

// Update updates an existing match
func (r *PostgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches SET
			kickoff = $2, status = $3, home_goals = $4, away_goals = $5,
			home_shots = $6, away_shots = $7, home_shots_on_target = $8,
			away_shots_on_target = $9, home_corners = $10, away_corners = $11,
			updated_at = NOW()
		WHERE id = $1
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		match.ID, match.Kickoff, match.Status, match.HomeGoals, match.AwayGoals,
		match.HomeShots, match.AwayShots, match.HomeShotsOnTarget, match.AwayShotsOnTarget,
		match.HomeCorners, match.AwayCorners,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match := &models.Match{}
		if err := rows.Scan(scanTargets(match)...); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, rows.Err()
}

func scanTargets(m *models.Match) []interface{} {
	return []interface{}{
		&m.ID, &m.ExternalID, &m.League, &m.Season, &m.HomeTeam, &m.AwayTeam,
		&m.Kickoff, &m.Status, &m.HomeGoals, &m.AwayGoals, &m.HomeShots,
		&m.AwayShots, &m.HomeShotsOnTarget, &m.AwayShotsOnTarget,
		&m.HomeCorners, &m.AwayCorners, &m.CreatedAt, &m.UpdatedAt,
	}
}
