package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pitch-edge/internal/models"
)

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	Upsert(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Match, error)
	GetUpcoming(ctx context.Context, from, to time.Time) ([]*models.Match, error)
	GetFinishedBetween(ctx context.Context, start, end time.Time) ([]*models.Match, error)
	GetTeamHistoryBefore(ctx context.Context, team string, before time.Time, limit int) ([]*models.Match, error)
	GetHeadToHeadBefore(ctx context.Context, homeTeam, awayTeam string, before time.Time, limit int) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
}

// OddsRepository defines the interface for odds snapshot data access
type OddsRepository interface {
	Insert(ctx context.Context, odds *models.OddsSnapshot) error
	InsertBatch(ctx context.Context, odds []*models.OddsSnapshot) error
	GetLatest(ctx context.Context, matchID uuid.UUID) (*models.OddsSnapshot, error)
	GetLatestBefore(ctx context.Context, matchID uuid.UUID, before time.Time) (*models.OddsSnapshot, error)
}

// PickRepository defines the interface for pick persistence. Create must be
// idempotent per (match, prediction type, pick date): a conflicting insert
// returns models.ErrDuplicatePick and leaves the stored pick untouched.
type PickRepository interface {
	Create(ctx context.Context, pick *models.Pick) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pick, error)
	GetByMatchID(ctx context.Context, matchID uuid.UUID) ([]*models.Pick, error)
	GetByDate(ctx context.Context, date time.Time) ([]*models.Pick, error)
	GetRecent(ctx context.Context, limit int) ([]*models.Pick, error)
}
