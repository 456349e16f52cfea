package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pitch-edge/internal/models"
)

const skipIntegrationMsg = "Integration test - requires database setup"

// TestMatchRepositoryCreate tests match creation
func TestMatchRepositoryCreate(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db)
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// match := &models.Match{
	// 	ID:         uuid.New(),
	// 	ExternalID: "E0-2024-02-03-ARS-LIV",
	// 	League:     "E0",
	// 	Season:     "2023-2024",
	// 	HomeTeam:   "Arsenal",
	// 	AwayTeam:   "Liverpool",
	// 	Kickoff:    time.Now().Add(24 * time.Hour),
	// 	Status:     models.MatchStatusScheduled,
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	// defer cancel()

	// err = repos.Match.Create(ctx, match)
	// if err != nil {
	// 	t.Fatalf("failed to create match: %v", err)
	// }

	// retrieved, err := repos.Match.GetByID(ctx, match.ID)
	// if err != nil {
	// 	t.Fatalf("failed to retrieve match: %v", err)
	// }

	// if retrieved.ID != match.ID {
	// 	t.Errorf("expected match ID %v, got %v", match.ID, retrieved.ID)
	// }
	t.Skip(skipIntegrationMsg)
}

// TestPickRepositoryDuplicateSuppressed tests the uniqueness constraint on
// (match_id, prediction_type, pick_date)
func TestPickRepositoryDuplicateSuppressed(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db)
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	// defer cancel()

	// matchID := uuid.New()
	// now := time.Now()

	// first := &models.Pick{
	// 	ID:                 uuid.New(),
	// 	MatchID:            matchID,
	// 	PredictionType:     models.PredictionOverUnder,
	// 	Side:               models.SideOver,
	// 	ModelProbability:   0.64,
	// 	Odds:               1.80,
	// 	ImpliedProbability: 0.5556,
	// 	Edge:               8.4,
	// 	Confidence:         models.ConfidenceMedium,
	// 	PickDate:           now.UTC().Truncate(24 * time.Hour),
	// }

	// if err := repos.Pick.Create(ctx, first); err != nil {
	// 	t.Fatalf("failed to create pick: %v", err)
	// }

	// // Same match/type/day with different odds must be suppressed, not updated
	// second := *first
	// second.ID = uuid.New()
	// second.Odds = 1.95

	// err = repos.Pick.Create(ctx, &second)
	// if !errors.Is(err, models.ErrDuplicatePick) {
	// 	t.Fatalf("expected ErrDuplicatePick, got %v", err)
	// }

	// stored, err := repos.Pick.GetByID(ctx, first.ID)
	// if err != nil {
	// 	t.Fatalf("failed to retrieve pick: %v", err)
	// }
	// if stored.Odds != 1.80 {
	// 	t.Errorf("stored pick odds changed: got %v", stored.Odds)
	// }
	t.Skip(skipIntegrationMsg)
}

// TestOddsRepositoryPointInTime tests point-in-time odds retrieval
func TestOddsRepositoryPointInTime(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db)
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	// defer cancel()

	// matchID := uuid.New()
	// now := time.Now()

	// // Snapshots drifting over an hour
	// snapshots := make([]*models.OddsSnapshot, 12)
	// for i := 0; i < 12; i++ {
	// 	snapshots[i] = &models.OddsSnapshot{
	// 		ID:          uuid.New(),
	// 		MatchID:     matchID,
	// 		Bookmaker:   "pinnacle",
	// 		OverOdds:    1.80 + float64(i)*0.01,
	// 		UnderOdds:   2.05 - float64(i)*0.01,
	// 		BTTSYesOdds: 1.72,
	// 		BTTSNoOdds:  2.10,
	// 		RecordedAt:  now.Add(time.Duration(i*5) * time.Minute),
	// 	}
	// }

	// err = repos.Odds.InsertBatch(ctx, snapshots)
	// if err != nil {
	// 	t.Fatalf("failed to batch insert odds: %v", err)
	// }

	// // The snapshot at t+17m should be the t+15m one, not the latest
	// snap, err := repos.Odds.GetLatestBefore(ctx, matchID, now.Add(17*time.Minute))
	// if err != nil {
	// 	t.Fatalf("failed to retrieve point-in-time odds: %v", err)
	// }
	// if snap.OverOdds != 1.83 {
	// 	t.Errorf("expected over odds 1.83 at t+17m, got %v", snap.OverOdds)
	// }
	t.Skip(skipIntegrationMsg)
}

// TestMatchRepositoryHistoryCutoff tests that team history queries exclude
// matches at or after the cutoff
func TestMatchRepositoryHistoryCutoff(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db)
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	// defer cancel()

	// // Seed a team with finished matches either side of the cutoff, then
	// // verify GetTeamHistoryBefore only returns the earlier ones.
	t.Skip(skipIntegrationMsg)
}

// TestUpsertConflictTargetMatchesPartialIndex verifies the upsert names the
// partial unique index predicate. idx_matches_external_id only covers rows
// where external_id <> '', and PostgreSQL refuses to use a partial index as
// the conflict arbiter unless the statement repeats that predicate (42P10).
func TestUpsertConflictTargetMatchesPartialIndex(t *testing.T) {
	want := "ON CONFLICT (external_id) WHERE external_id <> '' DO UPDATE"
	if !strings.Contains(upsertMatchQuery, want) {
		t.Errorf("upsert statement must repeat the partial index predicate, got:\n%s", upsertMatchQuery)
	}
}

// TestUpsertRejectsEmptyExternalID tests that rows outside the partial index
// are rejected instead of being re-inserted on every sync
func TestUpsertRejectsEmptyExternalID(t *testing.T) {
	repo := NewPostgresMatchRepository(nil)

	err := repo.Upsert(context.Background(), &models.Match{
		ID:       uuid.New(),
		League:   "E0",
		Season:   "2023-2024",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Kickoff:  time.Now().Add(24 * time.Hour),
	})
	if err == nil {
		t.Fatal("expected an error for a match without an external ID")
	}
}
