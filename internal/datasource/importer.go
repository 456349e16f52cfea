package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/repository"
)

// Importer stores normalized fixture data. Fixtures are upserted on the
// provider's external ID so repeated syncs refresh rather than duplicate;
// odds always append a new snapshot to preserve the price history.
type Importer struct {
	repos *repository.Repositories
	log   *logrus.Entry
	audit *logger.AuditLogger
}

// ImportSummary reports one import run.
type ImportSummary struct {
	Source        string `json:"source"`
	RowsRead      int    `json:"rows_read"`
	MatchesStored int    `json:"matches_stored"`
	OddsStored    int    `json:"odds_stored"`
	RowsRejected  int    `json:"rows_rejected"`
}

// NewImporter creates an importer over the repositories.
func NewImporter(repos *repository.Repositories, baseLogger *logrus.Logger) *Importer {
	return &Importer{
		repos: repos,
		log:   baseLogger.WithField("component", "importer"),
		audit: logger.NewAuditLogger(baseLogger),
	}
}

// Import stores a batch of fixtures from one source.
func (im *Importer) Import(ctx context.Context, source string, fixtures []FixtureData) (*ImportSummary, error) {
	summary := &ImportSummary{Source: source, RowsRead: len(fixtures)}

	for i := range fixtures {
		fixture := &fixtures[i]

		match, err := im.storeFixture(ctx, fixture)
		if err != nil {
			summary.RowsRejected++
			im.log.WithFields(logrus.Fields{
				"source_id": fixture.SourceID,
				"error":     err.Error(),
			}).Warn("Fixture rejected")
			continue
		}
		summary.MatchesStored++

		if fixture.Odds != nil {
			if err := im.storeOdds(ctx, match.ID, fixture.Odds); err != nil {
				im.log.WithFields(logrus.Fields{
					"match_id": match.ID,
					"error":    err.Error(),
				}).Warn("Odds snapshot rejected")
			} else {
				summary.OddsStored++
			}
		}
	}

	metrics.RecordMatchesImported(source, summary.MatchesStored)
	metrics.RecordOddsIngested(summary.OddsStored)
	im.audit.LogDataImport(source, summary.RowsRead, summary.MatchesStored, summary.RowsRejected)

	return summary, nil
}

// StoreUpdate persists one live odds revision against its match.
func (im *Importer) StoreUpdate(ctx context.Context, update *OddsUpdate) error {
	match, err := im.repos.Match.GetByExternalID(ctx, update.SourceID)
	if err != nil {
		return fmt.Errorf("no stored match for stream update %s: %w", update.SourceID, err)
	}

	odds := &MarketOdds{
		Bookmaker:   update.Bookmaker,
		OverOdds:    update.OverOdds,
		UnderOdds:   update.UnderOdds,
		BTTSYesOdds: update.BTTSYesOdds,
		BTTSNoOdds:  update.BTTSNoOdds,
		RecordedAt:  time.Now().UTC(),
	}
	if err := im.storeOdds(ctx, match.ID, odds); err != nil {
		return err
	}
	metrics.RecordOddsIngested(1)
	return nil
}

func (im *Importer) storeFixture(ctx context.Context, fixture *FixtureData) (*models.Match, error) {
	if fixture.HomeTeam == "" || fixture.AwayTeam == "" {
		return nil, fmt.Errorf("fixture %s is missing a team", fixture.SourceID)
	}
	if fixture.Kickoff.IsZero() {
		return nil, fmt.Errorf("fixture %s has no kickoff time", fixture.SourceID)
	}

	match := &models.Match{
		ID:                uuid.New(),
		ExternalID:        fixture.SourceID,
		League:            fixture.League,
		Season:            fixture.Season,
		HomeTeam:          fixture.HomeTeam,
		AwayTeam:          fixture.AwayTeam,
		Kickoff:           fixture.Kickoff,
		Status:            fixture.Status,
		HomeGoals:         fixture.HomeGoals,
		AwayGoals:         fixture.AwayGoals,
		HomeShots:         fixture.HomeShots,
		AwayShots:         fixture.AwayShots,
		HomeShotsOnTarget: fixture.HomeShotsOT,
		AwayShotsOnTarget: fixture.AwayShotsOT,
		HomeCorners:       fixture.HomeCorners,
		AwayCorners:       fixture.AwayCorners,
	}
	if match.Status == "" {
		match.Status = models.MatchStatusScheduled
	}

	if err := im.repos.Match.Upsert(ctx, match); err != nil {
		return nil, err
	}

	// Upsert may have resolved to an existing row; re-read for the stored ID
	stored, err := im.repos.Match.GetByExternalID(ctx, fixture.SourceID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (im *Importer) storeOdds(ctx context.Context, matchID uuid.UUID, odds *MarketOdds) error {
	snapshot := &models.OddsSnapshot{
		ID:          uuid.New(),
		MatchID:     matchID,
		Bookmaker:   odds.Bookmaker,
		OverOdds:    decimalToFloat(odds.OverOdds),
		UnderOdds:   decimalToFloat(odds.UnderOdds),
		BTTSYesOdds: decimalToFloat(odds.BTTSYesOdds),
		BTTSNoOdds:  decimalToFloat(odds.BTTSNoOdds),
		RecordedAt:  odds.RecordedAt,
	}
	if snapshot.RecordedAt.IsZero() {
		snapshot.RecordedAt = time.Now().UTC()
	}
	if snapshot.OverOdds == 0 && snapshot.UnderOdds == 0 &&
		snapshot.BTTSYesOdds == 0 && snapshot.BTTSNoOdds == 0 {
		return fmt.Errorf("odds snapshot carries no prices")
	}
	return im.repos.Odds.Insert(ctx, snapshot)
}

func decimalToFloat(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
