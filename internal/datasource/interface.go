// Package datasource fetches fixtures, results and odds from external
// football data providers and normalizes them for storage.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DataSource defines the interface for fetching football data from external providers
type DataSource interface {
	// FetchFixtures retrieves scheduled matches within the specified date range
	FetchFixtures(ctx context.Context, startDate, endDate time.Time) ([]FixtureData, error)

	// FetchResults retrieves finished matches within the specified date range
	FetchResults(ctx context.Context, startDate, endDate time.Time) ([]FixtureData, error)

	// FetchOdds retrieves current market odds for a fixture by provider ID
	FetchOdds(ctx context.Context, sourceID string) (*MarketOdds, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// FixtureData represents a normalized match from any data source
type FixtureData struct {
	SourceID      string      `json:"source_id"`       // Provider's unique match ID
	League        string      `json:"league"`          // Competition code (e.g. "E0")
	Season        string      `json:"season"`          // Season label (e.g. "2023-2024")
	HomeTeam      string      `json:"home_team"`       // Home side name
	AwayTeam      string      `json:"away_team"`       // Away side name
	Kickoff       time.Time   `json:"kickoff"`         // Kickoff time UTC
	Status        string      `json:"status"`          // scheduled, finished, postponed, cancelled
	HomeGoals     *int        `json:"home_goals"`      // Final score, nil before full time
	AwayGoals     *int        `json:"away_goals"`      //
	HomeShots     *int        `json:"home_shots"`      // Match statistics, nil when the
	AwayShots     *int        `json:"away_shots"`      // provider does not publish them
	HomeShotsOT   *int        `json:"home_shots_ot"`   //
	AwayShotsOT   *int        `json:"away_shots_ot"`   //
	HomeCorners   *int        `json:"home_corners"`    //
	AwayCorners   *int        `json:"away_corners"`    //
	Odds          *MarketOdds `json:"odds"`            // Closing or current prices, if carried
	CreatedAt     time.Time   `json:"created_at"`      // When data was fetched
}

// MarketOdds holds decimal prices for the markets the pipeline predicts.
// A nil price means the market was not offered by the bookmaker.
type MarketOdds struct {
	Bookmaker   string           `json:"bookmaker"`
	OverOdds    *decimal.Decimal `json:"over_odds"`
	UnderOdds   *decimal.Decimal `json:"under_odds"`
	BTTSYesOdds *decimal.Decimal `json:"btts_yes_odds"`
	BTTSNoOdds  *decimal.Decimal `json:"btts_no_odds"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

const dataSourceDisabledMsg = "data source is disabled"

// Error constructors
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
