package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// FootballDataClient implements DataSource for the football-data.org v4 API
type FootballDataClient struct {
	httpClient  *RateLimitedHTTPClient
	baseURL     string
	apiKey      string
	competition string
	enabled     bool
	logger      *logrus.Entry
}

// fdMatchesResponse is the envelope of the matches endpoint
type fdMatchesResponse struct {
	Matches []fdMatch `json:"matches"`
}

// fdMatch represents a match from the football-data API
type fdMatch struct {
	ID          int64     `json:"id"`
	UTCDate     time.Time `json:"utcDate"`
	Status      string    `json:"status"`
	Competition struct {
		Code string `json:"code"`
	} `json:"competition"`
	Season struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"season"`
	HomeTeam struct {
		Name string `json:"name"`
	} `json:"homeTeam"`
	AwayTeam struct {
		Name string `json:"name"`
	} `json:"awayTeam"`
	Score struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
	Odds *fdOdds `json:"odds"`
}

// fdOdds carries the bookmaker prices the API attaches to a match
type fdOdds struct {
	Bookmaker string   `json:"bookmaker"`
	Over25    *float64 `json:"over25"`
	Under25   *float64 `json:"under25"`
	BTTSYes   *float64 `json:"bttsYes"`
	BTTSNo    *float64 `json:"bttsNo"`
}

// NewFootballDataClient creates a new football-data API client
func NewFootballDataClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey, competition string, enabled bool, baseLogger *logrus.Logger) *FootballDataClient {
	if baseURL == "" {
		baseURL = "https://api.football-data.org/v4"
	}
	return &FootballDataClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      apiKey,
		competition: competition,
		enabled:     enabled,
		logger:      baseLogger.WithField("component", "football_data"),
	}
}

// FetchFixtures retrieves scheduled matches within the specified date range
func (c *FootballDataClient) FetchFixtures(ctx context.Context, startDate, endDate time.Time) ([]FixtureData, error) {
	return c.fetchMatches(ctx, startDate, endDate, "SCHEDULED")
}

// FetchResults retrieves finished matches within the specified date range
func (c *FootballDataClient) FetchResults(ctx context.Context, startDate, endDate time.Time) ([]FixtureData, error) {
	return c.fetchMatches(ctx, startDate, endDate, "FINISHED")
}

func (c *FootballDataClient) fetchMatches(ctx context.Context, startDate, endDate time.Time, status string) ([]FixtureData, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, nil)
	}

	url := fmt.Sprintf("%s/competitions/%s/matches?dateFrom=%s&dateTo=%s&status=%s",
		c.baseURL, c.competition, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), status)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("X-Auth-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to fetch matches", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, NewDataSourceError(c.Name(), ErrCodeAuthenticationFailed, "invalid API key", nil)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewDataSourceError(c.Name(), ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewDataSourceError(c.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload fdMatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}

	fixtures := make([]FixtureData, 0, len(payload.Matches))
	for i := range payload.Matches {
		fixtures = append(fixtures, c.convertMatch(&payload.Matches[i]))
	}
	return fixtures, nil
}

// FetchOdds retrieves current odds for a single match
func (c *FootballDataClient) FetchOdds(ctx context.Context, sourceID string) (*MarketOdds, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, nil)
	}

	url := fmt.Sprintf("%s/matches/%s/odds", c.baseURL, sourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("X-Auth-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to fetch odds", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewDataSourceError(c.Name(), ErrCodeNotFound, "match not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewDataSourceError(c.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var odds fdOdds
	if err := json.NewDecoder(resp.Body).Decode(&odds); err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse odds", err)
	}
	return convertOdds(&odds), nil
}

// Name returns the data source name
func (c *FootballDataClient) Name() string {
	return "football-data"
}

// IsEnabled returns whether this data source is enabled
func (c *FootballDataClient) IsEnabled() bool {
	return c.enabled
}

// convertMatch converts the provider format to FixtureData
func (c *FootballDataClient) convertMatch(m *fdMatch) FixtureData {
	fixture := FixtureData{
		SourceID:  fmt.Sprintf("fd-%d", m.ID),
		League:    m.Competition.Code,
		Season:    seasonLabel(m.Season.StartDate, m.Season.EndDate),
		HomeTeam:  m.HomeTeam.Name,
		AwayTeam:  m.AwayTeam.Name,
		Kickoff:   m.UTCDate.UTC(),
		Status:    convertStatus(m.Status),
		HomeGoals: m.Score.FullTime.Home,
		AwayGoals: m.Score.FullTime.Away,
		CreatedAt: time.Now().UTC(),
	}
	if m.Odds != nil {
		fixture.Odds = convertOdds(m.Odds)
	}
	return fixture
}

func convertOdds(odds *fdOdds) *MarketOdds {
	bookmaker := odds.Bookmaker
	if bookmaker == "" {
		bookmaker = "football-data"
	}
	return &MarketOdds{
		Bookmaker:   bookmaker,
		OverOdds:    floatToDecimal(odds.Over25),
		UnderOdds:   floatToDecimal(odds.Under25),
		BTTSYesOdds: floatToDecimal(odds.BTTSYes),
		BTTSNoOdds:  floatToDecimal(odds.BTTSNo),
		RecordedAt:  time.Now().UTC(),
	}
}

func convertStatus(status string) string {
	switch status {
	case "FINISHED":
		return "finished"
	case "POSTPONED", "SUSPENDED":
		return "postponed"
	case "CANCELLED":
		return "cancelled"
	default:
		return "scheduled"
	}
}

// seasonLabel derives "2023-2024" from the season date bounds.
func seasonLabel(startDate, endDate string) string {
	if len(startDate) < 4 || len(endDate) < 4 {
		return ""
	}
	if startDate[:4] == endDate[:4] {
		return startDate[:4]
	}
	return startDate[:4] + "-" + endDate[:4]
}

func floatToDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
