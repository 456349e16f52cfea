package datasource

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVSourceName labels fixtures imported from football-data.co.uk files.
const CSVSourceName = "football-data-csv"

// CSVParseResult reports what a CSV import produced.
type CSVParseResult struct {
	Fixtures     []FixtureData
	RowsRead     int
	RowsRejected int
}

// ParseResultsCSV reads a football-data.co.uk results file. The format is one
// row per finished match with full-time score, shot/corner statistics and
// closing over/under prices. Rows missing a team or a parsable date are
// rejected individually; the file as a whole only fails on a broken header.
func ParseResultsCSV(r io.Reader, season string) (*CSVParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := indexColumns(header)
	if _, ok := col["hometeam"]; !ok {
		return nil, fmt.Errorf("not a results file: no HomeTeam column")
	}

	result := &CSVParseResult{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.RowsRejected++
			continue
		}
		result.RowsRead++

		fixture, ok := parseResultRow(row, col, season)
		if !ok {
			result.RowsRejected++
			continue
		}
		result.Fixtures = append(result.Fixtures, fixture)
	}
	return result, nil
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func parseResultRow(row []string, col map[string]int, season string) (FixtureData, bool) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	home := get("hometeam")
	away := get("awayteam")
	if home == "" || away == "" {
		return FixtureData{}, false
	}

	kickoff, ok := parseKickoff(get("date"), get("time"))
	if !ok {
		return FixtureData{}, false
	}

	fixture := FixtureData{
		SourceID:    fmt.Sprintf("csv-%s-%s-%s-%s", get("div"), kickoff.Format("20060102"), slug(home), slug(away)),
		League:      get("div"),
		Season:      season,
		HomeTeam:    home,
		AwayTeam:    away,
		Kickoff:     kickoff,
		Status:      "finished",
		HomeGoals:   parseIntColumn(get("fthg")),
		AwayGoals:   parseIntColumn(get("ftag")),
		HomeShots:   parseIntColumn(get("hs")),
		AwayShots:   parseIntColumn(get("as")),
		HomeShotsOT: parseIntColumn(get("hst")),
		AwayShotsOT: parseIntColumn(get("ast")),
		HomeCorners: parseIntColumn(get("hc")),
		AwayCorners: parseIntColumn(get("ac")),
		CreatedAt:   time.Now().UTC(),
	}
	if fixture.HomeGoals == nil || fixture.AwayGoals == nil {
		return FixtureData{}, false
	}

	over := parsePrice(get("b365>2.5"))
	under := parsePrice(get("b365<2.5"))
	if over != nil || under != nil {
		fixture.Odds = &MarketOdds{
			Bookmaker:  "bet365",
			OverOdds:   over,
			UnderOdds:  under,
			RecordedAt: kickoff.Add(-time.Hour),
		}
	}

	return fixture, true
}

// parseKickoff handles both date layouts the files have used over the years.
func parseKickoff(date, kickoffTime string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	if kickoffTime == "" {
		kickoffTime = "15:00"
	}

	for _, layout := range []string{"02/01/2006 15:04", "02/01/06 15:04"} {
		if t, err := time.Parse(layout, date+" "+kickoffTime); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseIntColumn(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func parsePrice(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.LessThanOrEqual(decimal.NewFromInt(1)) {
		return nil
	}
	return &d
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}
