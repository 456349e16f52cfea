// Package main provides the entry point for importing match and odds data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/datasource"
	applogger "github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/repository"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		filePath   = flag.String("file", "", "Import a football-data.co.uk results CSV instead of calling the API")
		season     = flag.String("season", "", "Season label for CSV rows, e.g. 2023-2024")
		startDate  = flag.String("start-date", "", "API sync window start (YYYY-MM-DD, default 7 days ago)")
		endDate    = flag.String("end-date", "", "API sync window end (YYYY-MM-DD, default today)")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := loadConfigWithSecrets(*configPath)

	appLog := applogger.NewLogger(cfg.App.LogLevel)

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	metrics.InitRegistry()
	importer := datasource.NewImporter(repos, appLog)

	var summary *datasource.ImportSummary
	if *filePath != "" {
		summary, err = importCSV(ctx, importer, *filePath, *season, appLog)
	} else {
		summary, err = importFromAPI(ctx, cfg, importer, *startDate, *endDate, appLog)
	}
	if err != nil {
		appLog.WithError(err).Fatal("Import failed")
	}

	appLog.WithFields(logrus.Fields{
		"source":         summary.Source,
		"rows_read":      summary.RowsRead,
		"matches_stored": summary.MatchesStored,
		"odds_stored":    summary.OddsStored,
		"rows_rejected":  summary.RowsRejected,
	}).Info("Import completed")

	fmt.Printf("Imported %d matches (%d odds snapshots, %d rows rejected) from %s\n",
		summary.MatchesStored, summary.OddsStored, summary.RowsRejected, summary.Source)
}

func importCSV(ctx context.Context, importer *datasource.Importer, path, season string, appLog *logrus.Logger) (*datasource.ImportSummary, error) {
	if season == "" {
		return nil, fmt.Errorf("-season is required when importing a CSV file")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := datasource.ParseResultsCSV(f, season)
	if err != nil {
		return nil, err
	}
	appLog.WithFields(logrus.Fields{
		"path":          path,
		"rows_read":     parsed.RowsRead,
		"rows_rejected": parsed.RowsRejected,
	}).Info("Parsed results file")

	summary, err := importer.Import(ctx, datasource.CSVSourceName, parsed.Fixtures)
	if err != nil {
		return nil, err
	}
	summary.RowsRead = parsed.RowsRead
	summary.RowsRejected += parsed.RowsRejected
	return summary, nil
}

func importFromAPI(ctx context.Context, cfg *config.Config, importer *datasource.Importer, startDate, endDate string, appLog *logrus.Logger) (*datasource.ImportSummary, error) {
	factory := datasource.NewFactory(appLog)
	sources, err := factory.NewDataSources(cfg.DataSources)
	if err != nil {
		return nil, err
	}
	source := sources[0]

	end := time.Now().UTC()
	if endDate != "" {
		if end, err = time.Parse("2006-01-02", endDate); err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
	}
	start := end.Add(-7 * 24 * time.Hour)
	if startDate != "" {
		if start, err = time.Parse("2006-01-02", startDate); err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
	}

	results, err := source.FetchResults(ctx, start, end)
	if err != nil {
		return nil, err
	}

	fixtures, err := source.FetchFixtures(ctx, time.Now().UTC(), time.Now().UTC().Add(cfg.Lookahead()))
	if err != nil {
		appLog.WithError(err).Warn("Fixture fetch failed; importing results only")
	} else {
		results = append(results, fixtures...)
	}

	return importer.Import(ctx, source.Name(), results)
}

func loadConfigWithSecrets(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}
