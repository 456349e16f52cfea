// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/backtest"
	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/ensemble"
	"github.com/yourusername/pitch-edge/internal/features"
	applogger "github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/repository"
)

func main() {
	var (
		configPath     = flag.String("config", "config/config.yaml", "Path to config file")
		predictionType = flag.String("type", "all", "Market to replay: over_under_2.5, btts or all")
		startDate      = flag.String("start-date", "", "Override start date (YYYY-MM-DD)")
		endDate        = flag.String("end-date", "", "Override end date (YYYY-MM-DD)")
		minEdge        = flag.Float64("min-edge", 0, "Override minimum edge in percentage points")
		output         = flag.String("output", "", "Override CSV export path")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := loadConfigWithSecrets(*configPath)

	appLog := applogger.NewLogger(cfg.App.LogLevel)

	btConfig := cfg.Backtest
	if *startDate != "" {
		btConfig.StartDate = *startDate
	}
	if *endDate != "" {
		btConfig.EndDate = *endDate
	}
	if *minEdge > 0 {
		btConfig.MinEdge = *minEdge
	}
	if *output != "" {
		btConfig.OutputPath = *output
	}

	types, err := resolveTypes(*predictionType)
	if err != nil {
		appLog.Fatalf("%v", err)
	}

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

	store := ensemble.NewArtifactStore(cfg.Models.ArtifactDir)
	cache := ensemble.NewPredictionCache(
		time.Duration(cfg.Models.CacheTTLSeconds)*time.Second,
		cfg.Models.CacheMaxSize,
	)
	ens := ensemble.New(store, cache, appLog)
	engine := features.NewEngine(repos.Match, cfg.Features, appLog)
	backtester := backtest.NewBacktester(repos, engine, ens, btConfig, appLog)

	for _, t := range types {
		appLog.WithFields(logrus.Fields{
			"prediction_type": t,
			"start_date":      btConfig.StartDate,
			"end_date":        btConfig.EndDate,
			"min_edge":        btConfig.MinEdge,
		}).Info("Starting backtest")

		result, err := backtester.Run(ctx, t)
		if err != nil {
			appLog.WithError(err).Fatalf("Backtest for %s failed", t)
		}

		fmt.Print(backtest.GenerateConsoleReport(result.Metrics))

		if btConfig.OutputPath != "" {
			exportPath := fmt.Sprintf("%s.%s.csv", btConfig.OutputPath, t)
			if err := backtest.GenerateCSVExport(result.Metrics, exportPath); err != nil {
				appLog.WithError(err).Error("CSV export failed")
			} else {
				appLog.WithField("path", exportPath).Info("Backtest results exported")
			}
		}
	}
}

func resolveTypes(name string) ([]models.PredictionType, error) {
	if name == "all" {
		return models.TrainablePredictionTypes, nil
	}
	t := models.PredictionType(name)
	if !t.Trainable() {
		return nil, fmt.Errorf("unsupported prediction type %q (use over_under_2.5, btts or all)", name)
	}
	return []models.PredictionType{t}, nil
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
