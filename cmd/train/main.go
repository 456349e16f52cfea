// Package main provides the entry point for offline model training.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/ensemble"
	"github.com/yourusername/pitch-edge/internal/features"
	applogger "github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/repository"
	"github.com/yourusername/pitch-edge/internal/training"
)

var (
	configFile     string
	predictionType string
	startDate      string
	endDate        string

	appLog  *logrus.Logger
	cfg     *config.Config
	db      *database.DB
	trainer *training.Trainer
	store   *ensemble.ArtifactStore
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&predictionType, "type", "t", "all", "Market to train: over_under_2.5, btts or all")
	rootCmd.Flags().StringVar(&startDate, "start-date", "", "Training window start (YYYY-MM-DD, default two seasons back)")
	rootCmd.Flags().StringVar(&endDate, "end-date", "", "Training window end (YYYY-MM-DD, default today)")
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and promote prediction models",
	Long:  `Fits the gradient-boosted tree and Poisson components on finished matches, validates on the newest slice and promotes the new version.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupDependencies(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer db.Close()
		return runTraining(cmd.Context())
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setupDependencies() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = applogger.NewLogger(cfg.App.LogLevel)

	db, err = database.NewDB(context.Background(), &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	metrics.InitRegistry()

	store = ensemble.NewArtifactStore(cfg.Models.ArtifactDir)
	engine := features.NewEngine(repos.Match, cfg.Features, appLog)
	trainer = training.NewTrainer(repos.Match, engine, store, cfg.Training, appLog)

	return nil
}

func runTraining(ctx context.Context) error {
	start, end, err := trainingWindow()
	if err != nil {
		return err
	}

	types, err := resolveTypes(predictionType)
	if err != nil {
		return err
	}

	for _, t := range types {
		report, err := trainer.Train(ctx, t, start, end)
		if err != nil {
			return fmt.Errorf("training %s failed: %w", t, err)
		}

		appLog.WithFields(logrus.Fields{
			"prediction_type": report.PredictionType,
			"version":         report.Version,
			"training_rows":   report.TrainingRows,
			"validation_rows": report.ValidationRows,
			"skipped_matches": report.SkippedMatches,
			"metrics":         report.ValidationMetrics,
			"promoted":        report.Promoted,
			"duration":        report.Duration.String(),
		}).Info("Training completed")

		current, err := store.CurrentVersion(t)
		if err != nil {
			return err
		}
		fmt.Printf("%s: promoted version %s (log_loss=%.4f accuracy=%.4f)\n",
			t, current,
			report.ValidationMetrics["log_loss"],
			report.ValidationMetrics["accuracy"])
	}

	return nil
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

func trainingWindow() (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if endDate != "" {
		parsed, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
		end = parsed
	}

	// Two seasons of history by default
	start := end.AddDate(-2, 0, 0)
	if startDate != "" {
		parsed, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
		}
		start = parsed
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}
