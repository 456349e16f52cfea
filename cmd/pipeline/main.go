// Package main provides the entry point for the pick generation pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/datasource"
	"github.com/yourusername/pitch-edge/internal/ensemble"
	"github.com/yourusername/pitch-edge/internal/features"
	"github.com/yourusername/pitch-edge/internal/health"
	applogger "github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/picks"
	"github.com/yourusername/pitch-edge/internal/repository"
	"github.com/yourusername/pitch-edge/internal/scheduler"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		serve      = flag.Bool("serve", false, "Run continuously on the configured schedule")
	)
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)

	appLog := applogger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"serve":       *serve,
	}).Info("Pitch Edge pipeline starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
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
	generator := picks.NewGenerator(repos, engine, ens, cfg.Pipeline, appLog)

	if !*serve {
		summary, err := generator.Run(ctx)
		if err != nil {
			appLog.WithError(err).Fatal("Pipeline run failed")
		}
		appLog.WithFields(logrus.Fields{
			"processed": summary.Processed,
			"emitted":   summary.Emitted,
			"skipped":   summary.Skipped,
			"duration":  summary.Duration.String(),
		}).Info("Pipeline run completed")
		return
	}

	runServe(ctx, cfg, db, repos, store, generator, appLog)
}

// runServe runs the pipeline on its cron schedule with health endpoints,
// nightly data sync and the optional live odds stream.
func runServe(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	repos *repository.Repositories,
	store *ensemble.ArtifactStore,
	generator *picks.Generator,
	appLog *logrus.Logger,
) {
	healthServer := newHealthServer(cfg, db, store, appLog)
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	sched := scheduler.NewScheduler(appLog)

	if cfg.Scheduler.Enabled {
		if err := sched.SchedulePipeline(cfg.Scheduler.CronSpec, generator); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule pipeline")
		}
	}

	importer := datasource.NewImporter(repos, appLog)
	scheduleDataSync(cfg, sched, importer, appLog)

	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	if cfg.DataSources.Stream.Enabled {
		startOddsStream(ctx, cfg, repos, importer, appLog)
	}

	healthServer.SetReady(true)
	appLog.WithField("next_run", sched.GetNextRun().Format(time.RFC3339)).Info("Pipeline service running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	appLog.WithField("signal", sig.String()).Info("Shutdown signal received")
	healthServer.SetReady(false)
}

func newHealthServer(cfg *config.Config, db *database.DB, store *ensemble.ArtifactStore, appLog *logrus.Logger) *health.Server {
	modelCheck := func(ctx context.Context) error {
		for _, t := range models.TrainablePredictionTypes {
			if _, err := store.CurrentVersion(t); err != nil {
				return fmt.Errorf("no current model for %s: %w", t, err)
			}
		}
		return nil
	}

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		DB:          db,
		ModelCheck:  modelCheck,
	}
	if cfg.Metrics.Enabled {
		healthCfg.Port = strconv.Itoa(cfg.Metrics.Port)
		healthCfg.Metrics = metrics.Handler()
		healthCfg.MetricsPath = cfg.Metrics.Path
	}
	return health.NewServer(healthCfg)
}

// scheduleDataSync refreshes fixtures inside the pick window and heals the
// trailing week of results from the first enabled provider.
func scheduleDataSync(cfg *config.Config, sched *scheduler.Scheduler, importer *datasource.Importer, appLog *logrus.Logger) {
	factory := datasource.NewFactory(appLog)
	sources, err := factory.NewDataSources(cfg.DataSources)
	if err != nil {
		appLog.WithError(err).Warn("No data sources available; skipping data sync job")
		return
	}
	source := sources[0]

	syncFn := func(ctx context.Context, start, end time.Time) error {
		fixtures, err := source.FetchFixtures(ctx, time.Now().UTC(), time.Now().UTC().Add(cfg.Lookahead()))
		if err != nil {
			return fmt.Errorf("fixture fetch failed: %w", err)
		}
		if _, err := importer.Import(ctx, source.Name(), fixtures); err != nil {
			return err
		}

		results, err := source.FetchResults(ctx, start, end)
		if err != nil {
			return fmt.Errorf("results fetch failed: %w", err)
		}
		_, err = importer.Import(ctx, source.Name(), results)
		return err
	}

	if err := sched.ScheduleResultsSync("30 4 * * *", source.Name(), syncFn); err != nil {
		appLog.WithError(err).Warn("Failed to schedule data sync job")
	}
}

// startOddsStream subscribes to live price updates for matches inside the
// pick window. Stream failures are non-fatal; the pipeline falls back to the
// snapshots already in storage.
func startOddsStream(ctx context.Context, cfg *config.Config, repos *repository.Repositories, importer *datasource.Importer, appLog *logrus.Logger) {
	stream := datasource.NewOddsStreamClient(cfg.DataSources.Stream.URL, cfg.DataSources.Stream.APIKey, appLog)

	if err := stream.Connect(ctx); err != nil {
		appLog.WithError(err).Warn("Odds stream unavailable")
		return
	}
	if err := stream.Authenticate(ctx); err != nil {
		appLog.WithError(err).Warn("Odds stream authentication failed")
		stream.Close()
		return
	}

	now := time.Now().UTC()
	upcoming, err := repos.Match.GetUpcoming(ctx, now, now.Add(cfg.Lookahead()))
	if err != nil {
		appLog.WithError(err).Warn("Could not load upcoming matches for stream subscription")
		stream.Close()
		return
	}

	sourceIDs := make([]string, 0, len(upcoming))
	for _, match := range upcoming {
		if match.ExternalID != "" {
			sourceIDs = append(sourceIDs, match.ExternalID)
		}
	}
	if len(sourceIDs) == 0 {
		appLog.Info("No upcoming matches to stream odds for")
		stream.Close()
		return
	}

	stream.AddHandler(func(update *datasource.OddsUpdate) error {
		return importer.StoreUpdate(ctx, update)
	})
	if err := stream.Subscribe(ctx, sourceIDs); err != nil {
		appLog.WithError(err).Warn("Odds stream subscription failed")
		stream.Close()
		return
	}

	appLog.WithField("matches", len(sourceIDs)).Info("Odds stream connected")

	go func() {
		<-ctx.Done()
		stream.Close()
	}()
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
