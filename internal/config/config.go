// Package config provides configuration management for the Pitch Edge application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Models      ModelsConfig      `mapstructure:"models" validate:"required"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline" validate:"required"`
	Features    FeaturesConfig    `mapstructure:"features" validate:"required"`
	Training    TrainingConfig    `mapstructure:"training" validate:"required"`
	Backtest    BacktestConfig    `mapstructure:"backtest" validate:"required"`
	DataSources DataSourcesConfig `mapstructure:"data_sources" validate:"required"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ModelsConfig represents model artifact storage configuration
type ModelsConfig struct {
	ArtifactDir     string `mapstructure:"artifact_dir" validate:"required"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize    int    `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// PipelineConfig represents pick generation configuration
type PipelineConfig struct {
	LookaheadHours    int      `mapstructure:"lookahead_hours" validate:"required,gt=0"`
	MinEdge           float64  `mapstructure:"min_edge" validate:"required,gt=0"`
	PredictionTypes   []string `mapstructure:"prediction_types" validate:"required,min=1,predictiontypes"`
	MaxConcurrent     int      `mapstructure:"max_concurrent" validate:"required,gt=0"`
	TimeBudgetSeconds int      `mapstructure:"time_budget_seconds" validate:"required,gt=0"`
}

// FeaturesConfig represents feature engineering configuration
type FeaturesConfig struct {
	ShortWindow        int              `mapstructure:"short_window" validate:"required,gt=0"`
	LongWindow         int              `mapstructure:"long_window" validate:"required,gt=0"`
	HeadToHeadCap      int              `mapstructure:"head_to_head_cap" validate:"required,gt=0"`
	MinMatchesReliable int              `mapstructure:"min_matches_reliable" validate:"required,gt=0"`
	LeagueDefaults     *FeatureDefaults `mapstructure:"league_defaults"`
}

// FeatureDefaults holds league-average fallback values used when a team has
// no history at all. A nil LeagueDefaults disables the final fallback rung.
type FeatureDefaults struct {
	GoalsScored   float64 `mapstructure:"goals_scored" validate:"gt=0"`
	GoalsConceded float64 `mapstructure:"goals_conceded" validate:"gt=0"`
	Shots         float64 `mapstructure:"shots" validate:"gt=0"`
	ShotsOnTarget float64 `mapstructure:"shots_on_target" validate:"gt=0"`
	Corners       float64 `mapstructure:"corners" validate:"gt=0"`
	BTTSRate      float64 `mapstructure:"btts_rate" validate:"gte=0,lte=1"`
	OverRate      float64 `mapstructure:"over_rate" validate:"gte=0,lte=1"`
}

// TrainingConfig represents offline model training configuration
type TrainingConfig struct {
	Rounds           int     `mapstructure:"rounds" validate:"required,gt=0"`
	MaxDepth         int     `mapstructure:"max_depth" validate:"required,gt=0,lte=8"`
	LearningRate     float64 `mapstructure:"learning_rate" validate:"required,gt=0,lte=1"`
	MinLeafSamples   int     `mapstructure:"min_leaf_samples" validate:"required,gt=0"`
	ValidationSplit  float64 `mapstructure:"validation_split" validate:"required,gt=0,lt=1"`
	MinTrainingRows  int     `mapstructure:"min_training_rows" validate:"required,gt=0"`
	BaseTreeWeight   float64 `mapstructure:"base_tree_weight" validate:"required,gt=0,lte=1"`
	KeepLastVersions int     `mapstructure:"keep_last_versions" validate:"required,gt=0"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	StartDate       string  `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string  `mapstructure:"end_date" validate:"required,datetime=2006-01-02"`
	MinEdge         float64 `mapstructure:"min_edge" validate:"required,gt=0"`
	InitialBankroll float64 `mapstructure:"initial_bankroll" validate:"required,gt=0"`
	FlatStake       float64 `mapstructure:"flat_stake" validate:"required,gt=0"`
	OutputPath      string  `mapstructure:"output_path" validate:"required"`
}

// DataSourcesConfig represents external data provider configuration
type DataSourcesConfig struct {
	Sources []DataSourceConfig `mapstructure:"sources" validate:"required,min=1"`
	Stream  StreamConfig       `mapstructure:"stream"`
}

// DataSourceConfig represents a single fixture/odds provider
type DataSourceConfig struct {
	Name              string `mapstructure:"name" validate:"required"`
	Enabled           bool   `mapstructure:"enabled"`
	BaseURL           string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey            string `mapstructure:"api_key"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" validate:"omitempty,gt=0"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
}

// StreamConfig represents the live odds stream connection
type StreamConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	URL                  string `mapstructure:"url"`
	APIKey               string `mapstructure:"api_key"`
	ReconnectDelaySeconds int   `mapstructure:"reconnect_delay_seconds" validate:"omitempty,gt=0"`
}

// SchedulerConfig represents pipeline scheduling configuration
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CronSpec string `mapstructure:"cron_spec" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Lookahead returns the pick generation window as a duration
func (c *Config) Lookahead() time.Duration {
	return time.Duration(c.Pipeline.LookaheadHours) * time.Hour
}

// PipelineTimeBudget returns the soft time budget for a pipeline run
func (c *Config) PipelineTimeBudget() time.Duration {
	return time.Duration(c.Pipeline.TimeBudgetSeconds) * time.Second
}
