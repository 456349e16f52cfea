package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
)

// Factory creates DataSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new data source factory
func NewFactory(logger *logrus.Logger) *Factory {
	return &Factory{logger: logger}
}

// NewDataSource creates a new DataSource based on the provided configuration
func (f *Factory) NewDataSource(cfg config.DataSourceConfig) (DataSource, error) {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.RequestsPerMinute > 0 {
		httpCfg.RateLimit = float64(cfg.RequestsPerMinute) / 60.0
	}
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	httpClient := NewRateLimitedHTTPClient(httpCfg, f.logger)

	switch cfg.Name {
	case "football-data":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("football-data API key is required")
		}
		return NewFootballDataClient(httpClient, cfg.BaseURL, cfg.APIKey, "PL", cfg.Enabled, f.logger), nil

	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Name)
	}
}

// NewDataSources creates all enabled data sources from configuration
func (f *Factory) NewDataSources(cfg config.DataSourcesConfig) ([]DataSource, error) {
	var sources []DataSource

	for _, srcCfg := range cfg.Sources {
		if !srcCfg.Enabled {
			f.logger.WithField("source", srcCfg.Name).Info("Skipping disabled data source")
			continue
		}

		source, err := f.NewDataSource(srcCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create data source %s: %w", srcCfg.Name, err)
		}

		sources = append(sources, source)
		f.logger.WithField("source", srcCfg.Name).Info("Created data source")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled data sources configured")
	}

	return sources, nil
}
