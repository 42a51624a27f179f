package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/edgeboard/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// DirectorySourceType reads files from a local directory
	DirectorySourceType SourceType = "directory"
	// HTTPSourceType downloads files from a base URL
	HTTPSourceType SourceType = "http"
)

// Factory creates DataSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new data source factory
func NewFactory(logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{logger: logger}
}

// NewDataSource creates a new DataSource based on the provided configuration
func (f *Factory) NewDataSource(cfg config.DataSourceConfig) (DataSource, error) {
	switch SourceType(cfg.Type) {
	case DirectorySourceType:
		if cfg.Path == "" {
			return nil, fmt.Errorf("directory source %s requires a path", cfg.Name)
		}
		return NewDirectorySource(cfg.Name, cfg.Path, cfg.Enabled), nil

	case HTTPSourceType:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("http source %s requires a base_url", cfg.Name)
		}
		return NewHTTPSource(cfg.Name, cfg.BaseURL, cfg.APIKey, cfg.Enabled, f.newHTTPClient(cfg)), nil

	default:
		return nil, fmt.Errorf("unknown data source type: %s", cfg.Type)
	}
}

func (f *Factory) newHTTPClient(cfg config.DataSourceConfig) *RateLimitedHTTPClient {
	clientCfg := DefaultHTTPClientConfig()
	clientCfg.Timeout = config.Timeout(cfg.TimeoutSeconds, clientCfg.Timeout)
	if cfg.MaxRetries > 0 {
		clientCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RateLimitPerSecond > 0 {
		clientCfg.RateLimit = cfg.RateLimitPerSecond
	}
	clientCfg.RetryWaitMax = minDuration(clientCfg.RetryWaitMax, clientCfg.Timeout)
	return NewRateLimitedHTTPClient(clientCfg, f.logger)
}

// NewDataSources creates all enabled data sources from configuration
func (f *Factory) NewDataSources(dataCfg config.DataIngestionConfig) ([]DataSource, error) {
	var sources []DataSource

	for _, srcCfg := range dataCfg.EnabledSources() {
		source, err := f.NewDataSource(srcCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create data source %s: %w", srcCfg.Name, err)
		}

		sources = append(sources, source)
		f.logger.WithFields(logrus.Fields{"source": srcCfg.Name, "type": srcCfg.Type}).Info("Created data source")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled data sources configured")
	}

	return sources, nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
