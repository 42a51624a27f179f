// Package main provides the entry point for the data ingestion service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/events"
	"github.com/yourusername/edgeboard/internal/ingestion"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/repository"
	"github.com/yourusername/edgeboard/internal/scheduler"
)

var (
	configFile string
	migrate    bool
	sourceName string
	dirPath    string
	baseURL    string
	apiKey     string
	appLog     *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&migrate, "migrate", false, "Create missing tables before importing")

	importCmd.Flags().StringVar(&sourceName, "source", "", "Import a single configured source by name")
	importCmd.Flags().StringVar(&dirPath, "dir", "", "Import games.csv, odds.csv and model.csv from a directory")
	importCmd.Flags().StringVar(&baseURL, "url", "", "Import the dataset files from a base URL")
	importCmd.Flags().StringVar(&apiKey, "api-key", "", "Bearer token for --url")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var rootCmd = &cobra.Command{
	Use:   "data-ingestion",
	Short: "Import game, odds and model datasets",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel)
		metrics.InitRegistry()
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run a one-shot import",
	Long: `Imports from --dir or --url when given, otherwise from the configured
source named by --source, otherwise from every enabled source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runImport(ctx)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled imports until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runSchedule(ctx)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

// newImporter opens the database and returns an importer publishing to Redis
// when events are configured for it. The returned func releases both.
func newImporter(ctx context.Context) (*ingestion.Importer, events.Publisher, func(), error) {
	db, err := database.Initialize(ctx, cfg, migrate)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	cleanup := db.Close
	if cfg.Events.Enabled && cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Events.RedisAddr,
			Password: cfg.Events.RedisPassword,
			DB:       cfg.Events.RedisDB,
		})
		publisher = events.NewRedisPublisher(client, cfg.Events.Channel)
		cleanup = func() {
			_ = client.Close()
			db.Close()
		}
	}

	return ingestion.NewImporter(repository.NewPostgresIngestionStore(db), publisher, appLog), publisher, cleanup, nil
}

func selectSources() ([]datasource.DataSource, error) {
	switch {
	case dirPath != "":
		return []datasource.DataSource{datasource.NewDirectorySource(nameOr("cli"), dirPath, true)}, nil
	case baseURL != "":
		client := datasource.NewRateLimitedHTTPClient(datasource.DefaultHTTPClientConfig(), appLog)
		return []datasource.DataSource{datasource.NewHTTPSource(nameOr("cli"), baseURL, apiKey, true, client)}, nil
	}

	factory := datasource.NewFactory(appLog)
	if sourceName == "" {
		return factory.NewDataSources(cfg.DataIngestion)
	}
	for _, sc := range cfg.DataIngestion.Sources {
		if sc.Name == sourceName {
			source, err := factory.NewDataSource(sc)
			if err != nil {
				return nil, err
			}
			return []datasource.DataSource{source}, nil
		}
	}
	return nil, fmt.Errorf("no data source named %q", sourceName)
}

func nameOr(fallback string) string {
	if sourceName != "" {
		return sourceName
	}
	return fallback
}

func runImport(ctx context.Context) error {
	sources, err := selectSources()
	if err != nil {
		return err
	}

	importer, _, cleanup, err := newImporter(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	failed := 0
	for _, source := range sources {
		files, err := source.Fetch(ctx)
		if err != nil {
			appLog.WithError(err).WithField("source", source.Name()).Error("Fetch failed")
			failed++
			continue
		}
		summary, err := importer.ImportFiles(ctx, source.Name(), files)
		if err != nil {
			appLog.WithError(err).WithField("source", source.Name()).Error("Import failed")
			failed++
			continue
		}
		fmt.Printf("%s: %d games, %d odds, %d model rows\n",
			source.Name(), summary.GamesInserted, summary.OddsInserted, summary.ModelsInserted)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(sources))
	}
	return nil
}

func runSchedule(ctx context.Context) error {
	sources, err := datasource.NewFactory(appLog).NewDataSources(cfg.DataIngestion)
	if err != nil {
		return err
	}

	importer, publisher, cleanup, err := newImporter(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.NewScheduler(importer, publisher, analytics.LoadLocation(cfg.App.Timezone), appLog)
	if err := sched.Configure(sources, cfg.DataIngestion); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}

	for _, job := range sched.Jobs() {
		appLog.WithFields(logrus.Fields{"source": job.Source, "next_run": job.NextRun}).Info("Import scheduled")
	}

	<-ctx.Done()
	sched.Stop()
	return nil
}
