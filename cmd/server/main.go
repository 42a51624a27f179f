// Package main provides the entry point for the edgeboard API server.
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
	"github.com/yourusername/edgeboard/internal/api"
	"github.com/yourusername/edgeboard/internal/backtest"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/events"
	"github.com/yourusername/edgeboard/internal/ingestion"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/report"
	"github.com/yourusername/edgeboard/internal/repository"
	"github.com/yourusername/edgeboard/internal/scheduler"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile  string
	migrate     bool
	noScheduler bool
	appLog      *logrus.Logger
	cfg         *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&migrate, "migrate", false, "Create missing tables before serving")
	rootCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Do not run scheduled imports in this process")
}

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the edgeboard API",
	Long:  `Serves reports, backtests, games and uploads over HTTP, runs scheduled imports and streams service events.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel)
		metrics.InitRegistry()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx)
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

func run(ctx context.Context) error {
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"commit":      GitCommit,
	}).Info("edgeboard server starting")

	db, err := database.Initialize(ctx, cfg, migrate)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	reports, err := report.NewService(repos.Market, repos.Game, report.SettingsFromConfig(cfg), appLog)
	if err != nil {
		return fmt.Errorf("failed to create report service: %w", err)
	}

	settings, err := backtest.FromConfig(&cfg.Backtest, cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid backtest config: %w", err)
	}
	engine, err := backtest.NewEngine(repos.Market, settings, appLog)
	if err != nil {
		return fmt.Errorf("failed to create backtest engine: %w", err)
	}

	var (
		publisher     events.Publisher = events.NopPublisher{}
		eventsHandler *events.Handler
	)
	if cfg.Events.Enabled {
		hub := events.NewHub(appLog)
		go hub.Run(ctx)
		eventsHandler = events.NewHandler(ctx, hub)
		publisher = events.NewLocalPublisher(hub)

		if cfg.UsesRedis() {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Events.RedisAddr,
				Password: cfg.Events.RedisPassword,
				DB:       cfg.Events.RedisDB,
			})
			defer client.Close()

			publisher = events.NewRedisPublisher(client, cfg.Events.Channel)
			relay := events.NewRelay(client, cfg.Events.Channel, hub, appLog)
			go func() {
				if err := relay.Run(ctx); err != nil {
					appLog.WithError(err).Error("Event relay stopped")
				}
			}()
		}
	}

	importer := ingestion.NewImporter(repos.Ingestion, publisher, appLog)

	if !noScheduler && len(cfg.DataIngestion.EnabledSources()) > 0 {
		sched, err := newScheduler(importer, publisher)
		if err != nil {
			return err
		}
		sched.OnImported(func(string, ingestion.Summary) { reports.InvalidateLeagues() })
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Warn("Scheduler not started")
		} else {
			defer sched.Stop()
		}
	}

	deps := api.Dependencies{
		Reports:  reports,
		Backtest: engine,
		Importer: importer,
		DB:       db,
	}
	if eventsHandler != nil {
		deps.Events = eventsHandler
	}

	opts := api.OptionsFromConfig(cfg)
	opts.Version = Version
	server, err := api.NewServer(opts, deps, appLog)
	if err != nil {
		return fmt.Errorf("failed to create api server: %w", err)
	}

	return server.ListenAndServe(ctx)
}

func newScheduler(importer *ingestion.Importer, publisher events.Publisher) (*scheduler.Scheduler, error) {
	sources, err := datasource.NewFactory(appLog).NewDataSources(cfg.DataIngestion)
	if err != nil {
		return nil, fmt.Errorf("failed to create data sources: %w", err)
	}

	sched := scheduler.NewScheduler(importer, publisher, analytics.LoadLocation(cfg.App.Timezone), appLog)
	if err := sched.Configure(sources, cfg.DataIngestion); err != nil {
		return nil, fmt.Errorf("failed to schedule imports: %w", err)
	}
	return sched, nil
}
