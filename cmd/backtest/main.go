// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeboard/internal/backtest"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
)

type options struct {
	startDate   string
	endDate     string
	leagues     string
	marketTypes string
	minProb     float64
	minEV       float64
	stake       float64
	mode        string
	output      string
	html        bool
	csv         bool
	equityJSON  bool
}

func main() {
	var opts options
	configPath := flag.String("config", "config/config.yaml", "Path to config file")
	flag.StringVar(&opts.startDate, "start-date", "", "Override start date (YYYY-MM-DD)")
	flag.StringVar(&opts.endDate, "end-date", "", "Override end date (YYYY-MM-DD)")
	flag.StringVar(&opts.leagues, "leagues", "", "Comma separated leagues to include")
	flag.StringVar(&opts.marketTypes, "markets", "", "Comma separated market types (ML, SPREAD, TOTAL)")
	flag.Float64Var(&opts.minProb, "min-prob", -1, "Override minimum model probability")
	flag.Float64Var(&opts.minEV, "min-ev", -1, "Override minimum expected value")
	flag.Float64Var(&opts.stake, "stake", 0, "Override stake units")
	flag.StringVar(&opts.mode, "mode", "historical", "Backtest mode: historical, monte-carlo, walk-forward, all")
	flag.StringVar(&opts.output, "output", "", "Directory for CSV and HTML reports")
	flag.BoolVar(&opts.html, "html", false, "Write an HTML report")
	flag.BoolVar(&opts.csv, "csv", false, "Write picks and equity CSV exports")
	flag.BoolVar(&opts.equityJSON, "json", false, "Write the equity curve as JSON")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfigWithSecrets(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.WithError(err).Fatal("Backtest failed")
	}
}

func loadConfigWithSecrets(path string) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, opts options, log *logrus.Logger) error {
	settings, err := backtest.FromConfig(&cfg.Backtest, cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid backtest config: %w", err)
	}
	if opts.output != "" {
		settings.OutputPath = opts.output
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	engine, err := backtest.NewEngine(repository.NewPostgresMarketRepository(db.GetPool()), settings, log)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	req := buildRequest(cfg, opts)
	log.WithFields(logrus.Fields{"mode": opts.mode, "start": req.StartDate, "end": req.EndDate}).Info("Starting backtest")

	switch opts.mode {
	case "historical":
		return runHistorical(ctx, engine, req, opts, false)
	case "monte-carlo":
		return runHistorical(ctx, engine, req, opts, true)
	case "walk-forward":
		return runWalkForward(ctx, engine, req, log)
	case "all":
		if err := runHistorical(ctx, engine, req, opts, true); err != nil {
			return err
		}
		return runWalkForward(ctx, engine, req, log)
	default:
		return fmt.Errorf("unsupported mode: %s", opts.mode)
	}
}

func buildRequest(cfg *config.Config, opts options) backtest.Request {
	req := backtest.Request{
		StartDate: firstNonEmpty(opts.startDate, cfg.Backtest.StartDate),
		EndDate:   firstNonEmpty(opts.endDate, cfg.Backtest.EndDate),
		Leagues:   splitList(opts.leagues),
	}
	for _, t := range splitList(opts.marketTypes) {
		req.MarketTypes = append(req.MarketTypes, models.MarketType(strings.ToUpper(t)))
	}
	if opts.minProb >= 0 {
		req.MinProbability = &opts.minProb
	}
	if opts.minEV >= 0 {
		req.MinEV = &opts.minEV
	}
	if opts.stake > 0 {
		req.StakeUnits = &opts.stake
	}
	return req
}

func runHistorical(ctx context.Context, engine *backtest.Engine, req backtest.Request, opts options, withMonteCarlo bool) error {
	result, err := engine.Run(ctx, req)
	if err != nil {
		return err
	}

	var mc *backtest.MonteCarloResult
	if withMonteCarlo {
		settings := engine.Settings()
		simulated, err := backtest.RunMonteCarlo(ctx, result.Picks, backtest.MonteCarloConfig{
			Iterations: settings.MonteCarloIterations,
			Seed:       settings.MonteCarloSeed,
			StakeUnits: result.Filters.StakeUnits,
		})
		if err != nil {
			return fmt.Errorf("monte carlo failed: %w", err)
		}
		mc = &simulated
	}

	fmt.Println(backtest.GenerateConsoleReport(result, mc))

	dir := engine.Settings().OutputPath
	if opts.csv {
		if err := backtest.GenerateCSVExport(result, filepath.Join(dir, "picks.csv")); err != nil {
			return err
		}
		if err := backtest.GenerateEquityCSV(result, filepath.Join(dir, "equity.csv")); err != nil {
			return err
		}
	}
	if opts.equityJSON {
		if err := backtest.GenerateEquityJSON(result, filepath.Join(dir, "equity.json")); err != nil {
			return err
		}
	}
	if opts.html {
		if err := backtest.GenerateHTMLReport(result, mc, filepath.Join(dir, "report.html")); err != nil {
			return err
		}
	}
	return nil
}

func runWalkForward(ctx context.Context, engine *backtest.Engine, req backtest.Request, log *logrus.Logger) error {
	result, err := backtest.RunWalkForward(ctx, engine, req, backtest.WalkForwardConfig{
		WindowDays:        engine.Settings().WalkForwardWindowDays,
		MinPicksPerWindow: 1,
	})
	if err != nil {
		return fmt.Errorf("walk-forward failed: %w", err)
	}

	log.WithFields(logrus.Fields{
		"windows":     len(result.Windows),
		"consistency": result.ConsistencyScore,
		"mean_roi":    result.MeanROI,
	}).Info("Walk-forward completed")

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode walk-forward result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
