package backtest

import (
	"fmt"

	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/models"
)

// Settings holds the defaults applied to backtest requests
type Settings struct {
	LookbackDays          int
	MinProbability        float64
	MinEV                 float64
	StakeUnits            float64
	MaxConcurrent         int
	MonteCarloIterations  int
	MonteCarloSeed        int64
	WalkForwardWindowDays int
	OutputPath            string
	Timezone              string
}

// DefaultSettings returns the built-in backtest defaults
func DefaultSettings() Settings {
	return Settings{
		LookbackDays:          60,
		MinProbability:        0.55,
		MinEV:                 0,
		StakeUnits:            1,
		MaxConcurrent:         3,
		MonteCarloIterations:  1000,
		MonteCarloSeed:        42,
		WalkForwardWindowDays: 14,
		OutputPath:            "output/backtest",
	}
}

// FromConfig converts app config to backtest settings. Zero values keep the
// built-in defaults.
func FromConfig(cfg *config.BacktestConfig, timezone string) (Settings, error) {
	if cfg == nil {
		return Settings{}, fmt.Errorf("backtest config is required")
	}

	s := DefaultSettings()
	s.Timezone = timezone
	if cfg.LookbackDays > 0 {
		s.LookbackDays = cfg.LookbackDays
	}
	s.MinProbability = cfg.MinProbability
	s.MinEV = cfg.MinEV
	if cfg.StakeUnits > 0 {
		s.StakeUnits = cfg.StakeUnits
	}
	if cfg.MaxConcurrent > 0 {
		s.MaxConcurrent = cfg.MaxConcurrent
	}
	if cfg.MonteCarloIterations > 0 {
		s.MonteCarloIterations = cfg.MonteCarloIterations
	}
	if cfg.MonteCarloSeed != 0 {
		s.MonteCarloSeed = cfg.MonteCarloSeed
	}
	if cfg.WalkForwardWindowDays > 0 {
		s.WalkForwardWindowDays = cfg.WalkForwardWindowDays
	}
	if cfg.OutputPath != "" {
		s.OutputPath = cfg.OutputPath
	}

	return s, s.Validate()
}

// Validate validates backtest settings
func (s Settings) Validate() error {
	if s.LookbackDays <= 0 {
		return fmt.Errorf("lookback days must be positive")
	}
	if s.MinProbability < 0 || s.MinProbability > 1 {
		return fmt.Errorf("min probability must be between 0 and 1")
	}
	if s.StakeUnits <= 0 {
		return fmt.Errorf("stake units must be positive")
	}
	if s.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent must be at least 1")
	}
	if s.MonteCarloIterations < 0 {
		return fmt.Errorf("monte carlo iterations cannot be negative")
	}
	return nil
}

// Request is a backtest request. Nil thresholds take the settings defaults.
type Request struct {
	StartDate      string              `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string              `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Leagues        []string            `json:"leagues,omitempty" validate:"dive,required"`
	MarketTypes    []models.MarketType `json:"marketTypes,omitempty" validate:"dive,oneof=ML SPREAD TOTAL"`
	MinProbability *float64            `json:"minProbability,omitempty"`
	MinEV          *float64            `json:"minEv,omitempty"`
	StakeUnits     *float64            `json:"stakeUnits,omitempty" validate:"omitempty,gt=0"`
	MaxConcurrent  *int                `json:"maxConcurrent,omitempty" validate:"omitempty,gte=1"`
}

// Filters echoes the resolved parameters of a run
type Filters struct {
	StartDate      string              `json:"startDate"`
	EndDate        string              `json:"endDate"`
	Leagues        []string            `json:"leagues,omitempty"`
	MarketTypes    []models.MarketType `json:"marketTypes,omitempty"`
	MinProbability float64             `json:"minProbability"`
	MinEV          float64             `json:"minEv"`
	StakeUnits     float64             `json:"stakeUnits"`
	MaxConcurrent  int                 `json:"maxConcurrent"`
}
