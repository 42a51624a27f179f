// Package report builds the dashboard reports over stored markets.
package report

import (
	"fmt"
	"strings"

	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/models"
)

// Mode selects which threshold a report ranks on
type Mode string

const (
	ModeHighWin    Mode = "highWin"
	ModePositiveEV Mode = "positiveEv"
)

// ParseMode parses a report mode, defaulting to positiveEv when empty
func ParseMode(value string) (Mode, error) {
	switch strings.TrimSpace(value) {
	case "", string(ModePositiveEV):
		return ModePositiveEV, nil
	case string(ModeHighWin):
		return ModeHighWin, nil
	}
	return "", fmt.Errorf("%w: unknown report mode %q", models.ErrInvalidInput, value)
}

// Filters narrows a report. Nil thresholds take the mode defaults.
type Filters struct {
	StartDate      string              `json:"startDate,omitempty"`
	EndDate        string              `json:"endDate,omitempty"`
	Leagues        []string            `json:"leagues,omitempty"`
	MarketTypes    []models.MarketType `json:"marketTypes,omitempty"`
	MinSamples     *int                `json:"minSamples,omitempty"`
	MinProbability *float64            `json:"minProbability,omitempty"`
	MinEV          *float64            `json:"minEv,omitempty"`
}

// Row is one qualifying market in a report
type Row struct {
	ID            int64              `json:"id"`
	Date          string             `json:"date"`
	League        string             `json:"league"`
	Matchup       string             `json:"matchup"`
	MarketType    models.MarketType  `json:"marketType"`
	Selection     models.Selection   `json:"selection"`
	OddsDecimal   float64            `json:"oddsDecimal"`
	Bookmaker     string             `json:"bookmaker"`
	PModel        float64            `json:"pModel"`
	ModelTag      string             `json:"modelTag"`
	PImplied      *float64           `json:"pImplied"`
	EV            float64            `json:"ev"`
	KellyFraction float64            `json:"kellyFraction"`
	KellyTiers    map[string]float64 `json:"kellyTiers"`
	Result        models.Outcome     `json:"result"`
	UnitsDelta    float64            `json:"unitsDelta"`
}

// Summary extends the performance summary with sample sufficiency
type Summary struct {
	analytics.Summary
	EnoughSamples bool `json:"enoughSamples"`
	TotalPicks    int  `json:"totalPicks"`
}

// Result is a generated report
type Result struct {
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
	Filters Filters `json:"filters"`
	Mode    Mode    `json:"mode"`
}

// Overview is the dashboard landing data
type Overview struct {
	Summary   Summary           `json:"summary"`
	ShortTerm analytics.Summary `json:"last20"`
	LongTerm  analytics.Summary `json:"last60"`
	ShortDays int               `json:"shortWindowDays"`
	LongDays  int               `json:"longWindowDays"`
	Rows      []Row             `json:"rows"`
}

// GamesQuery narrows the games listing
type GamesQuery struct {
	League     string
	StartDate  string
	EndDate    string
	MarketType string
}

// GameMarket is a market as listed under its game
type GameMarket struct {
	ID        int64             `json:"id"`
	Type      models.MarketType `json:"type"`
	Selection models.Selection  `json:"selection"`
	Line      *float64          `json:"line"`
	Odds      *float64          `json:"odds"`
	Bookmaker *string           `json:"bookmaker"`
	PModel    *float64          `json:"pModel"`
	ModelTag  *string           `json:"modelTag"`
	Result    *models.Outcome   `json:"result"`
}

// GameRow is one game of the games listing
type GameRow struct {
	ID        int64        `json:"id"`
	Date      string       `json:"date"`
	League    string       `json:"league"`
	HomeTeam  string       `json:"homeTeam"`
	AwayTeam  string       `json:"awayTeam"`
	Finalized bool         `json:"finalized"`
	Markets   []GameMarket `json:"markets"`
}
