package models

import (
	"fmt"
	"time"
)

// Team represents a team within a league
type Team struct {
	ID     int64  `db:"id" json:"id"`
	League string `db:"league" json:"league" validate:"required"`
	Name   string `db:"name" json:"name" validate:"required"`
}

// Game represents a scheduled or finished game between two teams
type Game struct {
	ID         int64     `db:"id" json:"id"`
	League     string    `db:"league" json:"league" validate:"required"`
	Date       time.Time `db:"date" json:"date" validate:"required"`
	HomeTeamID int64     `db:"home_team_id" json:"home_team_id"`
	AwayTeamID int64     `db:"away_team_id" json:"away_team_id"`
	Finalized  bool      `db:"finalized" json:"finalized"`
}

// Market represents one bettable proposition for a game
type Market struct {
	ID        int64      `db:"id" json:"id"`
	GameID    int64      `db:"game_id" json:"game_id"`
	Type      MarketType `db:"type" json:"type" validate:"required,oneof=ML SPREAD TOTAL"`
	Selection Selection  `db:"selection" json:"selection" validate:"required,oneof=HOME AWAY OVER UNDER"`
	Line      *float64   `db:"line" json:"line"`
}

// OddsQuote represents a bookmaker price observed for a market
type OddsQuote struct {
	MarketID    int64     `db:"market_id" json:"market_id"`
	OddsDecimal float64   `db:"odds_decimal" json:"odds_decimal" validate:"gt=1"`
	Bookmaker   string    `db:"bookmaker" json:"bookmaker"`
	ObservedAt  time.Time `db:"created_at" json:"observed_at"`
}

// ModelProbability represents a model's win probability estimate for a market
type ModelProbability struct {
	MarketID   int64     `db:"market_id" json:"market_id"`
	PModel     float64   `db:"p_model" json:"p_model" validate:"gte=0,lte=1"`
	ModelTag   string    `db:"model_tag" json:"model_tag"`
	ObservedAt time.Time `db:"created_at" json:"observed_at"`
}

// Result represents the settlement of a market
type Result struct {
	MarketID  int64     `db:"market_id" json:"market_id"`
	Outcome   Outcome   `db:"outcome" json:"outcome"`
	SettledAt time.Time `db:"settled_at" json:"settled_at"`
}

// MarketView is a fully materialized market with its game, the latest odds
// quote, the latest model estimate and the settlement outcome, if any.
type MarketView struct {
	MarketID  int64             `json:"market_id"`
	GameID    int64             `json:"game_id"`
	GameDate  time.Time         `json:"game_date"`
	League    string            `json:"league"`
	HomeTeam  string            `json:"home_team"`
	AwayTeam  string            `json:"away_team"`
	Finalized bool              `json:"finalized"`
	Type      MarketType        `json:"type"`
	Selection Selection         `json:"selection"`
	Line      *float64          `json:"line,omitempty"`
	Odds      *OddsQuote        `json:"odds,omitempty"`
	Model     *ModelProbability `json:"model,omitempty"`
	Outcome   *Outcome          `json:"outcome,omitempty"`
}

// Actionable reports whether the market carries both a latest odds quote and
// a latest model estimate.
func (v *MarketView) Actionable() bool {
	return v.Odds != nil && v.Model != nil
}

// SettledOutcome returns the outcome, or PENDING when the market is unsettled
func (v *MarketView) SettledOutcome() Outcome {
	if v.Outcome == nil {
		return OutcomePending
	}
	return *v.Outcome
}

// Matchup formats the game as "away @ home"
func (v *MarketView) Matchup() string {
	return fmt.Sprintf("%s @ %s", v.AwayTeam, v.HomeTeam)
}

// MarketFilter narrows the markets returned by the store.
// Empty slices mean no restriction.
type MarketFilter struct {
	Start       time.Time
	End         time.Time
	Leagues     []string
	MarketTypes []MarketType
}

// UploadLog records one dataset import
type UploadLog struct {
	ID        int64          `db:"id" json:"id"`
	Filename  string         `db:"filename" json:"filename"`
	Meta      map[string]int `db:"meta" json:"meta"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// GameView is a game with its markets, used for schedule listings
type GameView struct {
	ID        int64        `json:"id"`
	Date      time.Time    `json:"date"`
	League    string       `json:"league"`
	HomeTeam  string       `json:"homeTeam"`
	AwayTeam  string       `json:"awayTeam"`
	Finalized bool         `json:"finalized"`
	Markets   []MarketView `json:"markets"`
}

// GameFilter narrows game listings. Zero values mean no restriction.
type GameFilter struct {
	Start      time.Time
	End        time.Time
	League     string
	MarketType MarketType
}
