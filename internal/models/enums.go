package models

import (
	"fmt"
	"strings"
)

// MarketType represents the kind of proposition offered on a game
type MarketType string

const (
	MarketTypeML     MarketType = "ML"
	MarketTypeSpread MarketType = "SPREAD"
	MarketTypeTotal  MarketType = "TOTAL"
)

// AllMarketTypes lists every market type in display order
var AllMarketTypes = []MarketType{MarketTypeML, MarketTypeSpread, MarketTypeTotal}

// Selection represents the side of a market
type Selection string

const (
	SelectionHome  Selection = "HOME"
	SelectionAway  Selection = "AWAY"
	SelectionOver  Selection = "OVER"
	SelectionUnder Selection = "UNDER"
)

// Outcome represents the settlement state of a market
type Outcome string

const (
	OutcomeWin     Outcome = "WIN"
	OutcomeLose    Outcome = "LOSE"
	OutcomePush    Outcome = "PUSH"
	OutcomePending Outcome = "PENDING"
)

// ParseMarketType normalizes user supplied market type names.
// MONEYLINE is accepted for ML, OU and O/U for TOTAL.
func ParseMarketType(value string) (MarketType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	switch normalized {
	case "MONEYLINE":
		return MarketTypeML, nil
	case "OU", "O/U":
		return MarketTypeTotal, nil
	case string(MarketTypeML), string(MarketTypeSpread), string(MarketTypeTotal):
		return MarketType(normalized), nil
	}
	return "", fmt.Errorf("%w: unknown market type %q", ErrInvalidInput, value)
}

// ParseSelection normalizes a selection, accepting single letter shorthands
func ParseSelection(value string) (Selection, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "HOME", "H":
		return SelectionHome, nil
	case "AWAY", "A":
		return SelectionAway, nil
	case "OVER", "O":
		return SelectionOver, nil
	case "UNDER", "U":
		return SelectionUnder, nil
	}
	return "", fmt.Errorf("%w: unknown selection %q", ErrInvalidInput, value)
}

// ParseOutcome normalizes a settlement marker (W/L/P or the full word)
func ParseOutcome(value string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "W", "WIN":
		return OutcomeWin, nil
	case "L", "LOSE":
		return OutcomeLose, nil
	case "P", "PUSH":
		return OutcomePush, nil
	}
	return "", fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, value)
}

// Label returns the display name of the market type
func (m MarketType) Label() string {
	switch m {
	case MarketTypeML:
		return "Moneyline"
	case MarketTypeSpread:
		return "Spread"
	case MarketTypeTotal:
		return "Total"
	default:
		return string(m)
	}
}

// Label returns the display name of the selection
func (s Selection) Label() string {
	switch s {
	case SelectionHome:
		return "Home"
	case SelectionAway:
		return "Away"
	case SelectionOver:
		return "Over"
	case SelectionUnder:
		return "Under"
	default:
		return string(s)
	}
}

// Label returns the display name of the outcome
func (o Outcome) Label() string {
	switch o {
	case OutcomeWin:
		return "Win"
	case OutcomeLose:
		return "Loss"
	case OutcomePush:
		return "Push"
	case OutcomePending:
		return "Pending"
	default:
		return string(o)
	}
}

// IsTotalSide reports whether the selection belongs to a TOTAL market
func (s Selection) IsTotalSide() bool {
	return s == SelectionOver || s == SelectionUnder
}

// IsSettled reports whether the outcome affects hit rate and stake
func (o Outcome) IsSettled() bool {
	return o == OutcomeWin || o == OutcomeLose
}
