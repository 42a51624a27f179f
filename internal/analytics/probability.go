// Package analytics provides the betting math used by reports and backtests:
// implied probability, vig removal, expected value, Kelly sizing, Wilson
// intervals, performance aggregation and calendar normalization.
package analytics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/yourusername/edgeboard/internal/models"
)

// DefaultConfidence is the confidence level used for hit rate intervals
const DefaultConfidence = 0.95

// DefaultKellyFactors are the fractional Kelly tiers reported alongside each pick
var DefaultKellyFactors = []float64{0.25, 0.5, 1.0}

// Interval is a closed probability interval
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ImpliedProbability converts decimal odds into the bookmaker's implied probability
func ImpliedProbability(oddsDecimal float64) (float64, error) {
	if !(oddsDecimal > 1) {
		return 0, fmt.Errorf("%w: %v must be greater than 1", models.ErrInvalidOdds, oddsDecimal)
	}
	return 1 / oddsDecimal, nil
}

// RemoveVig rescales the implied probabilities of a set of odds so they sum to one.
// Output order matches input order.
func RemoveVig(odds []float64) ([]float64, error) {
	normalized := make([]float64, len(odds))
	if len(odds) == 0 {
		return normalized, nil
	}

	total := 0.0
	for i, o := range odds {
		p, err := ImpliedProbability(o)
		if err != nil {
			return nil, err
		}
		normalized[i] = p
		total += p
	}

	if total == 0 {
		for i := range normalized {
			normalized[i] = 0
		}
		return normalized, nil
	}

	for i := range normalized {
		normalized[i] /= total
	}
	return normalized, nil
}

// ExpectedValue returns the expected profit per unit staked at probability pModel.
// Probabilities outside [0,1] are not rejected.
func ExpectedValue(pModel, oddsDecimal float64) float64 {
	return pModel*(oddsDecimal-1) - (1 - pModel)
}

// KellyFraction returns the growth-optimal bankroll fraction, floored at zero
func KellyFraction(pModel, oddsDecimal float64) float64 {
	b := oddsDecimal - 1
	if b <= 0 {
		return 0
	}
	f := (b*pModel - (1 - pModel)) / b
	return math.Max(0, f)
}

// KellyStakeTiers sizes fractional Kelly stakes for a bankroll.
// Labels are integer percentages of the factor, e.g. "25%".
func KellyStakeTiers(bankrollUnits, kellyFraction float64, factors ...float64) map[string]float64 {
	if len(factors) == 0 {
		factors = DefaultKellyFactors
	}
	tiers := make(map[string]float64, len(factors))
	for _, factor := range factors {
		label := fmt.Sprintf("%d%%", int(math.Round(factor*100)))
		tiers[label] = Round(bankrollUnits*kellyFraction*factor, 2)
	}
	return tiers
}

// WilsonInterval returns the Wilson score interval for successes out of total.
// A confidence outside (0,1) falls back to DefaultConfidence.
func WilsonInterval(successes, total int, confidence float64) Interval {
	if total <= 0 {
		return Interval{}
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidence
	}

	z := zScore(confidence)
	n := float64(total)
	phat := float64(successes) / n
	z2 := z * z

	denominator := 1 + z2/n
	center := (phat + z2/(2*n)) / denominator
	margin := z * math.Sqrt(phat*(1-phat)/n+z2/(4*n*n)) / denominator

	interval := Interval{
		Low:  clamp01(center - margin),
		High: clamp01(center + margin),
	}
	if successes <= 0 {
		interval.Low = 0
	}
	if successes >= total {
		interval.High = 1
	}
	return interval
}

// Round rounds half away from zero to the given number of decimal places
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

func zScore(confidence float64) float64 {
	if confidence == DefaultConfidence {
		return 1.96
	}
	return math.Sqrt2 * math.Erfinv(confidence)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
