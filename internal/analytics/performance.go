package analytics

import (
	"sort"
	"time"

	"github.com/yourusername/edgeboard/internal/models"
)

// Pick is a single staked selection fed into performance aggregation
type Pick struct {
	Date        time.Time      `json:"date"`
	StakeUnits  float64        `json:"stakeUnits"`
	OddsDecimal float64        `json:"oddsDecimal"`
	Outcome     models.Outcome `json:"outcome"`
}

// EquityPoint is one day of the cumulative profit curve
type EquityPoint struct {
	Date   string  `json:"date"`
	Delta  float64 `json:"delta"`
	Equity float64 `json:"equity"`
}

// Summary aggregates the performance of a set of picks
type Summary struct {
	HitRate         float64       `json:"hitRate"`
	HitRateInterval Interval      `json:"hitRateInterval"`
	ROI             float64       `json:"roi"`
	Units           float64       `json:"units"`
	MaxDrawdown     float64       `json:"maxDrawdown"`
	SampleSize      int           `json:"sampleSize"`
	TotalStake      float64       `json:"totalStake"`
	EquityCurve     []EquityPoint `json:"equityCurve"`
}

// Profit realizes a pick: a win pays (odds-1)*stake, a loss costs the stake,
// anything else is flat.
func Profit(outcome models.Outcome, oddsDecimal, stakeUnits float64) float64 {
	switch outcome {
	case models.OutcomeWin:
		return (oddsDecimal - 1) * stakeUnits
	case models.OutcomeLose:
		return -stakeUnits
	default:
		return 0
	}
}

// CalculatePerformance aggregates picks using day keys in the default timezone
func CalculatePerformance(picks []Pick) Summary {
	return CalculatePerformanceIn(picks, defaultLocation)
}

// CalculatePerformanceIn aggregates picks in date order. Pushes and pending
// picks contribute neither stake nor hit rate samples.
func CalculatePerformanceIn(picks []Pick, loc *time.Location) Summary {
	ordered := make([]Pick, len(picks))
	copy(ordered, picks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	var (
		equity, peak, maxDrawdown, totalStake float64
		wins, losses                          int
	)
	curve := make([]EquityPoint, 0)

	for _, pick := range ordered {
		profit := Profit(pick.Outcome, pick.OddsDecimal, pick.StakeUnits)
		equity += profit
		if equity > peak {
			peak = equity
		}
		if drawdown := peak - equity; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}

		switch pick.Outcome {
		case models.OutcomeWin:
			wins++
			totalStake += pick.StakeUnits
		case models.OutcomeLose:
			losses++
			totalStake += pick.StakeUnits
		}

		key := DateKeyIn(pick.Date, loc)
		if n := len(curve); n > 0 && curve[n-1].Date == key {
			curve[n-1].Delta += profit
			curve[n-1].Equity = equity
			continue
		}
		curve = append(curve, EquityPoint{Date: key, Delta: profit, Equity: equity})
	}

	sampleSize := wins + losses
	summary := Summary{
		HitRateInterval: WilsonInterval(wins, sampleSize, DefaultConfidence),
		Units:           equity,
		MaxDrawdown:     maxDrawdown,
		SampleSize:      sampleSize,
		TotalStake:      totalStake,
		EquityCurve:     curve,
	}
	if sampleSize > 0 {
		summary.HitRate = float64(wins) / float64(sampleSize)
	}
	if totalStake > 0 {
		summary.ROI = equity / totalStake
	}
	return summary
}
