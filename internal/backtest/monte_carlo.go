package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// MonteCarloConfig configures monte carlo simulation
type MonteCarloConfig struct {
	Iterations int
	Seed       int64
	StakeUnits float64
}

// MonteCarloResult represents simulated unit outcomes of a pick set
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	ExpectedUnits       float64            `json:"expectedUnits"`
	MeanUnits           float64            `json:"meanUnits"`
	StdUnits            float64            `json:"stdUnits"`
	VaR95               float64            `json:"var95"`
	VaR99               float64            `json:"var99"`
	ProbabilityOfProfit float64            `json:"probabilityOfProfit"`
	ConfidenceIntervals map[string]float64 `json:"confidenceIntervals"`
	Distribution        []float64          `json:"-"`
}

// RunMonteCarlo resamples the outcome of every pick, treating its model
// probability as the true win probability.
func RunMonteCarlo(ctx context.Context, picks []SelectedPick, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	if cfg.StakeUnits <= 0 {
		cfg.StakeUnits = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)

	expected := 0.0
	for _, pick := range picks {
		expected += pick.PModel*(pick.OddsDecimal-1)*cfg.StakeUnits - (1-pick.PModel)*cfg.StakeUnits
	}

	for i := 0; i < cfg.Iterations; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarloResult{}, fmt.Errorf("monte carlo cancelled after %d iterations: %w", i, err)
			}
		}
		units := 0.0
		for _, pick := range picks {
			if rng.Float64() < pick.PModel {
				units += (pick.OddsDecimal - 1) * cfg.StakeUnits
			} else {
				units -= cfg.StakeUnits
			}
		}
		distribution[i] = units
	}

	mean, std := meanStd(distribution)

	return MonteCarloResult{
		Iterations:          cfg.Iterations,
		ExpectedUnits:       expected,
		MeanUnits:           mean,
		StdUnits:            std,
		VaR95:               percentile(distribution, 0.05),
		VaR99:               percentile(distribution, 0.01),
		ProbabilityOfProfit: probabilityAbove(distribution, 0),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		Distribution:        distribution,
	}, nil
}

// CalculateConfidenceIntervals computes the width of the central interval of
// the distribution at each level
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[formatPercent(level)] = high - low
	}
	return results
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	valuesCopy := append([]float64{}, values...)
	sort.Float64s(valuesCopy)
	idx := int(math.Floor(p * float64(len(valuesCopy)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(valuesCopy) {
		idx = len(valuesCopy) - 1
	}
	return valuesCopy[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
