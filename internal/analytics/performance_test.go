package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edgeboard/internal/models"
)

func makeDate(t *testing.T, key string) time.Time {
	t.Helper()
	date, err := DayAnchor(key)
	require.NoError(t, err)
	return date
}

func TestProfit(t *testing.T) {
	assert.InDelta(t, 0.9, Profit(models.OutcomeWin, 1.9, 1), 1e-9)
	assert.InDelta(t, 2.0, Profit(models.OutcomeWin, 2.0, 2), 1e-9)
	assert.Equal(t, -3.0, Profit(models.OutcomeLose, 1.9, 3))
	assert.Equal(t, 0.0, Profit(models.OutcomePush, 1.9, 1))
	assert.Equal(t, 0.0, Profit(models.OutcomePending, 1.9, 1))
}

func TestCalculatePerformanceWithDrawdown(t *testing.T) {
	picks := []Pick{
		{StakeUnits: 1, OddsDecimal: 1.9, Outcome: models.OutcomeWin, Date: makeDate(t, "2024-04-01")},
		{StakeUnits: 1, OddsDecimal: 1.9, Outcome: models.OutcomeLose, Date: makeDate(t, "2024-04-02")},
		{StakeUnits: 1, OddsDecimal: 2.1, Outcome: models.OutcomeWin, Date: makeDate(t, "2024-04-03")},
	}

	summary := CalculatePerformance(picks)
	assert.InDelta(t, 2.0/3.0, summary.HitRate, 1e-3)
	assert.InDelta(t, 1.0, summary.Units, 1e-9)
	assert.GreaterOrEqual(t, summary.MaxDrawdown, 1.0-1e-9)
	assert.Equal(t, 3, summary.SampleSize)
	assert.InDelta(t, 3.0, summary.TotalStake, 1e-9)
	assert.InDelta(t, 1.0/3.0, summary.ROI, 1e-9)
	require.Len(t, summary.EquityCurve, 3)
	assert.Equal(t, "2024-04-01", summary.EquityCurve[0].Date)
	assert.Equal(t, "2024-04-03", summary.EquityCurve[2].Date)
	assert.LessOrEqual(t, summary.HitRateInterval.Low, summary.HitRate)
	assert.GreaterOrEqual(t, summary.HitRateInterval.High, summary.HitRate)
}

func TestCalculatePerformanceSortsByDate(t *testing.T) {
	picks := []Pick{
		{StakeUnits: 1, OddsDecimal: 2.1, Outcome: models.OutcomeWin, Date: makeDate(t, "2024-04-03")},
		{StakeUnits: 1, OddsDecimal: 1.9, Outcome: models.OutcomeLose, Date: makeDate(t, "2024-04-02")},
		{StakeUnits: 1, OddsDecimal: 1.9, Outcome: models.OutcomeWin, Date: makeDate(t, "2024-04-01")},
	}

	summary := CalculatePerformance(picks)
	require.Len(t, summary.EquityCurve, 3)
	assert.Equal(t, "2024-04-01", summary.EquityCurve[0].Date)
	assert.InDelta(t, 0.9, summary.EquityCurve[0].Equity, 1e-9)
	assert.InDelta(t, -0.1, summary.EquityCurve[1].Equity, 1e-9)
	assert.InDelta(t, 1.0, summary.EquityCurve[2].Equity, 1e-9)
}

func TestCalculatePerformanceGroupsSameDay(t *testing.T) {
	day := makeDate(t, "2024-05-10")
	picks := []Pick{
		{StakeUnits: 2, OddsDecimal: 2.0, Outcome: models.OutcomeWin, Date: day},
		{StakeUnits: 1, OddsDecimal: 2.0, Outcome: models.OutcomeLose, Date: day.Add(time.Hour)},
		{StakeUnits: 1, OddsDecimal: 2.0, Outcome: models.OutcomePush, Date: day.Add(2 * time.Hour)},
	}

	summary := CalculatePerformance(picks)
	require.Len(t, summary.EquityCurve, 1)
	assert.InDelta(t, 1.0, summary.EquityCurve[0].Delta, 1e-9)
	assert.InDelta(t, 1.0, summary.EquityCurve[0].Equity, 1e-9)
	assert.Equal(t, 2, summary.SampleSize)
	assert.InDelta(t, 3.0, summary.TotalStake, 1e-9)
}

func TestCalculatePerformanceExcludesPushAndPending(t *testing.T) {
	picks := []Pick{
		{StakeUnits: 1, OddsDecimal: 1.8, Outcome: models.OutcomePush, Date: makeDate(t, "2024-04-01")},
		{StakeUnits: 1, OddsDecimal: 1.8, Outcome: models.OutcomePending, Date: makeDate(t, "2024-04-02")},
	}

	summary := CalculatePerformance(picks)
	assert.Equal(t, 0, summary.SampleSize)
	assert.Equal(t, 0.0, summary.TotalStake)
	assert.Equal(t, 0.0, summary.HitRate)
	assert.Equal(t, 0.0, summary.ROI)
	assert.Equal(t, Interval{}, summary.HitRateInterval)
	// flat days still appear on the curve
	assert.Len(t, summary.EquityCurve, 2)
}

func TestCalculatePerformanceEmpty(t *testing.T) {
	summary := CalculatePerformance(nil)
	if summary.SampleSize != 0 || summary.Units != 0 || summary.MaxDrawdown != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
	if summary.EquityCurve == nil || len(summary.EquityCurve) != 0 {
		t.Fatalf("expected empty equity curve, got %v", summary.EquityCurve)
	}
}

func TestCalculatePerformanceDoesNotMutateInput(t *testing.T) {
	picks := []Pick{
		{StakeUnits: 1, OddsDecimal: 2.0, Outcome: models.OutcomeWin, Date: makeDate(t, "2024-04-02")},
		{StakeUnits: 1, OddsDecimal: 2.0, Outcome: models.OutcomeLose, Date: makeDate(t, "2024-04-01")},
	}
	CalculatePerformance(picks)
	assert.Equal(t, models.OutcomeWin, picks[0].Outcome)
}

func TestEquityCurveInvariant(t *testing.T) {
	picks := make([]Pick, 0, 30)
	outcomes := []models.Outcome{models.OutcomeWin, models.OutcomeLose, models.OutcomeLose, models.OutcomePush, models.OutcomeWin}
	start := makeDate(t, "2024-01-01")
	for i := 0; i < 30; i++ {
		picks = append(picks, Pick{
			StakeUnits:  1,
			OddsDecimal: 1.5 + float64(i%4)*0.25,
			Outcome:     outcomes[i%len(outcomes)],
			Date:        start.Add(time.Duration(i*17) * time.Hour),
		})
	}

	summary := CalculatePerformance(picks)
	previous := 0.0
	for i, point := range summary.EquityCurve {
		if i > 0 && point.Date <= summary.EquityCurve[i-1].Date {
			t.Fatalf("curve not strictly ordered at %d: %s after %s", i, point.Date, summary.EquityCurve[i-1].Date)
		}
		assert.InDelta(t, previous+point.Delta, point.Equity, 1e-9)
		previous = point.Equity
	}
	assert.InDelta(t, summary.Units, previous, 1e-9)
}
