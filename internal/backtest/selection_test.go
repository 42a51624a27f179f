package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edgeboard/internal/models"
)

func defaultParams() SelectionParams {
	return SelectionParams{
		MinProbability: 0.55,
		MinEV:          0,
		StakeUnits:     1,
		MaxConcurrent:  3,
		Location:       taipei,
	}
}

func TestSelectPicksRanksByEVPerDay(t *testing.T) {
	picks := SelectPicks(sampleViews(), defaultParams())
	require.Len(t, picks, 4)

	ids := []int64{picks[0].MarketID, picks[1].MarketID, picks[2].MarketID, picks[3].MarketID}
	assert.Equal(t, []int64{2, 5, 1, 6}, ids)
	assert.Equal(t, "2024-03-01", picks[0].Date)
	assert.Equal(t, "2024-03-02", picks[3].Date)
	assert.Equal(t, "Celtics @ Lakers", picks[0].Matchup)
	assert.Equal(t, 0.26, picks[0].EV)
}

func TestSelectPicksUnsettledRealizesAsPush(t *testing.T) {
	picks := SelectPicks(sampleViews(), defaultParams())
	require.Len(t, picks, 4)

	assert.Equal(t, models.OutcomePush, picks[1].Result)
	assert.Equal(t, 0.0, picks[1].Profit)
	assert.InDelta(t, 0.8, picks[0].Profit, 1e-9)
	assert.Equal(t, -1.0, picks[2].Profit)
}

func TestSelectPicksZeroConcurrentAdmitsNothing(t *testing.T) {
	params := defaultParams()
	params.MaxConcurrent = 0
	picks := SelectPicks(sampleViews(), params)
	if picks == nil || len(picks) != 0 {
		t.Fatalf("expected empty non-nil picks, got %v", picks)
	}
}

func TestSelectPicksEVFloor(t *testing.T) {
	params := defaultParams()
	params.MinEV = 0.21
	picks := SelectPicks(sampleViews(), params)
	require.Len(t, picks, 3)
	assert.Equal(t, int64(2), picks[0].MarketID)
	assert.Equal(t, int64(5), picks[1].MarketID)
	assert.Equal(t, int64(6), picks[2].MarketID)
}

func TestSelectPicksTiesKeepInputOrder(t *testing.T) {
	views := []models.MarketView{
		marketView(10, "2024-03-01", 0.6, 2.0, nil),
		marketView(11, "2024-03-01", 0.6, 2.0, nil),
		marketView(12, "2024-03-01", 0.6, 2.0, nil),
	}
	params := defaultParams()
	params.MaxConcurrent = 2
	picks := SelectPicks(views, params)
	require.Len(t, picks, 2)
	assert.Equal(t, int64(10), picks[0].MarketID)
	assert.Equal(t, int64(11), picks[1].MarketID)
}

func TestSelectPicksProfitUsesRawOdds(t *testing.T) {
	views := []models.MarketView{marketView(1, "2024-03-01", 0.6, 2.005, outcomePtr(models.OutcomeWin))}
	picks := SelectPicks(views, defaultParams())
	require.Len(t, picks, 1)
	assert.InDelta(t, 1.005, picks[0].Profit, 1e-9)
	assert.Equal(t, 2.01, picks[0].OddsDecimal)
}

func TestBuildDaily(t *testing.T) {
	daily := BuildDaily(SelectPicks(sampleViews(), defaultParams()))
	require.Len(t, daily, 2)
	assert.Equal(t, "2024-03-01", daily[0].Date)
	assert.InDelta(t, -0.2, daily[0].Units, 1e-9)
	assert.InDelta(t, -0.2, daily[0].Cumulative, 1e-9)
	assert.InDelta(t, 1.5, daily[1].Units, 1e-9)
	assert.InDelta(t, 1.3, daily[1].Cumulative, 1e-9)
}

func TestPerformancePicksAnchorsAtNoon(t *testing.T) {
	perf, err := PerformancePicks(SelectPicks(sampleViews(), defaultParams()), 2, taipei)
	require.NoError(t, err)
	require.Len(t, perf, 4)
	assert.Equal(t, 12, perf[0].Date.In(taipei).Hour())
	assert.Equal(t, 2.0, perf[0].StakeUnits)
}
