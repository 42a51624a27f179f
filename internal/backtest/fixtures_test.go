package backtest

import (
	"context"
	"time"

	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/models"
)

var taipei = analytics.Location()

type fakeSource struct {
	views   []models.MarketView
	err     error
	filters []models.MarketFilter
}

func (f *fakeSource) FindMarkets(ctx context.Context, filter models.MarketFilter) ([]models.MarketView, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.views, nil
}

func outcomePtr(o models.Outcome) *models.Outcome {
	return &o
}

func marketView(id int64, day string, pModel, odds float64, outcome *models.Outcome) models.MarketView {
	date, _ := analytics.ParseDay(day, 19, taipei)
	return models.MarketView{
		MarketID:  id,
		GameID:    id * 10,
		GameDate:  date,
		League:    "NBA",
		HomeTeam:  "Lakers",
		AwayTeam:  "Celtics",
		Type:      models.MarketTypeML,
		Selection: models.SelectionHome,
		Odds:      &models.OddsQuote{MarketID: id, OddsDecimal: odds, Bookmaker: "book", ObservedAt: date},
		Model:     &models.ModelProbability{MarketID: id, PModel: pModel, ModelTag: "v1", ObservedAt: date},
		Outcome:   outcome,
	}
}

// sampleViews covers two days. On 2024-03-01 the ranking by EV is
// 2 (0.26), 5 (0.218), 1 (0.2), 4 (0.064); market 3 fails the probability floor.
func sampleViews() []models.MarketView {
	noModel := marketView(7, "2024-03-02", 0.9, 3.0, nil)
	noModel.Model = nil
	return []models.MarketView{
		marketView(1, "2024-03-01", 0.6, 2.0, outcomePtr(models.OutcomeLose)),
		marketView(2, "2024-03-01", 0.7, 1.8, outcomePtr(models.OutcomeWin)),
		marketView(3, "2024-03-01", 0.5, 3.0, outcomePtr(models.OutcomeWin)),
		marketView(4, "2024-03-01", 0.56, 1.9, outcomePtr(models.OutcomeWin)),
		marketView(5, "2024-03-01", 0.58, 2.1, nil),
		marketView(6, "2024-03-02", 0.6, 2.5, outcomePtr(models.OutcomeWin)),
		noModel,
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 3, 10, 0, 0, 0, taipei)
}
