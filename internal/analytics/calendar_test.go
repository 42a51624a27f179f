package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edgeboard/internal/models"
)

func TestDateKeyUsesTaipeiCalendar(t *testing.T) {
	// 15:59 UTC is 23:59 in Taipei, 16:01 UTC is already the next day
	before := time.Date(2024, 4, 1, 15, 59, 0, 0, time.UTC)
	after := time.Date(2024, 4, 1, 16, 1, 0, 0, time.UTC)

	assert.Equal(t, "2024-04-01", DateKey(before))
	assert.Equal(t, "2024-04-02", DateKey(after))
}

func TestDateKeyIn(t *testing.T) {
	instant := time.Date(2024, 4, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-04-01", DateKeyIn(instant, time.UTC))
	assert.Equal(t, "2024-04-02", DateKeyIn(instant, nil))
}

func TestParseDay(t *testing.T) {
	start, err := ParseDay("2024-04-01", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 31, 16, 0, 0, 0, time.UTC), start.UTC())

	end, err := ParseDay("2024-04-01", 23, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", DateKey(end))

	_, err = ParseDay("04/01/2024", 0, nil)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestFillMissingDates(t *testing.T) {
	curve := []EquityPoint{
		{Date: "2024-04-01", Delta: 1, Equity: 1},
		{Date: "2024-04-03", Delta: -0.5, Equity: 0.5},
	}

	filled, err := FillMissingDates(curve)
	require.NoError(t, err)
	require.Len(t, filled, 3)
	assert.Equal(t, EquityPoint{Date: "2024-04-02", Delta: 0, Equity: 1}, filled[1])
	assert.Equal(t, curve[0], filled[0])
	assert.Equal(t, curve[1], filled[2])
}

func TestFillMissingDatesMultipleGaps(t *testing.T) {
	curve := []EquityPoint{
		{Date: "2024-02-27", Delta: 2, Equity: 5},
		{Date: "2024-03-01", Delta: -1, Equity: 4},
		{Date: "2024-03-02", Delta: 1, Equity: 5},
		{Date: "2024-03-05", Delta: 1, Equity: 6},
	}

	filled, err := FillMissingDates(curve)
	require.NoError(t, err)

	want := []string{
		"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01",
		"2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05",
	}
	require.Len(t, filled, len(want))
	for i, date := range want {
		if filled[i].Date != date {
			t.Fatalf("point %d: expected %s, got %s", i, date, filled[i].Date)
		}
	}
	assert.Equal(t, 5.0, filled[1].Equity)
	assert.Equal(t, 5.0, filled[2].Equity)
	assert.Equal(t, 5.0, filled[5].Equity)
	assert.Equal(t, 0.0, filled[6].Delta)
}

func TestFillMissingDatesEmpty(t *testing.T) {
	filled, err := FillMissingDates(nil)
	require.NoError(t, err)
	assert.Empty(t, filled)
}

func TestFillMissingDatesSinglePoint(t *testing.T) {
	filled, err := FillMissingDates([]EquityPoint{{Date: "2024-04-01", Delta: 1, Equity: 1}})
	require.NoError(t, err)
	assert.Len(t, filled, 1)
}

func TestFillMissingDatesRejectsBadDates(t *testing.T) {
	_, err := FillMissingDates([]EquityPoint{{Date: "yesterday"}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2024, 4, 10, 3, 0, 0, 0, time.UTC)

	start, end, err := ResolveRange("", "", 30, now, nil)
	require.NoError(t, err)
	assert.Equal(t, now, end)
	assert.Equal(t, now.AddDate(0, 0, -30), start)

	start, end, err = ResolveRange("2024-04-01", "2024-04-02", 30, now, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01T00:00:00+08:00", start.Format(time.RFC3339))
	assert.Equal(t, "2024-04-02T23:00:00+08:00", end.Format(time.RFC3339))

	start, _, err = ResolveRange("", "2024-04-02", 60, now, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-02T23:00:00+08:00", start.Format(time.RFC3339))

	_, _, err = ResolveRange("04/01/2024", "", 30, now, nil)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}
