package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMarketType(t *testing.T) {
	tests := []struct {
		in   string
		want MarketType
	}{
		{"ml", MarketTypeML},
		{" Moneyline ", MarketTypeML},
		{"SPREAD", MarketTypeSpread},
		{"total", MarketTypeTotal},
		{"OU", MarketTypeTotal},
		{"o/u", MarketTypeTotal},
	}
	for _, tt := range tests {
		got, err := ParseMarketType(tt.in)
		if err != nil {
			t.Fatalf("ParseMarketType(%q) error: %v", tt.in, err)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMarketType("PROP")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseSelection(t *testing.T) {
	cases := map[string]Selection{
		"home":  SelectionHome,
		"H":     SelectionHome,
		"away":  SelectionAway,
		"a":     SelectionAway,
		"Over":  SelectionOver,
		"o":     SelectionOver,
		"UNDER": SelectionUnder,
		" u ":   SelectionUnder,
	}
	for in, want := range cases {
		got, err := ParseSelection(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSelection("DRAW")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseOutcome(t *testing.T) {
	cases := map[string]Outcome{
		"W":    OutcomeWin,
		"win":  OutcomeWin,
		"l":    OutcomeLose,
		"LOSE": OutcomeLose,
		"p":    OutcomePush,
		"Push": OutcomePush,
	}
	for in, want := range cases {
		got, err := ParseOutcome(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	// PENDING is a derived state, never an input
	_, err := ParseOutcome("PENDING")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Moneyline", MarketTypeML.Label())
	assert.Equal(t, "Total", MarketTypeTotal.Label())
	assert.Equal(t, "Away", SelectionAway.Label())
	assert.Equal(t, "Loss", OutcomeLose.Label())
	assert.Equal(t, "Pending", OutcomePending.Label())
	assert.Equal(t, "X", MarketType("X").Label())
}

func TestOutcomeIsSettled(t *testing.T) {
	assert.True(t, OutcomeWin.IsSettled())
	assert.True(t, OutcomeLose.IsSettled())
	assert.False(t, OutcomePush.IsSettled())
	assert.False(t, OutcomePending.IsSettled())
	assert.True(t, SelectionOver.IsTotalSide())
	assert.False(t, SelectionHome.IsTotalSide())
}
