package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
)

func closedLot(buyDay, sellDay int, qty, buyPrice, sellPrice float64) domain.ClosedLot {
	return domain.ClosedLot{
		Buy:      domain.Transaction{Symbol: "ACME", Instrument: domain.InstrumentEquity, Date: day(buyDay), Quantity: qty, Price: buyPrice},
		Sell:     domain.Transaction{Symbol: "ACME", Instrument: domain.InstrumentEquity, Date: day(sellDay), Quantity: -qty, Price: sellPrice},
		Quantity: qty,
	}
}

func TestComposeClosed(t *testing.T) {
	lots := []domain.ClosedLot{closedLot(0, 365, 10, 100, 110)}

	pos := ComposeClosed("ACME", domain.InstrumentEquity, lots, income.Attribution{Total: 20}, 5)

	assert.Equal(t, 10.0, pos.Quantity)
	assert.Equal(t, 1100.0, pos.Proceeds)
	assert.Equal(t, 1000.0, pos.Cost)
	assert.Equal(t, 100.0, pos.Gain)
	assert.Equal(t, 25.0, pos.Income)
	assert.Equal(t, day(0), pos.OpenedAt)
	assert.Equal(t, day(365), pos.ClosedAt)

	assert.InDelta(t, 0.025, pos.CumulativeYield, 1e-9)
	assert.InDelta(t, 0.125, pos.CumulativeGain, 1e-9)

	// One year at (1100+25)/1000.
	require.NotNil(t, pos.AnnualizedReturn)
	assert.InDelta(t, 0.125, *pos.AnnualizedReturn, 1e-9)
}

func TestComposeClosedWindowEndsAtDisposal(t *testing.T) {
	// Two disposals: the annualization window runs from the weighted mean
	// acquisition to the last sell, regardless of when the view is read.
	lots := []domain.ClosedLot{
		closedLot(0, 100, 10, 100, 105),
		closedLot(0, 200, 10, 100, 115),
	}

	pos := ComposeClosed("ACME", domain.InstrumentEquity, lots, income.Attribution{}, 0)

	assert.Equal(t, day(0), pos.OpenedAt)
	assert.Equal(t, day(200), pos.ClosedAt)
	assert.Equal(t, 200.0, pos.Gain)

	require.NotNil(t, pos.AnnualizedReturn)
	// (2200/2000)^(365/200) - 1
	assert.InDelta(t, 0.18999, *pos.AnnualizedReturn, 1e-4)
}

func TestComposeClosedLossStillAnnualizes(t *testing.T) {
	lots := []domain.ClosedLot{closedLot(0, 365, 10, 100, 90)}

	pos := ComposeClosed("ACME", domain.InstrumentEquity, lots, income.Attribution{}, 0)

	assert.Equal(t, -100.0, pos.Gain)
	require.NotNil(t, pos.AnnualizedReturn)
	assert.InDelta(t, -0.10, *pos.AnnualizedReturn, 1e-9)
}
