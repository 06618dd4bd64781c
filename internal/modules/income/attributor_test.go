package income

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/holdings/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func openLot(acquired time.Time, qty float64) domain.Lot {
	return domain.Lot{
		Transaction: domain.Transaction{
			Symbol:     "BHP",
			Instrument: domain.InstrumentEquity,
			Date:       acquired,
			Quantity:   qty,
			Price:      40,
		},
		Quantity: qty,
	}
}

func closedLot(acquired, sold time.Time, qty float64) domain.ClosedLot {
	return domain.ClosedLot{
		Buy:      domain.Transaction{Symbol: "BHP", Date: acquired, Quantity: qty, Price: 40},
		Sell:     domain.Transaction{Symbol: "BHP", Date: sold, Quantity: -qty, Price: 45},
		Quantity: qty,
	}
}

func TestAttributeOpen_WindowIsAcquisitionToNow(t *testing.T) {
	lots := []domain.Lot{openLot(day(10), 100)}
	dividends := []domain.DividendEvent{
		{ExDate: day(5), Amount: 1.00},  // Before acquisition: not earned
		{ExDate: day(10), Amount: 0.50}, // On acquisition date: earned
		{ExDate: day(20), Amount: 0.75}, // Inside window: earned
		{ExDate: day(90), Amount: 2.00}, // After now: not earned
	}

	att := AttributeOpen(lots, dividends, day(30))

	require.Len(t, att.Events, 2)
	assert.Equal(t, 50.0, att.Events[0].Amount)
	assert.Equal(t, 75.0, att.Events[1].Amount)
	assert.InDelta(t, 125.0, att.Total, 1e-9)
}

func TestAttributeOpen_Idempotent(t *testing.T) {
	lots := []domain.Lot{openLot(day(1), 50), openLot(day(15), 25)}
	dividends := []domain.DividendEvent{
		{ExDate: day(10), Amount: 0.40},
		{ExDate: day(20), Amount: 0.40},
	}

	first := AttributeOpen(lots, dividends, day(40))
	second := AttributeOpen(lots, dividends, day(40))

	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Events, second.Events)
}

func TestAttributeOpen_MultipleLotsShareEvent(t *testing.T) {
	lots := []domain.Lot{openLot(day(1), 50), openLot(day(15), 25)}
	dividends := []domain.DividendEvent{{ExDate: day(20), Amount: 1.00}}

	att := AttributeOpen(lots, dividends, day(40))

	require.Len(t, att.Events, 1)
	assert.Equal(t, 75.0, att.Events[0].Amount)
}

func TestAttributeOpen_FiltersZeroAmounts(t *testing.T) {
	lots := []domain.Lot{openLot(day(10), 100)}
	dividends := []domain.DividendEvent{
		{ExDate: day(5), Amount: 1.00}, // Nothing held yet
		{ExDate: day(12), Amount: 0},   // Zero per-share amount
	}

	att := AttributeOpen(lots, dividends, day(30))

	assert.Empty(t, att.Events)
	assert.Zero(t, att.Total)
}

func TestAttributeClosed_WindowEndsAtDisposal(t *testing.T) {
	closed := []domain.ClosedLot{closedLot(day(1), day(20), 100)}
	dividends := []domain.DividendEvent{
		{ExDate: day(10), Amount: 0.50}, // Inside holding window
		{ExDate: day(20), Amount: 0.25}, // On disposal date: still earned
		{ExDate: day(25), Amount: 1.00}, // After disposal: not earned
	}

	att := AttributeClosed(closed, dividends)

	require.Len(t, att.Events, 2)
	assert.InDelta(t, 75.0, att.Total, 1e-9)
}

func TestPayableBefore(t *testing.T) {
	dividends := []domain.DividendEvent{
		{ExDate: day(10), Amount: 0.50},
		{ExDate: day(40), Amount: 0.60},
		{ExDate: day(80), Amount: 0.70},
	}
	next := &domain.DividendEvent{ExDate: day(50), Amount: 0.65}

	// Window (day20, day60]: the day40 history entry and day50 estimate.
	total := PayableBefore(dividends, next, day(20), day(60))
	assert.InDelta(t, 1.25, total, 1e-9)

	// No estimate available.
	total = PayableBefore(dividends, nil, day(20), day(60))
	assert.InDelta(t, 0.60, total, 1e-9)
}
