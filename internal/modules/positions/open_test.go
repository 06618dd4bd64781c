package positions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
)

func openLot(d time.Time, qty, price float64) domain.Lot {
	return domain.Lot{
		Transaction: domain.Transaction{Symbol: "ACME", Instrument: domain.InstrumentEquity, Date: d, Quantity: qty, Price: price},
		Quantity:    qty,
	}
}

func TestComposeOpenWithoutQuote(t *testing.T) {
	lots := []domain.Lot{openLot(day(0), 10, 100)}
	attribution := income.Attribution{Total: 25}

	pos := ComposeOpen("ACME", domain.InstrumentEquity, lots, attribution, 5, 0, nil, day(30))

	assert.Equal(t, "ACME", pos.Symbol)
	assert.Equal(t, 10.0, pos.Quantity)
	assert.Equal(t, 1000.0, pos.CostBasis)
	assert.Equal(t, 100.0, pos.AvgPrice)
	assert.Equal(t, 30.0, pos.Income, "attributed dividends plus user-entered income")
	assert.Equal(t, 0.03, pos.CumulativeYield)

	// Price-dependent fields stay nil rather than reporting zero.
	assert.Nil(t, pos.Price)
	assert.Nil(t, pos.Value)
	assert.Nil(t, pos.UnrealizedGain)
	assert.Nil(t, pos.CumulativeGain)
	assert.Nil(t, pos.AnnualizedReturn)
	assert.Nil(t, pos.QuoteAsOf)
}

func TestComposeOpenWithQuote(t *testing.T) {
	lots := []domain.Lot{openLot(day(0), 10, 100)}
	quote := &domain.Quote{Symbol: "ACME", Price: 110, AsOf: day(365)}

	pos := ComposeOpen("ACME", domain.InstrumentEquity, lots, income.Attribution{Total: 40}, 0, 60, quote, day(365))

	require.NotNil(t, pos.Value)
	assert.Equal(t, 1100.0, *pos.Value)
	require.NotNil(t, pos.UnrealizedGain)
	assert.Equal(t, 100.0, *pos.UnrealizedGain)

	// Cumulative gain includes the gain already realized on closed lots.
	require.NotNil(t, pos.CumulativeGain)
	assert.InDelta(t, 0.16, *pos.CumulativeGain, 1e-9)

	// One year at (1100+40)/1000.
	require.NotNil(t, pos.AnnualizedReturn)
	assert.InDelta(t, 0.14, *pos.AnnualizedReturn, 1e-9)

	require.NotNil(t, pos.QuoteAsOf)
	assert.Equal(t, day(365), *pos.QuoteAsOf)
}

func TestComposeOpenBondYields(t *testing.T) {
	now := day(0)
	maturity := now.AddDate(10, 0, 0)
	lots := []domain.Lot{openLot(day(0), 10, 1000)}
	quote := &domain.Quote{
		Symbol: "CORP",
		Price:  1000,
		AsOf:   now,
		Bond: &domain.BondTerms{
			FaceValue:  1000,
			CouponRate: 0.05,
			Frequency:  2,
			Maturity:   maturity,
		},
	}

	pos := ComposeOpen("CORP", domain.InstrumentBond, lots, income.Attribution{}, 0, 0, quote, now)

	// A par bond yields its coupon rate.
	require.NotNil(t, pos.YieldToMaturity)
	assert.InDelta(t, 0.05, *pos.YieldToMaturity, 1e-4)
	assert.Nil(t, pos.YieldToCall, "no call schedule")
}

func TestComposeOpenYieldToCall(t *testing.T) {
	now := day(0)
	call := now.AddDate(2, 0, 0)
	quote := &domain.Quote{
		Symbol: "CORP",
		Price:  1000,
		AsOf:   now,
		Bond: &domain.BondTerms{
			FaceValue:  1000,
			CouponRate: 0.06,
			Frequency:  2,
			Maturity:   now.AddDate(10, 0, 0),
			CallDate:   &call,
			CallPrice:  1000,
		},
	}

	pos := ComposeOpen("CORP", domain.InstrumentBond, []domain.Lot{openLot(now, 10, 1000)}, income.Attribution{}, 0, 0, quote, now)

	require.NotNil(t, pos.YieldToCall)
	assert.InDelta(t, 0.06, *pos.YieldToCall, 1e-4)
}

func TestComposeOpenMaturedBond(t *testing.T) {
	now := day(0)
	quote := &domain.Quote{
		Symbol: "CORP",
		Price:  1000,
		AsOf:   now,
		Bond: &domain.BondTerms{
			FaceValue:  1000,
			CouponRate: 0.05,
			Frequency:  2,
			Maturity:   now.AddDate(-1, 0, 0),
		},
	}

	pos := ComposeOpen("CORP", domain.InstrumentBond, []domain.Lot{openLot(now, 10, 1000)}, income.Attribution{}, 0, 0, quote, now)

	assert.Nil(t, pos.YieldToMaturity, "unknown is never reported as zero")
}
