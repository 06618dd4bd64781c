package positions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
)

func callTx(contract string, d time.Time, qty, price, strike float64, expiry time.Time) domain.Transaction {
	return domain.Transaction{
		Symbol:     "ACME",
		Contract:   contract,
		Instrument: domain.InstrumentCall,
		Date:       d,
		Quantity:   qty,
		Price:      price,
		Strike:     strike,
		Expiry:     expiry,
	}
}

func TestClassifyLegsOpenShort(t *testing.T) {
	expiry := day(45)
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260215C52", day(1), -1, 1.50, 52, expiry),
	})

	require.Len(t, legs, 1)
	assert.Equal(t, LegOpen, legs[0].State)
	assert.Equal(t, -1.0, legs[0].NetQuantity)
	assert.Equal(t, 150.0, legs[0].CashFlow, "premium received on 100 deliverable shares")
	assert.Equal(t, 52.0, legs[0].Strike)
	assert.Equal(t, expiry, legs[0].Expiry)
}

func TestClassifyLegsBuybackCloses(t *testing.T) {
	expiry := day(45)
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260215C52", day(1), -1, 1.50, 52, expiry),
		callTx("ACME260215C52", day(30), 1, 0.40, 52, expiry),
	})

	require.Len(t, legs, 1)
	assert.Equal(t, LegClosed, legs[0].State, "net quantity zero closes the leg")
	assert.Equal(t, 0.0, legs[0].NetQuantity)
	assert.Equal(t, 110.0, legs[0].RealizedGain, "sold 1.50, bought back 0.40")
	assert.Equal(t, day(30), legs[0].LastActivity)
}

func TestClassifyLegsReopens(t *testing.T) {
	// Selling again after a full buyback reopens the same contract group.
	expiry := day(45)
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260215C52", day(1), -1, 1.50, 52, expiry),
		callTx("ACME260215C52", day(10), 1, 0.40, 52, expiry),
		callTx("ACME260215C52", day(20), -2, 1.10, 52, expiry),
	})

	require.Len(t, legs, 1)
	assert.Equal(t, LegOpen, legs[0].State)
	assert.Equal(t, -2.0, legs[0].NetQuantity)
	assert.InDelta(t, 330.0, legs[0].CashFlow, 1e-9)
}

func TestClassifyLegsOrderedByActivity(t *testing.T) {
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260515C55", day(40), -1, 2.00, 55, day(135)),
		callTx("ACME260215C52", day(1), -1, 1.50, 52, day(45)),
		callTx("ACME260215C52", day(30), 1, 0.40, 52, day(45)),
	})

	require.Len(t, legs, 2)
	assert.Equal(t, "ACME260215C52", legs[0].Contract)
	assert.Equal(t, "ACME260515C55", legs[1].Contract)
}

func TestActiveLegPrefersOpen(t *testing.T) {
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260215C52", day(1), -1, 1.50, 52, day(45)),
		callTx("ACME260215C52", day(60), 1, 0.10, 52, day(45)),
		callTx("ACME260515C55", day(50), -1, 2.00, 55, day(135)),
	})

	// The closed leg has later activity, but the open leg wins.
	i := activeLegIndex(legs)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "ACME260515C55", legs[i].Contract)
	assert.Equal(t, LegOpen, legs[i].State)
}

func TestActiveLegFallsBackToLatestClosed(t *testing.T) {
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260215C52", day(1), -1, 1.50, 52, day(45)),
		callTx("ACME260215C52", day(30), 1, 0.40, 52, day(45)),
	})

	i := activeLegIndex(legs)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, LegClosed, legs[i].State)

	assert.Equal(t, -1, activeLegIndex(nil))
}

func TestComposeCoveredCallSharesOnly(t *testing.T) {
	lots := []domain.Lot{openLot(day(0), 100, 48)}
	quote := &domain.Quote{Symbol: "ACME", Price: 50, AsOf: day(30)}

	pos := ComposeCoveredCall("ACME", lots, nil, income.Attribution{Total: 30}, 0, quote, nil, day(30))

	assert.Equal(t, ShapeSharesOnly, pos.Shape)
	assert.Equal(t, 100.0, pos.Shares)
	assert.Equal(t, 4800.0, pos.StockCostBasis)
	assert.Nil(t, pos.ActiveLeg)

	require.NotNil(t, pos.StockUnrealizedGain)
	assert.Equal(t, 200.0, *pos.StockUnrealizedGain)
	require.NotNil(t, pos.TotalGain)
	assert.Equal(t, 230.0, *pos.TotalGain, "stock gain plus dividends")

	// No open leg means no forward economics.
	assert.Nil(t, pos.DaysToExpiry)
	assert.Nil(t, pos.NetValuePerShare)
}

func TestComposeCoveredCallForwardEconomics(t *testing.T) {
	now := day(0)
	expiry := day(30)
	lots := []domain.Lot{openLot(day(-100), 100, 48)}
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260131C52", day(-5), -1, 1.20, 52, expiry),
	})
	quote := &domain.Quote{Symbol: "ACME", Price: 50, AsOf: now}
	chain := []domain.OptionQuote{
		{Contract: "ACME260131C52", Type: domain.InstrumentCall, Strike: 52, Expiry: expiry, Bid: 1.40, Ask: 1.60},
	}

	pos := ComposeCoveredCall("ACME", lots, legs, income.Attribution{}, 0, quote, chain, now)

	assert.Equal(t, ShapeCovered, pos.Shape)
	require.NotNil(t, pos.ActiveLeg)
	require.NotNil(t, pos.ActiveLeg.Mid)
	assert.InDelta(t, 1.50, *pos.ActiveLeg.Mid, 1e-9)

	// Sold at 1.20, marked at 1.50: 30 dollars against the position.
	require.NotNil(t, pos.UnrealizedOptionGain)
	assert.InDelta(t, -30.0, *pos.UnrealizedOptionGain, 1e-9)

	require.NotNil(t, pos.TotalGain)
	assert.InDelta(t, 170.0, *pos.TotalGain, 1e-9, "200 stock gain less 30 option mark")

	require.NotNil(t, pos.DaysToExpiry)
	assert.InDelta(t, 30.0, *pos.DaysToExpiry, 1e-9)

	require.NotNil(t, pos.NetValuePerShare)
	assert.InDelta(t, 48.5, *pos.NetValuePerShare, 1e-9)
	require.NotNil(t, pos.MaxGainPerShare)
	assert.InDelta(t, 3.5, *pos.MaxGainPerShare, 1e-9)
	require.NotNil(t, pos.BreakEven)
	assert.InDelta(t, 48.5, *pos.BreakEven, 1e-9)
	require.NotNil(t, pos.DownsideProtection)
	assert.InDelta(t, 0.03, *pos.DownsideProtection, 1e-6)

	// No-change gain 1.50 over a 48.50 outlay, scaled to a year.
	require.NotNil(t, pos.PerAnnumReturn)
	assert.InDelta(t, (1.5/48.5)*365/30, *pos.PerAnnumReturn, 1e-5)
}

func TestComposeCoveredCallChainMissing(t *testing.T) {
	now := day(0)
	lots := []domain.Lot{openLot(day(-100), 100, 48)}
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260131C52", day(-5), -1, 1.20, 52, day(30)),
	})
	quote := &domain.Quote{Symbol: "ACME", Price: 50, AsOf: now}

	pos := ComposeCoveredCall("ACME", lots, legs, income.Attribution{}, 0, quote, nil, now)

	assert.Equal(t, ShapeCovered, pos.Shape)
	require.NotNil(t, pos.StockUnrealizedGain)

	// The option book cannot be priced: no unrealized option gain, no
	// total, no forward economics. Nothing is reported as zero.
	assert.Nil(t, pos.UnrealizedOptionGain)
	assert.Nil(t, pos.TotalGain)
	assert.Nil(t, pos.NetValuePerShare)
	assert.Nil(t, pos.PerAnnumReturn)
}

func TestComposeCoveredCallClosedLegs(t *testing.T) {
	now := day(60)
	lots := []domain.Lot{openLot(day(-100), 100, 48)}
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260131C52", day(1), -1, 1.50, 52, day(45)),
		callTx("ACME260131C52", day(30), 1, 0.40, 52, day(45)),
	})
	quote := &domain.Quote{Symbol: "ACME", Price: 50, AsOf: now}

	pos := ComposeCoveredCall("ACME", lots, legs, income.Attribution{Total: 10}, 0, quote, nil, now)

	assert.Equal(t, ShapeClosed, pos.Shape)
	assert.Equal(t, 110.0, pos.RealizedOptionGain)

	require.NotNil(t, pos.TotalGain)
	assert.InDelta(t, 320.0, *pos.TotalGain, 1e-9, "stock 200 + option 110 + dividends 10")
}

func TestComposeCoveredCallExpiredLegHasNoForwardEconomics(t *testing.T) {
	now := day(60)
	expiry := day(30)
	lots := []domain.Lot{openLot(day(-100), 100, 48)}
	legs := ClassifyLegs([]domain.Transaction{
		callTx("ACME260131C52", day(1), -1, 1.20, 52, expiry),
	})
	quote := &domain.Quote{Symbol: "ACME", Price: 50, AsOf: now}
	chain := []domain.OptionQuote{
		{Contract: "ACME260131C52", Type: domain.InstrumentCall, Strike: 52, Expiry: expiry, Bid: 0.01, Ask: 0.03},
	}

	pos := ComposeCoveredCall("ACME", lots, legs, income.Attribution{}, 0, quote, chain, now)

	require.NotNil(t, pos.UnrealizedOptionGain, "marking still works")
	assert.Nil(t, pos.DaysToExpiry, "expiry has passed")
	assert.Nil(t, pos.MaxGainPerShare)
}

func TestChainMidFallsBackToStrikeAndType(t *testing.T) {
	chain := []domain.OptionQuote{
		{Contract: "PROVIDER-STYLE-52C", Type: domain.InstrumentCall, Strike: 52, Bid: 1.0, Ask: 1.2},
	}

	mid, ok := chainMid(chain, "ACME260131C52", 52, domain.InstrumentCall)
	require.True(t, ok)
	assert.InDelta(t, 1.1, mid, 1e-9)

	_, ok = chainMid(chain, "ACME260131C55", 55, domain.InstrumentCall)
	assert.False(t, ok)
}
