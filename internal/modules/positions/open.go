package positions

import (
	"time"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
	"github.com/aristath/holdings/internal/numeric"
)

// ComposeOpen builds the open equity/bond view from matched open lots, the
// attributed income, and the pass's quote snapshot. A nil quote degrades to
// transaction-only metrics: price-dependent fields stay nil.
//
// realizedGain is the capital gain already realized on this symbol's closed
// lots; it participates in the cumulative gain ratio.
func ComposeOpen(
	symbol string,
	instrument domain.Instrument,
	openLots []domain.Lot,
	attribution income.Attribution,
	extraIncome float64,
	realizedGain float64,
	quote *domain.Quote,
	now time.Time,
) OpenPosition {
	var quantity, cost float64
	for _, lot := range openLots {
		quantity += lot.Quantity
		cost += lot.CostBasis()
	}

	pos := OpenPosition{
		Symbol:       symbol,
		Instrument:   instrument,
		Quantity:     quantity,
		CostBasis:    round(cost, 2),
		AcquiredAt:   weightedMeanDate(openLots),
		Lots:         openLots,
		Income:       round(attribution.Total+extraIncome, 2),
		IncomeEvents: attribution.Events,
	}
	if quantity > 0 {
		pos.AvgPrice = round(cost/quantity, 4)
	}
	pos.CumulativeYield = round(cumulativeYield(pos.Income, cost), 6)

	if quote == nil {
		return pos
	}

	days := holdingDays(pos.AcquiredAt, now)
	value := quantity * quote.Price
	unrealized := value - cost

	asOf := quote.AsOf
	pos.Price = ptr(quote.Price)
	pos.Value = ptr(round(value, 2))
	pos.UnrealizedGain = ptr(round(unrealized, 2))
	pos.CumulativeGain = ptr(round(cumulativeGain(realizedGain+unrealized, cost), 6))
	pos.AnnualizedReturn = annualizedReturn(value, pos.Income, cost, days)
	pos.QuoteAsOf = &asOf

	if instrument == domain.InstrumentBond && quote.Bond != nil {
		pos.YieldToMaturity, pos.YieldToCall = bondYields(quote.Bond, quote.Price, now)
	}

	return pos
}

// bondYields solves the periodic-rate equation against maturity and, when a
// call schedule exists, against the call date. A non-converging solve leaves
// the yield nil: unknown is never reported as zero.
func bondYields(terms *domain.BondTerms, price float64, now time.Time) (ytm, ytc *float64) {
	if price <= 0 || terms.FaceValue <= 0 {
		return nil, nil
	}

	frequency := terms.Frequency
	if frequency <= 0 {
		frequency = 2 // Semiannual coupons unless stated otherwise
	}
	payment := terms.FaceValue * terms.CouponRate / float64(frequency)

	ytm = solveYield(payment, price, terms.FaceValue, now, terms.Maturity, frequency)

	if terms.CallDate != nil {
		callPrice := terms.CallPrice
		if callPrice <= 0 {
			callPrice = terms.FaceValue
		}
		ytc = solveYield(payment, price, callPrice, now, *terms.CallDate, frequency)
	}

	return ytm, ytc
}

func solveYield(payment, price, redemption float64, now, horizon time.Time, frequency int) *float64 {
	years := horizon.Sub(now).Hours() / 24 / daysPerYear
	if years <= 0 {
		return nil
	}

	periods := years * float64(frequency)
	rate, err := numeric.Rate(periods, payment, -price, redemption)
	if err != nil {
		return nil
	}

	annual := rate * float64(frequency)
	return &annual
}
