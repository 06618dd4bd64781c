package positions

import (
	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
)

// ComposeClosed builds the realized view from closed lots and the income
// attributed to their holding windows. No quote snapshot is involved: every
// number here is historical.
func ComposeClosed(
	symbol string,
	instrument domain.Instrument,
	closedLots []domain.ClosedLot,
	attribution income.Attribution,
	extraIncome float64,
) ClosedPosition {
	var quantity, proceeds, cost float64
	for _, lot := range closedLots {
		quantity += lot.Quantity
		proceeds += lot.Proceeds()
		cost += lot.Cost()
	}

	pos := ClosedPosition{
		Symbol:     symbol,
		Instrument: instrument,
		Quantity:   quantity,
		Proceeds:   round(proceeds, 2),
		Cost:       round(cost, 2),
		Gain:       round(proceeds-cost, 2),
		Lots:       closedLots,
		Income:     round(attribution.Total+extraIncome, 2),
	}

	pos.CumulativeYield = round(cumulativeYield(pos.Income, cost), 6)
	pos.CumulativeGain = round(cumulativeGain((proceeds-cost)+pos.Income, cost), 6)

	pos.OpenedAt = weightedMeanDate(buyLegs(closedLots))
	for _, lot := range closedLots {
		if lot.Sell.Date.After(pos.ClosedAt) {
			pos.ClosedAt = lot.Sell.Date
		}
	}

	// The annualization window ends at disposal, not now.
	days := holdingDays(pos.OpenedAt, pos.ClosedAt)
	pos.AnnualizedReturn = annualizedReturn(proceeds, pos.Income, cost, days)

	return pos
}

// buyLegs views the consumed buy portions as lots so the weighted mean
// acquisition date is shared with the open composer.
func buyLegs(closedLots []domain.ClosedLot) []domain.Lot {
	legs := make([]domain.Lot, 0, len(closedLots))
	for _, lot := range closedLots {
		legs = append(legs, domain.Lot{Transaction: lot.Buy, Quantity: lot.Quantity})
	}
	return legs
}
