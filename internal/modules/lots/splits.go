// Package lots turns a symbol's raw transaction stream into lot-accurate
// open and closed positions: split adjustment first, then FIFO matching.
package lots

import (
	"github.com/aristath/holdings/internal/domain"
)

// AdjustForSplits returns a copy of the transactions normalized against the
// given corporate actions. A transaction dated before a split's effective
// date has its quantity multiplied and price divided by the split ratio; a
// transaction dated exactly on the effective date is left alone.
//
// The adjustment is a single pure transform of each original transaction.
// When several splits apply, their ratios combine into one factor computed
// from the original values; nothing is mutated in place.
func AdjustForSplits(txs []domain.Transaction, splits []domain.SplitEvent) []domain.Transaction {
	if len(splits) == 0 {
		return append([]domain.Transaction(nil), txs...)
	}

	adjusted := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		factor := 1.0
		for _, split := range splits {
			ratio := split.Ratio()
			if ratio <= 0 {
				continue
			}
			if tx.Date.Before(split.Date) {
				factor *= ratio
			}
		}

		out := tx
		if factor != 1.0 {
			out.Quantity = tx.Quantity * factor
			out.Price = tx.Price / factor
		}
		adjusted = append(adjusted, out)
	}

	return adjusted
}
