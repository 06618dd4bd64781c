// Package positions composes lot-accurate position views with derived
// return metrics from transactions, attributed income, and one quote
// snapshot per computation pass.
package positions

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/holdings/internal/domain"
)

// The named financial ratios live here as small composable functions shared
// by the open, closed, and covered-call composers.

const daysPerYear = 365.0

// round rounds a float64 to n decimal places
func round(val float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(val*multiplier) / multiplier
}

// cumulativeYield is earned income over cost. Zero cost yields zero.
func cumulativeYield(income, cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	return income / cost
}

// cumulativeGain is total (realized plus unrealized) gain over cost.
func cumulativeGain(gain, cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	return gain / cost
}

// annualizedReturn compounds the holding-period value ratio over the period:
// ((value + income) / cost)^(365/days) - 1. Returns nil when the window or
// the ratio is degenerate.
func annualizedReturn(value, income, cost float64, days float64) *float64 {
	if cost <= 0 || days <= 0 {
		return nil
	}
	ratio := (value + income) / cost
	if ratio <= 0 {
		return nil
	}
	result := math.Pow(ratio, daysPerYear/days) - 1
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return nil
	}
	return &result
}

// perAnnum scales a holding-period return by 365/days.
func perAnnum(periodReturn float64, days float64) *float64 {
	if days <= 0 {
		return nil
	}
	result := periodReturn * daysPerYear / days
	return &result
}

// netValuePerShare is the effective per-share outlay of a covered position:
// stock price less the option premium collectable at the mid.
func netValuePerShare(stockPrice, optionMid float64) float64 {
	return stockPrice - optionMid
}

// maxGainPerShare is the best case at expiry: assignment at the strike plus
// dividends collectable before expiry, against the net outlay.
func maxGainPerShare(strike, netValue, dividendsPayable float64) float64 {
	return strike - netValue + dividendsPayable
}

// noChangeGainPerShare is the at-expiry gain if the stock price is
// unchanged: called away at the strike when in the money, kept otherwise.
func noChangeGainPerShare(stockPrice, strike, netValue, dividendsPayable float64) float64 {
	return math.Min(stockPrice, strike) + dividendsPayable - netValue
}

// downsideProtection is the fraction the stock can fall before the covered
// position loses money: 1 - (netValue - dividendsPayable)/stockPrice.
func downsideProtection(stockPrice, netValue, dividendsPayable float64) float64 {
	if stockPrice <= 0 {
		return 0
	}
	return 1 - (netValue-dividendsPayable)/stockPrice
}

// breakEvenPrice is the stock price at which the covered position neither
// gains nor loses at expiry.
func breakEvenPrice(netValue, dividendsPayable float64) float64 {
	return netValue - dividendsPayable
}

// weightedMeanDate returns the quantity-weighted mean acquisition date of
// the open lots.
func weightedMeanDate(openLots []domain.Lot) time.Time {
	if len(openLots) == 0 {
		return time.Time{}
	}

	instants := make([]float64, 0, len(openLots))
	weights := make([]float64, 0, len(openLots))
	for _, lot := range openLots {
		if lot.Quantity <= 0 {
			continue
		}
		instants = append(instants, float64(lot.Transaction.Date.Unix()))
		weights = append(weights, lot.Quantity)
	}
	if len(instants) == 0 {
		return time.Time{}
	}

	mean := stat.Mean(instants, weights)
	return time.Unix(int64(mean), 0).UTC()
}

// holdingDays measures a window in whole days, never less than one so that
// same-day holdings still annualize.
func holdingDays(from, to time.Time) float64 {
	if from.IsZero() || !to.After(from) {
		return 1
	}
	days := to.Sub(from).Hours() / 24
	if days < 1 {
		return 1
	}
	return math.Floor(days)
}

func ptr(v float64) *float64 {
	return &v
}
