// Package income assigns dividend income to matched lots by holding window
// and stores user-entered income records layered on top.
package income

import (
	"time"

	"github.com/aristath/holdings/internal/domain"
)

// EarnedEvent is one dividend with the amount the given lots earned from it.
type EarnedEvent struct {
	Event  domain.DividendEvent `json:"event"`
	Amount float64              `json:"amount"`
}

// Attribution is the per-event breakdown plus total. Only events with a
// positive earned amount are kept.
type Attribution struct {
	Events []EarnedEvent `json:"events"`
	Total  float64       `json:"total"`
}

// AttributeOpen computes the dividend income earned by open lots. A lot
// earns a dividend when its acquisition date is on or before the ex-date
// and the ex-date is before now: the holding window is [acquisition, now).
//
// Pure aggregation; attributing the same list twice yields the same total.
func AttributeOpen(openLots []domain.Lot, dividends []domain.DividendEvent, now time.Time) Attribution {
	var attribution Attribution
	for _, ev := range dividends {
		if ev.Amount <= 0 || !ev.ExDate.Before(now) {
			continue
		}

		earned := 0.0
		for _, lot := range openLots {
			if earnedBy(lot.Transaction.Date, ev.ExDate) {
				earned += lot.Quantity * ev.Amount
			}
		}
		if earned > 0 {
			attribution.Events = append(attribution.Events, EarnedEvent{Event: ev, Amount: earned})
			attribution.Total += earned
		}
	}
	return attribution
}

// AttributeClosed computes the dividend income earned by realized disposal
// legs. A closed lot earns a dividend when acquisition date <= ex-date and
// disposal date >= ex-date; both ends inclusive, one convention everywhere.
func AttributeClosed(closedLots []domain.ClosedLot, dividends []domain.DividendEvent) Attribution {
	var attribution Attribution
	for _, ev := range dividends {
		if ev.Amount <= 0 {
			continue
		}

		earned := 0.0
		for _, lot := range closedLots {
			if earnedBy(lot.Buy.Date, ev.ExDate) && !lot.Sell.Date.Before(ev.ExDate) {
				earned += lot.Quantity * ev.Amount
			}
		}
		if earned > 0 {
			attribution.Events = append(attribution.Events, EarnedEvent{Event: ev, Amount: earned})
			attribution.Total += earned
		}
	}
	return attribution
}

// PayableBefore sums the per-share dividend amounts with ex-dates inside
// (from, until]. The covered-call composer uses it for dividends collectable
// before an option expiry.
func PayableBefore(dividends []domain.DividendEvent, next *domain.DividendEvent, from, until time.Time) float64 {
	total := 0.0
	for _, ev := range dividends {
		if ev.Amount > 0 && ev.ExDate.After(from) && !ev.ExDate.After(until) {
			total += ev.Amount
		}
	}
	if next != nil && next.Amount > 0 && next.ExDate.After(from) && !next.ExDate.After(until) {
		total += next.Amount
	}
	return total
}

// earnedBy reports whether a lot acquired on acq earns a dividend whose
// ex-date is ex (acquisition on or before the ex-date).
func earnedBy(acq, ex time.Time) bool {
	return !acq.After(ex)
}
