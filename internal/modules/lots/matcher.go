package lots

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aristath/holdings/internal/domain"
)

// ErrOversold reports a data-integrity violation: cumulative sells exceed
// cumulative buys. The caller gets the partial result anyway so the holding
// can be flagged instead of omitted.
var ErrOversold = errors.New("sells exceed buys")

// MatchResult is the FIFO partition of one symbol's transactions.
//
// Conservation: for well-formed input,
// sum(original buy quantities) == sum(open lot quantities) + SoldQuantity.
type MatchResult struct {
	Open         []domain.Lot
	Closed       []domain.ClosedLot
	SoldQuantity float64
}

// matchState is the per-step state threaded through the buy fold: the queue
// of not-yet-matched sell portions plus the accumulated open and closed lots.
type matchState struct {
	sells  []pendingSell
	open   []domain.Lot
	closed []domain.ClosedLot
}

type pendingSell struct {
	tx        domain.Transaction
	remaining float64
}

// Match FIFO-partitions one symbol/instrument's transactions into open lots,
// closed lots, and the total sold quantity. Buys are walked oldest first;
// each buy is consumed by the oldest outstanding sells until either side is
// exhausted, and any unconsumed remainder stays open.
//
// Matching never mutates its input; every step returns fresh values.
func Match(txs []domain.Transaction) (MatchResult, error) {
	var buys []domain.Transaction
	var sells []pendingSell

	for _, tx := range txs {
		switch {
		case tx.Quantity > 0:
			buys = append(buys, tx)
		case tx.Quantity < 0:
			sells = append(sells, pendingSell{tx: tx, remaining: -tx.Quantity})
		}
	}

	sort.SliceStable(buys, func(i, j int) bool {
		return buys[i].Date.Before(buys[j].Date)
	})
	sort.SliceStable(sells, func(i, j int) bool {
		return sells[i].tx.Date.Before(sells[j].tx.Date)
	})

	soldQuantity := 0.0
	for _, s := range sells {
		soldQuantity += s.remaining
	}

	st := matchState{sells: sells}
	for _, buy := range buys {
		st = consumeBuy(st, buy)
	}

	result := MatchResult{
		Open:         st.open,
		Closed:       st.closed,
		SoldQuantity: soldQuantity,
	}

	if oversold := outstanding(st.sells); oversold > 0 {
		sym := symbolOf(txs)
		return result, fmt.Errorf("%s: %w by %g", sym, ErrOversold, oversold)
	}

	return result, nil
}

// consumeBuy advances the fold by one buy: the oldest outstanding sells
// consume it first, and whatever they leave behind becomes an open lot.
func consumeBuy(st matchState, buy domain.Transaction) matchState {
	available := buy.Quantity
	closed := st.closed
	sells := st.sells

	for available > 0 && len(sells) > 0 {
		head := sells[0]
		take := head.remaining
		if take > available {
			take = available
		}

		closed = append(closed, domain.ClosedLot{
			Buy:      buy,
			Sell:     head.tx,
			Quantity: take,
		})
		available -= take

		if head.remaining > take {
			rest := append([]pendingSell{{tx: head.tx, remaining: head.remaining - take}}, sells[1:]...)
			sells = rest
		} else {
			sells = sells[1:]
		}
	}

	open := st.open
	if available > 0 {
		open = append(open, domain.Lot{Transaction: buy, Quantity: available})
	}

	return matchState{sells: sells, open: open, closed: closed}
}

func outstanding(sells []pendingSell) float64 {
	total := 0.0
	for _, s := range sells {
		total += s.remaining
	}
	return total
}

func symbolOf(txs []domain.Transaction) string {
	if len(txs) == 0 {
		return "unknown"
	}
	return txs[0].Symbol
}
