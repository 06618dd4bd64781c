package positions

import (
	"sort"
	"time"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
)

// contractMultiplier is the share deliverable per option contract.
const contractMultiplier = 100.0

// ClassifyLegs groups a symbol's option transactions by contract and
// classifies each group from its net signed quantity: OPEN iff net != 0,
// CLOSED iff net == 0. Classification is recomputed on every read; there is
// no persisted state machine, so a composite's shape changes automatically
// as transactions accrue.
func ClassifyLegs(optionTxs []domain.Transaction) []OptionLeg {
	byContract := make(map[string]*OptionLeg)
	var order []string

	for _, tx := range optionTxs {
		leg, ok := byContract[tx.Contract]
		if !ok {
			leg = &OptionLeg{
				Contract: tx.Contract,
				Type:     tx.Instrument,
				Strike:   tx.Strike,
				Expiry:   tx.Expiry,
			}
			byContract[tx.Contract] = leg
			order = append(order, tx.Contract)
		}

		leg.NetQuantity += tx.Quantity
		leg.CashFlow += -tx.Quantity * tx.Price * contractMultiplier
		if tx.Date.After(leg.LastActivity) {
			leg.LastActivity = tx.Date
		}
		leg.Transactions = append(leg.Transactions, tx)
	}

	legs := make([]OptionLeg, 0, len(order))
	for _, contract := range order {
		leg := byContract[contract]
		if leg.NetQuantity != 0 {
			leg.State = LegOpen
		} else {
			leg.State = LegClosed
			leg.RealizedGain = round(leg.CashFlow, 2)
		}
		legs = append(legs, *leg)
	}

	sort.SliceStable(legs, func(i, j int) bool {
		return legs[i].LastActivity.Before(legs[j].LastActivity)
	})

	return legs
}

// activeLegIndex picks the leg used for pricing: the open group with the
// most recent activity, else the most recently closed group. Returns -1
// when there are no legs.
func activeLegIndex(legs []OptionLeg) int {
	best := -1
	for i, leg := range legs {
		if leg.State != LegOpen {
			continue
		}
		if best == -1 || leg.LastActivity.After(legs[best].LastActivity) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}

	for i, leg := range legs {
		if best == -1 || leg.LastActivity.After(legs[best].LastActivity) {
			best = i
		}
	}
	return best
}

// ComposeCoveredCall merges equity lots with the symbol's option legs into
// the composite view. chain is the snapshot for the active leg's expiry and
// may be nil; quote may be nil. Either absence degrades the view to the
// fields computable without it.
func ComposeCoveredCall(
	symbol string,
	stockLots []domain.Lot,
	legs []OptionLeg,
	dividends income.Attribution,
	extraIncome float64,
	quote *domain.Quote,
	chain []domain.OptionQuote,
	now time.Time,
) CoveredCallPosition {
	var shares, stockCost float64
	for _, lot := range stockLots {
		shares += lot.Quantity
		stockCost += lot.CostBasis()
	}

	pos := CoveredCallPosition{
		Symbol:         symbol,
		Shares:         shares,
		StockCostBasis: round(stockCost, 2),
		StockLots:      stockLots,
		Dividends:      round(dividends.Total+extraIncome, 2),
	}

	// Price open legs off the chain snapshot and accumulate realized gains
	// from closed ones.
	openUnpriced := 0
	var unrealizedOption float64
	for i := range legs {
		leg := &legs[i]
		switch leg.State {
		case LegClosed:
			pos.RealizedOptionGain += leg.RealizedGain
		case LegOpen:
			if mid, ok := chainMid(chain, leg.Contract, leg.Strike, leg.Type); ok {
				leg.Mid = ptr(mid)
				gain := leg.CashFlow + leg.NetQuantity*mid*contractMultiplier
				leg.UnrealizedGain = ptr(round(gain, 2))
				unrealizedOption += gain
			} else {
				openUnpriced++
			}
		}
	}
	pos.RealizedOptionGain = round(pos.RealizedOptionGain, 2)
	pos.Legs = legs

	switch {
	case len(legs) == 0:
		pos.Shape = ShapeSharesOnly
	case hasOpenLeg(legs):
		pos.Shape = ShapeCovered
	default:
		pos.Shape = ShapeClosed
	}

	if i := activeLegIndex(legs); i >= 0 {
		active := legs[i]
		pos.ActiveLeg = &active
	}

	// A partially priced option book would misstate the total; report the
	// unrealized option gain only when every open leg has a mid.
	if hasOpenLeg(legs) && openUnpriced == 0 {
		pos.UnrealizedOptionGain = ptr(round(unrealizedOption, 2))
	}

	if quote == nil {
		return pos
	}

	asOf := quote.AsOf
	pos.StockPrice = ptr(quote.Price)
	pos.QuoteAsOf = &asOf
	stockUnrealized := shares*quote.Price - stockCost
	pos.StockUnrealizedGain = ptr(round(stockUnrealized, 2))

	// Total = stock unrealized + realized option + unrealized option +
	// attributed dividends. Without open legs no option pricing is needed.
	if pos.Shape != ShapeCovered {
		pos.TotalGain = ptr(round(stockUnrealized+pos.RealizedOptionGain+pos.Dividends, 2))
	} else if pos.UnrealizedOptionGain != nil {
		total := stockUnrealized + pos.RealizedOptionGain + *pos.UnrealizedOptionGain + pos.Dividends
		pos.TotalGain = ptr(round(total, 2))
	}

	// Forward-looking economics need an open active leg with a mid.
	if pos.ActiveLeg == nil || pos.ActiveLeg.State != LegOpen || pos.ActiveLeg.Mid == nil {
		return pos
	}

	active := pos.ActiveLeg
	if !active.Expiry.After(now) {
		return pos
	}

	days := active.Expiry.Sub(now).Hours() / 24
	payable := income.PayableBefore(quote.Dividends, quote.NextExDividend, now, active.Expiry)
	econ := ComputeEconomics(quote.Price, *active.Mid, active.Strike, payable, days)

	pos.DaysToExpiry = ptr(round(days, 1))
	pos.DividendsPayable = ptr(round(payable, 4))
	pos.NetValuePerShare = ptr(round(econ.NetValue, 4))
	pos.MaxGainPerShare = ptr(round(econ.MaxGain, 4))
	pos.DownsideProtection = ptr(round(econ.DownsideProtection, 6))
	pos.BreakEven = ptr(round(econ.BreakEven, 4))
	if econ.PerAnnum != nil {
		pos.PerAnnumReturn = ptr(round(*econ.PerAnnum, 6))
	}

	return pos
}

func hasOpenLeg(legs []OptionLeg) bool {
	for _, leg := range legs {
		if leg.State == LegOpen {
			return true
		}
	}
	return false
}

// chainMid finds the contract in the chain snapshot, falling back to a
// strike+type match when the provider uses different contract symbology.
func chainMid(chain []domain.OptionQuote, contract string, strike float64, typ domain.Instrument) (float64, bool) {
	for _, q := range chain {
		if q.Contract == contract {
			return q.Mid(), true
		}
	}
	for _, q := range chain {
		if q.Type == typ && q.Strike == strike {
			return q.Mid(), true
		}
	}
	return 0, false
}
