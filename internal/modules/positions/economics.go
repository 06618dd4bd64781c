package positions

// Economics is the forward-looking per-share economics of one short call
// against owned shares, computed from a stock price and the leg's mid. The
// roll planner computes the same set for a candidate replacement leg, so the
// formulas live in one place.
type Economics struct {
	NetValue           float64  `json:"net_value"` // Stock price less option mid
	MaxGain            float64  `json:"max_gain"`
	NoChangeGain       float64  `json:"no_change_gain"`
	BreakEven          float64  `json:"break_even"`
	DownsideProtection float64  `json:"downside_protection"`
	DaysToExpiry       float64  `json:"days_to_expiry"`
	DividendsPayable   float64  `json:"dividends_payable"`
	PerAnnum           *float64 `json:"per_annum,omitempty"` // Nil for degenerate windows
}

// ComputeEconomics evaluates the covered-call formula set for one leg.
func ComputeEconomics(stockPrice, mid, strike, dividendsPayable, days float64) Economics {
	netValue := netValuePerShare(stockPrice, mid)

	e := Economics{
		NetValue:           netValue,
		MaxGain:            maxGainPerShare(strike, netValue, dividendsPayable),
		NoChangeGain:       noChangeGainPerShare(stockPrice, strike, netValue, dividendsPayable),
		BreakEven:          breakEvenPrice(netValue, dividendsPayable),
		DownsideProtection: downsideProtection(stockPrice, netValue, dividendsPayable),
		DaysToExpiry:       days,
		DividendsPayable:   dividendsPayable,
	}

	if netValue > 0 {
		e.PerAnnum = perAnnum(e.NoChangeGain/netValue, days)
	}

	return e
}
