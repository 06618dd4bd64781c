// Package domain provides core domain models and types.
package domain

import "time"

// Instrument represents the type of financial instrument a transaction trades.
type Instrument string

const (
	InstrumentEquity Instrument = "EQUITY"
	InstrumentBond   Instrument = "BOND"
	InstrumentCall   Instrument = "CALL"
	InstrumentPut    Instrument = "PUT"
)

// IsOption reports whether the instrument is an option leg.
func (i Instrument) IsOption() bool {
	return i == InstrumentCall || i == InstrumentPut
}

// Transaction is one normalized buy/sell record as produced by the entry
// layer. Quantity is signed: positive opens (buy), negative closes (sell).
// Transactions are immutable at rest; matching works on copies.
type Transaction struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Contract   string     `json:"contract,omitempty"` // Option contract symbol, empty for equity/bond
	Instrument Instrument `json:"instrument"`
	Date       time.Time  `json:"date"`
	Quantity   float64    `json:"quantity"`
	Price      float64    `json:"price"`
	Strike     float64    `json:"strike,omitempty"` // Option legs only
	Expiry     time.Time  `json:"expiry,omitempty"` // Option legs only
}

// Lot is a buy transaction (or remainder of one) not yet fully offset by a
// later sell. Quantity may be smaller than the originating transaction's
// when the lot was partially consumed.
type Lot struct {
	Transaction Transaction `json:"transaction"`
	Quantity    float64     `json:"quantity"`
}

// CostBasis returns the acquisition cost of the (possibly reduced) lot.
func (l Lot) CostBasis() float64 {
	return l.Quantity * l.Transaction.Price
}

// ClosedLot pairs a consumed buy-lot portion with the sell that consumed it.
type ClosedLot struct {
	Buy      Transaction `json:"buy"`
	Sell     Transaction `json:"sell"`
	Quantity float64     `json:"quantity"` // Portion of the buy consumed by this sell
}

// Cost returns the matched acquisition cost of the consumed portion.
func (c ClosedLot) Cost() float64 {
	return c.Quantity * c.Buy.Price
}

// Proceeds returns the realized proceeds of the consumed portion.
func (c ClosedLot) Proceeds() float64 {
	return c.Quantity * c.Sell.Price
}

// Gain returns the realized capital gain of the consumed portion.
func (c ClosedLot) Gain() float64 {
	return c.Proceeds() - c.Cost()
}

// DividendEvent is one per-share dividend with its ex-dividend date.
type DividendEvent struct {
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"` // Per share
}

// SplitEvent is a corporate action multiplying share counts by
// Numerator/Denominator on its effective date.
type SplitEvent struct {
	Date        time.Time `json:"date"`
	Numerator   float64   `json:"numerator"`
	Denominator float64   `json:"denominator"`
}

// Ratio returns the split factor (2 for a 2:1 split).
func (s SplitEvent) Ratio() float64 {
	if s.Denominator == 0 {
		return 1
	}
	return s.Numerator / s.Denominator
}

// BondTerms carries the fixed-income attributes needed for yield solving.
// Prices and face value are per-unit, matching transaction prices.
type BondTerms struct {
	FaceValue  float64    `json:"face_value"`
	CouponRate float64    `json:"coupon_rate"` // Annual, as a fraction (0.05 = 5%)
	Frequency  int        `json:"frequency"`   // Coupon payments per year
	Maturity   time.Time  `json:"maturity"`
	CallDate   *time.Time `json:"call_date,omitempty"`
	CallPrice  float64    `json:"call_price,omitempty"`
}

// Quote is a point-in-time market snapshot for one symbol, owned and cached
// by the market-data collaborator. One snapshot is captured per computation
// pass and reused for every derived metric of that holding.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	Low52     float64   `json:"low_52"`
	High52    float64   `json:"high_52"`
	Sector    string    `json:"sector"`
	MarketCap float64   `json:"market_cap"`
	ForwardPE float64   `json:"forward_pe"`
	AsOf      time.Time `json:"as_of"`

	NextExDividend *DividendEvent  `json:"next_ex_dividend,omitempty"` // Estimate
	Dividends      []DividendEvent `json:"dividends,omitempty"`        // History, oldest first
	Splits         []SplitEvent    `json:"splits,omitempty"`
	Bond           *BondTerms      `json:"bond,omitempty"`
}

// OptionQuote is one row of a per-(symbol, expiry) chain snapshot.
type OptionQuote struct {
	Contract     string     `json:"contract"`
	Type         Instrument `json:"type"` // InstrumentCall or InstrumentPut
	Strike       float64    `json:"strike"`
	Expiry       time.Time  `json:"expiry"`
	Bid          float64    `json:"bid"`
	Ask          float64    `json:"ask"`
	Delta        float64    `json:"delta"`
	OpenInterest int64      `json:"open_interest"`
	ImpliedVol   float64    `json:"implied_vol"`
}

// Mid returns the bid/ask midpoint, falling back to whichever side is quoted.
func (o OptionQuote) Mid() float64 {
	switch {
	case o.Bid > 0 && o.Ask > 0:
		return (o.Bid + o.Ask) / 2
	case o.Ask > 0:
		return o.Ask
	default:
		return o.Bid
	}
}

// IncomeRecord is a user-entered income entry layered on top of
// dividend-derived income for a symbol.
type IncomeRecord struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}
