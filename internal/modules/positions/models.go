package positions

import (
	"time"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
)

// Views are flat data with no embedded behavior, recomputed from the current
// transaction set and a fresh quote snapshot on every request. Pointer
// fields are nil when the data they depend on (quote snapshot, option chain,
// solver convergence) is unavailable.

// FlagOversold marks a holding whose sells exceed its buys.
const FlagOversold = "OVERSOLD"

// OpenPosition is the composed view of an open equity or bond holding.
type OpenPosition struct {
	Symbol     string            `json:"symbol"`
	Instrument domain.Instrument `json:"instrument"`

	Quantity   float64      `json:"quantity"`
	CostBasis  float64      `json:"cost_basis"`
	AvgPrice   float64      `json:"avg_price"`
	AcquiredAt time.Time    `json:"acquired_at"` // Quantity-weighted mean acquisition date
	Lots       []domain.Lot `json:"lots"`

	Income       float64              `json:"income"` // Attributed dividends plus user-entered records
	IncomeEvents []income.EarnedEvent `json:"income_events,omitempty"`

	CumulativeYield float64 `json:"cumulative_yield"`

	// Price-dependent fields, nil without a quote snapshot.
	Price            *float64   `json:"price,omitempty"`
	Value            *float64   `json:"value,omitempty"`
	UnrealizedGain   *float64   `json:"unrealized_gain,omitempty"`
	CumulativeGain   *float64   `json:"cumulative_gain,omitempty"`
	AnnualizedReturn *float64   `json:"annualized_return,omitempty"`
	QuoteAsOf        *time.Time `json:"quote_as_of,omitempty"`

	// Bond yields, nil when the solver reports no solution or terms are
	// missing.
	YieldToMaturity *float64 `json:"yield_to_maturity,omitempty"`
	YieldToCall     *float64 `json:"yield_to_call,omitempty"`

	Flags []string `json:"flags,omitempty"`
}

// ClosedPosition is the composed view of a fully matched disposal history.
type ClosedPosition struct {
	Symbol     string            `json:"symbol"`
	Instrument domain.Instrument `json:"instrument"`

	Quantity float64            `json:"quantity"` // Realized (sold) quantity
	Proceeds float64            `json:"proceeds"`
	Cost     float64            `json:"cost"`
	Gain     float64            `json:"gain"`
	Lots     []domain.ClosedLot `json:"lots"`

	Income          float64 `json:"income"`
	CumulativeYield float64 `json:"cumulative_yield"`
	CumulativeGain  float64 `json:"cumulative_gain"`

	OpenedAt time.Time `json:"opened_at"`
	ClosedAt time.Time `json:"closed_at"` // Last disposal; the annualization window ends here

	AnnualizedReturn *float64 `json:"annualized_return,omitempty"`

	Flags []string `json:"flags,omitempty"`
}

// LegState classifies an option contract group. It is recomputed from net
// signed quantity on every read, never persisted.
type LegState string

const (
	LegOpen   LegState = "OPEN"
	LegClosed LegState = "CLOSED"
)

// OptionLeg is one contract's transactions grouped and classified.
type OptionLeg struct {
	Contract     string               `json:"contract"`
	Type         domain.Instrument    `json:"type"`
	State        LegState             `json:"state"`
	NetQuantity  float64              `json:"net_quantity"` // Signed contracts
	Strike       float64              `json:"strike"`
	Expiry       time.Time            `json:"expiry"`
	LastActivity time.Time            `json:"last_activity"`
	Transactions []domain.Transaction `json:"transactions"`

	// CashFlow is the net premium received (positive) or paid (negative)
	// across the leg's transactions, in dollars.
	CashFlow float64 `json:"cash_flow"`

	// RealizedGain is set for closed legs: with net quantity zero the cash
	// flow is fully realized.
	RealizedGain float64 `json:"realized_gain"`

	// UnrealizedGain is set for open legs when a chain mid-price is
	// available.
	UnrealizedGain *float64 `json:"unrealized_gain,omitempty"`
	Mid            *float64 `json:"mid,omitempty"`
}

// CompositeShape describes the overall state of a covered-call composite.
// It changes automatically as transactions accrue.
type CompositeShape string

const (
	ShapeSharesOnly CompositeShape = "SHARES_ONLY" // Equity lots, no option legs
	ShapeCovered    CompositeShape = "COVERED"     // At least one open option leg
	ShapeClosed     CompositeShape = "CLOSED"      // Option legs exist but all are closed
)

// CoveredCallPosition merges equity lots with the symbol's option legs.
type CoveredCallPosition struct {
	Symbol string         `json:"symbol"`
	Shape  CompositeShape `json:"shape"`

	Shares         float64      `json:"shares"`
	StockCostBasis float64      `json:"stock_cost_basis"`
	StockLots      []domain.Lot `json:"stock_lots"`

	Legs      []OptionLeg `json:"legs,omitempty"`
	ActiveLeg *OptionLeg  `json:"active_leg,omitempty"`

	Dividends float64 `json:"dividends"` // Attributed income

	// Realized option gain/loss across closed legs; tracked separately from
	// unrealized gain/loss on open legs.
	RealizedOptionGain float64 `json:"realized_option_gain"`

	// Price-dependent fields, nil without the relevant snapshot.
	StockPrice           *float64   `json:"stock_price,omitempty"`
	StockUnrealizedGain  *float64   `json:"stock_unrealized_gain,omitempty"`
	UnrealizedOptionGain *float64   `json:"unrealized_option_gain,omitempty"`
	TotalGain            *float64   `json:"total_gain,omitempty"`
	QuoteAsOf            *time.Time `json:"quote_as_of,omitempty"`

	// Forward-looking economics of the active open leg.
	DaysToExpiry       *float64 `json:"days_to_expiry,omitempty"`
	DividendsPayable   *float64 `json:"dividends_payable,omitempty"`
	NetValuePerShare   *float64 `json:"net_value_per_share,omitempty"`
	MaxGainPerShare    *float64 `json:"max_gain_per_share,omitempty"`
	PerAnnumReturn     *float64 `json:"per_annum_return,omitempty"`
	DownsideProtection *float64 `json:"downside_protection,omitempty"`
	BreakEven          *float64 `json:"break_even,omitempty"`

	Flags []string `json:"flags,omitempty"`
}
