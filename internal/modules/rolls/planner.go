// Package rolls projects the economics of swapping one short option leg for
// a replacement contract, either named explicitly or discovered by nearest
// match against a target strike and expiry.
package rolls

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
	"github.com/aristath/holdings/internal/modules/positions"
	"github.com/aristath/holdings/internal/numeric"
)

var (
	// ErrNotRollable means the symbol has no priced open option leg.
	ErrNotRollable = errors.New("no priced open leg to roll")

	// ErrNoCandidate means no replacement contract could be found.
	ErrNoCandidate = errors.New("no replacement candidate found")
)

// CompositeSource composes the covered-call view the plan starts from.
type CompositeSource interface {
	CoveredCall(symbol string) (*positions.CoveredCallPosition, error)
}

// MarketData provides the snapshots needed to price both legs.
type MarketData interface {
	Quote(symbol string) (*domain.Quote, error)
	Chain(symbol string, expiry time.Time) ([]domain.OptionQuote, error)
	Expiries(symbol string) ([]time.Time, error)
}

// Request selects the replacement. A named contract wins; otherwise the
// candidate is discovered from the preference parameters.
type Request struct {
	Symbol string `json:"symbol"`

	// Contract names the replacement explicitly.
	Contract string `json:"contract,omitempty"`

	// StrikeScale scales the current strike into the target strike for
	// discovery. 1.0 keeps the strike.
	StrikeScale float64 `json:"strike_scale,omitempty"`

	// MonthsOut shifts the current expiry into the target expiry for
	// discovery.
	MonthsOut int `json:"months_out,omitempty"`
}

// LegView is one side of the projection.
type LegView struct {
	Contract string    `json:"contract"`
	Strike   float64   `json:"strike"`
	Expiry   time.Time `json:"expiry"`
	Mid      float64   `json:"mid"`
}

// Plan is the pure projection of the roll. The underlying composite is
// never mutated; executing the roll is the caller's business.
type Plan struct {
	Symbol      string  `json:"symbol"`
	Current     LegView `json:"current"`
	Replacement LegView `json:"replacement"`

	// PremiumCaptured is the current mid less the replacement mid, per
	// share. Negative means the roll costs premium.
	PremiumCaptured float64 `json:"premium_captured"`

	CurrentEconomics     positions.Economics `json:"current_economics"`
	ReplacementEconomics positions.Economics `json:"replacement_economics"`

	MaxGainDelta  float64  `json:"max_gain_delta"`
	NoChangeDelta float64  `json:"no_change_delta"`
	PerAnnumDelta *float64 `json:"per_annum_delta,omitempty"` // Nil when either side has no per-annum return
}

// Planner builds roll projections against already-composed covered-call
// positions.
type Planner struct {
	composites CompositeSource
	market     MarketData
	log        zerolog.Logger
	now        func() time.Time
}

// NewPlanner creates a new roll planner
func NewPlanner(composites CompositeSource, market MarketData, log zerolog.Logger) *Planner {
	return &Planner{
		composites: composites,
		market:     market,
		log:        log.With().Str("service", "rolls").Logger(),
		now:        time.Now,
	}
}

// Plan projects the economics of rolling the symbol's active leg into the
// requested replacement. The projection is identical whether the
// replacement was named or discovered.
func (p *Planner) Plan(req Request) (*Plan, error) {
	if req.StrikeScale <= 0 {
		req.StrikeScale = 1.0
	}
	if req.MonthsOut <= 0 {
		req.MonthsOut = 1
	}

	composite, err := p.composites.CoveredCall(req.Symbol)
	if err != nil {
		return nil, err
	}

	active := composite.ActiveLeg
	if composite.Shape != positions.ShapeCovered || active == nil || active.State != positions.LegOpen || active.Mid == nil {
		return nil, fmt.Errorf("%s: %w", req.Symbol, ErrNotRollable)
	}

	quote, err := p.market.Quote(req.Symbol)
	if err != nil || quote == nil {
		return nil, fmt.Errorf("%s: %w", req.Symbol, ErrNotRollable)
	}

	now := p.now()

	var replacement domain.OptionQuote
	if req.Contract != "" {
		replacement, err = p.findContract(req.Symbol, req.Contract)
	} else {
		replacement, err = p.discover(req.Symbol, active, req.StrikeScale, req.MonthsOut)
	}
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Symbol: req.Symbol,
		Current: LegView{
			Contract: active.Contract,
			Strike:   active.Strike,
			Expiry:   active.Expiry,
			Mid:      *active.Mid,
		},
		Replacement: LegView{
			Contract: replacement.Contract,
			Strike:   replacement.Strike,
			Expiry:   replacement.Expiry,
			Mid:      replacement.Mid(),
		},
	}
	plan.PremiumCaptured = plan.Current.Mid - plan.Replacement.Mid

	plan.CurrentEconomics = legEconomics(quote, plan.Current, now)
	plan.ReplacementEconomics = legEconomics(quote, plan.Replacement, now)

	plan.MaxGainDelta = plan.ReplacementEconomics.MaxGain - plan.CurrentEconomics.MaxGain
	plan.NoChangeDelta = plan.ReplacementEconomics.NoChangeGain - plan.CurrentEconomics.NoChangeGain
	if plan.CurrentEconomics.PerAnnum != nil && plan.ReplacementEconomics.PerAnnum != nil {
		delta := *plan.ReplacementEconomics.PerAnnum - *plan.CurrentEconomics.PerAnnum
		plan.PerAnnumDelta = &delta
	}

	return plan, nil
}

// legEconomics runs the shared covered-call formula set for one leg against
// the pass's quote snapshot.
func legEconomics(quote *domain.Quote, leg LegView, now time.Time) positions.Economics {
	days := leg.Expiry.Sub(now).Hours() / 24
	payable := income.PayableBefore(quote.Dividends, quote.NextExDividend, now, leg.Expiry)
	return positions.ComputeEconomics(quote.Price, leg.Mid, leg.Strike, payable, days)
}

// discover picks the replacement by nearest match: the listed expiry
// closest to the current expiry shifted by monthsOut, then within that
// expiry's chain the same-type strike closest to the scaled current strike.
func (p *Planner) discover(symbol string, active *positions.OptionLeg, strikeScale float64, monthsOut int) (domain.OptionQuote, error) {
	expiries, err := p.market.Expiries(symbol)
	if err != nil {
		return domain.OptionQuote{}, fmt.Errorf("failed to list expiries for %s: %w", symbol, err)
	}

	targetExpiry := active.Expiry.AddDate(0, monthsOut, 0)
	i := numeric.NearestTime(expiries, targetExpiry)
	if i < 0 {
		return domain.OptionQuote{}, fmt.Errorf("%s: %w", symbol, ErrNoCandidate)
	}

	chain, err := p.market.Chain(symbol, expiries[i])
	if err != nil {
		return domain.OptionQuote{}, fmt.Errorf("failed to load chain for %s: %w", symbol, err)
	}

	// Candidates are same-type contracts other than the leg being rolled.
	var candidates []domain.OptionQuote
	strikes := make([]float64, 0, len(chain))
	for _, q := range chain {
		if q.Type != active.Type || q.Contract == active.Contract {
			continue
		}
		candidates = append(candidates, q)
		strikes = append(strikes, q.Strike)
	}

	j := numeric.Nearest(strikes, active.Strike*strikeScale)
	if j < 0 {
		return domain.OptionQuote{}, fmt.Errorf("%s: %w", symbol, ErrNoCandidate)
	}
	return candidates[j], nil
}

// findContract scans the listed expiries for an explicitly named contract.
func (p *Planner) findContract(symbol, contract string) (domain.OptionQuote, error) {
	expiries, err := p.market.Expiries(symbol)
	if err != nil {
		return domain.OptionQuote{}, fmt.Errorf("failed to list expiries for %s: %w", symbol, err)
	}

	for _, expiry := range expiries {
		chain, err := p.market.Chain(symbol, expiry)
		if err != nil {
			p.log.Warn().Err(err).Str("symbol", symbol).Time("expiry", expiry).Msg("Skipping unreadable chain")
			continue
		}
		for _, q := range chain {
			if q.Contract == contract {
				return q, nil
			}
		}
	}

	return domain.OptionQuote{}, fmt.Errorf("%s %s: %w", symbol, contract, ErrNoCandidate)
}
