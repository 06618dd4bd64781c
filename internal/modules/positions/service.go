package positions

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/income"
	"github.com/aristath/holdings/internal/modules/lots"
)

// ErrNotFound is returned when a symbol has no transactions.
var ErrNotFound = errors.New("no transactions for symbol")

// TransactionSource provides the per-holding transaction lists. Transactions
// are never mutated here.
type TransactionSource interface {
	ListBySymbol(symbol string) ([]domain.Transaction, error)
	Symbols() ([]string, error)
}

// IncomeSource provides user-entered income layered atop dividends.
type IncomeSource interface {
	TotalBySymbol(symbol string) (float64, error)
}

// QuoteProvider provides point-in-time market snapshots. A (nil, nil) quote
// means no snapshot is available.
type QuoteProvider interface {
	Quote(symbol string) (*domain.Quote, error)
	Chain(symbol string, expiry time.Time) ([]domain.OptionQuote, error)
}

// Service recomputes position views from the current transaction set and a
// fresh quote snapshot on every request. All computations are pure and
// per-holding, so holdings are composed in parallel with no shared state.
type Service struct {
	txs     TransactionSource
	incomes IncomeSource
	quotes  QuoteProvider
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a new positions service
func NewService(txs TransactionSource, incomes IncomeSource, quotes QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		txs:     txs,
		incomes: incomes,
		quotes:  quotes,
		log:     log.With().Str("service", "positions").Logger(),
		now:     time.Now,
	}
}

// holding carries one symbol's composed views through a computation pass.
type holding struct {
	open        *OpenPosition
	closed      *ClosedPosition
	coveredCall *CoveredCallPosition
}

// ListOpen composes the open view for every held symbol. A holding with a
// detected integrity violation is flagged, not omitted; a holding that
// fails entirely is logged and skipped so one bad symbol cannot take down
// the pass.
func (s *Service) ListOpen() ([]OpenPosition, error) {
	symbols, err := s.txs.Symbols()
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var result []OpenPosition

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			h, err := s.compute(symbol, false)
			if err != nil {
				s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to compute holding")
				return
			}
			if h.open == nil {
				return // Zero-share positions are filtered from the open view
			}

			mu.Lock()
			result = append(result, *h.open)
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}

// ListClosed composes the realized view for every symbol with closed lots.
func (s *Service) ListClosed() ([]ClosedPosition, error) {
	symbols, err := s.txs.Symbols()
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var result []ClosedPosition

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			h, err := s.compute(symbol, false)
			if err != nil {
				s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to compute holding")
				return
			}
			if h.closed == nil {
				return
			}

			mu.Lock()
			result = append(result, *h.closed)
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}

// Open composes one symbol's open view.
func (s *Service) Open(symbol string) (*OpenPosition, error) {
	h, err := s.compute(symbol, false)
	if err != nil {
		return nil, err
	}
	if h.open == nil {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return h.open, nil
}

// CoveredCall composes one symbol's stock+option composite.
func (s *Service) CoveredCall(symbol string) (*CoveredCallPosition, error) {
	h, err := s.compute(symbol, true)
	if err != nil {
		return nil, err
	}
	if h.coveredCall == nil {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return h.coveredCall, nil
}

// compute runs the full pipeline for one symbol: transactions, one quote
// snapshot, split adjustment, FIFO matching, income attribution, and the
// composers. The snapshot is captured once and reused for every derived
// metric of the holding.
func (s *Service) compute(symbol string, withComposite bool) (holding, error) {
	txs, err := s.txs.ListBySymbol(symbol)
	if err != nil {
		return holding{}, fmt.Errorf("failed to load transactions for %s: %w", symbol, err)
	}
	if len(txs) == 0 {
		return holding{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}

	now := s.now()

	quote, err := s.quotes.Quote(symbol)
	if err != nil {
		// Missing market data degrades the view, it never fails the holding.
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("No quote snapshot, composing partial view")
		quote = nil
	}

	var dividends []domain.DividendEvent
	if quote != nil {
		txs = lots.AdjustForSplits(txs, quote.Splits)
		dividends = quote.Dividends
	}

	var stockTxs, optionTxs []domain.Transaction
	instrument := domain.InstrumentEquity
	for _, tx := range txs {
		if tx.Instrument.IsOption() {
			optionTxs = append(optionTxs, tx)
		} else {
			stockTxs = append(stockTxs, tx)
			instrument = tx.Instrument
		}
	}

	matched, matchErr := lots.Match(stockTxs)
	var flags []string
	if matchErr != nil {
		if !errors.Is(matchErr, lots.ErrOversold) {
			return holding{}, matchErr
		}
		s.log.Error().Err(matchErr).Str("symbol", symbol).Msg("Integrity violation detected")
		flags = append(flags, FlagOversold)
	}

	extraIncome, err := s.incomes.TotalBySymbol(symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load income records")
		extraIncome = 0
	}

	var h holding

	openQty := 0.0
	for _, lot := range matched.Open {
		openQty += lot.Quantity
	}

	openAttribution := income.AttributeOpen(matched.Open, dividends, now)
	closedAttribution := income.AttributeClosed(matched.Closed, dividends)

	// User-entered income attaches to the open view while the position is
	// held, and to the realized view once it is fully disposed.
	extraToOpen, extraToClosed := extraIncome, 0.0
	if openQty == 0 {
		extraToOpen, extraToClosed = 0, extraIncome
	}

	if openQty > 0 {
		realized := 0.0
		for _, lot := range matched.Closed {
			realized += lot.Gain()
		}
		open := ComposeOpen(symbol, instrument, matched.Open, openAttribution, extraToOpen, realized, quote, now)
		open.Flags = flags
		h.open = &open
	}

	if len(matched.Closed) > 0 {
		closed := ComposeClosed(symbol, instrument, matched.Closed, closedAttribution, extraToClosed)
		closed.Flags = flags
		h.closed = &closed
	}

	if withComposite {
		legs := ClassifyLegs(optionTxs)

		// The chain snapshot is fetched for the active leg's expiry only.
		var chain []domain.OptionQuote
		if i := activeLegIndex(legs); i >= 0 && legs[i].State == LegOpen && !legs[i].Expiry.IsZero() {
			chain, err = s.quotes.Chain(symbol, legs[i].Expiry)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("No option chain, composing partial composite")
				chain = nil
			}
		}

		totalDividends := income.Attribution{
			Events: append(append([]income.EarnedEvent(nil), openAttribution.Events...), closedAttribution.Events...),
			Total:  openAttribution.Total + closedAttribution.Total,
		}

		composite := ComposeCoveredCall(symbol, matched.Open, legs, totalDividends, extraIncome, quote, chain, now)
		composite.Flags = flags
		h.coveredCall = &composite
	}

	return h, nil
}
