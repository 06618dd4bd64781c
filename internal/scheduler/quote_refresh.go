package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SymbolSource lists the symbols currently held in the transaction trail.
type SymbolSource interface {
	Symbols() ([]string, error)
}

// QuoteRefresher re-fetches one symbol's quote snapshot into the cache.
type QuoteRefresher interface {
	RefreshQuote(symbol string) error
}

// SnapshotPurger drops cache rows that expired before the given time.
type SnapshotPurger interface {
	Purge(olderThan time.Time) error
}

// QuoteRefreshJob keeps the quote cache warm for every held symbol so
// request-time composition rarely waits on the provider.
type QuoteRefreshJob struct {
	symbols SymbolSource
	quotes  QuoteRefresher
	purger  SnapshotPurger
	retain  time.Duration
	log     zerolog.Logger
}

// NewQuoteRefreshJob creates a new quote refresh job
func NewQuoteRefreshJob(symbols SymbolSource, quotes QuoteRefresher, purger SnapshotPurger, retain time.Duration, log zerolog.Logger) *QuoteRefreshJob {
	return &QuoteRefreshJob{
		symbols: symbols,
		quotes:  quotes,
		purger:  purger,
		retain:  retain,
		log:     log.With().Str("job", "quote_refresh").Logger(),
	}
}

// Name returns the job name
func (j *QuoteRefreshJob) Name() string {
	return "quote_refresh"
}

// Run refreshes every held symbol's snapshot. A provider failure on one
// symbol is logged and the rest still refresh; the stale snapshot stays
// usable as a fallback.
func (j *QuoteRefreshJob) Run() error {
	symbols, err := j.symbols.Symbols()
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}

	failed := 0
	for _, symbol := range symbols {
		if err := j.quotes.RefreshQuote(symbol); err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote refresh failed, keeping stale snapshot")
			failed++
		}
	}

	if err := j.purger.Purge(time.Now().Add(-j.retain)); err != nil {
		j.log.Warn().Err(err).Msg("Cache purge failed")
	}

	j.log.Info().
		Int("symbols", len(symbols)).
		Int("failed", failed).
		Msg("Quote cache refreshed")

	return nil
}
