package marketdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/holdings/internal/domain"
)

// Client fetches point-in-time snapshots from the market-data provider.
// A nil cache disables caching.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *Cache
	ttl     time.Duration
	log     zerolog.Logger
}

// NewClient creates a market data client.
func NewClient(baseURL, apiKey string, cache *Cache, ttl time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		ttl:     ttl,
		log:     log.With().Str("client", "marketdata").Logger(),
	}
}

// Quote returns the symbol's snapshot, cache-first. A (nil, nil) return
// means no snapshot is available; callers degrade to transaction-only
// metrics rather than failing.
//
// If the provider is unreachable, a stale cached snapshot is returned
// (stale data beats no data).
func (c *Client) Quote(symbol string) (*domain.Quote, error) {
	if c.cache != nil {
		var cached domain.Quote
		ok, err := c.cache.QuoteIfFresh(symbol, &cached)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote cache read failed")
		} else if ok {
			c.log.Debug().Str("symbol", symbol).Msg("Quote cache hit")
			return &cached, nil
		}
	}

	quote, err := c.fetchQuote(symbol)
	if err != nil {
		if stale := c.staleQuote(symbol); stale != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, using stale snapshot")
			return stale, nil
		}
		return nil, err
	}
	if quote == nil {
		return nil, nil
	}

	if c.cache != nil {
		if err := c.cache.StoreQuote(symbol, quote, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote snapshot")
		}
	}

	return quote, nil
}

// RefreshQuote bypasses the fresh-cache check and refetches the snapshot.
// Used by the background refresh job.
func (c *Client) RefreshQuote(symbol string) error {
	quote, err := c.fetchQuote(symbol)
	if err != nil {
		return err
	}
	if quote == nil {
		return fmt.Errorf("no snapshot available for %s", symbol)
	}
	if c.cache != nil {
		return c.cache.StoreQuote(symbol, quote, c.ttl)
	}
	return nil
}

func (c *Client) fetchQuote(symbol string) (*domain.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote/%s", c.baseURL, url.PathEscape(symbol))

	var quote domain.Quote
	found, err := c.getJSON(endpoint, &quote)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	if quote.AsOf.IsZero() {
		quote.AsOf = time.Now().UTC()
	}
	return &quote, nil
}

func (c *Client) staleQuote(symbol string) *domain.Quote {
	if c.cache == nil {
		return nil
	}
	var stale domain.Quote
	if ok, err := c.cache.QuoteStale(symbol, &stale); err == nil && ok {
		return &stale
	}
	return nil
}

// Chain returns the (symbol, expiry) option chain snapshot. A (nil, nil)
// return means no chain data is available.
func (c *Client) Chain(symbol string, expiry time.Time) ([]domain.OptionQuote, error) {
	if c.cache != nil {
		var cached []domain.OptionQuote
		ok, err := c.cache.ChainIfFresh(symbol, expiry, &cached)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Chain cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/options/%s?expiry=%s",
		c.baseURL, url.PathEscape(symbol), expiry.Format("2006-01-02"))

	var chain []domain.OptionQuote
	found, err := c.getJSON(endpoint, &chain)
	if err != nil || !found {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.StoreChain(symbol, expiry, chain, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache option chain")
		}
	}

	return chain, nil
}

// Expiries lists the symbol's available option expiries, earliest first.
func (c *Client) Expiries(symbol string) ([]time.Time, error) {
	endpoint := fmt.Sprintf("%s/options/%s/expiries", c.baseURL, url.PathEscape(symbol))

	var raw []string
	found, err := c.getJSON(endpoint, &raw)
	if err != nil || !found {
		return nil, err
	}

	expiries := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.log.Warn().Str("symbol", symbol).Str("expiry", s).Msg("Skipping unparseable expiry")
			continue
		}
		expiries = append(expiries, t)
	}
	return expiries, nil
}

// getJSON performs a GET and decodes the body into dst. A 404 reports
// (false, nil): missing data is expected, not an error.
func (c *Client) getJSON(endpoint string, dst interface{}) (bool, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("failed to decode provider response: %w", err)
	}
	return true, nil
}
