// Package marketdata fetches quote snapshots and option chains from the
// market-data provider and caches them in cache.db.
package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache persists msgpack-encoded snapshots with expiry timestamps.
// Stale rows are kept: a stale snapshot beats no snapshot when the provider
// is unreachable.
type Cache struct {
	db *sql.DB
}

// NewCache creates a snapshot cache on cache.db.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// StoreQuote saves a quote snapshot with expiration = now + ttl.
func (c *Cache) StoreQuote(symbol string, quote interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode quote snapshot: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO quote_snapshots (symbol, data, expires_at) VALUES (?, ?, ?)`,
		symbol, blob, time.Now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store quote snapshot: %w", err)
	}
	return nil
}

// QuoteIfFresh decodes a cached quote into dst when one exists and has not
// expired. Returns false on miss or expiry.
func (c *Cache) QuoteIfFresh(symbol string, dst interface{}) (bool, error) {
	return c.quote(symbol, dst, true)
}

// QuoteStale decodes a cached quote into dst regardless of expiry.
func (c *Cache) QuoteStale(symbol string, dst interface{}) (bool, error) {
	return c.quote(symbol, dst, false)
}

func (c *Cache) quote(symbol string, dst interface{}, freshOnly bool) (bool, error) {
	var blob []byte
	var expiresAt int64

	err := c.db.QueryRow(
		`SELECT data, expires_at FROM quote_snapshots WHERE symbol = ?`, symbol,
	).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read quote snapshot: %w", err)
	}

	if freshOnly && time.Now().Unix() > expiresAt {
		return false, nil
	}

	if err := msgpack.Unmarshal(blob, dst); err != nil {
		return false, fmt.Errorf("failed to decode quote snapshot: %w", err)
	}
	return true, nil
}

// StoreChain saves an option chain snapshot for (symbol, expiry).
func (c *Cache) StoreChain(symbol string, expiry time.Time, chain interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(chain)
	if err != nil {
		return fmt.Errorf("failed to encode option chain: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO option_chains (symbol, expiry, data, expires_at) VALUES (?, ?, ?, ?)`,
		symbol, expiry.Unix(), blob, time.Now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store option chain: %w", err)
	}
	return nil
}

// ChainIfFresh decodes a cached chain into dst when fresh.
func (c *Cache) ChainIfFresh(symbol string, expiry time.Time, dst interface{}) (bool, error) {
	var blob []byte
	var expiresAt int64

	err := c.db.QueryRow(
		`SELECT data, expires_at FROM option_chains WHERE symbol = ? AND expiry = ?`,
		symbol, expiry.Unix(),
	).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read option chain: %w", err)
	}

	if time.Now().Unix() > expiresAt {
		return false, nil
	}

	if err := msgpack.Unmarshal(blob, dst); err != nil {
		return false, fmt.Errorf("failed to decode option chain: %w", err)
	}
	return true, nil
}

// Purge removes rows that expired before the given cutoff.
func (c *Cache) Purge(olderThan time.Time) error {
	cutoff := olderThan.Unix()
	if _, err := c.db.Exec(`DELETE FROM quote_snapshots WHERE expires_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to purge quote snapshots: %w", err)
	}
	if _, err := c.db.Exec(`DELETE FROM option_chains WHERE expires_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to purge option chains: %w", err)
	}
	return nil
}
