// Package transactions stores the normalized transaction trail the valuation
// engine computes from. Rows are immutable at rest; the engine works on
// copies.
package transactions

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/holdings/internal/domain"
)

// ErrInvalid marks a rejected transaction payload.
var ErrInvalid = errors.New("invalid transaction")

// transactionColumns is the column list shared by all SELECTs.
// Order must match scanTransaction.
const transactionColumns = `id, symbol, contract, instrument, date, quantity, price, strike, expiry`

// Repository handles transaction persistence in ledger.db.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "transactions").Logger(),
	}
}

// Create appends a transaction to the trail. The ID is assigned here when
// the entry layer did not provide one.
func (r *Repository) Create(tx *domain.Transaction) error {
	if tx.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalid)
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalid)
	}
	if tx.Quantity == 0 {
		return fmt.Errorf("%w: quantity must be non-zero", ErrInvalid)
	}
	switch tx.Instrument {
	case domain.InstrumentEquity, domain.InstrumentBond, domain.InstrumentCall, domain.InstrumentPut:
	default:
		return fmt.Errorf("%w: unknown instrument type %q", ErrInvalid, tx.Instrument)
	}
	if tx.Instrument.IsOption() && tx.Contract == "" {
		return fmt.Errorf("%w: option transactions require a contract symbol", ErrInvalid)
	}

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.Symbol = strings.ToUpper(strings.TrimSpace(tx.Symbol))

	var expiry int64
	if !tx.Expiry.IsZero() {
		expiry = tx.Expiry.Unix()
	}

	query := `
		INSERT INTO transactions (id, symbol, contract, instrument, date, quantity, price, strike, expiry, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		tx.ID,
		tx.Symbol,
		tx.Contract,
		string(tx.Instrument),
		tx.Date.Unix(),
		tx.Quantity,
		tx.Price,
		tx.Strike,
		expiry,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	r.log.Info().
		Str("symbol", tx.Symbol).
		Str("instrument", string(tx.Instrument)).
		Float64("quantity", tx.Quantity).
		Msg("Transaction recorded")

	return nil
}

// ListBySymbol returns one symbol's transactions, oldest first.
func (r *Repository) ListBySymbol(symbol string) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions WHERE symbol = ? ORDER BY date ASC, created_at ASC
	`, transactionColumns)

	rows, err := r.ledgerDB.Query(query, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// List returns all transactions, oldest first.
func (r *Repository) List() ([]domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions ORDER BY date ASC, created_at ASC
	`, transactionColumns)

	rows, err := r.ledgerDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Symbols returns the distinct symbols present in the trail.
func (r *Repository) Symbols() ([]string, error) {
	rows, err := r.ledgerDB.Query(`SELECT DISTINCT symbol FROM transactions ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// Delete removes an erroneous entry. Returns sql.ErrNoRows when the ID is
// unknown.
func (r *Repository) Delete(id string) error {
	result, err := r.ledgerDB.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.log.Info().Str("id", id).Msg("Transaction deleted")
	return nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var tx domain.Transaction
	var instrument string
	var dateUnix, expiryUnix int64

	err := rows.Scan(
		&tx.ID,
		&tx.Symbol,
		&tx.Contract,
		&instrument,
		&dateUnix,
		&tx.Quantity,
		&tx.Price,
		&tx.Strike,
		&expiryUnix,
	)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Instrument = domain.Instrument(instrument)
	tx.Date = time.Unix(dateUnix, 0).UTC()
	if expiryUnix > 0 {
		tx.Expiry = time.Unix(expiryUnix, 0).UTC()
	}

	return tx, nil
}
