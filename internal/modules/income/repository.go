package income

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

// ErrInvalidRecord marks a rejected income payload.
var ErrInvalidRecord = errors.New("invalid income record")

// Repository handles user-entered income records stored in ledger.db.
// These sit on top of dividend-derived income in the composed views.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new income repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "income").Logger(),
	}
}

// Create stores a new income record. The ID is assigned here.
func (r *Repository) Create(record *domain.IncomeRecord) error {
	if record.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRecord)
	}
	if record.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidRecord)
	}

	record.ID = uuid.New().String()
	record.Symbol = strings.ToUpper(strings.TrimSpace(record.Symbol))

	query := `
		INSERT INTO income_records (id, symbol, description, amount, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.ledgerDB.Exec(query,
		record.ID,
		record.Symbol,
		record.Description,
		record.Amount,
		record.Date.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create income record: %w", err)
	}

	r.log.Info().
		Str("symbol", record.Symbol).
		Float64("amount", record.Amount).
		Msg("Income record created")

	return nil
}

// ListBySymbol returns a symbol's income records, oldest first.
func (r *Repository) ListBySymbol(symbol string) ([]domain.IncomeRecord, error) {
	query := `
		SELECT id, symbol, description, amount, date
		FROM income_records
		WHERE symbol = ?
		ORDER BY date ASC
	`
	rows, err := r.ledgerDB.Query(query, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to query income records: %w", err)
	}
	defer rows.Close()

	var records []domain.IncomeRecord
	for rows.Next() {
		var rec domain.IncomeRecord
		var dateUnix int64
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Description, &rec.Amount, &dateUnix); err != nil {
			return nil, fmt.Errorf("failed to scan income record: %w", err)
		}
		rec.Date = time.Unix(dateUnix, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating income records: %w", err)
	}

	return records, nil
}

// TotalBySymbol sums a symbol's user-entered income.
func (r *Repository) TotalBySymbol(symbol string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM income_records WHERE symbol = ?`

	var total float64
	err := r.ledgerDB.QueryRow(query, strings.ToUpper(strings.TrimSpace(symbol))).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum income records: %w", err)
	}
	return total, nil
}

// Delete removes an income record by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.ledgerDB.Exec(`DELETE FROM income_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete income record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
