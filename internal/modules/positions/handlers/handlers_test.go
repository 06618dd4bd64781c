package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/positions"
)

type stubTransactions struct {
	txs map[string][]domain.Transaction
}

func (s *stubTransactions) ListBySymbol(symbol string) ([]domain.Transaction, error) {
	return s.txs[symbol], nil
}

func (s *stubTransactions) Symbols() ([]string, error) {
	symbols := make([]string, 0, len(s.txs))
	for sym := range s.txs {
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

type stubIncome struct{}

func (stubIncome) TotalBySymbol(symbol string) (float64, error) { return 0, nil }

type stubQuotes struct{}

func (stubQuotes) Quote(symbol string) (*domain.Quote, error) { return nil, nil }

func (stubQuotes) Chain(symbol string, expiry time.Time) ([]domain.OptionQuote, error) {
	return nil, nil
}

func newTestRouter(txs map[string][]domain.Transaction) *chi.Mux {
	service := positions.NewService(&stubTransactions{txs: txs}, stubIncome{}, stubQuotes{}, zerolog.Nop())
	handler := NewHandler(service, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestHandleListOpen(t *testing.T) {
	router := newTestRouter(map[string][]domain.Transaction{
		"ACME": {{
			Symbol: "ACME", Instrument: domain.InstrumentEquity,
			Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Quantity: 10, Price: 100,
		}},
	})

	req := httptest.NewRequest("GET", "/positions/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result []positions.OpenPosition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result, 1)
	assert.Equal(t, "ACME", result[0].Symbol)
	assert.Equal(t, 1000.0, result[0].CostBasis)
	assert.Nil(t, result[0].Price, "no quote stub, price omitted")
}

func TestHandleGetPositionNotFound(t *testing.T) {
	router := newTestRouter(map[string][]domain.Transaction{})

	req := httptest.NewRequest("GET", "/positions/NOPE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetPositionUppercasesSymbol(t *testing.T) {
	router := newTestRouter(map[string][]domain.Transaction{
		"ACME": {{
			Symbol: "ACME", Instrument: domain.InstrumentEquity,
			Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Quantity: 10, Price: 100,
		}},
	})

	req := httptest.NewRequest("GET", "/positions/acme", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleGetCoveredCall(t *testing.T) {
	router := newTestRouter(map[string][]domain.Transaction{
		"ACME": {
			{
				Symbol: "ACME", Instrument: domain.InstrumentEquity,
				Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Quantity: 100, Price: 48,
			},
			{
				Symbol: "ACME", Contract: "ACME260320C52", Instrument: domain.InstrumentCall,
				Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Quantity: -1, Price: 1.20,
				Strike: 52, Expiry: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
			},
		},
	})

	req := httptest.NewRequest("GET", "/positions/ACME/covered-call", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result positions.CoveredCallPosition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, positions.ShapeCovered, result.Shape)
	assert.Equal(t, 100.0, result.Shares)
}
