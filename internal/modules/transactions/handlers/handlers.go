package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/holdings/internal/domain"
	"github.com/aristath/holdings/internal/modules/transactions"
)

// Handler provides HTTP handlers for transaction entry and listing
type Handler struct {
	repo *transactions.Repository
	log  zerolog.Logger
}

// NewHandler creates a new transactions handler
func NewHandler(repo *transactions.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "transactions").Logger(),
	}
}

// createRequest is the entry payload. Dates arrive as RFC 3339 or plain
// YYYY-MM-DD.
type createRequest struct {
	Symbol     string  `json:"symbol"`
	Contract   string  `json:"contract,omitempty"`
	Instrument string  `json:"instrument"`
	Date       string  `json:"date"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Strike     float64 `json:"strike,omitempty"`
	Expiry     string  `json:"expiry,omitempty"`
}

// HandleCreate handles POST /api/transactions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "date must be RFC 3339 or YYYY-MM-DD")
		return
	}

	tx := domain.Transaction{
		Symbol:     req.Symbol,
		Contract:   req.Contract,
		Instrument: domain.Instrument(req.Instrument),
		Date:       date,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Strike:     req.Strike,
	}
	if req.Expiry != "" {
		expiry, err := parseDate(req.Expiry)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "expiry must be RFC 3339 or YYYY-MM-DD")
			return
		}
		tx.Expiry = expiry
	}

	if err := h.repo.Create(&tx); err != nil {
		if errors.Is(err, transactions.ErrInvalid) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to create transaction")
		h.writeError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	h.writeJSON(w, http.StatusCreated, tx)
}

// HandleList handles GET /api/transactions with an optional symbol filter
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		txs []domain.Transaction
		err error
	)
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		txs, err = h.repo.ListBySymbol(symbol)
	} else {
		txs, err = h.repo.List()
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		h.writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txs)
}

// HandleDelete handles DELETE /api/transactions/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete transaction")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
