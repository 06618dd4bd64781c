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
	"github.com/aristath/holdings/internal/modules/income"
)

// Handler provides HTTP handlers for income record entry and listing
type Handler struct {
	repo *income.Repository
	log  zerolog.Logger
}

// NewHandler creates a new income handler
func NewHandler(repo *income.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "income").Logger(),
	}
}

type createRequest struct {
	Symbol      string  `json:"symbol"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

// HandleCreate handles POST /api/income
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

	record := domain.IncomeRecord{
		Symbol:      req.Symbol,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
	}

	if err := h.repo.Create(&record); err != nil {
		if errors.Is(err, income.ErrInvalidRecord) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to create income record")
		h.writeError(w, http.StatusInternalServerError, "Failed to create income record")
		return
	}

	h.writeJSON(w, http.StatusCreated, record)
}

// HandleListBySymbol handles GET /api/income/{symbol}
func (h *Handler) HandleListBySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	records, err := h.repo.ListBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to list income records")
		h.writeError(w, http.StatusInternalServerError, "Failed to list income records")
		return
	}
	if records == nil {
		records = []domain.IncomeRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

// HandleDelete handles DELETE /api/income/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "Income record not found")
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete income record")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete income record")
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
