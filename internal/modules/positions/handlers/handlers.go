package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/holdings/internal/modules/positions"
)

// Handler provides HTTP handlers for position endpoints
type Handler struct {
	service *positions.Service
	log     zerolog.Logger
}

// NewHandler creates a new positions handler
func NewHandler(service *positions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "positions").Logger(),
	}
}

// HandleListOpen handles GET /api/positions
func (h *Handler) HandleListOpen(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListOpen()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list open positions")
		h.writeError(w, http.StatusInternalServerError, "Failed to list open positions")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleListClosed handles GET /api/positions/closed
func (h *Handler) HandleListClosed(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListClosed()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list closed positions")
		h.writeError(w, http.StatusInternalServerError, "Failed to list closed positions")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetPosition handles GET /api/positions/{symbol}
func (h *Handler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	position, err := h.service.Open(symbol)
	if err != nil {
		if errors.Is(err, positions.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Position not found")
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get position")
		h.writeError(w, http.StatusInternalServerError, "Failed to get position")
		return
	}
	h.writeJSON(w, http.StatusOK, position)
}

// HandleGetCoveredCall handles GET /api/positions/{symbol}/covered-call
func (h *Handler) HandleGetCoveredCall(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	position, err := h.service.CoveredCall(symbol)
	if err != nil {
		if errors.Is(err, positions.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Position not found")
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get covered call position")
		h.writeError(w, http.StatusInternalServerError, "Failed to get covered call position")
		return
	}
	h.writeJSON(w, http.StatusOK, position)
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
