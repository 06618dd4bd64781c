package rolls

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/holdings/internal/modules/positions"
)

// Handler handles roll projection HTTP requests
type Handler struct {
	planner *Planner
	log     zerolog.Logger
}

// NewHandler creates a new rolls handler
func NewHandler(planner *Planner, log zerolog.Logger) *Handler {
	return &Handler{
		planner: planner,
		log:     log.With().Str("handler", "rolls").Logger(),
	}
}

// RegisterRoutes registers the roll projection route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/positions/{symbol}/roll", h.HandlePlan)
}

// HandlePlan handles GET /api/positions/{symbol}/roll. Query parameters:
// contract names the replacement explicitly; strike_scale and months_out
// steer discovery when it does not.
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Symbol:   strings.ToUpper(chi.URLParam(r, "symbol")),
		Contract: r.URL.Query().Get("contract"),
	}

	if raw := r.URL.Query().Get("strike_scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 {
			h.writeError(w, http.StatusBadRequest, "strike_scale must be a positive number")
			return
		}
		req.StrikeScale = scale
	}
	if raw := r.URL.Query().Get("months_out"); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months <= 0 {
			h.writeError(w, http.StatusBadRequest, "months_out must be a positive integer")
			return
		}
		req.MonthsOut = months
	}

	plan, err := h.planner.Plan(req)
	if err != nil {
		switch {
		case errors.Is(err, positions.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "Position not found")
		case errors.Is(err, ErrNotRollable):
			h.writeError(w, http.StatusConflict, "Position has no priced open leg to roll")
		case errors.Is(err, ErrNoCandidate):
			h.writeError(w, http.StatusNotFound, "No replacement candidate found")
		default:
			h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to plan roll")
			h.writeError(w, http.StatusInternalServerError, "Failed to plan roll")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
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
