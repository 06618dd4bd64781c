package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/holdings/internal/database"
)

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	ledgerDB    *database.DB
	cacheDB     *database.DB
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, ledgerDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		ledgerDB:    ledgerDB,
		cacheDB:     cacheDB,
	}
}

// HandleLiveness handles GET /health, a bare liveness probe
func (h *SystemHandlers) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// healthResponse is the full system health report.
type healthResponse struct {
	Status        string             `json:"status"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	CPUPercent    float64            `json:"cpu_percent"`
	MemoryPercent float64            `json:"memory_percent"`
	Databases     map[string]dbState `json:"databases"`
}

type dbState struct {
	Healthy      bool    `json:"healthy"`
	SizeMB       float64 `json:"size_mb"`
	WALSizeMB    float64 `json:"wal_size_mb"`
	ErrorMessage string  `json:"error,omitempty"`
}

// HandleHealth handles GET /api/system/health: process stats plus an
// integrity check of both databases. Degraded databases flip the overall
// status but still return 200 so monitors can read the detail.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cpuAvg, memUsed := h.systemStats()

	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuAvg,
		MemoryPercent: memUsed,
		Databases:     make(map[string]dbState),
	}

	for _, db := range []*database.DB{h.ledgerDB, h.cacheDB} {
		state := dbState{Healthy: true}
		if err := db.HealthCheck(ctx); err != nil {
			state.Healthy = false
			state.ErrorMessage = err.Error()
			resp.Status = "degraded"
		}
		stats := db.GetStats()
		state.SizeMB = float64(stats.SizeBytes) / 1024 / 1024
		state.WALSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
		resp.Databases[db.Name()] = state
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// HandleDatabaseStats handles GET /api/system/databases
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	type dbInfo struct {
		Name      string  `json:"name"`
		Path      string  `json:"path"`
		SizeMB    float64 `json:"size_mb"`
		WALSizeMB float64 `json:"wal_size_mb"`
	}

	infos := make([]dbInfo, 0, 2)
	totalMB := 0.0
	for _, db := range []*database.DB{h.ledgerDB, h.cacheDB} {
		stats := db.GetStats()
		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalMB += sizeMB
		infos = append(infos, dbInfo{
			Name:      db.Name(),
			Path:      db.Path(),
			SizeMB:    sizeMB,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"databases":     infos,
		"total_size_mb": totalMB,
		"last_checked":  time.Now().Format(time.RFC3339),
	})
}

// systemStats samples CPU over a short window so the endpoint stays fast.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
