package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/delloop-lab/homes-sub001/internal/config"
	"github.com/delloop-lab/homes-sub001/internal/storage"
	ws "github.com/delloop-lab/homes-sub001/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	DBConnected       bool   `json:"db_connected"`
	BookingsCount     int    `json:"bookings_count"`
	SourcesConfigured int    `json:"sources_configured"`
	ScheduledSync     bool   `json:"scheduled_sync"`
	SyncSchedule      string `json:"sync_schedule,omitempty"`
	ConnectedClients  int    `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, cfg *config.Config, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var bookingsCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&bookingsCount)

		response := StatusResponse{
			DBConnected:       db.Ping() == nil,
			BookingsCount:     bookingsCount,
			SourcesConfigured: len(cfg.DefaultSources),
			ScheduledSync:     cfg.Sync.Cron != "",
			SyncSchedule:      cfg.Sync.Cron,
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
