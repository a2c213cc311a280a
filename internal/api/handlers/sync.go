// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/delloop-lab/homes-sub001/internal/api/middleware"
	"github.com/delloop-lab/homes-sub001/internal/calendar"
	"github.com/delloop-lab/homes-sub001/internal/config"
	"github.com/delloop-lab/homes-sub001/internal/storage"
	"github.com/delloop-lab/homes-sub001/internal/storage/models"
	ws "github.com/delloop-lab/homes-sub001/internal/websocket"
)

// SyncRequest is the body of POST /sync-ics.
type SyncRequest struct {
	PropertyID string                  `json:"property_id"`
	Sources    []models.CalendarSource `json:"sources,omitempty"`
}

// SyncICS returns the handler for POST /sync-ics. It runs the whole
// pipeline synchronously and always answers 200 with the report once the
// run completes, however many sources failed; only a malformed request
// produces an error status.
func SyncICS(syncService *calendar.SyncService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.PropertyID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "property_id is required")
			return
		}
		for _, src := range req.Sources {
			if src.URL == "" {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "every source needs a url")
				return
			}
		}

		var broadcaster *ws.EventBroadcaster
		if hub != nil {
			broadcaster = ws.NewEventBroadcaster(hub)
			broadcaster.BroadcastSyncStarted(req.PropertyID, len(req.Sources))
		}

		report, err := syncService.Sync(r.Context(), req.PropertyID, req.Sources)
		if err != nil {
			// Only an unusable request reaches here (no sources at
			// all); per-source failures are inside the report.
			if broadcaster != nil {
				broadcaster.BroadcastSyncError(req.PropertyID, err)
			}
			middleware.WriteError(w, http.StatusUnprocessableEntity, middleware.ErrValidation, err.Error())
			return
		}

		if broadcaster != nil {
			broadcaster.BroadcastSyncCompleted(report)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

// SyncProbeResponse is the body of GET /sync-ics?health=true.
type SyncProbeResponse struct {
	Status            string `json:"status"`
	DBConnected       bool   `json:"db_connected"`
	SourcesConfigured int    `json:"sources_configured"`
}

// SyncICSProbe returns the handler for GET /sync-ics?health=true: a
// configuration and connectivity check that performs no sync.
func SyncICSProbe(db *storage.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("health") != "true" {
			middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.ErrBadRequest, "use POST to trigger a sync")
			return
		}

		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected || len(cfg.DefaultSources) == 0 {
			status = "degraded"
		}

		response := SyncProbeResponse{
			Status:            status,
			DBConnected:       dbConnected,
			SourcesConfigured: len(cfg.DefaultSources),
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}
