// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"github.com/gorilla/mux"

	"github.com/delloop-lab/homes-sub001/internal/api/handlers"
	"github.com/delloop-lab/homes-sub001/internal/api/middleware"
	"github.com/delloop-lab/homes-sub001/internal/calendar"
	"github.com/delloop-lab/homes-sub001/internal/config"
	"github.com/delloop-lab/homes-sub001/internal/storage"
	"github.com/delloop-lab/homes-sub001/internal/websocket"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(
	db *storage.DB,
	cfg *config.Config,
	hub *websocket.Hub,
	syncService *calendar.SyncService,
	bookingRepo *storage.BookingRepository,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// Sync endpoint: POST triggers a run, GET with ?health=true is the
	// configuration probe.
	r.HandleFunc("/sync-ics", handlers.SyncICS(syncService, hub)).Methods("POST")
	r.HandleFunc("/sync-ics", handlers.SyncICSProbe(db, cfg)).Methods("GET")

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(db, cfg, hub)).Methods("GET")

	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	api.HandleFunc("/properties/{id}/bookings", handlers.ListPropertyBookings(bookingRepo)).Methods("GET")

	return r
}
