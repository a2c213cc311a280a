package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/delloop-lab/homes-sub001/internal/api/middleware"
	"github.com/delloop-lab/homes-sub001/internal/storage"
	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// ListPropertyBookings returns all persisted bookings for a property,
// soonest check-in first.
func ListPropertyBookings(repo *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := mux.Vars(r)["id"]

		bookings, err := repo.ListByProperty(r.Context(), propertyID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query bookings")
			return
		}
		if bookings == nil {
			bookings = []models.Booking{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(bookings)
	}
}
