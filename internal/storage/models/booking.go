// Package models contains the domain models for the application.
package models

import (
	"errors"
	"time"
)

// ErrBookingOverlap is returned by the bookings store when a write would
// leave two non-cancelled bookings for the same property overlapping.
var ErrBookingOverlap = errors.New("booking dates overlap an existing booking")

// Booking represents a reservation persisted for a property. Rows created
// by calendar sync carry the originating event UID; rows entered by hand
// have no event UID and are never touched by the reconciler.
type Booking struct {
	ID           string     `json:"id"`
	PropertyID   string     `json:"property_id"`
	EventUID     *string    `json:"event_uid,omitempty"`
	GuestName    string     `json:"guest_name"`
	ContactEmail *string    `json:"contact_email,omitempty"`
	CheckIn      time.Time  `json:"check_in"`
	CheckOut     time.Time  `json:"check_out"`
	Platform     string     `json:"platform"`
	Status       string     `json:"status"`
	Notes        *string    `json:"notes,omitempty"`
	TotalAmount  *float64   `json:"total_amount,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Booking status constants
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusPending   = "pending"
	BookingStatusCancelled = "cancelled"
)

// IsFromFeed returns true if the booking originated from a calendar feed.
func (b *Booking) IsFromFeed() bool {
	return b.EventUID != nil && *b.EventUID != ""
}

// Overlaps returns true if the booking's [check_in, check_out) interval
// shares any point in time with the given interval.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}
