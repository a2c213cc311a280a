package models

import (
	"time"
)

// Platform identifiers for external booking calendars.
const (
	PlatformAirbnb  = "airbnb"
	PlatformVRBO    = "vrbo"
	PlatformBooking = "booking"
	PlatformOther   = "other"
)

// KnownPlatform reports whether p is one of the recognized platform tags.
func KnownPlatform(p string) bool {
	switch p {
	case PlatformAirbnb, PlatformVRBO, PlatformBooking, PlatformOther:
		return true
	}
	return false
}

// CalendarSource identifies one external iCal feed for a property.
// Sources are supplied per request or defaulted from configuration;
// they are not persisted.
type CalendarSource struct {
	Name     string `json:"name" yaml:"name"`
	Platform string `json:"platform" yaml:"platform"`
	URL      string `json:"url" yaml:"url"`
}

// RawCalendarEvent is one parsed VEVENT block, before any platform
// interpretation. Produced by the parser, consumed by the normalizer.
type RawCalendarEvent struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// BookingDraft is the normalizer's output: one canonical reservation
// candidate keyed by the feed event UID.
type BookingDraft struct {
	EventUID     string
	GuestName    string
	ContactEmail string
	CheckIn      time.Time
	CheckOut     time.Time
	Platform     string
	Status       string
	Notes        string
	TotalAmount  *float64
}

// SourceSyncResult describes what happened for a single source during
// one sync run. Success tracks whether the feed was fetched and parsed;
// individual event failures land in Errors without flipping it.
type SourceSyncResult struct {
	Source            string   `json:"source"`
	Platform          string   `json:"platform"`
	Success           bool     `json:"success"`
	BookingsProcessed int      `json:"bookingsProcessed"`
	BookingsCreated   int      `json:"bookingsCreated"`
	BookingsUpdated   int      `json:"bookingsUpdated"`
	EventsSkipped     int      `json:"eventsSkipped"`
	Errors            []string `json:"errors"`
}

// SyncReport aggregates every source's result for one orchestrator run.
// It is returned to the caller and never persisted.
type SyncReport struct {
	PropertyID     string             `json:"propertyId"`
	TotalProcessed int                `json:"totalProcessed"`
	TotalErrors    int                `json:"totalErrors"`
	ProcessingTime string             `json:"processingTime"`
	Sources        []SourceSyncResult `json:"sources"`
	StartedAt      time.Time          `json:"startedAt"`
}
