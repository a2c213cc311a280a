package calendar

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// Normalizer maps one raw calendar event into a canonical booking draft.
// Returning ErrNotABooking means the event is a blocked/unavailable
// placeholder and should be skipped, not stored.
type Normalizer interface {
	Normalize(event models.RawCalendarEvent) (*models.BookingDraft, error)
}

// NormalizerFor returns the normalizer for a platform tag. Unrecognized
// platforms fall back to the generic normalizer.
func NormalizerFor(platform string) Normalizer {
	switch platform {
	case models.PlatformAirbnb:
		return airbnbNormalizer{}
	case models.PlatformVRBO:
		return vrboNormalizer{}
	case models.PlatformBooking:
		return bookingComNormalizer{}
	default:
		return genericNormalizer{}
	}
}

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	amountPattern = regexp.MustCompile(`(?i)total[^0-9$]*\$?\s*([0-9]+(?:\.[0-9]{1,2})?)`)
)

// isBlockedSummary reports whether the summary marks an owner block or
// unavailability rather than a guest reservation. Every platform
// publishes these markers, so the check is shared.
func isBlockedSummary(summary string) bool {
	s := strings.ToLower(strings.TrimSpace(summary))
	switch s {
	case "not available", "blocked", "unavailable", "airbnb (not available)":
		return true
	}
	return strings.HasPrefix(s, "blocked") || strings.HasPrefix(s, "not available")
}

// newDraft fills the fields common to every platform. The guest name
// falls back to the summary, then the UID, so a usable draft always has
// a non-empty name.
func newDraft(event models.RawCalendarEvent, platform, guestName, status string) *models.BookingDraft {
	if guestName == "" {
		guestName = strings.TrimSpace(event.Summary)
	}
	if guestName == "" {
		guestName = event.UID
	}

	draft := &models.BookingDraft{
		EventUID:  event.UID,
		GuestName: guestName,
		CheckIn:   event.Start,
		CheckOut:  event.End,
		Platform:  platform,
		Status:    status,
		Notes:     strings.TrimSpace(event.Description),
	}

	if m := emailPattern.FindString(event.Description); m != "" {
		draft.ContactEmail = m
	}
	if m := amountPattern.FindStringSubmatch(event.Description); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			draft.TotalAmount = &amount
		}
	}

	return draft
}

// airbnbNormalizer handles Airbnb feeds: "Reserved for <name>" summaries
// for reservations, "Not available" / "Blocked" for owner blocks.
type airbnbNormalizer struct{}

func (airbnbNormalizer) Normalize(event models.RawCalendarEvent) (*models.BookingDraft, error) {
	if isBlockedSummary(event.Summary) {
		return nil, ErrNotABooking
	}

	name := ""
	summary := strings.TrimSpace(event.Summary)
	if rest, ok := strings.CutPrefix(summary, "Reserved for "); ok {
		name = strings.TrimSpace(rest)
	} else if rest, ok := strings.CutPrefix(summary, "Reserved"); ok {
		name = strings.TrimSpace(rest)
	}

	return newDraft(event, models.PlatformAirbnb, name, models.BookingStatusConfirmed), nil
}

// vrboNormalizer handles VRBO feeds: "<name> - VRBO Booking" summaries,
// with the status buried in the free-text description.
type vrboNormalizer struct{}

func (vrboNormalizer) Normalize(event models.RawCalendarEvent) (*models.BookingDraft, error) {
	if isBlockedSummary(event.Summary) {
		return nil, ErrNotABooking
	}

	name := ""
	summary := strings.TrimSpace(event.Summary)
	if idx := strings.Index(summary, " - "); idx != -1 {
		name = strings.TrimSpace(summary[:idx])
	}

	status := models.BookingStatusConfirmed
	desc := strings.ToLower(event.Description)
	switch {
	case strings.Contains(desc, "cancelled"):
		status = models.BookingStatusCancelled
	case strings.Contains(desc, "pending"):
		status = models.BookingStatusPending
	case strings.Contains(desc, "confirmed"):
		status = models.BookingStatusConfirmed
	}

	return newDraft(event, models.PlatformVRBO, name, status), nil
}

// bookingComNormalizer handles Booking.com feeds:
// "<name> - Booking.com Reservation" summaries; a cancelled reservation
// keeps its summary with "cancelled" appended.
type bookingComNormalizer struct{}

func (bookingComNormalizer) Normalize(event models.RawCalendarEvent) (*models.BookingDraft, error) {
	if isBlockedSummary(event.Summary) {
		return nil, ErrNotABooking
	}

	name := ""
	summary := strings.TrimSpace(event.Summary)
	if idx := strings.Index(summary, " - "); idx != -1 {
		name = strings.TrimSpace(summary[:idx])
	}

	status := models.BookingStatusConfirmed
	if strings.Contains(strings.ToLower(summary), "cancelled") {
		status = models.BookingStatusCancelled
	}

	return newDraft(event, models.PlatformBooking, name, status), nil
}

// genericNormalizer is the fallback for unrecognized platforms: the raw
// summary becomes the guest name verbatim.
type genericNormalizer struct{}

func (genericNormalizer) Normalize(event models.RawCalendarEvent) (*models.BookingDraft, error) {
	if isBlockedSummary(event.Summary) {
		return nil, ErrNotABooking
	}
	return newDraft(event, models.PlatformOther, strings.TrimSpace(event.Summary), models.BookingStatusConfirmed), nil
}
