package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// BookingRepository provides data access for bookings. The draft-write
// methods implement the reconciler's store boundary: each one runs its
// overlap check and write in a single transaction so concurrent syncs of
// the same property serialize on the database rather than racing.
type BookingRepository struct {
	BaseRepository
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const bookingColumns = `
	id, property_id, event_uid, guest_name, contact_email, check_in,
	check_out, platform, status, notes, total_amount, created_at, updated_at`

// GetByEventUID retrieves the booking for a property's feed event, or nil.
func (r *BookingRepository) GetByEventUID(ctx context.Context, propertyID, eventUID string) (*models.Booking, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE property_id = ? AND event_uid = ?
	`, propertyID, eventUID)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking by event: %w", err)
	}
	return b, nil
}

// ListByProperty retrieves all bookings for a property, soonest first.
func (r *BookingRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.Booking, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE property_id = ?
		ORDER BY check_in
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CountAll returns the number of bookings across all properties.
func (r *BookingRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting bookings: %w", err)
	}
	return count, nil
}

// InsertDraft inserts a new booking built from the draft, refusing the
// write with models.ErrBookingOverlap if a different non-cancelled
// booking already covers any of the same nights.
func (r *BookingRepository) InsertDraft(ctx context.Context, propertyID string, draft *models.BookingDraft) (*models.Booking, error) {
	b := &models.Booking{
		ID:         GenerateID(),
		PropertyID: propertyID,
		EventUID:   &draft.EventUID,
		GuestName:  draft.GuestName,
		CheckIn:    draft.CheckIn,
		CheckOut:   draft.CheckOut,
		Platform:   draft.Platform,
		Status:     draft.Status,
		CreatedAt:  r.Now(),
		UpdatedAt:  r.Now(),
	}
	if draft.ContactEmail != "" {
		b.ContactEmail = &draft.ContactEmail
	}
	if draft.Notes != "" {
		b.Notes = &draft.Notes
	}
	b.TotalAmount = draft.TotalAmount

	err := r.Transaction(func(tx *sql.Tx) error {
		if err := checkOverlap(ctx, tx, propertyID, draft); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			b.ID, b.PropertyID, b.EventUID, b.GuestName, b.ContactEmail,
			b.CheckIn, b.CheckOut, b.Platform, b.Status, b.Notes,
			b.TotalAmount, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateDraft overwrites the booking's mutable fields from the draft,
// leaving created_at untouched. The overlap check excludes the booking's
// own event UID so a reservation can move its own dates.
func (r *BookingRepository) UpdateDraft(ctx context.Context, existing *models.Booking, draft *models.BookingDraft) error {
	now := r.Now()

	return r.Transaction(func(tx *sql.Tx) error {
		if err := checkOverlap(ctx, tx, existing.PropertyID, draft); err != nil {
			return err
		}

		var email, notes *string
		if draft.ContactEmail != "" {
			email = &draft.ContactEmail
		}
		if draft.Notes != "" {
			notes = &draft.Notes
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE bookings SET
				guest_name = ?, contact_email = ?, check_in = ?, check_out = ?,
				platform = ?, status = ?, notes = ?, total_amount = ?, updated_at = ?
			WHERE id = ?
		`,
			draft.GuestName, email, draft.CheckIn, draft.CheckOut,
			draft.Platform, draft.Status, notes, draft.TotalAmount, now,
			existing.ID,
		)
		if err != nil {
			return fmt.Errorf("updating booking: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return fmt.Errorf("booking not found: %s", existing.ID)
		}
		return nil
	})
}

// checkOverlap enforces the overlap invariant inside the caller's
// transaction: no two non-cancelled bookings for one property may share
// a point in time. A cancelled draft never conflicts, and rows carrying
// the draft's own event UID are excluded.
func checkOverlap(ctx context.Context, tx *sql.Tx, propertyID string, draft *models.BookingDraft) error {
	if draft.Status == models.BookingStatusCancelled {
		return nil
	}

	var conflictUID sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(event_uid, id) FROM bookings
		WHERE property_id = ?
		  AND status != ?
		  AND check_in < ?
		  AND check_out > ?
		  AND (event_uid IS NULL OR event_uid != ?)
		LIMIT 1
	`, propertyID, models.BookingStatusCancelled, draft.CheckOut, draft.CheckIn, draft.EventUID).Scan(&conflictUID)

	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking booking overlap: %w", err)
	}
	return fmt.Errorf("conflicts with booking %s: %w", conflictUID.String, models.ErrBookingOverlap)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b        models.Booking
		checkIn  time.Time
		checkOut time.Time
	)
	err := row.Scan(
		&b.ID, &b.PropertyID, &b.EventUID, &b.GuestName, &b.ContactEmail,
		&checkIn, &checkOut, &b.Platform, &b.Status, &b.Notes,
		&b.TotalAmount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CheckIn = checkIn
	b.CheckOut = checkOut
	return &b, nil
}
