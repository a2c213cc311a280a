package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

func night(d int) time.Time {
	return time.Date(2026, 11, d, 0, 0, 0, 0, time.UTC)
}

func testDraft(uid string, checkIn, checkOut int) *models.BookingDraft {
	return &models.BookingDraft{
		EventUID:  uid,
		GuestName: "Guest " + uid,
		CheckIn:   night(checkIn),
		CheckOut:  night(checkOut),
		Platform:  models.PlatformAirbnb,
		Status:    models.BookingStatusConfirmed,
	}
}

func TestInsertAndGetByEventUID(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	draft := testDraft("uid-1", 1, 5)
	draft.ContactEmail = "guest@example.com"
	draft.Notes = "2 adults"
	amount := 420.0
	draft.TotalAmount = &amount

	inserted, err := repo.InsertDraft(ctx, "prop-1", draft)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if inserted.ID == "" {
		t.Error("inserted booking has no id")
	}

	got, err := repo.GetByEventUID(ctx, "prop-1", "uid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("booking not found after insert")
	}
	if got.GuestName != "Guest uid-1" {
		t.Errorf("guest name: got %q", got.GuestName)
	}
	if got.ContactEmail == nil || *got.ContactEmail != "guest@example.com" {
		t.Errorf("contact email: got %v", got.ContactEmail)
	}
	if got.TotalAmount == nil || *got.TotalAmount != 420.0 {
		t.Errorf("total amount: got %v", got.TotalAmount)
	}
	if !got.CheckIn.Equal(night(1)) || !got.CheckOut.Equal(night(5)) {
		t.Errorf("dates: got %v - %v", got.CheckIn, got.CheckOut)
	}
	if !got.IsFromFeed() {
		t.Error("feed booking not recognized as such")
	}
}

func TestGetByEventUIDMissing(t *testing.T) {
	repo := NewBookingRepository(testDB(t))

	got, err := repo.GetByEventUID(context.Background(), "prop-1", "no-such-uid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestUpdateDraft(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	inserted, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-1", 1, 5))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Stay extended, status flipped.
	updated := testDraft("uid-1", 1, 8)
	updated.Status = models.BookingStatusPending
	if err := repo.UpdateDraft(ctx, inserted, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByEventUID(ctx, "prop-1", "uid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CheckOut.Equal(night(8)) {
		t.Errorf("check_out: got %v", got.CheckOut)
	}
	if got.Status != models.BookingStatusPending {
		t.Errorf("status: got %q", got.Status)
	}
	if !got.CreatedAt.Equal(inserted.CreatedAt) {
		t.Errorf("created_at changed on update: %v vs %v", got.CreatedAt, inserted.CreatedAt)
	}
}

func TestInsertOverlapRejected(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	if _, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-1", 1, 5)); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-2", 3, 7))
	if !errors.Is(err, models.ErrBookingOverlap) {
		t.Fatalf("expected overlap error, got %v", err)
	}

	// Same dates on a different property are fine.
	if _, err := repo.InsertDraft(ctx, "prop-2", testDraft("uid-3", 3, 7)); err != nil {
		t.Fatalf("other property insert: %v", err)
	}
}

func TestBackToBackStaysDoNotOverlap(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	if _, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-1", 1, 5)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	// Checkout day equals the next check-in day.
	if _, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-2", 5, 9)); err != nil {
		t.Fatalf("back-to-back insert: %v", err)
	}
}

func TestUpdateCanShiftOwnDates(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	inserted, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-1", 1, 5))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Overlaps its own previous dates; must not self-conflict.
	if err := repo.UpdateDraft(ctx, inserted, testDraft("uid-1", 2, 6)); err != nil {
		t.Fatalf("self-overlapping update: %v", err)
	}
}

func TestCancelledBookingsDoNotBlock(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	cancelled := testDraft("uid-1", 1, 5)
	cancelled.Status = models.BookingStatusCancelled
	if _, err := repo.InsertDraft(ctx, "prop-1", cancelled); err != nil {
		t.Fatalf("cancelled insert: %v", err)
	}

	// The nights freed by the cancellation can be rebooked.
	if _, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-2", 2, 4)); err != nil {
		t.Fatalf("rebooking insert: %v", err)
	}
}

func TestManualBookingBlocksFeedInsert(t *testing.T) {
	db := testDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	// Seed a manual booking directly: no event_uid.
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO bookings (id, property_id, guest_name, check_in, check_out, platform, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, GenerateID(), "prop-1", "Walk-in", night(10), night(15), models.PlatformOther, models.BookingStatusConfirmed, now, now)
	if err != nil {
		t.Fatalf("seeding manual booking: %v", err)
	}

	_, err = repo.InsertDraft(ctx, "prop-1", testDraft("uid-1", 12, 14))
	if !errors.Is(err, models.ErrBookingOverlap) {
		t.Fatalf("expected overlap with manual booking, got %v", err)
	}
}

func TestListByPropertyOrder(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	for _, d := range []*models.BookingDraft{
		testDraft("uid-late", 20, 22),
		testDraft("uid-early", 1, 3),
		testDraft("uid-mid", 10, 12),
	} {
		if _, err := repo.InsertDraft(ctx, "prop-1", d); err != nil {
			t.Fatalf("insert %s: %v", d.EventUID, err)
		}
	}

	bookings, err := repo.ListByProperty(ctx, "prop-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(bookings))
	}
	for i, want := range []string{"uid-early", "uid-mid", "uid-late"} {
		if got := *bookings[i].EventUID; got != want {
			t.Errorf("position %d: got %q, want %q", i, got, want)
		}
	}
}

func TestCountAll(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	count, err := repo.CountAll(ctx)
	if err != nil || count != 0 {
		t.Fatalf("empty count: %d, %v", count, err)
	}

	if _, err := repo.InsertDraft(ctx, "prop-1", testDraft("uid-1", 1, 3)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.InsertDraft(ctx, "prop-2", testDraft("uid-2", 1, 3)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, err = repo.CountAll(ctx)
	if err != nil || count != 2 {
		t.Fatalf("count: %d, %v", count, err)
	}
}
