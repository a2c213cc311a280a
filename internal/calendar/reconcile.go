package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// BookingStore is the slice of the bookings store the reconciler needs.
// Implementations must make InsertDraft and UpdateDraft atomic with their
// overlap check (a transactional check-then-write) and return
// models.ErrBookingOverlap when the write would leave two non-cancelled
// bookings for the same property overlapping.
type BookingStore interface {
	GetByEventUID(ctx context.Context, propertyID, eventUID string) (*models.Booking, error)
	InsertDraft(ctx context.Context, propertyID string, draft *models.BookingDraft) (*models.Booking, error)
	UpdateDraft(ctx context.Context, existing *models.Booking, draft *models.BookingDraft) error
}

// ReconcileResult summarizes one batch of drafts applied to the store.
type ReconcileResult struct {
	Processed int
	Created   int
	Updated   int
	Errors    []*ReconciliationError
}

// Reconciler applies batches of booking drafts to the store, upserting
// by event UID. It never deletes: an event UID absent from the latest
// fetch may just mean the feed window shrank, so disappearance is not
// treated as cancellation.
type Reconciler struct {
	store BookingStore
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store BookingStore) *Reconciler {
	return &Reconciler{store: store}
}

// Apply upserts each draft for the property in order. A per-event
// failure (overlap conflict, store error) is recorded and the batch
// continues; only context cancellation stops the loop early.
func (r *Reconciler) Apply(ctx context.Context, propertyID string, drafts []*models.BookingDraft) (ReconcileResult, error) {
	var result ReconcileResult

	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if draft.EventUID == "" {
			// The parser and normalizer guarantee a UID; a draft
			// without one must not reach the store.
			result.Errors = append(result.Errors, &ReconciliationError{
				EventUID: "(none)",
				Err:      fmt.Errorf("draft has no event UID"),
			})
			continue
		}

		created, updated, err := r.applyOne(ctx, propertyID, draft)
		if err != nil {
			recErr := &ReconciliationError{EventUID: draft.EventUID, Err: err}
			result.Errors = append(result.Errors, recErr)
			log.Printf("Reconcile error for property %s: %v", propertyID, recErr)
			continue
		}

		result.Processed++
		if created {
			result.Created++
		} else if updated {
			result.Updated++
		}
	}

	return result, nil
}

// applyOne upserts a single draft. Only rows keyed by the draft's event
// UID are ever matched, so manually created bookings (no event UID) can
// never be overwritten here.
func (r *Reconciler) applyOne(ctx context.Context, propertyID string, draft *models.BookingDraft) (created, updated bool, err error) {
	existing, err := r.store.GetByEventUID(ctx, propertyID, draft.EventUID)
	if err != nil {
		return false, false, fmt.Errorf("checking existing booking: %w", err)
	}

	if existing == nil {
		if _, err := r.store.InsertDraft(ctx, propertyID, draft); err != nil {
			if errors.Is(err, models.ErrBookingOverlap) {
				return false, false, err
			}
			return false, false, fmt.Errorf("inserting booking: %w", err)
		}
		return true, false, nil
	}

	if !draftDiffers(existing, draft) {
		return false, false, nil
	}

	if err := r.store.UpdateDraft(ctx, existing, draft); err != nil {
		if errors.Is(err, models.ErrBookingOverlap) {
			return false, false, err
		}
		return false, false, fmt.Errorf("updating booking: %w", err)
	}
	return false, true, nil
}

// draftDiffers reports whether applying the draft would change any
// mutable field of the persisted booking. Creation metadata is never
// compared, so an unchanged feed produces zero writes.
func draftDiffers(b *models.Booking, d *models.BookingDraft) bool {
	if b.GuestName != d.GuestName ||
		b.Status != d.Status ||
		b.Platform != d.Platform ||
		!b.CheckIn.Equal(d.CheckIn) ||
		!b.CheckOut.Equal(d.CheckOut) {
		return true
	}
	if strPtrValue(b.Notes) != d.Notes {
		return true
	}
	if strPtrValue(b.ContactEmail) != d.ContactEmail {
		return true
	}
	switch {
	case b.TotalAmount == nil && d.TotalAmount != nil:
		return true
	case b.TotalAmount != nil && d.TotalAmount == nil:
		return true
	case b.TotalAmount != nil && d.TotalAmount != nil && *b.TotalAmount != *d.TotalAmount:
		return true
	}
	return false
}

func strPtrValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
