package calendar

import (
	"errors"
	"fmt"
)

// ErrNotABooking marks an event that is a blocked/unavailable placeholder
// rather than a guest reservation. Normalizers return it so the caller can
// skip the event without recording a failure.
var ErrNotABooking = errors.New("event is not a guest booking")

// FetchError is a transport-level failure retrieving a feed: connection or
// DNS failure, non-2xx status, oversized response, or timeout.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching feed %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is a structural failure parsing a whole feed, such as an
// unterminated VEVENT block. Per-event problems are reported as warnings,
// not as a ParseError.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing feed at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parsing feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReconciliationError is a per-event write failure, typically the overlap
// constraint. The rest of the batch continues after one of these.
type ReconciliationError struct {
	EventUID string
	Err      error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciling event %s: %v", e.EventUID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
