package calendar

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestParseSingleEvent(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Airbnb Inc//Hosting Calendar 1.0//EN",
		"BEGIN:VEVENT",
		"UID:abc-123@airbnb.com",
		"DTSTART:20260310T150000Z",
		"DTEND:20260314T110000Z",
		"SUMMARY:Reserved for Jane Doe",
		"DESCRIPTION:CHECKIN: 10/03/2026",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	events, warnings, err := NewParser().Parse(feed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.UID != "abc-123@airbnb.com" {
		t.Errorf("uid: got %q", e.UID)
	}
	if e.Summary != "Reserved for Jane Doe" {
		t.Errorf("summary: got %q", e.Summary)
	}
	wantStart := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	if !e.Start.Equal(wantStart) {
		t.Errorf("start: got %v, want %v", e.Start, wantStart)
	}
}

func TestParseLineFolding(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:fold-1",
		"DTSTART:20260401",
		"DTEND:20260403",
		"SUMMARY:John Smith - VRBO",
		" \tBooking",
		"DESCRIPTION:first part",
		" second part",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	events, _, err := NewParser().Parse(feed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	// The first character after the fold marker is consumed; the rest
	// of the continuation joins the previous line verbatim.
	if events[0].Summary != "John Smith - VRBO\tBooking" {
		t.Errorf("summary: got %q", events[0].Summary)
	}
	if events[0].Description != "first partsecond part" {
		t.Errorf("description: got %q", events[0].Description)
	}
}

func TestParseEscapedText(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:esc-1",
		"DTSTART:20260501",
		"DTEND:20260502",
		`SUMMARY:Smith\, John\; party of 4`,
		`DESCRIPTION:line one\nline two \\ backslash`,
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	events, _, err := NewParser().Parse(feed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := events[0].Summary, "Smith, John; party of 4"; got != want {
		t.Errorf("summary: got %q, want %q", got, want)
	}
	if got, want := events[0].Description, "line one\nline two \\ backslash"; got != want {
		t.Errorf("description: got %q, want %q", got, want)
	}
}

func TestParseAllDayDates(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:allday-1",
		"DTSTART;VALUE=DATE:20260620",
		"DTEND;VALUE=DATE:20260624",
		"SUMMARY:Reserved",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	events, _, err := NewParser().Parse(feed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := events[0]
	if !e.Start.Equal(time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start: got %v, want midnight UTC", e.Start)
	}
	if !e.End.Equal(time.Date(2026, 6, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end: got %v, want midnight UTC", e.End)
	}
}

func TestParseDroppedEvents(t *testing.T) {
	tests := []struct {
		name    string
		block   []string
		message string
	}{
		{
			name: "missing UID",
			block: []string{
				"DTSTART:20260701", "DTEND:20260702", "SUMMARY:No uid here",
			},
			message: "missing UID",
		},
		{
			name: "missing DTEND",
			block: []string{
				"UID:x-1", "DTSTART:20260701", "SUMMARY:No end",
			},
			message: "missing DTEND",
		},
		{
			name: "end before start",
			block: []string{
				"UID:x-2", "DTSTART:20260705", "DTEND:20260701", "SUMMARY:Backwards",
			},
			message: "end is not after start",
		},
		{
			name: "garbage date",
			block: []string{
				"UID:x-3", "DTSTART:sometime", "DTEND:20260702", "SUMMARY:Bad date",
			},
			message: "unparsable DTSTART",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT"}
			lines = append(lines, tt.block...)
			lines = append(lines,
				"END:VEVENT",
				"BEGIN:VEVENT",
				"UID:good-1",
				"DTSTART:20260801",
				"DTEND:20260802",
				"SUMMARY:Good event",
				"END:VEVENT",
				"END:VCALENDAR",
			)

			events, warnings, err := NewParser().Parse(strings.Join(lines, "\n"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(events) != 1 || events[0].UID != "good-1" {
				t.Fatalf("expected only the good event, got %+v", events)
			}
			if len(warnings) != 1 {
				t.Fatalf("expected 1 warning, got %v", warnings)
			}
			if !strings.Contains(warnings[0].Message, tt.message) {
				t.Errorf("warning %q does not mention %q", warnings[0].Message, tt.message)
			}
		})
	}
}

func TestParseManyValidOneMalformed(t *testing.T) {
	var lines []string
	lines = append(lines, "BEGIN:VCALENDAR")
	for i := 0; i < 10; i++ {
		lines = append(lines,
			"BEGIN:VEVENT",
			fmt.Sprintf("UID:evt-%d", i),
			fmt.Sprintf("DTSTART:202609%02d", i+1),
			fmt.Sprintf("DTEND:202609%02d", i+2),
			"SUMMARY:Reserved",
			"END:VEVENT",
		)
	}
	lines = append(lines,
		"BEGIN:VEVENT",
		"DTSTART:20260920",
		"DTEND:20260921",
		"SUMMARY:No UID",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, warnings, err := NewParser().Parse(strings.Join(lines, "\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 10 {
		t.Errorf("expected 10 events, got %d", len(events))
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(warnings))
	}
}

func TestParseSkipsOtherBlocks(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VTIMEZONE",
		"TZID:America/New_York",
		"BEGIN:STANDARD",
		"DTSTART:19701101T020000",
		"END:STANDARD",
		"END:VTIMEZONE",
		"BEGIN:VEVENT",
		"UID:tz-1",
		"DTSTART:20261001T140000Z",
		"DTEND:20261004T100000Z",
		"SUMMARY:Reserved",
		"BEGIN:VALARM",
		"TRIGGER:-PT15M",
		"END:VALARM",
		"X-CUSTOM-PROP:ignored",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	events, warnings, err := NewParser().Parse(feed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(events) != 1 || events[0].UID != "tz-1" {
		t.Fatalf("expected the single VEVENT, got %+v", events)
	}
	// The VTIMEZONE's DTSTART must not leak into the event.
	if events[0].Start.Year() != 2026 {
		t.Errorf("start leaked from another block: %v", events[0].Start)
	}
}

func TestParseUnterminatedEvent(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:dangling",
		"DTSTART:20261101",
		"DTEND:20261102",
		"END:VCALENDAR",
	}, "\n")

	_, _, err := NewParser().Parse(feed)
	if err == nil {
		t.Fatal("expected an error for an unterminated VEVENT")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestParseEmptyFeed(t *testing.T) {
	events, warnings, err := NewParser().Parse("BEGIN:VCALENDAR\nEND:VCALENDAR\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 || len(warnings) != 0 {
		t.Errorf("expected nothing, got %d events, %d warnings", len(events), len(warnings))
	}
}
