package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); !strings.Contains(got, "text/calendar") {
			t.Errorf("Accept header: got %q", got)
		}
		w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	body, err := NewFetcher(0, 0).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(body, "BEGIN:VCALENDAR") {
		t.Errorf("body: got %q", body)
	}
}

func TestFetchNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(0, 0).Fetch(context.Background(), srv.URL+"/calendar.ics?s=secret-token")
	if err == nil {
		t.Fatal("expected an error for 404")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks the feed token: %v", err)
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("error should name the status: %v", err)
	}
}

func TestFetchOversizedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	_, err := NewFetcher(0, 1024).Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for an oversized feed")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("error: %v", err)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // deliberately closed

	_, err := NewFetcher(0, 0).Fetch(context.Background(), srv.URL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "https://www.airbnb.com/calendar/ical/12345.ics?s=abc123",
			want: "https://www.airbnb.com/...(redacted)",
		},
		{
			in:   "http://feeds.example.com",
			want: "http://feeds.example.com/...(redacted)",
		},
		{
			in:   "not a url",
			want: "feed://...(redacted)",
		},
	}

	for _, tt := range tests {
		if got := RedactURL(tt.in); got != tt.want {
			t.Errorf("RedactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
