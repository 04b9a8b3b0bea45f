package transform

import (
	"testing"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
)

func TestDisplayPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  event.Record
		want string
	}{
		{name: "free flag", rec: event.Record{IsFree: true, Price: "10.00"}, want: "Free"},
		{name: "whole amount", rec: event.Record{Price: "50.00", Currency: "USD"}, want: "$50 USD"},
		{name: "cents kept", rec: event.Record{Price: "5.04", Currency: "USD"}, want: "$5.04 USD"},
		{name: "trailing zero trimmed", rec: event.Record{Price: "12.50", Currency: "EUR"}, want: "$12.5 EUR"},
		{name: "hundreds", rec: event.Record{Price: "100", Currency: "USD"}, want: "$100 USD"},
		{name: "default currency", rec: event.Record{Price: "20"}, want: "$20 USD"},
		{name: "zero is free", rec: event.Record{Price: "0.00", Currency: "USD"}, want: "Free"},
		{name: "unparseable verbatim", rec: event.Record{Price: "donation"}, want: "donation"},
		{name: "no price", rec: event.Record{}, want: "Paid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DisplayPrice(tt.rec); got != tt.want {
				t.Fatalf("DisplayPrice = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  event.Record
		want string
	}{
		{name: "date and time", rec: event.Record{StartDate: "2026-03-04", StartTime: "10:00"}, want: "Wed, Mar 4 at 10:00 AM"},
		{name: "afternoon", rec: event.Record{StartDate: "2026-03-04", StartTime: "18:30"}, want: "Wed, Mar 4 at 6:30 PM"},
		{name: "midnight", rec: event.Record{StartDate: "2026-03-04", StartTime: "00:15"}, want: "Wed, Mar 4 at 12:15 AM"},
		{name: "noon", rec: event.Record{StartDate: "2026-03-04", StartTime: "12:00"}, want: "Wed, Mar 4 at 12:00 PM"},
		{name: "date only", rec: event.Record{StartDate: "2026-03-04"}, want: "Wed, Mar 4"},
		{name: "time only", rec: event.Record{StartTime: "09:05"}, want: "at 9:05 AM"},
		{name: "nothing", rec: event.Record{}, want: "Date TBD"},
		{name: "raw date", rec: event.Record{StartDate: "next week"}, want: "next week"},
		{name: "raw time", rec: event.Record{StartDate: "2026-03-04", StartTime: "evening"}, want: "Wed, Mar 4 at evening"},
		{name: "seconds accepted", rec: event.Record{StartDate: "2026-03-04", StartTime: "10:00:00"}, want: "Wed, Mar 4 at 10:00 AM"},
		{name: "standard time zone", rec: event.Record{StartDate: "2026-03-04", StartTime: "10:00", Timezone: "America/New_York"}, want: "Wed, Mar 4 at 10:00 AM EST"},
		{name: "daylight time zone", rec: event.Record{StartDate: "2026-07-01", StartTime: "10:00", Timezone: "America/New_York"}, want: "Wed, Jul 1 at 10:00 AM EDT"},
		{name: "unknown zone ignored", rec: event.Record{StartDate: "2026-03-04", StartTime: "10:00", Timezone: "Mars/Olympus"}, want: "Wed, Mar 4 at 10:00 AM"},
		{name: "zone without date ignored", rec: event.Record{StartTime: "10:00", Timezone: "America/New_York"}, want: "at 10:00 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DisplayDate(tt.rec); got != tt.want {
				t.Fatalf("DisplayDate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayLocation(t *testing.T) {
	t.Parallel()

	if got := DisplayLocation(event.Record{IsOnline: true, VenueName: "Hall"}); got != "Online" {
		t.Fatalf("online: got %q", got)
	}
	if got := DisplayLocation(event.Record{VenueName: "Javits Center"}); got != "Javits Center" {
		t.Fatalf("venue: got %q", got)
	}
	if got := DisplayLocation(event.Record{}); got != "Location TBD" {
		t.Fatalf("placeholder: got %q", got)
	}
}
