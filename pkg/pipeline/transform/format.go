package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
)

const (
	placeholderDate     = "Date TBD"
	placeholderLocation = "Location TBD"
	defaultCurrency     = "USD"
)

// DisplayPrice renders "Free", "$50 USD", "$5.04 USD" or "Paid".
func DisplayPrice(r event.Record) string {
	if r.IsFree {
		return "Free"
	}
	if r.Price == "" {
		return "Paid"
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(r.Price), 64)
	if err != nil {
		return r.Price
	}
	if amount == 0 {
		return "Free"
	}
	formatted := strconv.FormatFloat(amount, 'f', 2, 64)
	formatted = strings.TrimRight(strings.TrimRight(formatted, "0"), ".")
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return "$" + formatted + " " + currency
}

// DisplayDate renders e.g. "Wed, Mar 4 at 10:00 AM", appending the zone
// abbreviation when the record carries a known IANA timezone.
func DisplayDate(r event.Record) string {
	var parts []string

	day, dayOK := parseDate(r.StartDate)
	if r.StartDate != "" {
		if dayOK {
			parts = append(parts, day.Format("Mon, Jan 2"))
		} else {
			parts = append(parts, r.StartDate)
		}
	}

	if r.StartTime != "" {
		if minute, ok := parseClock(r.StartTime); ok {
			s := "at " + formatClock(minute)
			if dayOK {
				if abbr := zoneAbbrev(day, minute, r.Timezone); abbr != "" {
					s += " " + abbr
				}
			}
			parts = append(parts, s)
		} else {
			parts = append(parts, "at "+r.StartTime)
		}
	}

	if len(parts) == 0 {
		return placeholderDate
	}
	return strings.Join(parts, " ")
}

// DisplayLocation renders "Online", the venue name, or a placeholder.
func DisplayLocation(r event.Record) string {
	if r.IsOnline {
		return "Online"
	}
	if r.VenueName != "" {
		return r.VenueName
	}
	return placeholderLocation
}

// parseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// parseClock parses HH:MM (or HH:MM:SS) into minutes since midnight.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", time.TimeOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

func formatClock(minute int) string {
	h, m := minute/60, minute%60
	ampm := "AM"
	if h >= 12 {
		ampm = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, ampm)
}

func zoneAbbrev(day time.Time, minute int, tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return ""
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return ""
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, loc)
	name, _ := t.Zone()
	return name
}
