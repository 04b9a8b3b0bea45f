// Package transform filters, orders, and enriches canonical event records
// into display-ready views.
package transform

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/metrics"
)

// ErrUnknownSortKey is returned for a sort key other than "date" or "title".
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey names the primary ordering applied after the free-first partition.
type SortKey string

const (
	SortByDate  SortKey = "date"
	SortByTitle SortKey = "title"
)

// ParseSortKey validates a user-supplied sort key. Empty means date.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "", SortByDate:
		return SortByDate, nil
	case SortByTitle:
		return SortByTitle, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

// Options configures one Transform call.
type Options struct {
	RemoveCancelled bool
	RemovePast      bool
	SortBy          SortKey
	FreeFirst       bool

	// ReferenceDate decides what is past. Zero means the current date.
	ReferenceDate time.Time

	// Classifier defaults to the embedded category table.
	Classifier *Classifier

	Logger  *log.Logger
	Metrics *metrics.Pipeline
}

// DefaultOptions drops cancelled and past events and sorts by date.
func DefaultOptions() Options {
	return Options{
		RemoveCancelled: true,
		RemovePast:      true,
		SortBy:          SortByDate,
	}
}

func (o Options) withDefaults() (Options, error) {
	key, err := ParseSortKey(string(o.SortBy))
	if err != nil {
		return o, err
	}
	o.SortBy = key
	if o.ReferenceDate.IsZero() {
		o.ReferenceDate = time.Now()
	}
	if o.Classifier == nil {
		o.Classifier = DefaultClassifier()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o, nil
}

// Transform runs filter, sort, then enrich. Every record must carry an event_id.
func Transform(records []event.Record, opts Options) ([]event.View, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	kept := Filter(records, opts)
	sorted := Sort(kept, opts.SortBy, opts.FreeFirst)

	views := make([]event.View, len(sorted))
	for i, r := range sorted {
		views[i] = Enrich(r, opts.Classifier)
		opts.Metrics.ViewProduced(views[i].EventType)
	}

	opts.Logger.Printf("transform complete: input=%d filtered=%d views=%d sortBy=%s freeFirst=%t",
		len(records), len(records)-len(kept), len(views), opts.SortBy, opts.FreeFirst)
	return views, nil
}

// Filter drops cancelled and past records according to opts. A record whose
// start date is absent or unparseable is never considered past, and an event
// on the reference date itself is kept.
func Filter(records []event.Record, opts Options) []event.Record {
	ref := opts.ReferenceDate
	if ref.IsZero() {
		ref = time.Now()
	}
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]event.Record, 0, len(records))
	for _, r := range records {
		if opts.RemoveCancelled && r.IsCancelled {
			opts.Metrics.Filtered("cancelled")
			logf(opts.Logger, "filtered cancelled event: id=%s title=%q", r.EventID, r.Title)
			continue
		}
		if opts.RemovePast {
			if day, ok := parseDate(r.StartDate); ok && day.Before(refDay) {
				opts.Metrics.Filtered("past")
				logf(opts.Logger, "filtered past event: id=%s title=%q start=%s", r.EventID, r.Title, r.StartDate)
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// sortKey is the composite ordering key (rank, primary) computed once per record.
type sortKey struct {
	rank    int
	undated int
	day     time.Time
	minute  int
	title   string
}

func keyFor(r event.Record, by SortKey, freeFirst bool) sortKey {
	k := sortKey{}
	if freeFirst && !r.IsFree {
		k.rank = 1
	}
	if by == SortByTitle {
		k.title = strings.ToLower(r.Title)
		return k
	}
	day, ok := parseDate(r.StartDate)
	if !ok {
		k.undated = 1
		return k
	}
	k.day = day
	if minute, ok := parseClock(r.StartTime); ok {
		k.minute = minute
	}
	return k
}

func compareKeys(a, b sortKey) int {
	return cmp.Or(
		cmp.Compare(a.rank, b.rank),
		cmp.Compare(a.undated, b.undated),
		a.day.Compare(b.day),
		cmp.Compare(a.minute, b.minute),
		strings.Compare(a.title, b.title),
	)
}

// Sort returns a stably sorted copy of records. With freeFirst, free records
// form the first partition, each partition ordered by the chosen key.
func Sort(records []event.Record, by SortKey, freeFirst bool) []event.Record {
	type keyed struct {
		rec event.Record
		key sortKey
	}
	items := make([]keyed, len(records))
	for i, r := range records {
		items[i] = keyed{rec: r, key: keyFor(r, by, freeFirst)}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		return compareKeys(a.key, b.key)
	})

	out := make([]event.Record, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

// Enrich derives the display and classification fields for r.
func Enrich(r event.Record, c *Classifier) event.View {
	if c == nil {
		c = DefaultClassifier()
	}
	rec := r
	rec.Tags = append([]string{}, r.Tags...)
	return event.View{
		Record:          rec,
		DisplayPrice:    DisplayPrice(r),
		DisplayDate:     DisplayDate(r),
		DisplayLocation: DisplayLocation(r),
		EventType:       c.Classify(r.Title, r.Summary, r.Tags),
	}
}

func logf(l *log.Logger, format string, args ...any) {
	if l != nil {
		l.Printf(format, args...)
	}
}
