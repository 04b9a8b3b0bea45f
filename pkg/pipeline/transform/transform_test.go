package transform

import (
	"bytes"
	"errors"
	"log"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/metrics"
)

var refDate = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

func rec(id, title, date, clock string) event.Record {
	return event.Record{EventID: id, Title: title, StartDate: date, StartTime: clock, Tags: []string{}}
}

func ids(views []event.View) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.EventID
	}
	return out
}

func recordIDs(records []event.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.EventID
	}
	return out
}

func TestTransform_DefaultsFilterAndSortByDate(t *testing.T) {
	t.Parallel()

	cancelled := rec("c", "Cancelled Summit", "2026-04-01", "")
	cancelled.IsCancelled = true

	input := []event.Record{
		rec("late", "Late", "2026-05-01", "09:00"),
		rec("past", "Old", "2026-02-27", "10:00"),
		cancelled,
		rec("today", "Today", "2026-03-01", "08:00"),
		rec("nodate", "Undated", "", ""),
		rec("early", "Early", "2026-03-10", "18:00"),
		rec("early-am", "Early AM", "2026-03-10", "07:30"),
	}

	opts := DefaultOptions()
	opts.ReferenceDate = refDate
	views, err := Transform(input, opts)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	want := []string{"today", "early-am", "early", "late", "nodate"}
	if got := ids(views); !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestTransform_KeepsEverythingWhenFiltersOff(t *testing.T) {
	t.Parallel()

	cancelled := rec("c", "Cancelled", "2026-04-01", "")
	cancelled.IsCancelled = true
	input := []event.Record{rec("past", "Old", "2020-01-01", ""), cancelled}

	views, err := Transform(input, Options{ReferenceDate: refDate})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
}

func TestFilter_UnparseableDateIsKept(t *testing.T) {
	t.Parallel()

	input := []event.Record{rec("x", "Weird", "sometime", "")}
	out := Filter(input, Options{RemovePast: true, ReferenceDate: refDate})
	if len(out) != 1 {
		t.Fatalf("expected record with unparseable date to be kept")
	}
}

func TestSort_FreeFirstPartitions(t *testing.T) {
	t.Parallel()

	freeLate := rec("free-jan5", "B", "2026-01-05", "")
	freeLate.IsFree = true
	freeEarly := rec("free-jan1", "C", "2026-01-01", "")
	freeEarly.IsFree = true
	paid := rec("paid-jan2", "A", "2026-01-02", "")

	got := recordIDs(Sort([]event.Record{paid, freeLate, freeEarly}, SortByDate, true))
	want := []string{"free-jan1", "free-jan5", "paid-jan2"}
	if !slices.Equal(got, want) {
		t.Fatalf("free-first order = %v, want %v", got, want)
	}

	got = recordIDs(Sort([]event.Record{paid, freeLate, freeEarly}, SortByDate, false))
	want = []string{"free-jan1", "paid-jan2", "free-jan5"}
	if !slices.Equal(got, want) {
		t.Fatalf("plain date order = %v, want %v", got, want)
	}
}

func TestSort_ByTitleCaseInsensitiveStable(t *testing.T) {
	t.Parallel()

	input := []event.Record{
		rec("1", "beta", "", ""),
		rec("2", "Alpha", "", ""),
		rec("3", "BETA", "", ""),
		rec("4", "alpha", "", ""),
	}
	got := recordIDs(Sort(input, SortByTitle, false))
	want := []string{"2", "4", "1", "3"}
	if !slices.Equal(got, want) {
		t.Fatalf("title order = %v, want %v", got, want)
	}
}

func TestSort_StableForEqualKeys(t *testing.T) {
	t.Parallel()

	input := []event.Record{
		rec("a", "x", "2026-04-01", "10:00"),
		rec("b", "y", "2026-04-01", "10:00"),
		rec("c", "z", "", ""),
		rec("d", "w", "", ""),
	}
	got := recordIDs(Sort(input, SortByDate, false))
	if !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Fatalf("expected input order preserved for ties, got %v", got)
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := []event.Record{rec("b", "B", "2026-05-01", ""), rec("a", "A", "2026-04-01", "")}
	_ = Sort(input, SortByDate, false)
	if input[0].EventID != "b" {
		t.Fatalf("input slice was reordered")
	}
}

func TestTransform_UnknownSortKey(t *testing.T) {
	t.Parallel()

	_, err := Transform(nil, Options{SortBy: "popularity"})
	if !errors.Is(err, ErrUnknownSortKey) {
		t.Fatalf("expected ErrUnknownSortKey, got %v", err)
	}
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]SortKey{"": SortByDate, "date": SortByDate, " Title ": SortByTitle} {
		got, err := ParseSortKey(in)
		if err != nil || got != want {
			t.Fatalf("ParseSortKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestTransform_MissingEventIDFails(t *testing.T) {
	t.Parallel()

	_, err := Transform([]event.Record{rec("ok", "A", "", ""), rec(" ", "B", "", "")}, Options{ReferenceDate: refDate})
	if !errors.Is(err, event.ErrMissingEventID) {
		t.Fatalf("expected ErrMissingEventID, got %v", err)
	}
	if !strings.Contains(err.Error(), "record 1") {
		t.Fatalf("error should name the record index: %v", err)
	}
}

func TestTransform_EnrichesViews(t *testing.T) {
	t.Parallel()

	r := rec("w", "AI Workshop Night", "2026-03-04", "10:00")
	r.Tags = []string{"conference"}
	r.IsOnline = true
	r.IsFree = true

	views, err := Transform([]event.Record{r}, Options{ReferenceDate: refDate})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	v := views[0]
	if v.EventType != "Workshop" {
		t.Fatalf("expected Workshop, got %q", v.EventType)
	}
	if v.DisplayPrice != "Free" || v.DisplayDate != "Wed, Mar 4 at 10:00 AM" || v.DisplayLocation != "Online" {
		t.Fatalf("unexpected display fields: %#v", v)
	}
	if v.Title != r.Title || v.EventID != r.EventID {
		t.Fatalf("record fields not carried: %#v", v.Record)
	}
}

func TestTransform_DoesNotAliasInputTags(t *testing.T) {
	t.Parallel()

	r := rec("t", "Talk", "", "")
	r.Tags = []string{"ai"}
	input := []event.Record{r}

	views, err := Transform(input, Options{ReferenceDate: refDate})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	views[0].Tags[0] = "changed"
	if input[0].Tags[0] != "ai" {
		t.Fatalf("view shares tag storage with input record")
	}
}

func TestTransform_CustomClassifier(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(Table{Default: "Misc", Categories: []Category{{Name: "Robotics", Keywords: []string{"robot"}}}})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	views, err := Transform([]event.Record{rec("r", "Robot Fight Club", "", ""), rec("s", "AI Summit", "", "")},
		Options{ReferenceDate: refDate, Classifier: c, SortBy: SortByTitle})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if views[0].EventType != "Misc" || views[1].EventType != "Robotics" {
		t.Fatalf("unexpected types: %q %q", views[0].EventType, views[1].EventType)
	}
}

func TestTransform_RecordsMetricsAndLogs(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	var buf bytes.Buffer
	cancelled := rec("c", "Gone", "2026-04-01", "")
	cancelled.IsCancelled = true

	opts := DefaultOptions()
	opts.ReferenceDate = refDate
	opts.Metrics = m
	opts.Logger = log.New(&buf, "", 0)

	_, err := Transform([]event.Record{
		cancelled,
		rec("p", "Past", "2025-12-31", ""),
		rec("k", "Keynote", "2026-06-01", ""),
	}, opts)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap[`eventbrite_extractor_transform_filtered_total{reason="cancelled"}`] != 1 {
		t.Fatalf("cancelled counter: %v", snap)
	}
	if snap[`eventbrite_extractor_transform_filtered_total{reason="past"}`] != 1 {
		t.Fatalf("past counter: %v", snap)
	}
	if snap[`eventbrite_extractor_transform_views_total{event_type="Talk"}`] != 1 {
		t.Fatalf("views counter: %v", snap)
	}
	if !strings.Contains(buf.String(), "transform complete: input=3 filtered=2 views=1") {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
}
