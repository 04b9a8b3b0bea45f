package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shpitdev/eventbrite-extractor/pkg/metrics"
)

func TestPipelineSnapshot(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.PageFetched()
	m.PageFetched()
	m.RateLimited()
	m.DuplicateDropped()
	m.RecordsEmitted(3)
	m.Filtered("past")
	m.ViewProduced("Workshop")
	m.ViewProduced("Workshop")

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	checks := map[string]float64{
		"eventbrite_extractor_retrieve_pages_fetched_total":                 2,
		"eventbrite_extractor_retrieve_rate_limited_total":                  1,
		"eventbrite_extractor_retrieve_duplicates_dropped_total":            1,
		"eventbrite_extractor_retrieve_records_emitted_total":               3,
		`eventbrite_extractor_transform_filtered_total{reason="past"}`:      1,
		`eventbrite_extractor_transform_views_total{event_type="Workshop"}`: 2,
	}
	for name, want := range checks {
		if got := snap[name]; got != want {
			t.Fatalf("%s: want %v got %v (snapshot=%v)", name, want, got, snap)
		}
	}
}

func TestNilPipelineIsNoop(t *testing.T) {
	t.Parallel()

	var m *metrics.Pipeline
	m.PageFetched()
	m.RateLimited()
	m.ItemSkipped()
	m.Filtered("cancelled")
	m.BlurbResult("ok")
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("nil WriteTextfile should be a no-op, got %v", err)
	}
	snap, err := m.Snapshot()
	if err != nil || len(snap) != 0 {
		t.Fatalf("unexpected nil snapshot: %v %v", snap, err)
	}
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.PageFetched()

	path := filepath.Join(t.TempDir(), "extractor.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(b), "eventbrite_extractor_retrieve_pages_fetched_total 1") {
		t.Fatalf("textfile missing counter:\n%s", b)
	}
}
