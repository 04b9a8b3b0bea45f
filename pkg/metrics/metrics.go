// Package metrics holds the Prometheus counters reported by one extraction run.
//
// A run has no HTTP listener, so metrics are exported as a node-exporter
// textfile at the end of the run. Every method is safe on a nil *Pipeline.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eventbrite_extractor"

// Pipeline groups the retrieval and transform counters of a single run.
type Pipeline struct {
	registry *prometheus.Registry

	pagesFetched   prometheus.Counter
	rateLimited    prometheus.Counter
	itemsSkipped   prometheus.Counter
	duplicates     prometheus.Counter
	recordsEmitted prometheus.Counter
	filtered       *prometheus.CounterVec
	viewsByType    *prometheus.CounterVec
	blurbs         *prometheus.CounterVec
}

// New registers the pipeline counters on a fresh registry.
func New() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieve",
			Name:      "pages_fetched_total",
			Help:      "Search pages fetched successfully",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieve",
			Name:      "rate_limited_total",
			Help:      "Search requests answered with a rate-limit signal",
		}),
		itemsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieve",
			Name:      "items_skipped_total",
			Help:      "Malformed result items skipped during parsing",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieve",
			Name:      "duplicates_dropped_total",
			Help:      "Result items dropped because their event_id was already seen",
		}),
		recordsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieve",
			Name:      "records_emitted_total",
			Help:      "Unique records produced by retrieval",
		}),
		filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "filtered_total",
			Help:      "Records removed by the transform filter stage",
		}, []string{"reason"}),
		viewsByType: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "views_total",
			Help:      "Enriched views produced, by event type",
		}, []string{"event_type"}),
		blurbs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blurb",
			Name:      "results_total",
			Help:      "Blurb generation results by status",
		}, []string{"status"}),
	}
	p.registry.MustRegister(
		p.pagesFetched,
		p.rateLimited,
		p.itemsSkipped,
		p.duplicates,
		p.recordsEmitted,
		p.filtered,
		p.viewsByType,
		p.blurbs,
	)
	return p
}

// Registry exposes the underlying registry, e.g. for a promhttp handler.
func (p *Pipeline) Registry() *prometheus.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}

func (p *Pipeline) PageFetched() {
	if p != nil {
		p.pagesFetched.Inc()
	}
}

func (p *Pipeline) RateLimited() {
	if p != nil {
		p.rateLimited.Inc()
	}
}

func (p *Pipeline) ItemSkipped() {
	if p != nil {
		p.itemsSkipped.Inc()
	}
}

func (p *Pipeline) DuplicateDropped() {
	if p != nil {
		p.duplicates.Inc()
	}
}

func (p *Pipeline) RecordsEmitted(n int) {
	if p != nil && n > 0 {
		p.recordsEmitted.Add(float64(n))
	}
}

// Filtered counts one record dropped for reason ("cancelled" or "past").
func (p *Pipeline) Filtered(reason string) {
	if p != nil {
		p.filtered.WithLabelValues(reason).Inc()
	}
}

func (p *Pipeline) ViewProduced(eventType string) {
	if p != nil {
		p.viewsByType.WithLabelValues(eventType).Inc()
	}
}

// BlurbResult counts one blurb outcome ("ok" or "error").
func (p *Pipeline) BlurbResult(status string) {
	if p != nil {
		p.blurbs.WithLabelValues(status).Inc()
	}
}

// WriteTextfile writes all counters in the Prometheus text format to path,
// atomically, for the node-exporter textfile collector.
func (p *Pipeline) WriteTextfile(path string) error {
	if p == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Snapshot returns the current counter values keyed by metric name, with
// labelled series keyed as name{label="value"}.
func (p *Pipeline) Snapshot() (map[string]float64, error) {
	out := map[string]float64{}
	if p == nil {
		return out, nil
	}
	families, err := p.registry.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			if pairs := m.GetLabel(); len(pairs) > 0 {
				labels := make([]string, 0, len(pairs))
				for _, lp := range pairs {
					labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
				}
				key += "{" + strings.Join(labels, ",") + "}"
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out, nil
}
