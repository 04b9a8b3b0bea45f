package app

import (
	"context"
	"fmt"
	"io"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	localio "github.com/shpitdev/eventbrite-extractor/pkg/pipeline/io/local"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/transform"
)

// EventFetcher fetches one raw event by id.
type EventFetcher interface {
	GetEvent(ctx context.Context, id string) (map[string]any, error)
}

// RunLookup fetches one event, enriches it, and writes the view as JSON to w.
func RunLookup(ctx context.Context, f EventFetcher, id string, classifier *transform.Classifier, w io.Writer) (event.View, error) {
	raw, err := f.GetEvent(ctx, id)
	if err != nil {
		return event.View{}, err
	}
	rec, err := event.Parse(raw)
	if err != nil {
		return event.View{}, fmt.Errorf("parse event %s: %w", id, err)
	}
	v := transform.Enrich(rec, classifier)
	if err := localio.WriteJSON(w, v); err != nil {
		return event.View{}, err
	}
	return v, nil
}
