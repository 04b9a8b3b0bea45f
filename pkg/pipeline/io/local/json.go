// Package local reads and writes pipeline output on the local filesystem.
package local

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
)

// WriteJSON writes v as an indented JSON document followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// ReadViewsJSON reads a JSON array of views, as written by WriteJSON.
func ReadViewsJSON(r io.Reader) ([]event.View, error) {
	var views []event.View
	if err := json.NewDecoder(r).Decode(&views); err != nil {
		return nil, fmt.Errorf("decode views JSON: %w", err)
	}
	for i := range views {
		if err := views[i].Validate(); err != nil {
			return nil, fmt.Errorf("view %d: %w", i, err)
		}
		if views[i].Tags == nil {
			views[i].Tags = []string{}
		}
	}
	return views, nil
}
