package local

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/schema"
)

// WriteRecordsCSV writes records under the stable RecordContract header.
func WriteRecordsCSV(w io.Writer, records []event.Record) error {
	return writeCSV(w, event.RecordContract(), len(records), func(i int) []string {
		return records[i].Values()
	})
}

// WriteViewsCSV writes views under the stable ViewContract header.
func WriteViewsCSV(w io.Writer, views []event.View) error {
	return writeCSV(w, event.ViewContract(), len(views), func(i int) []string {
		return views[i].Values()
	})
}

func writeCSV(w io.Writer, c schema.Contract, n int, row func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(c.Names()); err != nil {
		return err
	}
	for i := range n {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadViewsCSV reads views written by WriteViewsCSV.
//
// Extra columns are ignored. Every non-nullable ViewContract column must exist.
func ReadViewsCSV(r io.Reader) ([]event.View, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index, err := event.ViewContract().Index(header)
	if err != nil {
		return nil, err
	}

	var views []event.View
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return views, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		var boolErr error
		getBool := func(col string) bool {
			s := strings.TrimSpace(get(col))
			if s == "" {
				return false
			}
			b, err := strconv.ParseBool(s)
			if err != nil && boolErr == nil {
				boolErr = fmt.Errorf("line %d: column %q: invalid boolean %q", line, col, s)
			}
			return b
		}

		v := event.View{
			Record: event.Record{
				EventID:        get("event_id"),
				Title:          get("title"),
				Summary:        get("summary"),
				StartDate:      get("start_date"),
				StartTime:      get("start_time"),
				EndDate:        get("end_date"),
				EndTime:        get("end_time"),
				Timezone:       get("timezone"),
				IsOnline:       getBool("is_online"),
				VenueName:      get("venue_name"),
				VenueAddress:   get("venue_address"),
				OrganizerName:  get("organizer_name"),
				OrganizerID:    get("organizer_id"),
				URL:            get("url"),
				IsFree:         getBool("is_free"),
				Price:          get("price"),
				Currency:       get("currency"),
				Category:       get("category"),
				Tags:           splitTags(get("tags")),
				ImageURL:       get("image_url"),
				IsCancelled:    getBool("is_cancelled"),
				Published:      get("published"),
				SourcePlatform: get("source_platform"),
			},
			DisplayPrice:    get("display_price"),
			DisplayDate:     get("display_date"),
			DisplayLocation: get("display_location"),
			EventType:       get("event_type"),
			Blurb:           get("blurb"),
		}
		if boolErr != nil {
			return nil, boolErr
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		views = append(views, v)
	}
}

func splitTags(s string) []string {
	out := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
