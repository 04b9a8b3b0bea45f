// Package event defines the canonical event record produced by retrieval and the
// enriched view derived from it by the transform stage.
package event

import "strings"

// SourcePlatform tags every record parsed from the Eventbrite search API.
const SourcePlatform = "eventbrite"

// Record is the canonical, deduplicated representation of one upstream event.
//
// Optional text fields use "" for absent. Dates are YYYY-MM-DD and times HH:MM,
// exactly as the upstream supplied them.
type Record struct {
	EventID        string   `json:"event_id"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	StartDate      string   `json:"start_date"`
	StartTime      string   `json:"start_time"`
	EndDate        string   `json:"end_date"`
	EndTime        string   `json:"end_time"`
	Timezone       string   `json:"timezone"`
	IsOnline       bool     `json:"is_online"`
	VenueName      string   `json:"venue_name"`
	VenueAddress   string   `json:"venue_address"`
	OrganizerName  string   `json:"organizer_name"`
	OrganizerID    string   `json:"organizer_id"`
	URL            string   `json:"url"`
	IsFree         bool     `json:"is_free"`
	Price          string   `json:"price"`
	Currency       string   `json:"currency"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	ImageURL       string   `json:"image_url"`
	IsCancelled    bool     `json:"is_cancelled"`
	Published      string   `json:"published"`
	SourcePlatform string   `json:"source_platform"`
}

// Validate checks the record identity required by deduplication.
func (r Record) Validate() error {
	if strings.TrimSpace(r.EventID) == "" {
		return ErrMissingEventID
	}
	return nil
}

// Values returns the record's column values in RecordContract order.
func (r Record) Values() []string {
	return []string{
		r.EventID,
		r.Title,
		r.Summary,
		r.StartDate,
		r.StartTime,
		r.EndDate,
		r.EndTime,
		r.Timezone,
		formatBool(r.IsOnline),
		r.VenueName,
		r.VenueAddress,
		r.OrganizerName,
		r.OrganizerID,
		r.URL,
		formatBool(r.IsFree),
		r.Price,
		r.Currency,
		r.Category,
		strings.Join(r.Tags, ", "),
		r.ImageURL,
		formatBool(r.IsCancelled),
		r.Published,
		r.SourcePlatform,
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
