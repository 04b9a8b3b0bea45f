package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const categoryTagPrefix = "EventbriteCategory"

// Parse builds a Record from one raw destination-search result.
//
// A missing or blank id returns ErrMissingEventID; an id of the wrong JSON type
// returns ErrInvalidEventID wrapping its *ValidationError. A field holding an
// unexpected JSON type returns a *ValidationError; callers treat that as a
// malformed single item. Absent optional fields are never an error.
func Parse(raw map[string]any) (Record, error) {
	if raw == nil {
		return Record{}, ErrMissingEventID
	}
	id, err := stringField(raw, "id")
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidEventID, err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrMissingEventID
	}

	p := parser{raw: raw}
	rec := Record{
		EventID:        id,
		Title:          p.text("name"),
		Summary:        p.str(raw, "summary"),
		StartDate:      p.str(raw, "start_date"),
		StartTime:      p.str(raw, "start_time"),
		EndDate:        p.str(raw, "end_date"),
		EndTime:        p.str(raw, "end_time"),
		Timezone:       p.str(raw, "timezone"),
		IsOnline:       p.boolean(raw, "is_online_event"),
		URL:            p.str(raw, "url"),
		IsCancelled:    p.boolean(raw, "is_cancelled"),
		Published:      p.str(raw, "published"),
		SourcePlatform: SourcePlatform,
	}

	if ticket := p.object(raw, "ticket_availability"); ticket != nil {
		rec.IsFree = p.boolean(ticket, "is_free")
		if !rec.IsFree {
			if minPrice := p.object(ticket, "minimum_ticket_price"); minPrice != nil {
				rec.Price = p.str(minPrice, "major_value")
				rec.Currency = p.str(minPrice, "currency")
			}
		}
	}

	if organizer := p.object(raw, "primary_organizer"); organizer != nil {
		rec.OrganizerName = p.str(organizer, "name")
		rec.OrganizerID = p.str(organizer, "id")
	}

	if venue := p.object(raw, "primary_venue"); venue != nil {
		rec.VenueName = p.str(venue, "name")
		if addr := p.object(venue, "address"); addr != nil {
			rec.VenueAddress = joinNonEmpty(", ",
				p.str(addr, "city"),
				p.str(addr, "region"),
				p.str(addr, "country"),
			)
		}
	}

	if image := p.object(raw, "image"); image != nil {
		rec.ImageURL = p.str(image, "url")
	}

	rec.Tags, rec.Category = p.tags()

	if p.err != nil {
		return Record{}, p.err
	}
	return rec, nil
}

// parser records the first field error so Parse can read fields without
// checking an error after every access.
type parser struct {
	raw map[string]any
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) str(m map[string]any, key string) string {
	s, err := stringField(m, key)
	if err != nil {
		p.fail(err)
		return ""
	}
	return strings.TrimSpace(s)
}

// text reads a field that is either a plain string or a {"text": ...} object.
func (p *parser) text(key string) string {
	if obj, ok := p.raw[key].(map[string]any); ok {
		return p.str(obj, "text")
	}
	return p.str(p.raw, key)
}

func (p *parser) boolean(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		p.fail(&ValidationError{Field: key, Message: fmt.Sprintf("expected boolean, got %T", v)})
		return false
	}
	return b
}

func (p *parser) object(m map[string]any, key string) map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		p.fail(&ValidationError{Field: key, Message: fmt.Sprintf("expected object, got %T", v)})
		return nil
	}
	if len(obj) == 0 {
		return nil
	}
	return obj
}

func (p *parser) tags() (tags []string, category string) {
	v, ok := p.raw["tags"]
	if !ok || v == nil {
		return []string{}, ""
	}
	list, ok := v.([]any)
	if !ok {
		p.fail(&ValidationError{Field: "tags", Message: fmt.Sprintf("expected list, got %T", v)})
		return []string{}, ""
	}
	tags = make([]string, 0, len(list))
	for i, item := range list {
		tag, ok := item.(map[string]any)
		if !ok {
			p.fail(&ValidationError{Field: fmt.Sprintf("tags[%d]", i), Message: fmt.Sprintf("expected object, got %T", item)})
			continue
		}
		name := p.str(tag, "display_name")
		if name == "" {
			continue
		}
		tags = append(tags, name)
		if category == "" && p.str(tag, "prefix") == categoryTagPrefix {
			category = name
		}
	}
	return tags, category
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	default:
		return "", &ValidationError{Field: key, Message: fmt.Sprintf("expected string, got %T", v)}
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
