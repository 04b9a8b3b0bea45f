package eventbrite

import "strings"

// DestinationShape rewrites a classic v3 event object (start.local, venue,
// organizer, logo, status) into the flat destination search shape. Keys that
// already use the destination names are left alone, so the function is safe
// to apply to search results too.
func DestinationShape(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	setIfAbsent := func(key string, v any) {
		if _, ok := out[key]; ok {
			return
		}
		if s, isStr := v.(string); isStr && s == "" {
			return
		}
		if v != nil {
			out[key] = v
		}
	}

	if start, ok := raw["start"].(map[string]any); ok {
		date, clock := splitLocal(start["local"])
		setIfAbsent("start_date", date)
		setIfAbsent("start_time", clock)
		setIfAbsent("timezone", start["timezone"])
	}
	if end, ok := raw["end"].(map[string]any); ok {
		date, clock := splitLocal(end["local"])
		setIfAbsent("end_date", date)
		setIfAbsent("end_time", clock)
	}
	if online, ok := raw["online_event"].(bool); ok {
		setIfAbsent("is_online_event", online)
	}
	if status, ok := raw["status"].(string); ok {
		switch strings.ToLower(status) {
		case "canceled", "cancelled":
			setIfAbsent("is_cancelled", true)
		}
	}
	if venue, ok := raw["venue"].(map[string]any); ok {
		setIfAbsent("primary_venue", venue)
	}
	if organizer, ok := raw["organizer"].(map[string]any); ok {
		setIfAbsent("primary_organizer", organizer)
	}
	if logo, ok := raw["logo"].(map[string]any); ok {
		setIfAbsent("image", logo)
	}

	if free, ok := raw["is_free"].(bool); ok {
		ticket := map[string]any{}
		if existing, ok := out["ticket_availability"].(map[string]any); ok {
			for k, v := range existing {
				ticket[k] = v
			}
		}
		if _, ok := ticket["is_free"]; !ok {
			ticket["is_free"] = free
		}
		out["ticket_availability"] = ticket
	}

	if category, ok := raw["category"].(map[string]any); ok {
		if _, hasTags := out["tags"]; !hasTags {
			if name, _ := category["name"].(string); name != "" {
				out["tags"] = []any{map[string]any{"prefix": "EventbriteCategory", "display_name": name}}
			}
		}
	}
	return out
}

// splitLocal splits "2026-03-04T10:00:00" into "2026-03-04" and "10:00".
func splitLocal(v any) (date, clock string) {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	date, rest, found := strings.Cut(s, "T")
	if !found {
		return date, ""
	}
	if len(rest) >= 5 {
		rest = rest[:5]
	}
	return date, rest
}
