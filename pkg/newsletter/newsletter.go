// Package newsletter renders enriched event views into an HTML newsletter
// grouped by event type.
package newsletter

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
)

//go:embed newsletter.html
var pageHTML string

var page = template.Must(template.New("newsletter").Parse(pageHTML))

// TypeOrder is the section order. Types not listed follow alphabetically.
var TypeOrder = []string{
	"Conference",
	"Workshop",
	"Hackathon",
	"Course",
	"Talk",
	"Webinar",
	"Meetup",
	"Event",
}

// Group is one newsletter section.
type Group struct {
	Type   string
	Events []event.View
}

// Options sets the newsletter header and introduction.
type Options struct {
	Title    string
	Subtitle string
	// Intro replaces the generated introduction when set.
	Intro string
	// Place names the area in the generated introduction.
	Place string
	// Now is the generation time. Zero means time.Now().
	Now time.Time
}

// GroupByType buckets views by EventType, keeping input order within a group.
// A blank type is treated as "Event".
func GroupByType(views []event.View) []Group {
	buckets := make(map[string][]event.View)
	for _, v := range views {
		t := strings.TrimSpace(v.EventType)
		if t == "" {
			t = "Event"
		}
		buckets[t] = append(buckets[t], v)
	}

	groups := make([]Group, 0, len(buckets))
	for _, t := range TypeOrder {
		if evs, ok := buckets[t]; ok {
			groups = append(groups, Group{Type: t, Events: evs})
			delete(buckets, t)
		}
	}
	rest := make([]string, 0, len(buckets))
	for t := range buckets {
		rest = append(rest, t)
	}
	sort.Strings(rest)
	for _, t := range rest {
		groups = append(groups, Group{Type: t, Events: buckets[t]})
	}
	return groups
}

// Intro builds the default introduction paragraph.
func Intro(views []event.View, place string) string {
	groups := GroupByType(views)
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = strings.ToLower(g.Type) + "s"
	}

	var types string
	switch len(names) {
	case 0:
		types = "events"
	case 1:
		types = names[0]
	default:
		types = strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}

	free := 0
	for _, v := range views {
		if v.DisplayPrice == "Free" {
			free++
		}
	}

	where := ""
	if p := strings.TrimSpace(place); p != "" {
		where = " in " + p
	}
	out := fmt.Sprintf("We've curated %d upcoming AI events%s for you, spanning %s. "+
		"Whether you're looking to learn, build, or connect with the AI community, there's something here for you.",
		len(views), where, types)
	if free > 0 {
		out += fmt.Sprintf(" %d of them are completely free.", free)
	}
	return out
}

type pageData struct {
	Title     string
	Subtitle  string
	Intro     string
	Groups    []Group
	Total     int
	Generated string
}

// Render writes the newsletter HTML for views to w.
func Render(w io.Writer, views []event.View, opts Options) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "AI Events"
	}
	subtitle := opts.Subtitle
	if subtitle == "" {
		subtitle = now.Format("January 2006")
	}
	intro := opts.Intro
	if intro == "" {
		intro = Intro(views, opts.Place)
	}

	data := pageData{
		Title:     title,
		Subtitle:  subtitle,
		Intro:     intro,
		Groups:    GroupByType(views),
		Total:     len(views),
		Generated: now.Format("January 02, 2006"),
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render newsletter: %w", err)
	}
	return nil
}
