package newsletter_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/newsletter"
)

func view(id, typ, price string) event.View {
	return event.View{
		Record:          event.Record{EventID: id, Title: "Event " + id, URL: "https://example.com/e/" + id},
		EventType:       typ,
		DisplayPrice:    price,
		DisplayDate:     "Wed, Mar 4 at 10:00 AM",
		DisplayLocation: "Online",
	}
}

func TestGroupByType_Order(t *testing.T) {
	t.Parallel()

	groups := newsletter.GroupByType([]event.View{
		view("1", "Meetup", "Free"),
		view("2", "Robotics", "Paid"),
		view("3", "Conference", "Paid"),
		view("4", "Meetup", "Paid"),
		view("5", "", "Paid"),
		view("6", "Art", "Paid"),
	})

	var got []string
	for _, g := range groups {
		got = append(got, g.Type)
	}
	want := []string{"Conference", "Meetup", "Event", "Art", "Robotics"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("group order = %v, want %v", got, want)
	}
	if len(groups[1].Events) != 2 || groups[1].Events[0].EventID != "1" || groups[1].Events[1].EventID != "4" {
		t.Fatalf("meetup group should keep input order: %#v", groups[1].Events)
	}
}

func TestIntro(t *testing.T) {
	t.Parallel()

	got := newsletter.Intro([]event.View{
		view("1", "Workshop", "Free"),
		view("2", "Conference", "$10 USD"),
		view("3", "Talk", "Free"),
	}, "New York City")
	for _, want := range []string{
		"curated 3 upcoming AI events in New York City",
		"spanning conferences, workshops, and talks.",
		"2 of them are completely free.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("intro missing %q: %s", want, got)
		}
	}

	single := newsletter.Intro([]event.View{view("1", "Meetup", "Paid")}, "")
	if !strings.Contains(single, "spanning meetups.") || strings.Contains(single, "free") {
		t.Fatalf("unexpected single-type intro: %s", single)
	}
	if empty := newsletter.Intro(nil, ""); !strings.Contains(empty, "spanning events.") {
		t.Fatalf("unexpected empty intro: %s", empty)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	v := view("1", "Workshop", "Free")
	v.Title = `<script>alert("x")</script> Build Agents`
	v.Blurb = "Hands-on agents for everyone."
	v2 := view("2", "Conference", "$25 USD")
	v2.Summary = "A full day of talks."

	var buf bytes.Buffer
	err := newsletter.Render(&buf, []event.View{v, v2}, newsletter.Options{
		Title: "AI Events in NYC",
		Now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<title>AI Events in NYC</title>",
		"March 2026",
		"generated March 01, 2026",
		"Hands-on agents for everyone.",
		"A full day of talks.",
		`class="price-free"`,
		"Workshop (1)",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q", want)
		}
	}
	if strings.Contains(html, "<script>alert") {
		t.Fatalf("title was not escaped")
	}
	if strings.Index(html, "Conference (1)") > strings.Index(html, "Workshop (1)") {
		t.Fatalf("conference section should precede workshop section")
	}
}
