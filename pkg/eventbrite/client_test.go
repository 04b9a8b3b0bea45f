package eventbrite_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/eventbrite"
	"github.com/shpitdev/eventbrite-extractor/pkg/mockeventbrite"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
)

func newClient(t *testing.T, baseURL string) *eventbrite.Client {
	t.Helper()
	c, err := eventbrite.NewClient(baseURL, "test-token", eventbrite.Options{Timeout: 5 * time.Second, UserAgent: "eventbrite-extractor/test"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClient_SearchPaginates(t *testing.T) {
	t.Parallel()

	srv := mockeventbrite.New(
		[]map[string]any{{"id": "1", "name": "A", "ticket_availability": map[string]any{"is_free": false, "minimum_ticket_price": map[string]any{"major_value": 12.5, "currency": "USD"}}}},
		[]map[string]any{{"id": "2", "name": "B"}},
	)
	srv.RequireBearerToken("test-token")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := newClient(t, ts.URL+"/v3")
	ctx := context.Background()

	first, err := c.Search(ctx, core.SearchRequest{Query: "AI", Location: "85977539", PageSize: 20})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(first.Records) != 1 || first.Continuation == "" || first.RateLimited {
		t.Fatalf("unexpected first page: %#v", first)
	}
	rec, err := event.Parse(first.Records[0])
	if err != nil {
		t.Fatalf("parse numeric price: %v", err)
	}
	if rec.Price != "12.5" {
		t.Fatalf("expected price preserved as 12.5, got %q", rec.Price)
	}

	second, err := c.Search(ctx, core.SearchRequest{Query: "AI", PageSize: 20, Continuation: first.Continuation})
	if err != nil {
		t.Fatalf("Search page 2: %v", err)
	}
	if len(second.Records) != 1 || second.Continuation != "" {
		t.Fatalf("unexpected last page: %#v", second)
	}

	calls := srv.SearchCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 search calls, got %d", len(calls))
	}
	if !slices.Equal(calls[0].Places, []string{"85977539"}) || calls[0].Query != "AI" || calls[0].PageSize != 20 {
		t.Fatalf("unexpected first request: %#v", calls[0])
	}
	if calls[1].Places != nil {
		t.Fatalf("worldwide search should omit places, got %v", calls[1].Places)
	}
	if calls[1].Continuation != first.Continuation {
		t.Fatalf("continuation not forwarded verbatim")
	}
	if !slices.Contains(calls[0].Expand, "ticket_availability") {
		t.Fatalf("expected default expansions, got %v", calls[0].Expand)
	}
}

func TestClient_SearchRateLimited(t *testing.T) {
	t.Parallel()

	srv := mockeventbrite.New([]map[string]any{{"id": "1"}})
	srv.RateLimitNext(1, "7")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	page, err := newClient(t, ts.URL).Search(context.Background(), core.SearchRequest{Query: "AI"})
	if err != nil {
		t.Fatalf("429 should not be an error: %v", err)
	}
	if !page.RateLimited || page.RetryAfter != 7*time.Second {
		t.Fatalf("unexpected page: %#v", page)
	}
}

func TestClient_SearchHTTPErrorIsSanitized(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded; request had Authorization: Bearer test-token\n" + strings.Repeat("x", 600)))
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).Search(context.Background(), core.SearchRequest{Query: "AI"})
	var he *eventbrite.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %T %v", err, err)
	}
	if he.StatusCode != http.StatusInternalServerError || he.Op != "search" {
		t.Fatalf("unexpected error fields: %#v", he)
	}
	msg := err.Error()
	if strings.Contains(msg, "test-token") {
		t.Fatalf("token leaked into error: %s", msg)
	}
	if !strings.HasSuffix(msg, "...") || len(msg) > 400 {
		t.Fatalf("expected truncated snippet, got %d chars", len(msg))
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := mockeventbrite.New()
	srv.RequireBearerToken("other-token")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, err := newClient(t, ts.URL).Search(context.Background(), core.SearchRequest{Query: "AI"})
	var he *eventbrite.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if he.ErrorCode != "NO_AUTH" || he.Snippet != "" {
		t.Fatalf("expected parsed envelope, got %#v", he)
	}
}

func TestClient_GetEvent(t *testing.T) {
	t.Parallel()

	srv := mockeventbrite.New()
	srv.AddEvent("77", map[string]any{
		"id":           "77",
		"name":         map[string]any{"text": "Classic Shape Workshop", "html": "<b>Classic</b>"},
		"start":        map[string]any{"timezone": "America/New_York", "local": "2026-03-04T10:00:00", "utc": "2026-03-04T15:00:00Z"},
		"end":          map[string]any{"timezone": "America/New_York", "local": "2026-03-04T12:30:00"},
		"online_event": true,
		"is_free":      true,
		"status":       "canceled",
		"venue":        map[string]any{"name": "Hall", "address": map[string]any{"city": "New York"}},
		"organizer":    map[string]any{"name": "Org", "id": "o1"},
		"logo":         map[string]any{"url": "https://img.example.com/77.png"},
		"category":     map[string]any{"name": "Science & Technology"},
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	c := newClient(t, ts.URL)

	raw, err := c.GetEvent(context.Background(), "77")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	rec, err := event.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Title != "Classic Shape Workshop" || rec.StartDate != "2026-03-04" || rec.StartTime != "10:00" || rec.EndTime != "12:30" {
		t.Fatalf("unexpected temporal fields: %#v", rec)
	}
	if !rec.IsOnline || !rec.IsFree || !rec.IsCancelled || rec.Timezone != "America/New_York" {
		t.Fatalf("unexpected flags: %#v", rec)
	}
	if rec.VenueName != "Hall" || rec.OrganizerID != "o1" || rec.ImageURL == "" || rec.Category != "Science & Technology" {
		t.Fatalf("unexpected nested fields: %#v", rec)
	}

	_, err = c.GetEvent(context.Background(), "nope")
	if !errors.Is(err, eventbrite.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	if _, err := eventbrite.NewClient("", "", eventbrite.Options{}); err == nil {
		t.Fatalf("expected missing token error")
	}
	if _, err := eventbrite.NewClient("http://", "tok", eventbrite.Options{}); err == nil {
		t.Fatalf("expected missing host error")
	}
	if _, err := eventbrite.NewClient("", "tok", eventbrite.Options{}); err != nil {
		t.Fatalf("default base URL should be accepted: %v", err)
	}
}
