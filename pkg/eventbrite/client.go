// Package eventbrite is an HTTP client for the Eventbrite v3 destination search
// and event endpoints. It implements core.Searcher.
package eventbrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
)

// DefaultBaseURL is the public Eventbrite v3 API root.
const DefaultBaseURL = "https://www.eventbriteapi.com/v3/"

// ErrEventNotFound is returned by GetEvent for an unknown event id.
var ErrEventNotFound = errors.New("eventbrite: event not found")

// DefaultExpansions are the destination_event expansions requested with every search.
var DefaultExpansions = []string{
	"event_sales_status",
	"image",
	"primary_venue",
	"saves",
	"ticket_availability",
	"primary_organizer",
	"public_collections",
}

// Options configures a Client. Zero values pick sensible defaults.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	Expansions []string
	HTTPClient *http.Client
}

// Client talks to the Eventbrite API with a private token.
type Client struct {
	baseURL    *url.URL
	token      string
	userAgent  string
	expansions []string
	http       *http.Client
}

var _ core.Searcher = (*Client)(nil)

// NewClient constructs a client. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL, token string, opts Options) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("eventbrite api token is required")
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   timeout,
		}
	}
	expansions := opts.Expansions
	if len(expansions) == 0 {
		expansions = DefaultExpansions
	}
	return &Client{
		baseURL:    base,
		token:      token,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		expansions: append([]string(nil), expansions...),
		http:       hc,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse eventbrite base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("eventbrite base URL must include a host (got %q)", raw)
	}
	// Trailing slash so ResolveReference treats the base path as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func (c *Client) resolve(rel string) *url.URL {
	return c.baseURL.ResolveReference(&url.URL{Path: rel})
}

type searchBody struct {
	EventSearch eventSearch `json:"event_search"`
	Expand      []string    `json:"expand.destination_event,omitempty"`
}

type eventSearch struct {
	Q                string   `json:"q,omitempty"`
	Places           []string `json:"places,omitempty"`
	OnlineEventsOnly bool     `json:"online_events_only,omitempty"`
	PageSize         int      `json:"page_size,omitempty"`
	Continuation     string   `json:"continuation,omitempty"`
}

type searchResponse struct {
	Events struct {
		Results    []map[string]any `json:"results"`
		Pagination struct {
			ObjectCount  int    `json:"object_count"`
			Continuation string `json:"continuation"`
			HasMoreItems *bool  `json:"has_more_items"`
		} `json:"pagination"`
	} `json:"events"`
}

// Search requests one page of destination search results.
//
// HTTP 429 is not an error: it comes back as a Page with RateLimited set so the
// retriever can apply its backoff policy.
func (c *Client) Search(ctx context.Context, req core.SearchRequest) (core.Page, error) {
	body := searchBody{
		EventSearch: eventSearch{
			Q:                strings.TrimSpace(req.Query),
			OnlineEventsOnly: req.OnlineOnly,
			PageSize:         req.PageSize,
			Continuation:     req.Continuation,
		},
		Expand: c.expansions,
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		body.EventSearch.Places = []string{loc}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return core.Page{}, fmt.Errorf("encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve("destination/search/").String(), bytes.NewReader(payload))
	if err != nil {
		return core.Page{}, err
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, b, err := c.do(httpReq)
	if err != nil {
		return core.Page{}, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return core.Page{RateLimited: true, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())}, nil
	}
	if resp.StatusCode/100 != 2 {
		return core.Page{}, newHTTPError("search", resp, b)
	}

	var out searchResponse
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return core.Page{}, fmt.Errorf("parse search response: %w", err)
	}

	page := core.Page{Records: out.Events.Results}
	if page.Records == nil {
		page.Records = []map[string]any{}
	}
	more := out.Events.Pagination.HasMoreItems
	if more == nil || *more {
		page.Continuation = strings.TrimSpace(out.Events.Pagination.Continuation)
	}
	return page, nil
}

// GetEvent fetches one event and returns it in the destination search shape
// accepted by event.Parse.
func (c *Client) GetEvent(ctx context.Context, id string) (map[string]any, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	u := c.resolve("events/" + url.PathEscape(id) + "/")
	q := url.Values{}
	q.Set("expand", "venue,organizer,ticket_availability,category,logo")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, b, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError("getEvent", resp, b)
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse event response: %w", err)
	}
	return DestinationShape(raw), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, b, nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Zero means no hint.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
