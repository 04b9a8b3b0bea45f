// Package mockeventbrite serves a scripted, Eventbrite-like search API for
// tests and local runs.
package mockeventbrite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SearchCall is the decoded body of one destination search request.
type SearchCall struct {
	Query        string
	Places       []string
	OnlineOnly   bool
	PageSize     int
	Continuation string
	Expand       []string
}

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
	// Search is set for destination search requests.
	Search *SearchCall
	// Status is the HTTP status the mock answered with.
	Status int
}

// Server implements the destination search and event lookup endpoints.
//
// Pages are served in order. Each non-final page carries a fresh random
// continuation token that maps to the next page, so clients cannot guess or
// construct tokens.
type Server struct {
	mu sync.Mutex

	pages  [][]map[string]any
	tokens map[string]int
	events map[string]map[string]any
	calls  []Call

	rateLimitNext int
	retryAfter    string

	expectedAuthorization string
}

// New constructs a server over the given result pages.
func New(pages ...[]map[string]any) *Server {
	s := &Server{
		tokens: make(map[string]int),
		events: make(map[string]map[string]any),
	}
	s.SetPages(pages...)
	return s
}

// SetPages replaces the scripted pages and forgets issued tokens.
func (s *Server) SetPages(pages ...[]map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = pages
	s.tokens = make(map[string]int)
	for _, page := range pages {
		for _, item := range page {
			if id, ok := item["id"].(string); ok && id != "" {
				if _, seen := s.events[id]; !seen {
					s.events[id] = item
				}
			}
		}
	}
}

// AddEvent registers an event for GET /events/{id}/.
func (s *Server) AddEvent(id string, raw map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[id] = raw
}

// RateLimitNext makes the next n search requests fail with 429. retryAfter is
// sent as the Retry-After header when non-empty.
func (s *Server) RateLimitNext(n int, retryAfter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimitNext = n
	s.retryAfter = strings.TrimSpace(retryAfter)
}

// RequireBearerToken enforces that requests include an Authorization header matching the token.
// If token is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// Handler serves the API at the root and under /v3.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /destination/search/", s.handleSearch)
	api.HandleFunc("GET /events/{id}/", s.handleEvent)

	mux := http.NewServeMux()
	mux.Handle("/v3/", http.StripPrefix("/v3", api))
	mux.Handle("/", api)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// SearchCalls returns only the destination search calls, in order.
func (s *Server) SearchCalls() []SearchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SearchCall
	for _, c := range s.calls {
		if c.Search != nil {
			out = append(out, *c.Search)
		}
	}
	return out
}

func (s *Server) record(r *http.Request, search *SearchCall, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Search: search, Status: status})
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAuthorization
	s.mu.Unlock()
	return expected == "" || r.Header.Get("Authorization") == expected
}

type searchBody struct {
	EventSearch struct {
		Q                string   `json:"q"`
		Places           []string `json:"places"`
		OnlineEventsOnly bool     `json:"online_events_only"`
		PageSize         int      `json:"page_size"`
		Continuation     string   `json:"continuation"`
	} `json:"event_search"`
	Expand []string `json:"expand.destination_event"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.record(r, nil, http.StatusUnauthorized)
		writeError(w, http.StatusUnauthorized, "NO_AUTH", "An OAuth token is required for this request.")
		return
	}

	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.record(r, nil, http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	call := &SearchCall{
		Query:        body.EventSearch.Q,
		Places:       body.EventSearch.Places,
		OnlineOnly:   body.EventSearch.OnlineEventsOnly,
		PageSize:     body.EventSearch.PageSize,
		Continuation: body.EventSearch.Continuation,
		Expand:       body.Expand,
	}

	s.mu.Lock()
	if s.rateLimitNext > 0 {
		s.rateLimitNext--
		retryAfter := s.retryAfter
		s.mu.Unlock()
		s.record(r, call, http.StatusTooManyRequests)
		if retryAfter != "" {
			w.Header().Set("Retry-After", retryAfter)
		}
		writeError(w, http.StatusTooManyRequests, "HIT_RATE_LIMIT", "Rate limit reached.")
		return
	}

	idx := 0
	if tok := call.Continuation; tok != "" {
		i, ok := s.tokens[tok]
		if !ok {
			s.mu.Unlock()
			s.record(r, call, http.StatusBadRequest)
			writeError(w, http.StatusBadRequest, "INVALID_CONTINUATION", "The continuation token is not valid.")
			return
		}
		idx = i
	}

	results := []map[string]any{}
	total := 0
	for _, p := range s.pages {
		total += len(p)
	}
	if idx < len(s.pages) {
		results = s.pages[idx]
	}
	pagination := map[string]any{
		"object_count":   total,
		"page_size":      call.PageSize,
		"has_more_items": false,
	}
	if idx+1 < len(s.pages) {
		tok := uuid.NewString()
		s.tokens[tok] = idx + 1
		pagination["continuation"] = tok
		pagination["has_more_items"] = true
	}
	s.mu.Unlock()

	s.record(r, call, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": map[string]any{
			"results":    results,
			"pagination": pagination,
		},
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.record(r, nil, http.StatusUnauthorized)
		writeError(w, http.StatusUnauthorized, "NO_AUTH", "An OAuth token is required for this request.")
		return
	}
	id := r.PathValue("id")

	s.mu.Lock()
	raw, ok := s.events[id]
	s.mu.Unlock()
	if !ok {
		s.record(r, nil, http.StatusNotFound)
		writeError(w, http.StatusNotFound, "NOT_FOUND", "The event you requested does not exist.")
		return
	}
	s.record(r, nil, http.StatusOK)
	writeJSON(w, http.StatusOK, raw)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]any{
		"status_code":       status,
		"error":             code,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LoadPagesDir reads page files (*.json, each a JSON array of result objects)
// from dir in lexical order.
func LoadPagesDir(dir string) ([][]map[string]any, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	pages := make([][]map[string]any, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read page file: %w", err)
		}
		var page []map[string]any
		if err := json.Unmarshal(b, &page); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(p), err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}
