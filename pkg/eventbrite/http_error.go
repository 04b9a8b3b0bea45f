package eventbrite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/redact"
)

// errorEnvelope is the error body shape returned by the Eventbrite v3 API.
type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// HTTPError is a sanitized summary of a non-2xx Eventbrite API response.
//
// Raw response bodies are never kept: they can echo tokens back.
type HTTPError struct {
	Op          string
	StatusCode  int
	Status      string
	ErrorCode   string
	Description string

	// Snippet is a redacted, truncated hint for bodies without an error envelope.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "eventbrite http error"
	}
	parts := []string{
		fmt.Sprintf("eventbrite api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if e.ErrorCode != "" {
		parts = append(parts, "error="+e.ErrorCode)
	}
	if e.Description != "" {
		parts = append(parts, "description="+e.Description)
	}
	if e.Snippet != "" {
		parts = append(parts, "body="+e.Snippet)
	}
	return strings.Join(parts, " ")
}

func newHTTPError(op string, resp *http.Response, body []byte) *HTTPError {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		h.ErrorCode = strings.TrimSpace(env.Error)
		h.Description = truncate(redact.Secrets(env.ErrorDescription), 256)
		if h.ErrorCode != "" || h.Description != "" {
			return h
		}
	}

	h.Snippet = redactAndTruncate(body)
	return h
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
