// Package redact strips credentials from strings before they reach logs or stderr.
package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (Eventbrite private tokens and OAuth tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// key=value and key: value forms that leak through URLs and error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|token|access[_-]?token|eventbrite[_-]?api[_-]?key|gemini[_-]?api[_-]?key)\b\s*[:=]\s*["']?[^\s"'&]+`)

	// Google API keys appear bare in some client errors.
	googleKeyRe = regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := bearerTokenRe.ReplaceAllString(s, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "${1}=<redacted>")
	out = googleKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}
