// Package gemini writes event blurbs with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
	"google.golang.org/genai"
)

const maxBlurbLen = 280

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Writer struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Writer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Writer{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

// Write asks the model for a single-sentence description of v.
func (w *Writer) Write(ctx context.Context, v event.View) (string, error) {
	if strings.TrimSpace(v.Title) == "" {
		return "", errors.New("gemini: event has no title")
	}

	temp := float32(0.4)
	resp, err := w.client.Models.GenerateContent(
		ctx,
		w.model,
		genai.Text(buildPrompt(v)),
		&genai.GenerateContentConfig{
			CandidateCount:  1,
			Temperature:     &temp,
			MaxOutputTokens: 120,
		},
	)
	if err != nil {
		return "", classifyErr(err)
	}

	out := cleanBlurb(resp.Text())
	if out == "" {
		return "", errors.New("gemini: empty blurb")
	}
	return out, nil
}

func buildPrompt(v event.View) string {
	var b strings.Builder
	b.WriteString("Write one upbeat sentence (max 30 words) describing this event for a newsletter. ")
	b.WriteString("Return only the sentence, without quotes or markdown.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", v.Title)
	fmt.Fprintf(&b, "Type: %s\n", v.EventType)
	fmt.Fprintf(&b, "When: %s\n", v.DisplayDate)
	fmt.Fprintf(&b, "Where: %s\n", v.DisplayLocation)
	fmt.Fprintf(&b, "Price: %s\n", v.DisplayPrice)
	if s := strings.TrimSpace(v.Summary); s != "" {
		fmt.Fprintf(&b, "Summary: %s\n", s)
	}
	if len(v.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(v.Tags, ", "))
	}
	return b.String()
}

// cleanBlurb collapses the model output to one trimmed line.
func cleanBlurb(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, "\"'`*")
	s = strings.TrimSpace(s)
	if len(s) > maxBlurbLen {
		s = strings.TrimSpace(s[:maxBlurbLen]) + "..."
	}
	return s
}

func classifyErr(err error) error {
	// Transient failures are retried by the worker pool.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &core.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &core.TransientError{Err: err}
	}
	return err
}
