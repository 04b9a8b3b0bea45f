//go:build live_e2e

package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shpitdev/eventbrite-extractor/internal/app"
	"github.com/shpitdev/eventbrite-extractor/internal/version"
	"github.com/shpitdev/eventbrite-extractor/pkg/blurb"
	"github.com/shpitdev/eventbrite-extractor/pkg/blurb/gemini"
	"github.com/shpitdev/eventbrite-extractor/pkg/eventbrite"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/backoff"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/retrieve"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/transform"
)

func TestRunExtract_LiveEventbrite(t *testing.T) {
	token := os.Getenv("EVENTBRITE_API_KEY")
	if token == "" {
		t.Fatalf("EVENTBRITE_API_KEY is required for live_e2e tests")
	}

	ctx := context.Background()
	client, err := eventbrite.NewClient(os.Getenv("EVENTBRITE_BASE_URL"), token, eventbrite.Options{
		Timeout:   30 * time.Second,
		UserAgent: version.UserAgent(),
	})
	if err != nil {
		t.Fatalf("create eventbrite client: %v", err)
	}

	baseDir := t.TempDir()
	if artifactDir := os.Getenv("LIVE_E2E_ARTIFACT_DIR"); artifactDir != "" {
		if err := os.MkdirAll(artifactDir, 0755); err != nil {
			t.Fatalf("create LIVE_E2E_ARTIFACT_DIR: %v", err)
		}
		baseDir = artifactDir
	}

	cfg := app.ExtractConfig{
		Query:      retrieve.Query{Keyword: "AI", Location: "85977539"},
		PlaceLabel: "NYC",
		Retrieve: retrieve.Options{
			MaxPages:    2,
			PageSize:    20,
			MaxAttempts: 3,
			Backoff:     backoff.Policy{Initial: 2 * time.Second, Max: 30 * time.Second},
		},
		Transform:      transform.DefaultOptions(),
		WriteJSON:      true,
		WriteCSV:       true,
		Raw:            true,
		OutputDir:      filepath.Join(baseDir, "output"),
		NewsletterPath: filepath.Join(baseDir, "newsletter.html"),
		MetricsFile:    filepath.Join(baseDir, "extractor.prom"),
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			t.Fatalf("GEMINI_MODEL is required when GEMINI_API_KEY is set")
		}
		w, err := gemini.New(ctx, gemini.Config{APIKey: apiKey, Model: model, BaseURL: os.Getenv("GEMINI_BASE_URL")})
		if err != nil {
			t.Fatalf("create gemini writer: %v", err)
		}
		cfg.BlurbWriter = w
		cfg.Blurbs = blurb.Options{Workers: 2, MaxAttempts: 3, RequestTimeout: 60 * time.Second}
	}

	res, err := app.RunExtract(ctx, client, cfg, nil)
	if err != nil {
		t.Fatalf("RunExtract: %v", err)
	}
	if len(res.Records) == 0 {
		t.Fatalf("expected at least one event from live search")
	}
	seen := make(map[string]bool)
	for _, r := range res.Records {
		if seen[r.EventID] {
			t.Fatalf("duplicate event id %s in retrieval output", r.EventID)
		}
		seen[r.EventID] = true
	}
	for _, v := range res.Views {
		if v.DisplayDate == "" || v.DisplayLocation == "" || v.DisplayPrice == "" || v.EventType == "" {
			t.Fatalf("view missing derived fields: %#v", v)
		}
	}
	t.Logf("live run %s: raw=%d views=%d files=%v", res.RunID, len(res.Records), len(res.Views), res.Files)
}
