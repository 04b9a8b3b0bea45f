package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shpitdev/eventbrite-extractor/internal/app"
	"github.com/shpitdev/eventbrite-extractor/internal/version"
	"github.com/shpitdev/eventbrite-extractor/pkg/blurb"
	"github.com/shpitdev/eventbrite-extractor/pkg/blurb/gemini"
	"github.com/shpitdev/eventbrite-extractor/pkg/eventbrite"
	"github.com/shpitdev/eventbrite-extractor/pkg/newsletter"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/redact"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/retrieve"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/transform"
)

const (
	defaultPlaceID = "85977539"
	noPlace        = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
	case "version", "--version":
		_, _ = fmt.Fprintf(os.Stdout, "eventbrite-extractor %s\n", version.Current)
	case "extract":
		code = runExtract(ctx, os.Args[2:])
	case "lookup":
		code = runLookup(ctx, os.Args[2:])
	case "render":
		code = runRender(os.Args[2:])
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		code = 2
	}
	stop()
	os.Exit(code)
}

func runExtract(ctx context.Context, args []string) int {
	env, err := loadEnv()
	if err != nil {
		return configError(err)
	}

	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		query            string
		pages            int
		pageSize         int
		placeID          string
		onlineOnly       bool
		sortBy           string
		freeFirst        bool
		includeCancelled bool
		includePast      bool
		format           string
		outputDir        string
		categoriesPath   string
		metricsFile      string
		withBlurbs       bool
		failFast         bool
		newsletterPath   string
		newsletterTitle  string
		raw              bool
	)
	fs.StringVar(&query, "q", "AI", "Search keyword (shorthand)")
	fs.StringVar(&query, "query", "AI", "Search keyword")
	fs.IntVar(&pages, "pages", 3, "Maximum number of result pages to fetch")
	fs.IntVar(&pageSize, "page-size", 20, fmt.Sprintf("Results per page (max %d)", retrieve.MaxPageSize))
	fs.StringVar(&placeID, "place-id", defaultPlaceID, `Eventbrite place id to search; "none" searches worldwide`)
	fs.BoolVar(&onlineOnly, "online-only", false, "Only online events")
	fs.StringVar(&sortBy, "sort-by", string(transform.SortByDate), "Sort key: date or title")
	fs.BoolVar(&freeFirst, "free-first", false, "List free events before paid ones")
	fs.BoolVar(&includeCancelled, "include-cancelled", false, "Keep cancelled events")
	fs.BoolVar(&includePast, "include-past", false, "Keep events that started before today")
	fs.StringVar(&format, "format", "both", "Export format: json, csv, or both")
	fs.StringVar(&outputDir, "o", "output", "Output directory (shorthand)")
	fs.StringVar(&outputDir, "output-dir", "output", "Output directory")
	fs.StringVar(&categoriesPath, "categories", "", "YAML event type table overriding the built-in one")
	fs.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	fs.BoolVar(&withBlurbs, "blurbs", false, "Generate one-line blurbs with Gemini (env: GEMINI_API_KEY, GEMINI_MODEL)")
	fs.BoolVar(&failFast, "fail-fast", env.FailFast, "Fail the run on the first blurb error (env: FAIL_FAST)")
	fs.StringVar(&newsletterPath, "newsletter", "", "Also render an HTML newsletter to this path")
	fs.StringVar(&newsletterTitle, "title", "", "Newsletter title")
	fs.BoolVar(&raw, "raw", false, "Also export untransformed records")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "extract: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}

	writeJSON, writeCSV, err := parseFormat(format)
	if err != nil {
		return configError(err)
	}
	key, err := transform.ParseSortKey(sortBy)
	if err != nil {
		return configError(err)
	}
	if pages < 1 || pageSize < 1 {
		return configError(errors.New("--pages and --page-size must be positive"))
	}
	if pageSize > retrieve.MaxPageSize {
		_, _ = fmt.Fprintf(os.Stderr, "warning: --page-size %d exceeds %d, capping\n", pageSize, retrieve.MaxPageSize)
	}

	classifier, err := loadClassifier(categoriesPath)
	if err != nil {
		return configError(err)
	}

	client, err := newClient(env)
	if err != nil {
		return configError(err)
	}

	location, label := resolvePlace(placeID)
	topts := transform.DefaultOptions()
	topts.RemoveCancelled = !includeCancelled
	topts.RemovePast = !includePast
	topts.SortBy = key
	topts.FreeFirst = freeFirst
	topts.Classifier = classifier

	cfg := app.ExtractConfig{
		Query:      retrieve.Query{Keyword: strings.TrimSpace(query), Location: location, OnlineOnly: onlineOnly},
		PlaceLabel: label,
		Retrieve: retrieve.Options{
			MaxPages:     pages,
			PageSize:     pageSize,
			MaxAttempts:  env.MaxAttempts,
			Backoff:      env.Backoff,
			RateLimitRPS: env.RateLimitRPS,
		},
		Transform:       topts,
		WriteJSON:       writeJSON,
		WriteCSV:        writeCSV,
		Raw:             raw,
		OutputDir:       outputDir,
		NewsletterPath:  newsletterPath,
		NewsletterTitle: newsletterTitle,
		MetricsFile:     metricsFile,
	}

	if withBlurbs {
		w, err := gemini.New(ctx, gemini.Config{
			APIKey:  env.GeminiAPIKey,
			Model:   env.GeminiModel,
			BaseURL: env.GeminiBaseURL,
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", redact.Secrets(err.Error()))
			return 2
		}
		cfg.BlurbWriter = w
		cfg.Blurbs = blurb.Options{
			Workers:        env.Workers,
			MaxAttempts:    env.MaxAttempts,
			RequestTimeout: env.RequestTimeout,
			RateLimitRPS:   env.RateLimitRPS,
			Backoff:        env.blurbBackoff(),
			FailFast:       failFast,
		}
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	res, err := app.RunExtract(ctx, client, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "extract failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	if len(res.Views) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No events to report.")
		return 0
	}
	if err := app.PrintSummary(os.Stdout, res.Views, len(res.Records), label); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "print summary: %v\n", err)
		return 1
	}
	return 0
}

func runLookup(ctx context.Context, args []string) int {
	env, err := loadEnv()
	if err != nil {
		return configError(err)
	}

	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Eventbrite event id")
	categoriesPath := fs.String("categories", "", "YAML event type table overriding the built-in one")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*id) == "" {
		_, _ = fmt.Fprintln(os.Stderr, "lookup requires --id")
		return 2
	}

	classifier, err := loadClassifier(*categoriesPath)
	if err != nil {
		return configError(err)
	}
	client, err := newClient(env)
	if err != nil {
		return configError(err)
	}

	if _, err := app.RunLookup(ctx, client, strings.TrimSpace(*id), classifier, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "lookup failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

func runRender(args []string) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	input := fs.String("input", "", "Exported events file (.json or .csv)")
	output := fs.String("output", "", "Output HTML file path")
	title := fs.String("title", "", "Newsletter title")
	subtitle := fs.String("subtitle", "", "Newsletter subtitle (default: current month)")
	place := fs.String("place", "", "Area named in the introduction")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *input == "" || *output == "" {
		_, _ = fmt.Fprintln(os.Stderr, "render requires --input and --output")
		return 2
	}

	n, err := app.RunRender(*input, *output, newsletter.Options{Title: *title, Subtitle: *subtitle, Place: *place})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(os.Stdout, "rendered %d events to %s\n", n, *output)
	return 0
}

func newClient(env config) (*eventbrite.Client, error) {
	token, err := apiKey(env.EventbriteAPIKey)
	if err != nil {
		return nil, err
	}
	return eventbrite.NewClient(env.EventbriteBaseURL, token, eventbrite.Options{
		Timeout:   env.RequestTimeout,
		UserAgent: version.UserAgent(),
	})
}

func loadClassifier(path string) (*transform.Classifier, error) {
	if strings.TrimSpace(path) == "" {
		return transform.DefaultClassifier(), nil
	}
	table, err := transform.LoadTableFile(path)
	if err != nil {
		return nil, err
	}
	return transform.NewClassifier(table)
}

// resolvePlace maps the --place-id flag to a search location and a display label.
func resolvePlace(placeID string) (location, label string) {
	placeID = strings.TrimSpace(placeID)
	switch {
	case placeID == "" || strings.EqualFold(placeID, noPlace):
		return "", "worldwide"
	case placeID == defaultPlaceID:
		return placeID, "NYC"
	default:
		return placeID, "place " + placeID
	}
}

func parseFormat(s string) (writeJSON, writeCSV bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return true, false, nil
	case "csv":
		return false, true, nil
	case "both", "":
		return true, true, nil
	default:
		return false, false, fmt.Errorf("invalid --format %q (want json, csv, or both)", s)
	}
}

func configError(err error) int {
	_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
	return 2
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintf(w, `eventbrite-extractor %s: search Eventbrite for events and export curated lists

Usage:
  eventbrite-extractor <command> [flags]

Commands:
  extract  Search, filter, sort, classify, and export events
  lookup   Fetch one event by id and print its enriched view as JSON
  render   Render an exported events file as an HTML newsletter
  version  Print the version

Examples:
  eventbrite-extractor extract -q "machine learning" --pages 5 --free-first
  eventbrite-extractor extract --place-id none --online-only --format json --newsletter out/news.html
  eventbrite-extractor lookup --id 1234567890
  eventbrite-extractor render --input output/events.json --output newsletter.html

Environment:
  EVENTBRITE_API_KEY   Private token (prompted for when unset and stdin is a terminal)
  EVENTBRITE_BASE_URL  API base URL override (default %s)
  REQUEST_TIMEOUT      Per-request timeout (default 30s)
  MAX_ATTEMPTS         Attempts per rate-limited page or failed blurb (default 3)
  BACKOFF_BASE         First retry delay (default 2s)
  BACKOFF_MAX          Retry delay cap (default 30s)
  RATE_LIMIT_RPS       Request pacing in requests per second, 0 disables (default 0)
  WORKERS              Concurrent blurb workers (default 4)
  FAIL_FAST            Fail on the first blurb error (default false)
  GEMINI_API_KEY       Gemini API key (required with --blurbs)
  GEMINI_MODEL         Gemini model name (default %s)
  GEMINI_BASE_URL      Optional Gemini base URL override (proxies/testing)

`, version.Current, eventbrite.DefaultBaseURL, defaultGeminiModel)
}
