package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shpitdev/eventbrite-extractor/pkg/blurb"
	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/metrics"
	"github.com/shpitdev/eventbrite-extractor/pkg/newsletter"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
	localio "github.com/shpitdev/eventbrite-extractor/pkg/pipeline/io/local"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/redact"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/retrieve"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/transform"
)

// ExtractConfig is one extract run: search, transform, optional blurbs, then export.
type ExtractConfig struct {
	Query retrieve.Query
	// PlaceLabel names the searched area in logs, the summary, and the newsletter.
	PlaceLabel string

	Retrieve  retrieve.Options
	Transform transform.Options

	WriteJSON bool
	WriteCSV  bool
	// Raw also exports the untransformed records.
	Raw       bool
	OutputDir string

	// NewsletterPath renders an HTML newsletter when set.
	NewsletterPath  string
	NewsletterTitle string

	// BlurbWriter enables the blurb stage when non-nil.
	BlurbWriter blurb.Writer
	Blurbs      blurb.Options

	// MetricsFile writes a Prometheus textfile when set, on success and failure.
	MetricsFile string
}

// ExtractResult reports what a run produced.
type ExtractResult struct {
	RunID   string
	Records []event.Record
	Views   []event.View
	Files   []string
}

// RunExtract retrieves, transforms, and exports events. Output files are only
// written once every stage has succeeded.
func RunExtract(ctx context.Context, searcher core.Searcher, cfg ExtractConfig, logger *log.Logger) (res ExtractResult, err error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	res.RunID = uuid.NewString()
	logf := func(format string, args ...any) {
		logger.Printf("run=%s "+format, append([]any{res.RunID}, args...)...)
	}
	runStart := time.Now()

	m := metrics.New()
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
				logf("metrics write failed: %s", werr)
				if err == nil {
					err = werr
				}
			}
		}()
	}

	label := cfg.PlaceLabel
	if label == "" {
		label = "worldwide"
	}
	ropts := cfg.Retrieve
	ropts.Logger = prefixed(logger, res.RunID)
	ropts.Metrics = m
	logf("extract start: q=%q place=%s onlineOnly=%t maxPages=%d pageSize=%d maxAttempts=%d",
		cfg.Query.Keyword, label, cfg.Query.OnlineOnly, ropts.MaxPages, ropts.PageSize, ropts.MaxAttempts)

	retrieveStart := time.Now()
	records, err := retrieve.New(newTracedSearcher(searcher, logger, res.RunID), ropts).Retrieve(ctx, cfg.Query)
	if err != nil {
		logf("retrieve failed: %s", redact.Secrets(err.Error()))
		return res, fmt.Errorf("retrieve: %w", err)
	}
	res.Records = records
	logf("retrieved %d unique events in %s", len(records), time.Since(retrieveStart).Round(time.Millisecond))
	if len(records) == 0 {
		logf("no events found for query %q", cfg.Query.Keyword)
		return res, nil
	}

	topts := cfg.Transform
	topts.Logger = prefixed(logger, res.RunID)
	topts.Metrics = m
	views, err := transform.Transform(records, topts)
	if err != nil {
		return res, fmt.Errorf("transform: %w", err)
	}
	if len(views) == 0 {
		logf("no events remaining after filtering")
		res.Views = views
		return res, nil
	}

	if cfg.BlurbWriter != nil {
		bopts := cfg.Blurbs
		bopts.Logger = prefixed(logger, res.RunID)
		bopts.Metrics = m
		blurbStart := time.Now()
		views, err = blurb.Annotate(ctx, views, cfg.BlurbWriter, bopts)
		if err != nil {
			return res, fmt.Errorf("blurbs: %w", err)
		}
		logf("blurbs done in %s", time.Since(blurbStart).Round(time.Millisecond))
	}
	res.Views = views

	files, err := export(cfg, records, views, label)
	if err != nil {
		return res, err
	}
	res.Files = files
	for _, f := range files {
		logf("wrote %s", f)
	}
	logf("extract complete: raw=%d views=%d files=%d duration=%s", len(records), len(views), len(files), time.Since(runStart).Round(time.Millisecond))
	return res, nil
}

func export(cfg ExtractConfig, records []event.Record, views []event.View, label string) ([]string, error) {
	type output struct {
		path string
		fill func(*bytes.Buffer) error
	}
	var outs []output
	add := func(name string, fill func(*bytes.Buffer) error) {
		outs = append(outs, output{path: filepath.Join(cfg.OutputDir, name), fill: fill})
	}

	if cfg.WriteJSON {
		add("events.json", func(b *bytes.Buffer) error { return localio.WriteJSON(b, views) })
		if cfg.Raw {
			add("events_raw.json", func(b *bytes.Buffer) error { return localio.WriteJSON(b, records) })
		}
	}
	if cfg.WriteCSV {
		add("events.csv", func(b *bytes.Buffer) error { return localio.WriteViewsCSV(b, views) })
		if cfg.Raw {
			add("events_raw.csv", func(b *bytes.Buffer) error { return localio.WriteRecordsCSV(b, records) })
		}
	}
	if cfg.NewsletterPath != "" {
		outs = append(outs, output{path: cfg.NewsletterPath, fill: func(b *bytes.Buffer) error {
			return newsletter.Render(b, views, newsletter.Options{Title: cfg.NewsletterTitle, Place: label})
		}})
	}

	// Render everything before touching the disk, then treat the set of files
	// as one unit: a failed write removes the files this run already wrote.
	rendered := make([][]byte, len(outs))
	for i, o := range outs {
		var buf bytes.Buffer
		if err := o.fill(&buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", o.path, err)
		}
		rendered[i] = buf.Bytes()
	}

	files := make([]string, 0, len(outs))
	for i, o := range outs {
		err := localio.WriteFileAtomic(o.path, func(b *bytes.Buffer) error {
			_, err := b.Write(rendered[i])
			return err
		})
		if err != nil {
			for _, f := range files {
				_ = os.Remove(f)
			}
			return nil, fmt.Errorf("write %s: %w", o.path, err)
		}
		files = append(files, o.path)
	}
	return files, nil
}

// prefixed returns a logger that tags library log lines with the run id.
func prefixed(l *log.Logger, runID string) *log.Logger {
	return log.New(l.Writer(), l.Prefix()+"run="+runID+" ", l.Flags()|log.Lmsgprefix)
}
