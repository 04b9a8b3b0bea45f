// Package retrieve runs one logical search across continuation-token pages and
// returns the deduplicated records in first-seen order.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/metrics"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/backoff"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
	"golang.org/x/time/rate"
)

// MaxPageSize is the largest page size the upstream search accepts.
const MaxPageSize = 50

// DefaultMaxAttempts is the number of tries per rate-limited page when Options leaves it unset.
const DefaultMaxAttempts = 3

// ErrRateLimitExhausted is returned when a page stays rate limited for every allowed attempt.
var ErrRateLimitExhausted = errors.New("rate limit retries exhausted")

// PageError identifies the page and attempt a retrieval failed on.
type PageError struct {
	Page     int
	Attempts int
	Err      error
}

func (e *PageError) Error() string {
	if e == nil {
		return "retrieve page error"
	}
	return fmt.Sprintf("retrieve page %d (attempts=%d): %v", e.Page, e.Attempts, e.Err)
}

func (e *PageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Query is the logical search issued across all pages.
type Query struct {
	Keyword string
	// Location is forwarded as-is. Empty means worldwide.
	Location   string
	OnlineOnly bool
}

// Options tunes paging, rate-limit retries, and parsing. Zero values take defaults.
type Options struct {
	// MaxPages bounds the number of page requests (retries of the same page not counted).
	MaxPages int
	// PageSize is capped at MaxPageSize.
	PageSize int

	// MaxAttempts is the total number of tries for one page while it is rate limited.
	MaxAttempts int
	// Backoff schedules the delay between rate-limited attempts.
	Backoff backoff.Policy

	// RateLimitRPS paces page requests proactively. Set to <=0 to disable.
	RateLimitRPS float64

	// Parse turns one raw item into a record. Defaults to event.Parse.
	Parse func(map[string]any) (event.Record, error)

	Logger  *log.Logger
	Metrics *metrics.Pipeline
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = 1
	}
	if o.PageSize <= 0 || o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Backoff.Initial <= 0 {
		o.Backoff.Initial = time.Second
	}
	if o.Backoff.Max <= 0 {
		o.Backoff.Max = 30 * time.Second
	}
	if o.Parse == nil {
		o.Parse = event.Parse
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

// Retriever holds no state between Retrieve calls.
type Retriever struct {
	searcher core.Searcher
	opts     Options
}

// New returns a Retriever over searcher.
func New(searcher core.Searcher, opts Options) *Retriever {
	return &Retriever{searcher: searcher, opts: opts.withDefaults()}
}

// Retrieve fetches up to MaxPages pages for q, following continuation tokens,
// and returns each event_id once, first occurrence wins.
//
// It stops early when a page carries no continuation token. Any failure aborts
// the whole retrieval; no partial result is returned.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]event.Record, error) {
	opts := r.opts

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	seen := make(map[string]struct{})
	var out []event.Record
	token := ""

	for page := 1; page <= opts.MaxPages; page++ {
		req := core.SearchRequest{
			Query:        q.Keyword,
			Location:     q.Location,
			OnlineOnly:   q.OnlineOnly,
			PageSize:     opts.PageSize,
			Continuation: token,
		}

		resp, attempts, err := r.fetch(ctx, page, req, limiter)
		if err != nil {
			return nil, err
		}

		batch, skipped, err := r.parse(resp.Records)
		if err != nil {
			return nil, &PageError{Page: page, Attempts: attempts, Err: err}
		}

		added, dupes := 0, 0
		for _, rec := range batch {
			if _, ok := seen[rec.EventID]; ok {
				dupes++
				opts.Metrics.DuplicateDropped()
				continue
			}
			seen[rec.EventID] = struct{}{}
			out = append(out, rec)
			added++
		}
		opts.Metrics.PageFetched()
		opts.Logger.Printf("page=%d items=%d new=%d duplicates=%d skipped=%d total=%d", page, len(resp.Records), added, dupes, skipped, len(out))

		if resp.Continuation == "" {
			opts.Logger.Printf("page=%d no continuation token, search exhausted", page)
			break
		}
		token = resp.Continuation
	}

	opts.Metrics.RecordsEmitted(len(out))
	return out, nil
}

// fetch requests one page, retrying only while the upstream reports rate limiting.
func (r *Retriever) fetch(ctx context.Context, page int, req core.SearchRequest, limiter *rate.Limiter) (core.Page, int, error) {
	opts := r.opts
	for attempt := 1; ; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return core.Page{}, attempt, &PageError{Page: page, Attempts: attempt - 1, Err: err}
			}
		}

		resp, err := r.searcher.Search(ctx, req)
		if err != nil {
			return core.Page{}, attempt, &PageError{Page: page, Attempts: attempt, Err: err}
		}
		if !resp.RateLimited {
			return resp, attempt, nil
		}

		opts.Metrics.RateLimited()
		if attempt >= opts.MaxAttempts {
			return core.Page{}, attempt, &PageError{Page: page, Attempts: attempt, Err: ErrRateLimitExhausted}
		}

		delay := opts.Backoff.Delay(attempt - 1)
		if resp.RetryAfter > delay {
			delay = opts.Backoff.Cap(resp.RetryAfter)
		}
		opts.Logger.Printf("page=%d rate limited attempt=%d/%d retryIn=%s", page, attempt, opts.MaxAttempts, delay)
		if err := backoff.Sleep(ctx, delay); err != nil {
			return core.Page{}, attempt, &PageError{Page: page, Attempts: attempt, Err: err}
		}
	}
}

// parse converts a page's raw items into a page-local batch. Malformed items
// are skipped; an item without identity fails the page.
func (r *Retriever) parse(raw []map[string]any) ([]event.Record, int, error) {
	opts := r.opts
	batch := make([]event.Record, 0, len(raw))
	skipped := 0
	for i, item := range raw {
		rec, err := opts.Parse(item)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			if errors.Is(err, event.ErrMissingEventID) || errors.Is(err, event.ErrInvalidEventID) {
				return nil, skipped, fmt.Errorf("item %d: %w", i, err)
			}
			skipped++
			opts.Metrics.ItemSkipped()
			opts.Logger.Printf("skipping malformed item index=%d error=%q", i, err.Error())
			continue
		}
		batch = append(batch, rec)
	}
	return batch, skipped, nil
}
