// Package blurb attaches short newsletter descriptions to event views using a
// pluggable Writer, fanned out over the shared worker pool.
package blurb

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/metrics"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/backoff"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/redact"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/worker"
)

// Writer produces a one-sentence blurb for a view. Retryable failures should
// be returned as *core.TransientError.
type Writer interface {
	Write(ctx context.Context, v event.View) (string, error)
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, v event.View) (string, error)

func (f WriterFunc) Write(ctx context.Context, v event.View) (string, error) {
	return f(ctx, v)
}

type Options struct {
	Workers        int
	MaxAttempts    int
	RequestTimeout time.Duration
	RateLimitRPS   float64
	Backoff        backoff.Policy

	// FailFast aborts on the first failed blurb. Otherwise failures leave Blurb empty.
	FailFast bool

	Logger  *log.Logger
	Metrics *metrics.Pipeline
}

// Annotate returns copies of views with Blurb filled in, in input order.
func Annotate(ctx context.Context, views []event.View, w Writer, opts Options) ([]event.View, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	policy := worker.FailurePolicyPartialOutput
	if opts.FailFast {
		policy = worker.FailurePolicyFailFast
	}

	proc := core.ProcessFunc[event.View, string](w.Write)
	onResult := func(res worker.Result[event.View, string]) error {
		if res.Err != nil {
			opts.Metrics.BlurbResult("error")
			logger.Printf("blurb failed: id=%s attempts=%d err=%s", res.Input.EventID, res.Attempts, redact.Secrets(res.Err.Error()))
			return nil
		}
		opts.Metrics.BlurbResult("ok")
		return nil
	}

	results, err := worker.ProcessAllWithCallback(ctx, views, proc, onResult, worker.Options{
		Workers:        opts.Workers,
		MaxAttempts:    opts.MaxAttempts,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
		FailurePolicy:  policy,
		Backoff:        opts.Backoff,
	})
	if err != nil {
		return nil, err
	}

	out := make([]event.View, len(views))
	written := 0
	for i, res := range results {
		out[i] = views[i]
		if res.Err == nil {
			out[i].Blurb = res.Output
			written++
		}
	}
	logger.Printf("blurbs complete: views=%d written=%d failed=%d", len(views), written, len(views)-written)
	return out, nil
}
