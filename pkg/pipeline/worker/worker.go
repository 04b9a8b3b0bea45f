// Package worker fans a per-item processor out over a bounded pool with
// shared pacing and transient-error retries.
package worker

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/backoff"
	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
	"golang.org/x/time/rate"
)

type FailurePolicy int

const (
	// FailurePolicyPartialOutput records per-item errors and keeps going.
	FailurePolicyPartialOutput FailurePolicy = iota
	// FailurePolicyFailFast cancels the run on the first item error.
	FailurePolicyFailFast
)

type Options struct {
	Workers int
	// MaxAttempts is the total number of tries per item, including the first.
	MaxAttempts    int
	RequestTimeout time.Duration

	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64

	FailurePolicy FailurePolicy
	Backoff       backoff.Policy
}

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Index    int
	Input    In
	Output   Out
	Err      error
	Attempts int
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.Backoff.Initial <= 0 {
		o.Backoff.Initial = 200 * time.Millisecond
	}
	if o.Backoff.Max <= 0 {
		o.Backoff.Max = 2 * time.Second
	}
	return o
}

// ProcessAll runs p over every item and returns results in input order.
func ProcessAll[In any, Out any](
	ctx context.Context,
	items []In,
	p core.Processor[In, Out],
	opts Options,
) ([]Result[In, Out], error) {
	return ProcessAllWithCallback(ctx, items, p, nil, opts)
}

// ProcessAllWithCallback is ProcessAll with onResult invoked as each item
// completes, in completion order. A callback error stops the run.
func ProcessAllWithCallback[In any, Out any](
	ctx context.Context,
	items []In,
	p core.Processor[In, Out],
	onResult func(Result[In, Out]) error,
	opts Options,
) ([]Result[In, Out], error) {
	opts = opts.withDefaults()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	out := make([]Result[In, Out], len(items))
	jobs := make(chan int)
	done := make(chan Result[In, Out], opts.Workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for range opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if runCtx.Err() != nil {
					return
				}
				res := process(runCtx, idx, items[idx], p, limiter, opts)
				select {
				case done <- res:
				case <-runCtx.Done():
					return
				}
				if res.Err != nil && opts.FailurePolicy == FailurePolicyFailFast {
					fail(res.Err)
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range items {
			select {
			case jobs <- i:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	for res := range done {
		out[res.Index] = res
		if onResult != nil {
			if err := onResult(res); err != nil {
				fail(err)
			}
		}
	}

	mu.Lock()
	err := firstErr
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func process[In any, Out any](
	ctx context.Context,
	idx int,
	item In,
	p core.Processor[In, Out],
	limiter *rate.Limiter,
	opts Options,
) Result[In, Out] {
	res := Result[In, Out]{Index: idx, Input: item}
	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				res.Err = err
				return res
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, opts.RequestTimeout)
		res.Output, res.Err = p.Process(reqCtx, item)
		cancel()

		if res.Err == nil {
			return res
		}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
		if !IsTransient(res.Err) || attempt >= opts.MaxAttempts {
			return res
		}
		if err := backoff.Sleep(ctx, opts.Backoff.Delay(attempt-1)); err != nil {
			res.Err = err
			return res
		}
	}
}

// IsTransient reports whether err is worth another attempt: an explicit
// core.TransientError, a per-request deadline, or a timing-out network error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *core.TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
