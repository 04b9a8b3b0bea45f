package core

import (
	"context"
	"time"
)

// SearchRequest is one page request against the upstream search index.
type SearchRequest struct {
	Query string
	// Location is an opaque location identifier. Empty means worldwide.
	Location   string
	OnlineOnly bool
	PageSize   int
	// Continuation is the opaque token from the previous page, empty on the first request.
	Continuation string
}

// Page is the transport-level result of one search request.
type Page struct {
	// Records are the raw result items, parsed later by the caller.
	Records []map[string]any
	// Continuation is the opaque token for the next page. Empty means no more results.
	Continuation string

	// RateLimited reports that the upstream asked the caller to slow down and retry.
	RateLimited bool
	// RetryAfter is the upstream's retry hint when RateLimited is set, zero if none.
	RetryAfter time.Duration
}

// Searcher performs a single search page request.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (Page, error)
}

// SearchFunc adapts a function to the Searcher interface.
type SearchFunc func(ctx context.Context, req SearchRequest) (Page, error)

func (f SearchFunc) Search(ctx context.Context, req SearchRequest) (Page, error) {
	return f(ctx, req)
}

// Processor transforms one input item into one output item.
type Processor[In any, Out any] interface {
	Process(ctx context.Context, in In) (Out, error)
}

// ProcessFunc adapts a function to the Processor interface.
type ProcessFunc[In any, Out any] func(ctx context.Context, in In) (Out, error)

func (f ProcessFunc[In, Out]) Process(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// TransientError marks an error as retryable by worker implementations.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
