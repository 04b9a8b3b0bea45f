package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/core"
)

// tracedSearcher logs every page request and response under the run id.
type tracedSearcher struct {
	next   core.Searcher
	logger *log.Logger
	runID  string

	mu       sync.Mutex
	attempts map[string]int
}

func newTracedSearcher(next core.Searcher, logger *log.Logger, runID string) *tracedSearcher {
	return &tracedSearcher{
		next:     next,
		logger:   logger,
		runID:    runID,
		attempts: make(map[string]int),
	}
}

func (t *tracedSearcher) Search(ctx context.Context, req core.SearchRequest) (core.Page, error) {
	attempt := t.nextAttempt(req.Continuation)
	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Printf(
		"run=%s search request: q=%q location=%q onlineOnly=%t pageSize=%d continuation=%t attempt=%d deadlineIn=%s",
		t.runID,
		req.Query,
		req.Location,
		req.OnlineOnly,
		req.PageSize,
		req.Continuation != "",
		attempt,
		deadlineIn,
	)

	start := time.Now()
	page, err := t.next.Search(ctx, req)
	elapsed := time.Since(start).Round(time.Millisecond)

	switch {
	case err != nil:
		t.logger.Printf("run=%s search response: attempt=%d duration=%s status=error", t.runID, attempt, elapsed)
	case page.RateLimited:
		t.logger.Printf("run=%s search response: attempt=%d duration=%s status=rate_limited retryAfter=%s", t.runID, attempt, elapsed, page.RetryAfter)
	default:
		t.logger.Printf("run=%s search response: attempt=%d duration=%s status=ok items=%d hasMore=%t",
			t.runID, attempt, elapsed, len(page.Records), page.Continuation != "")
	}
	return page, err
}

func (t *tracedSearcher) nextAttempt(token string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[token]++
	return t.attempts[token]
}
