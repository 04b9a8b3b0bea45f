// Package backoff computes exponential retry delays and waits on them without
// ignoring context cancellation.
package backoff

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy describes a doubling delay schedule.
type Policy struct {
	// Initial is the delay before the first retry.
	Initial time.Duration
	// Max caps the delay. Zero means uncapped.
	Max time.Duration
	// JitterFrac applies +/- jitter to each delay (0.2 = +/-20%). Zero disables jitter.
	JitterFrac float64
}

// Delay returns the sleep before retry number attempt (0-based): Initial * 2^attempt, capped by Max.
func (p Policy) Delay(attempt int) time.Duration {
	sleep := p.Initial
	for i := 0; i < attempt; i++ {
		if p.Max > 0 && sleep >= p.Max {
			break
		}
		sleep *= 2
	}
	if p.Max > 0 && sleep > p.Max {
		sleep = p.Max
	}
	if p.JitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*p.JitterFrac
	return time.Duration(float64(sleep) * j)
}

// Cap bounds d by the policy maximum.
func (p Policy) Cap(d time.Duration) time.Duration {
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}
