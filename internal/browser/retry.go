package browser

import (
	"context"
	"time"

	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// Retrying retries retryable fetch failures a bounded number of times with a
// fixed backoff.
type Retrying struct {
	next     Fetcher
	attempts int
	backoff  time.Duration
	sleep    func(context.Context, time.Duration) error
	log      *logger.Logger
}

// NewRetrying wraps next. attempts counts the first try.
func NewRetrying(next Fetcher, attempts int, backoff time.Duration, log *logger.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff, sleep: sleepContext, log: log}
}

func (r *Retrying) Fetch(ctx context.Context, url string) (*extract.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		doc, err := r.next.Fetch(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil || !apperrors.IsRetryable(err) || attempt == r.attempts {
			break
		}
		r.log.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt).
			Dur("backoff", r.backoff).
			Msg("Fetch failed, retrying")
		if err := r.sleep(ctx, r.backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (r *Retrying) Close() error { return r.next.Close() }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
