// Package browser fetches listing pages and exposes them as queryable
// documents. Fetch modes share one Fetcher interface so the pipeline never
// depends on how a page was rendered.
package browser

import (
	"context"
	"fmt"
	"time"

	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
	"sjsage522/auctionwatcher/services/cache"
)

// Fetch modes.
const (
	ModeChrome = "chrome"
	ModeHTTP   = "http"
	ModeColly  = "colly"
)

// Fetcher loads a URL and returns the rendered document. Document.URL is the
// final location after redirects.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*extract.Document, error)
	Close() error
}

// Options configures New.
type Options struct {
	Mode     string
	Headless bool
	Timeout  time.Duration

	RetryAttempts int
	RetryBackoff  time.Duration

	// Cache and BlockTime enable the rate-limit guard; BlockKey names the site.
	Cache     cache.CacheService
	BlockKey  string
	BlockTime time.Duration
}

// New builds the fetcher for opts.Mode wrapped with the block guard and
// bounded retries.
func New(opts Options) (Fetcher, error) {
	log := logger.ForFetcher(opts.Mode)

	var base Fetcher
	switch opts.Mode {
	case ModeChrome, "":
		f, err := NewChromeFetcher(ChromeOptions{Headless: opts.Headless, Timeout: opts.Timeout, Logger: log})
		if err != nil {
			return nil, err
		}
		base = f
	case ModeHTTP:
		base = NewHTTPFetcher(opts.Timeout, log)
	case ModeColly:
		base = NewCollyFetcher(opts.Timeout, log)
	default:
		return nil, apperrors.NewValidation("browser", fmt.Sprintf("unknown fetch mode %q", opts.Mode))
	}

	if opts.Cache != nil && opts.BlockKey != "" && opts.BlockTime > 0 {
		base = NewGuarded(base, opts.Cache, opts.BlockKey, opts.BlockTime, log)
	}
	if opts.RetryAttempts > 1 {
		base = NewRetrying(base, opts.RetryAttempts, opts.RetryBackoff, log)
	}
	return base, nil
}
