package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"sjsage522/auctionwatcher/helpers"
	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

const maxBodySize = 10 << 20

// HTTPFetcher fetches static HTML with randomized browser headers.
type HTTPFetcher struct {
	client *http.Client
	log    *logger.Logger
}

// NewHTTPFetcher creates an HTTPFetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration, log *logger.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}, log: log}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*extract.Document, error) {
	req, err := helpers.NewBrowserRequest(ctx, url)
	if err != nil {
		return nil, apperrors.NewValidation("http", err.Error())
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewFetch("http", "GET "+url, err)
	}
	defer resp.Body.Close()

	if err := statusError("http", resp.StatusCode, resp.Header.Get("Retry-After")); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.NewFetch("http", "read body of "+url, err)
	}
	utf8Body, err := helpers.DecodeUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperrors.NewFetch("http", "decode body of "+url, err)
	}

	doc, err := extract.NewDocument(resp.Request.URL.String(), utf8Body)
	if err != nil {
		return nil, apperrors.NewFetch("http", "parse "+url, err)
	}

	f.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched page")
	return doc, nil
}

func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// statusError maps an HTTP status to the fetch error taxonomy: 429/430 is a
// rate limit, 5xx is retryable, other non-2xx codes are final.
func statusError(component string, status int, retryAfter string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case helpers.IsRateLimitStatus(status):
		var d time.Duration
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			d = time.Duration(secs) * time.Second
		}
		return apperrors.NewRateLimit(component, d)
	case status >= 500:
		return apperrors.NewFetch(component, fmt.Sprintf("server returned status %d", status), nil)
	default:
		return apperrors.NewHTTPStatus(component, status)
	}
}
