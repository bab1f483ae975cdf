package browser

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"sjsage522/auctionwatcher/helpers"
	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// CollyFetcher fetches static HTML through a colly collector.
type CollyFetcher struct {
	base *colly.Collector
	log  *logger.Logger
}

// NewCollyFetcher creates a CollyFetcher with the given request timeout.
func NewCollyFetcher(timeout time.Duration, log *logger.Logger) *CollyFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	c := colly.NewCollector(
		colly.UserAgent(helpers.RandomUserAgent()),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodySize),
	)
	c.SetRequestTimeout(timeout)
	return &CollyFetcher{base: c, log: log}
}

func (f *CollyFetcher) Fetch(ctx context.Context, url string) (*extract.Document, error) {
	c := f.base.Clone()
	c.Context = ctx
	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	var (
		doc      *extract.Document
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body, err := helpers.DecodeUTF8(r.Body, r.Headers.Get("Content-Type"))
		if err != nil {
			fetchErr = apperrors.NewFetch("colly", "decode body of "+url, err)
			return
		}
		doc, err = extract.NewDocument(r.Request.URL.String(), body)
		if err != nil {
			fetchErr = apperrors.NewFetch("colly", "parse "+url, err)
		}
		f.log.Debug().Str("url", url).Int("status", r.StatusCode).Int("bytes", len(r.Body)).Msg("Fetched page")
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = statusError("colly", r.StatusCode, r.Headers.Get("Retry-After"))
			return
		}
		fetchErr = apperrors.NewFetch("colly", "GET "+url, err)
	})

	visitErr := c.Visit(url)
	c.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if visitErr != nil {
		return nil, apperrors.NewFetch("colly", "GET "+url, visitErr)
	}
	if doc == nil {
		return nil, apperrors.NewFetch("colly", "no response for "+url, nil)
	}
	return doc, nil
}

func (f *CollyFetcher) Close() error { return nil }
