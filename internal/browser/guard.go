package browser

import (
	"context"
	"errors"
	"strconv"
	"time"

	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
	"sjsage522/auctionwatcher/services/cache"
)

// Guarded stops fetching from a site for BlockTime once the site answers with
// a rate limit. The block marker lives in the cache so it survives restarts
// when memcached backs it.
type Guarded struct {
	next      Fetcher
	cache     cache.CacheService
	key       string
	blockTime time.Duration
	log       *logger.Logger
}

// NewGuarded wraps next; key identifies the site in the cache.
func NewGuarded(next Fetcher, c cache.CacheService, key string, blockTime time.Duration, log *logger.Logger) *Guarded {
	if log == nil {
		log = logger.Nop()
	}
	return &Guarded{next: next, cache: c, key: "block:" + key, blockTime: blockTime, log: log}
}

func (g *Guarded) Fetch(ctx context.Context, url string) (*extract.Document, error) {
	if _, err := g.cache.Get(g.key); err == nil {
		return nil, apperrors.NewRateLimit("guard", g.blockTime)
	} else if !errors.Is(err, cache.ErrMiss) {
		g.log.Warn().Err(err).Str("key", g.key).Msg("Block marker lookup failed")
	}

	doc, err := g.next.Fetch(ctx, url)
	if err != nil && apperrors.IsType(err, apperrors.ErrorTypeRateLimit) {
		value := []byte(strconv.Itoa(int(g.blockTime / time.Second)))
		if setErr := g.cache.Set(g.key, value, g.blockTime); setErr != nil {
			g.log.Warn().Err(setErr).Str("key", g.key).Msg("Failed to set block marker")
		} else {
			g.log.Warn().Str("url", url).Dur("block", g.blockTime).Msg("Rate limited by site, blocking further fetches")
		}
	}
	return doc, err
}

func (g *Guarded) Close() error { return g.next.Close() }
