// Package scraper runs one collection pass over the auction site: discover
// auction groups, extract and deduplicate their lots, classify them, and
// persist items, bid history and analyses.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sjsage522/auctionwatcher/internal/browser"
	"sjsage522/auctionwatcher/internal/classifier"
	"sjsage522/auctionwatcher/internal/dedup"
	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/internal/metrics"
	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/internal/valuation"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// Store is the persistence the pipeline writes to.
type Store interface {
	CreateSession(ctx context.Context) (int64, error)
	UpdateSession(ctx context.Context, id int64, upd model.SessionUpdate) error
	UpsertItem(ctx context.Context, rec model.ItemRecord) (int64, error)
	SaveAnalysis(ctx context.Context, a model.ProfitAnalysis) (int64, error)
	Watchlist(ctx context.Context, activeOnly bool) ([]model.Watch, error)
	MarkExpiredItems(ctx context.Context) (int, error)
}

// Limiter paces fetches.
type Limiter interface {
	Wait(ctx context.Context) error
}

// DefaultGroupSelectors find auction-group links on the landing page.
var DefaultGroupSelectors = []string{
	"h4.AuctionGroupsLink a",
	".auction-groups a",
	".auction-group-section a",
	"a[href*='/auction/']",
	".card a[href*='auction']",
}

// Deps are the collaborators of a Scraper. Estimator and Metrics are optional.
type Deps struct {
	Fetcher    browser.Fetcher
	Limiter    Limiter
	Engine     *extract.Engine
	Dedup      *dedup.Deduplicator
	Classifier *classifier.Classifier
	Estimator  valuation.Estimator
	Store      Store
	Metrics    metrics.Recorder
	Logger     *logger.Logger
	Now        func() time.Time
}

// Options are the fixed settings of a Scraper.
type Options struct {
	BaseURL        string
	WatchKeywords  []string
	Thresholds     valuation.Thresholds
	GroupSelectors []string
}

// RunOptions parameterize one run.
type RunOptions struct {
	MaxGroups int
	Details   bool
}

// ValuableItem is a lot the classifier flagged.
type ValuableItem struct {
	Title      string   `json:"title"`
	CurrentBid float64  `json:"current_bid"`
	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`
	Score      int      `json:"score"`
	URL        string   `json:"url,omitempty"`
}

// WatchMatch is a lot whose title contains a watched keyword.
type WatchMatch struct {
	Keyword    string  `json:"keyword"`
	Source     string  `json:"source"`
	Title      string  `json:"title"`
	CurrentBid float64 `json:"current_bid"`
	URL        string  `json:"url,omitempty"`
}

// Watch match sources.
const (
	WatchSourceList   = "watchlist"
	WatchSourceConfig = "config"
)

// Result summarizes a run.
type Result struct {
	SessionID     int64               `json:"session_id"`
	Status        model.SessionStatus `json:"status"`
	GroupsVisited int                 `json:"groups_visited"`
	ItemsFound    int                 `json:"items_found"`
	ItemsSaved    int                 `json:"items_saved"`
	ItemsFlagged  int                 `json:"items_flagged"`
	ItemsAnalyzed int                 `json:"items_analyzed"`
	ExpiredItems  int                 `json:"expired_items"`
	Valuable      []ValuableItem      `json:"valuable_items"`
	WatchMatches  []WatchMatch        `json:"watchlist_matches"`
	Errors        []string            `json:"errors"`
}

// Scraper is one configured pipeline. Runs must not overlap.
type Scraper struct {
	deps Deps
	opts Options
	log  *logger.Logger
}

// New creates a Scraper.
func New(deps Deps, opts Options) *Scraper {
	if deps.Engine == nil {
		deps.Engine = extract.NewEngine()
	}
	if deps.Dedup == nil {
		deps.Dedup = dedup.New(dedup.DefaultMinLength)
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(classifier.DefaultLexicon())
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.ForScraper()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if len(opts.GroupSelectors) == 0 {
		opts.GroupSelectors = DefaultGroupSelectors
	}
	return &Scraper{deps: deps, opts: opts, log: deps.Logger}
}

// Run performs one pass and records it as a scrape session. Page and item
// failures are collected in Result.Errors; the returned error is set only for
// run-level failures, which also mark the session.
func (s *Scraper) Run(ctx context.Context, ro RunOptions) (Result, error) {
	var res Result
	if ro.MaxGroups <= 0 {
		ro.MaxGroups = 3
	}

	id, err := s.deps.Store.CreateSession(ctx)
	if err != nil {
		return res, err
	}
	res.SessionID = id
	s.log.Info().Int64("session", id).Str("base_url", s.opts.BaseURL).Msg("Starting auction scrape")

	err = s.run(ctx, ro, &res)
	s.finish(ctx, &res, err)
	return res, err
}

func (s *Scraper) run(ctx context.Context, ro RunOptions, res *Result) error {
	groups, err := s.discoverGroups(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		s.log.Warn().Msg("No auction groups found")
		res.Errors = append(res.Errors, "no auction groups found on main page")
		return nil
	}
	if len(groups) > ro.MaxGroups {
		groups = groups[:ro.MaxGroups]
	}

	var lots []extract.Candidate
	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.log.Info().Int("group", i+1).Int("of", len(groups)).Str("url", group).Msg("Processing auction group")
		found, err := s.scrapeGroup(ctx, group, ro.Details)
		res.GroupsVisited++
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		lots = append(lots, found...)
	}

	res.ItemsFound = len(lots)
	watches := s.watches(ctx, res)
	for _, lot := range lots {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.process(ctx, lot, watches, res)
	}
	s.deps.Metrics.RecordItemsUpserted(res.ItemsSaved)
	s.deps.Metrics.RecordItemsFlagged(res.ItemsFlagged)
	return nil
}

// fetch paces and loads one page.
func (s *Scraper) fetch(ctx context.Context, url string) (*extract.Document, error) {
	if err := s.deps.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := s.deps.Now()
	doc, err := s.deps.Fetcher.Fetch(ctx, url)
	elapsed := s.deps.Now().Sub(start)
	switch {
	case err == nil:
		s.deps.Metrics.RecordFetch(metrics.OutcomeOK, elapsed)
	case apperrors.IsType(err, apperrors.ErrorTypeRateLimit):
		s.deps.Metrics.RecordFetch(metrics.OutcomeRateLimit, elapsed)
	default:
		s.deps.Metrics.RecordFetch(metrics.OutcomeError, elapsed)
	}
	return doc, err
}

func (s *Scraper) discoverGroups(ctx context.Context) ([]string, error) {
	doc, err := s.fetch(ctx, s.opts.BaseURL)
	if err != nil {
		return nil, err
	}
	groups := doc.Links(s.opts.GroupSelectors, func(href string) bool {
		return strings.Contains(href, "/auction/")
	})
	s.log.Info().Int("groups", len(groups)).Msg("Auction groups discovered")
	return groups, nil
}

// scrapeGroup returns the deduplicated lots of one group page, refined from
// their detail pages when details is set.
func (s *Scraper) scrapeGroup(ctx context.Context, url string, details bool) ([]extract.Candidate, error) {
	doc, err := s.fetch(ctx, url)
	if err != nil {
		s.log.Error().Err(err).Str("url", url).Msg("Auction page abandoned")
		return nil, err
	}

	found, err := s.deps.Engine.Extract(doc)
	if err != nil {
		// A page without recognizable lots is an empty page, not a failure.
		s.log.Warn().Err(err).Str("url", url).Msg("No lots extracted")
		return nil, nil
	}
	lots := s.deps.Dedup.Collapse(found)
	if len(lots) > 0 {
		s.deps.Metrics.RecordExtraction(lots[0].Strategy, len(lots))
	}

	for i := range lots {
		if lots[i].URL == "" {
			lots[i].URL = doc.URL
			continue
		}
		if !details || lots[i].URL == doc.URL {
			continue
		}
		detail, err := s.fetch(ctx, lots[i].URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn().Err(err).Str("url", lots[i].URL).Msg("Detail page skipped")
			continue
		}
		lots[i] = lots[i].Refine(detail.Detail())
	}

	s.log.Info().Int("lots", len(lots)).Str("url", url).Msg("Extracted lots")
	return lots, nil
}

type watchTerm struct {
	keyword string
	source  string
	maxBid  *float64
}

func (s *Scraper) watches(ctx context.Context, res *Result) []watchTerm {
	var terms []watchTerm
	list, err := s.deps.Store.Watchlist(ctx, true)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load watchlist")
		res.Errors = append(res.Errors, err.Error())
	}
	for _, w := range list {
		terms = append(terms, watchTerm{keyword: strings.ToLower(w.Keyword), source: WatchSourceList, maxBid: w.MaxBidAmount})
	}
	for _, k := range s.opts.WatchKeywords {
		terms = append(terms, watchTerm{keyword: strings.ToLower(k), source: WatchSourceConfig})
	}
	return terms
}

func (s *Scraper) process(ctx context.Context, lot extract.Candidate, watches []watchTerm, res *Result) {
	cls := s.deps.Classifier.Classify(lot.Title, lot.Description)

	rec := model.ItemRecord{
		ExternalID:  lot.ExternalID,
		Title:       lot.Title,
		Description: lot.Description,
		Condition:   classifier.Condition(lot.Title + " " + lot.Description),
		CurrentBid:  lot.CurrentBid,
		AuctionEnd:  lot.EndTime,
		URL:         lot.URL,
	}
	if len(cls.Categories) > 0 {
		rec.Category = cls.Categories[0]
	}

	itemID, err := s.deps.Store.UpsertItem(ctx, rec)
	if err != nil {
		s.log.Error().Err(err).Str("title", lot.Title).Msg("Failed to save item")
		res.Errors = append(res.Errors, fmt.Sprintf("save %q: %v", lot.Title, err))
		return
	}
	res.ItemsSaved++

	if cls.IsValuable {
		res.ItemsFlagged++
		res.Valuable = append(res.Valuable, ValuableItem{
			Title:      lot.Title,
			CurrentBid: lot.CurrentBid,
			Keywords:   cls.KeywordsFound,
			Categories: cls.Categories,
			Score:      cls.Score,
			URL:        lot.URL,
		})
		s.log.Info().Str("title", lot.Title).Float64("current_bid", lot.CurrentBid).Int("score", cls.Score).Msg("Flagged valuable item")
	}

	title := strings.ToLower(lot.Title)
	for _, w := range watches {
		if w.keyword == "" || !strings.Contains(title, w.keyword) {
			continue
		}
		if w.maxBid != nil && lot.CurrentBid > *w.maxBid {
			continue
		}
		res.WatchMatches = append(res.WatchMatches, WatchMatch{
			Keyword:    w.keyword,
			Source:     w.source,
			Title:      lot.Title,
			CurrentBid: lot.CurrentBid,
			URL:        lot.URL,
		})
	}

	if s.deps.Estimator == nil {
		return
	}
	est, ok, err := s.deps.Estimator.Estimate(ctx, lot.Title, lot.Description)
	if err != nil {
		s.log.Warn().Err(err).Str("title", lot.Title).Msg("Value estimate failed")
		res.Errors = append(res.Errors, fmt.Sprintf("estimate %q: %v", lot.Title, err))
		return
	}
	if !ok {
		return
	}
	analysis := valuation.Analyze(itemID, lot.CurrentBid, est, s.opts.Thresholds)
	if _, err := s.deps.Store.SaveAnalysis(ctx, analysis); err != nil {
		s.log.Error().Err(err).Str("title", lot.Title).Msg("Failed to save analysis")
		res.Errors = append(res.Errors, fmt.Sprintf("analyze %q: %v", lot.Title, err))
		return
	}
	res.ItemsAnalyzed++
}

// finish records the session outcome and sweeps expired items.
func (s *Scraper) finish(ctx context.Context, res *Result, runErr error) {
	ended := s.deps.Now().UTC()
	upd := model.SessionUpdate{
		EndedAt:      &ended,
		ItemsFound:   &res.ItemsFound,
		ItemsFlagged: &res.ItemsFlagged,
	}

	switch {
	case runErr == nil && res.GroupsVisited == 0:
		res.Status = model.SessionFailed
		msg := "no auction groups found"
		upd.ErrorMessage = &msg
	case runErr == nil:
		res.Status = model.SessionCompleted
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		res.Status = model.SessionFailed
		msg := "run cancelled: " + runErr.Error()
		upd.ErrorMessage = &msg
		res.Errors = append(res.Errors, msg)
	default:
		res.Status = model.SessionError
		msg := runErr.Error()
		upd.ErrorMessage = &msg
		res.Errors = append(res.Errors, "scraping error: "+msg)
	}
	upd.Status = &res.Status
	s.deps.Metrics.RecordRun(string(res.Status))

	// The session must be closed even when the run's context is gone.
	closeCtx := context.WithoutCancel(ctx)
	if err := s.deps.Store.UpdateSession(closeCtx, res.SessionID, upd); err != nil {
		s.log.Error().Err(err).Int64("session", res.SessionID).Msg("Failed to update scrape session")
		res.Errors = append(res.Errors, err.Error())
	}

	if res.Status == model.SessionCompleted {
		expired, err := s.deps.Store.MarkExpiredItems(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to mark expired items")
			res.Errors = append(res.Errors, err.Error())
		} else {
			res.ExpiredItems = expired
			s.log.Info().Int("expired", expired).Msg("Marked expired items")
		}
	}

	s.log.Info().
		Int64("session", res.SessionID).
		Str("status", string(res.Status)).
		Int("found", res.ItemsFound).
		Int("saved", res.ItemsSaved).
		Int("flagged", res.ItemsFlagged).
		Int("errors", len(res.Errors)).
		Msg("Scrape finished")
}
