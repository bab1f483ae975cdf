// Package monitor holds the periodic jobs of the long-running service:
// urgent-item checks, full scrapes and the expiry sweep.
package monitor

import (
	"context"
	"time"

	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/internal/scraper"
	"sjsage522/auctionwatcher/logger"
	"sjsage522/auctionwatcher/services/notifier"
	"sjsage522/auctionwatcher/services/scheduler"
)

// Task names as they appear in logs, metrics and /status.
const (
	TaskUrgentCheck = "urgent-check"
	TaskFullScrape  = "full-scrape"
	TaskCleanup     = "cleanup"
	TaskStartup     = "startup-check"
)

// Store is what the jobs read and sweep.
type Store interface {
	UrgentItems(ctx context.Context, minMargin float64, window time.Duration) ([]model.UrgentItem, error)
	ActiveItems(ctx context.Context, limit int) ([]model.Item, error)
	MarkExpiredItems(ctx context.Context) (int, error)
}

// Runner performs one scrape.
type Runner interface {
	Run(ctx context.Context, ro scraper.RunOptions) (scraper.Result, error)
}

// Notifier delivers urgent alerts.
type Notifier interface {
	NotifyUrgent(ctx context.Context, items []model.UrgentItem) notifier.Report
}

// Config sets thresholds and intervals.
type Config struct {
	MinMargin    float64
	UrgentWindow time.Duration

	UrgentInterval  time.Duration
	ScrapeInterval  time.Duration
	CleanupInterval time.Duration
	StartupDelay    time.Duration

	Run scraper.RunOptions
}

// Monitor runs the jobs. Runner may be nil when only checks are needed.
type Monitor struct {
	store    Store
	runner   Runner
	notifier Notifier
	cfg      Config
	log      *logger.Logger
}

func New(store Store, runner Runner, n Notifier, cfg Config) *Monitor {
	return &Monitor{store: store, runner: runner, notifier: n, cfg: cfg, log: logger.ForMonitor()}
}

// Register schedules every job on s, plus a one-shot urgent check shortly
// after start.
func (m *Monitor) Register(s *scheduler.Scheduler) {
	s.Every(TaskUrgentCheck, m.cfg.UrgentInterval, func(ctx context.Context) error {
		_, err := m.CheckUrgent(ctx)
		return err
	})
	if m.runner != nil {
		s.Every(TaskFullScrape, m.cfg.ScrapeInterval, m.FullScrape)
	}
	s.Every(TaskCleanup, m.cfg.CleanupInterval, m.Cleanup)
	s.Once(TaskStartup, m.cfg.StartupDelay, func(ctx context.Context) error {
		_, err := m.CheckUrgent(ctx)
		return err
	})

	m.log.Info().
		Dur("urgent_every", m.cfg.UrgentInterval).
		Dur("scrape_every", m.cfg.ScrapeInterval).
		Dur("cleanup_every", m.cfg.CleanupInterval).
		Dur("startup_after", m.cfg.StartupDelay).
		Msg("Monitoring schedule registered")
}

// CheckUrgent notifies about qualifying items ending inside the urgent window
// and returns how many there were.
func (m *Monitor) CheckUrgent(ctx context.Context) (int, error) {
	m.log.Info().Msg("Checking for urgent profitable items")
	items, err := m.store.UrgentItems(ctx, m.cfg.MinMargin, m.cfg.UrgentWindow)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		m.log.Info().Msg("No urgent items found")
		return 0, nil
	}
	m.log.Info().Int("count", len(items)).Msg("Found urgent items")
	m.notifier.NotifyUrgent(ctx, items)
	return len(items), nil
}

// FullScrape runs the pipeline and then re-checks urgent items. A failed run
// is still followed by the check.
func (m *Monitor) FullScrape(ctx context.Context) error {
	m.log.Info().Msg("Starting scheduled full scrape")
	res, runErr := m.runner.Run(ctx, m.cfg.Run)
	m.log.Info().
		Int("found", res.ItemsFound).
		Int("flagged", res.ItemsFlagged).
		Str("status", string(res.Status)).
		Msg("Scheduled scrape finished")

	if ctx.Err() != nil {
		return runErr
	}
	if _, err := m.CheckUrgent(ctx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// Cleanup deactivates items whose auction has ended.
func (m *Monitor) Cleanup(ctx context.Context) error {
	n, err := m.store.MarkExpiredItems(ctx)
	if err != nil {
		return err
	}
	m.log.Info().Int("expired", n).Msg("Marked expired items as inactive")
	return nil
}

// TestSystem sends a sample alert through every channel and probes the store.
func (m *Monitor) TestSystem(ctx context.Context) (notifier.Report, error) {
	m.log.Info().Msg("Testing notification channels")
	report := m.notifier.NotifyUrgent(ctx, notifier.SampleItems(time.Now()))

	items, err := m.store.ActiveItems(ctx, 0)
	if err != nil {
		m.log.Error().Err(err).Msg("Database test failed")
		return report, err
	}
	m.log.Info().Int("active_items", len(items)).Msg("Database test passed")
	return report, nil
}
