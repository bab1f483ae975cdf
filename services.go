package main

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sjsage522/auctionwatcher/config"
	"sjsage522/auctionwatcher/helpers"
	"sjsage522/auctionwatcher/internal/browser"
	"sjsage522/auctionwatcher/internal/classifier"
	"sjsage522/auctionwatcher/internal/dedup"
	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/internal/metrics"
	"sjsage522/auctionwatcher/internal/monitor"
	"sjsage522/auctionwatcher/internal/ratelimit"
	"sjsage522/auctionwatcher/internal/scraper"
	"sjsage522/auctionwatcher/internal/store"
	"sjsage522/auctionwatcher/internal/valuation"
	"sjsage522/auctionwatcher/logger"
	"sjsage522/auctionwatcher/services/cache"
	"sjsage522/auctionwatcher/services/notifier"
	"sjsage522/auctionwatcher/services/publisher"
)

// Services holds all the initialized services
type Services struct {
	Store      *store.Store
	Cache      cache.CacheService
	Publishers []publisher.Publisher
	Notifier   *notifier.Notifier
	Registry   *prometheus.Registry
	Metrics    *metrics.Collector

	// Set only when withScraper is requested.
	Fetcher browser.Fetcher
	Limiter *ratelimit.Limiter
	Scraper *scraper.Scraper

	Monitor *monitor.Monitor
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	log := logger.Get()
	if s.Fetcher != nil {
		if err := s.Fetcher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close fetcher")
		}
	}
	for _, p := range s.Publishers {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Str("publisher", p.Name()).Msg("Failed to close publisher")
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}
}

// initializeServices initializes all required services. The fetch pipeline is
// built only when withScraper is set, so read-only commands never start a
// browser.
func initializeServices(ctx context.Context, cfg *config.Config, withScraper bool) (*Services, error) {
	services := &Services{}

	// Metrics
	services.Registry = prometheus.NewRegistry()
	services.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	services.Metrics = metrics.NewCollector(services.Registry)

	// Store
	st, err := store.Open(ctx, store.Options{
		Driver: cfg.DatabaseDriver,
		Path:   cfg.DatabasePath,
		URL:    cfg.DatabaseURL,
		Logger: logger.ForStore(),
	})
	if err != nil {
		return nil, err
	}
	services.Store = st

	// Cache for fetch block markers
	services.Cache = cache.New(cfg.MemcacheAddr)
	if mc, ok := services.Cache.(*cache.MemcacheService); ok {
		cacheLog := logger.ForCache()
		if err := mc.Ping(); err != nil {
			cacheLog.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable; fetch blocks will not persist")
		} else {
			cacheLog.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
		}
	}

	services.Notifier = buildNotifier(ctx, cfg, services)

	var runner monitor.Runner
	if withScraper {
		if err := buildScraper(cfg, services); err != nil {
			services.Cleanup()
			return nil, err
		}
		runner = services.Scraper
	}

	services.Monitor = monitor.New(services.Store, runner, services.Notifier, monitor.Config{
		MinMargin:       cfg.MinProfitPercentage,
		UrgentWindow:    time.Duration(cfg.UrgentHoursThreshold) * time.Hour,
		UrgentInterval:  cfg.UrgentCheckInterval,
		ScrapeInterval:  cfg.ScrapeInterval,
		CleanupInterval: cfg.CleanupInterval,
		StartupDelay:    cfg.StartupDelay,
		Run:             runOptions(cfg),
	})

	return services, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, services *Services) *notifier.Notifier {
	log := logger.ForPublisher()
	channels := []notifier.Channel{
		notifier.NewDesktopChannel(cfg.DesktopNotifications),
		notifier.NewEmailChannel(notifier.EmailConfig{
			Enabled:   cfg.EmailConfigured(),
			Server:    cfg.SMTPServer,
			Port:      cfg.SMTPPort,
			Sender:    cfg.SenderEmail,
			Password:  cfg.SenderPassword,
			Recipient: cfg.RecipientEmail,
		}),
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.AlertStream, cfg.AlertStreamMaxLength)
		if err := redisPublisher.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable; alerts will be retried per send")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Str("stream", cfg.AlertStream).Msg("Connected to Redis")
		}
		services.Publishers = append(services.Publishers, redisPublisher)
		channels = append(channels, notifier.NewPublishChannel(redisPublisher))
	}

	if cfg.NATSURL != "" {
		natsPublisher, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("NATS publishing disabled")
		} else {
			log.Info().Str("subject", cfg.NATSSubject).Msg("Connected to NATS")
			services.Publishers = append(services.Publishers, natsPublisher)
			channels = append(channels, notifier.NewPublishChannel(natsPublisher))
		}
	}

	return notifier.New(notifier.NewConsoleChannel(os.Stdout), channels...).WithMetrics(services.Metrics)
}

func buildScraper(cfg *config.Config, services *Services) error {
	fetcher, err := browser.New(browser.Options{
		Mode:          cfg.FetchMode,
		Headless:      cfg.Headless,
		Timeout:       cfg.FetchTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff,
		Cache:         services.Cache,
		BlockKey:      siteKey(cfg.BaseURL),
		BlockTime:     cfg.BlockTime,
	})
	if err != nil {
		return err
	}
	services.Fetcher = fetcher

	rl := ratelimit.DefaultConfig()
	rl.MinDelay = cfg.ScrapeDelayMin
	rl.MaxDelay = cfg.ScrapeDelayMax
	rl.RequestsPerMinute = cfg.RequestsPerMinute
	services.Limiter = ratelimit.New(rl, ratelimit.WithLogger(logger.ForFetcher(cfg.FetchMode)))

	deps := scraper.Deps{
		Fetcher:    fetcher,
		Limiter:    services.Limiter,
		Engine:     extract.NewEngine(extract.WithLogger(logger.ForScraper())),
		Dedup:      dedup.New(dedup.DefaultMinLength),
		Classifier: classifier.New(classifier.DefaultLexicon().WithAvoid(cfg.AvoidKeywords)),
		Store:      services.Store,
		Metrics:    services.Metrics,
	}
	if est := valuation.NewKeywordEstimator(cfg.ValueHints); est.Len() > 0 {
		deps.Estimator = est
	}

	services.Scraper = scraper.New(deps, scraper.Options{
		BaseURL:       cfg.BaseURL,
		WatchKeywords: cfg.WatchKeywords,
		Thresholds: valuation.Thresholds{
			MinMarginPct: cfg.MinProfitPercentage,
			MinAmount:    cfg.MinProfitAmount,
		},
	})
	return nil
}

func runOptions(cfg *config.Config) scraper.RunOptions {
	return scraper.RunOptions{MaxGroups: cfg.MaxPagesPerScrape, Details: cfg.ScrapeDetails}
}

// siteKey names the fetch block marker after the target host.
func siteKey(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "site"
	}
	return u.Host
}

// taskErrorLog sends scheduler task errors to the structured log and to a
// companion errors file next to LOG_FILE.
func taskErrorLog(cfg *config.Config) helpers.LoggerInterface {
	if cfg.LogFile == "" {
		return logger.ForScheduler()
	}
	errorFile := filepath.Join(filepath.Dir(cfg.LogFile), "task_errors.log")
	return helpers.NewFileLogger(errorFile, logger.ForScheduler())
}
