package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default keyword lexicons used when WATCH_KEYWORDS / AVOID_KEYWORDS are unset.
var (
	DefaultWatchKeywords = []string{
		"turquoise", "sterling silver", "gold", "diamond", "emerald", "ruby",
		"bakelite", "vintage jewelry", "estate jewelry",
		"mercury dime", "silver coin", "sports memorabilia", "star wars",
		"vintage toy", "1980s", "collectible", "rare",
		"dunhill pipe", "griswold", "wagner", "cast iron", "first edition",
		"signed", "autograph", "antique",
		"vintage camera", "leica", "hasselblad", "vintage audio",
	}

	DefaultAvoidKeywords = []string{
		"replica", "reproduction", "style", "inspired", "damaged",
		"parts only", "not working", "for parts", "broken",
	}
)

// Config represents the application configuration
type Config struct {
	// Environment
	Environment string
	LogFile     string

	// Target site and fetching
	BaseURL           string
	FetchMode         string
	Headless          bool
	FetchTimeout      time.Duration
	RetryAttempts     int
	RetryBackoff      time.Duration
	ScrapeDelayMin    time.Duration
	ScrapeDelayMax    time.Duration
	RequestsPerMinute int
	MaxPagesPerScrape int
	ScrapeDetails     bool
	BlockTime         time.Duration

	// Database
	DatabaseDriver string
	DatabasePath   string
	DatabaseURL    string

	// Profit thresholds
	MinProfitPercentage float64
	MinProfitAmount     float64

	// Monitoring
	UrgentHoursThreshold int
	UrgentCheckInterval  time.Duration
	ScrapeInterval       time.Duration
	CleanupInterval      time.Duration
	SchedulerPoll        time.Duration
	StartupDelay         time.Duration

	// Notifications
	DesktopNotifications bool
	EmailEnabled         bool
	SMTPServer           string
	SMTPPort             int
	SenderEmail          string
	SenderPassword       string
	RecipientEmail       string

	// Redis alert stream
	RedisAddr            string
	RedisDB              int
	AlertStream          string
	AlertStreamMaxLength int

	// NATS alert subject
	NATSURL     string
	NATSSubject string

	// Memcache configuration
	MemcacheAddr string

	// Status API
	StatusAddr string

	// Keyword lexicons
	WatchKeywords []string
	AvoidKeywords []string
	ValueHints    map[string]float64
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Environment: getEnv("AUCTION_ENVIRONMENT", "development"),
		LogFile:     getEnv("LOG_FILE", "logs/auctionwatcher.log"),

		BaseURL:           getEnv("BASE_URL", "https://slocalestateauctions.com"),
		FetchMode:         strings.ToLower(getEnv("FETCH_MODE", "chrome")),
		Headless:          getEnvBool("HEADLESS_MODE", true),
		FetchTimeout:      time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		RetryAttempts:     getEnvInt("FETCH_RETRY_ATTEMPTS", 3),
		RetryBackoff:      time.Duration(getEnvInt("FETCH_RETRY_BACKOFF_SECONDS", 3)) * time.Second,
		ScrapeDelayMin:    seconds(getEnvFloat("SCRAPE_DELAY_MIN", 2)),
		ScrapeDelayMax:    seconds(getEnvFloat("SCRAPE_DELAY_MAX", 5)),
		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 15),
		MaxPagesPerScrape: getEnvInt("MAX_PAGES_PER_SCRAPE", 3),
		ScrapeDetails:     getEnvBool("SCRAPE_DETAILS", false),
		BlockTime:         time.Duration(getEnvInt("BLOCK_TIME_SECONDS", 300)) * time.Second,

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabasePath:   getEnv("DATABASE_PATH", "data/auction.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		MinProfitPercentage: getEnvFloat("MIN_PROFIT_PERCENTAGE", 50),
		MinProfitAmount:     getEnvFloat("MIN_PROFIT_AMOUNT", 25),

		UrgentHoursThreshold: getEnvInt("URGENT_HOURS_THRESHOLD", 24),
		UrgentCheckInterval:  time.Duration(getEnvInt("URGENT_CHECK_INTERVAL", 30)) * time.Minute,
		ScrapeInterval:       time.Duration(getEnvInt("SCRAPE_INTERVAL", 2)) * time.Hour,
		CleanupInterval:      time.Duration(getEnvInt("CLEANUP_INTERVAL", 24)) * time.Hour,
		SchedulerPoll:        time.Duration(getEnvInt("SCHEDULER_POLL_SECONDS", 60)) * time.Second,
		StartupDelay:         time.Duration(getEnvInt("STARTUP_DELAY_SECONDS", 60)) * time.Second,

		DesktopNotifications: getEnvBool("DESKTOP_NOTIFICATIONS", true),
		EmailEnabled:         getEnvBool("EMAIL_NOTIFICATIONS", false),
		SMTPServer:           getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SenderEmail:          getEnv("SENDER_EMAIL", ""),
		SenderPassword:       getEnv("SENDER_PASSWORD", ""),
		RecipientEmail:       getEnv("RECIPIENT_EMAIL", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		AlertStream:          getEnv("ALERT_STREAM", "auction:alerts"),
		AlertStreamMaxLength: getEnvInt("ALERT_STREAM_MAX_LENGTH", 1000),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "auction.alerts.urgent"),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		StatusAddr: getEnv("STATUS_ADDR", ":8080"),

		WatchKeywords: getEnvList("WATCH_KEYWORDS", DefaultWatchKeywords),
		AvoidKeywords: getEnvList("AVOID_KEYWORDS", DefaultAvoidKeywords),
		ValueHints:    getEnvMap("VALUE_HINTS"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	switch c.FetchMode {
	case "chrome", "http", "colly":
	default:
		return fmt.Errorf("unsupported FETCH_MODE %q", c.FetchMode)
	}
	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("REQUESTS_PER_MINUTE must be positive")
	}
	if c.ScrapeDelayMin < 0 || c.ScrapeDelayMax < c.ScrapeDelayMin {
		return fmt.Errorf("scrape delay range [%v, %v] is invalid", c.ScrapeDelayMin, c.ScrapeDelayMax)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("FETCH_RETRY_ATTEMPTS must be at least 1")
	}
	if c.UrgentCheckInterval <= 0 || c.ScrapeInterval <= 0 || c.CleanupInterval <= 0 || c.SchedulerPoll <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}
	return nil
}

// EmailConfigured reports whether every credential the email channel needs is set.
func (c *Config) EmailConfigured() bool {
	return c.EmailEnabled && c.SenderEmail != "" && c.SenderPassword != "" && c.RecipientEmail != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList splits a comma-separated variable, trimming and lower-casing entries.
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvMap parses "keyword=value,keyword=value". Malformed pairs are skipped.
func getEnvMap(key string) map[string]float64 {
	out := make(map[string]float64)
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		k = strings.ToLower(strings.TrimSpace(k))
		if err != nil || k == "" {
			continue
		}
		out[k] = f
	}
	return out
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
