package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://slocalestateauctions.com", config.BaseURL)
	assert.Equal(t, "chrome", config.FetchMode)
	assert.True(t, config.Headless)
	assert.Equal(t, 2*time.Second, config.ScrapeDelayMin)
	assert.Equal(t, 5*time.Second, config.ScrapeDelayMax)
	assert.Equal(t, 15, config.RequestsPerMinute)
	assert.Equal(t, 3, config.MaxPagesPerScrape)
	assert.Equal(t, 30*time.Minute, config.UrgentCheckInterval)
	assert.Equal(t, 2*time.Hour, config.ScrapeInterval)
	assert.Equal(t, 24*time.Hour, config.CleanupInterval)
	assert.Equal(t, 24, config.UrgentHoursThreshold)
	assert.Equal(t, 50.0, config.MinProfitPercentage)
	assert.Equal(t, "sqlite", config.DatabaseDriver)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, DefaultAvoidKeywords, config.AvoidKeywords)
	assert.Empty(t, config.ValueHints)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	os.Setenv("BASE_URL", "https://auctions.example.com")
	os.Setenv("FETCH_MODE", "HTTP")
	os.Setenv("SCRAPE_DELAY_MIN", "0.5")
	os.Setenv("REQUESTS_PER_MINUTE", "5")
	os.Setenv("URGENT_CHECK_INTERVAL", "10")
	os.Setenv("WATCH_KEYWORDS", " Rolex , , leica")
	os.Setenv("VALUE_HINTS", "rolex=1500, bad, leica=x, diamond=250")

	config = LoadConfig()
	assert.Equal(t, "https://auctions.example.com", config.BaseURL)
	assert.Equal(t, "http", config.FetchMode)
	assert.Equal(t, 500*time.Millisecond, config.ScrapeDelayMin)
	assert.Equal(t, 5, config.RequestsPerMinute)
	assert.Equal(t, 10*time.Minute, config.UrgentCheckInterval)
	assert.Equal(t, []string{"rolex", "leica"}, config.WatchKeywords)
	assert.Equal(t, map[string]float64{"rolex": 1500, "diamond": 250}, config.ValueHints)

	// Clean up
	os.Unsetenv("BASE_URL")
	os.Unsetenv("FETCH_MODE")
	os.Unsetenv("SCRAPE_DELAY_MIN")
	os.Unsetenv("REQUESTS_PER_MINUTE")
	os.Unsetenv("URGENT_CHECK_INTERVAL")
	os.Unsetenv("WATCH_KEYWORDS")
	os.Unsetenv("VALUE_HINTS")
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.FetchMode = "selenium"
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.DatabaseDriver = "postgres"
	assert.Error(t, cfg.Validate())
	cfg.DatabaseURL = "postgres://localhost/auctions?sslmode=disable"
	assert.NoError(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.ScrapeDelayMax = time.Second
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.RequestsPerMinute = 0
	assert.Error(t, cfg.Validate())
}

func TestEmailConfigured(t *testing.T) {
	cfg := LoadConfig()
	assert.False(t, cfg.EmailConfigured())

	cfg.EmailEnabled = true
	cfg.SenderEmail = "bot@example.com"
	cfg.RecipientEmail = "me@example.com"
	assert.False(t, cfg.EmailConfigured())

	cfg.SenderPassword = "secret"
	assert.True(t, cfg.EmailConfigured())
}
