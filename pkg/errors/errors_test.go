package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewFetch("chrome", "navigate", stderrors.New("timeout"))
	assert.Equal(t, "[fetch] chrome: navigate - timeout", err.Error())

	err = NewValidation("config", "missing base url")
	assert.Equal(t, "[validation] config: missing base url", err.Error())
}

func TestRetryable(t *testing.T) {
	assert.True(t, NewFetch("http", "get", nil).IsRetryable())
	assert.False(t, NewHTTPStatus("http", 404).IsRetryable())
	assert.False(t, NewRateLimit("http", time.Minute).IsRetryable())
	assert.False(t, NewPersistence("upsert_item", nil).IsRetryable())

	wrapped := fmt.Errorf("group page: %w", NewFetch("http", "get", nil))
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestIsType(t *testing.T) {
	inner := NewPersistence("save_analysis", stderrors.New("locked"))
	outer := NewSchedulerTask("full-scrape", inner)

	assert.True(t, IsType(outer, ErrorTypeScheduler))
	assert.True(t, IsType(outer, ErrorTypePersistence))
	assert.False(t, IsType(outer, ErrorTypeFetch))
	assert.False(t, IsType(nil, ErrorTypeFetch))
	assert.ErrorIs(t, NewNotification("email", ErrUnavailable), ErrUnavailable)
}
