package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("block:site", []byte("300"), 5*time.Minute))

	v, err := c.Get("block:site")
	require.NoError(t, err)
	assert.Equal(t, "300", string(v))

	now = now.Add(5 * time.Minute)
	_, err = c.Get("block:site")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()

	require.NoError(t, c.Set("k", []byte("v"), 0))
	require.NoError(t, c.Delete("k"))

	_, err := c.Get("k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Delete("missing"))
}

func TestNewSelectsBackend(t *testing.T) {
	assert.IsType(t, &MemoryCache{}, New(""))
	assert.IsType(t, &MemcacheService{}, New("localhost:11211"))
}
