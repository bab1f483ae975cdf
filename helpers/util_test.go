package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "Lot #1 - Gold Ring", CollapseSpace("  Lot #1 -\n\tGold   Ring "))
	assert.Equal(t, "", CollapseSpace(" \n "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "ca", Truncate("café", 2))
}

func TestURLHelpers(t *testing.T) {
	base := "https://auctions.example.com/auction/42"
	assert.Equal(t, "https://auctions.example.com/lot/7", MakeAbsoluteURL("/lot/7", base))
	assert.Equal(t, "https://other.example.com/x", MakeAbsoluteURL("https://other.example.com/x", base))

	assert.True(t, IsSameSite("/auction/1", base))
	assert.True(t, IsSameSite("https://AUCTIONS.example.com/auction/1", base))
	assert.False(t, IsSameSite("https://other.example.com/auction/1", base))
}
