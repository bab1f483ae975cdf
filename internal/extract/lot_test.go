package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLotTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Lot #12 - 14K Gold Diamond Ring", true},
		{"lot #7 - Brass Lamp", true},
		{"LOT #300-Oak Table", true},
		{"Next Page »", false},
		{"Lot 12 - Missing Hash", false},
		{"Lot #", false},
		{"View all lots", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLotTitle(tt.title))
		})
	}
}

func TestCleanTitleStripsTrailingPrice(t *testing.T) {
	assert.Equal(t, "Lot #12 - 14K Gold Diamond Ring", CleanTitle("Lot #12 - 14K Gold Diamond Ring $125.00"))
	assert.Equal(t, "Lot #3 - Crystal Vase", CleanTitle("Lot #3 -   Crystal Vase  Current Bid: $40"))
	assert.Equal(t, "Lot #4 - Morbid Curiosity Print", CleanTitle("Lot #4 - Morbid Curiosity Print $5"))
	assert.Equal(t, "Next Page »", CleanTitle("  Next   Page » "))
}

func TestCleanTitleTruncates(t *testing.T) {
	long := "Lot #1 - " + strings.Repeat("a", 300)
	assert.Len(t, []rune(CleanTitle(long)), maxTitleLen)
}

func TestFirstPlausiblePrice(t *testing.T) {
	v, ok := FirstPlausiblePrice("Lot #12 - 14K Gold Diamond Ring $125.00")
	require.True(t, ok)
	assert.InDelta(t, 125.00, v, 0.001)

	v, ok = FirstPlausiblePrice("Opening $0.00 now at $1,250.50")
	require.True(t, ok)
	assert.InDelta(t, 1250.50, v, 0.001)

	v, ok = FirstPlausiblePrice("Current bid USD 350")
	require.True(t, ok)
	assert.InDelta(t, 350.0, v, 0.001)

	_, ok = FirstPlausiblePrice("Estimate $75,000")
	assert.False(t, ok)

	_, ok = FirstPlausiblePrice("no price here")
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount("$1,234.50")
	require.True(t, ok)
	assert.InDelta(t, 1234.50, v, 0.001)

	_, ok = ParseAmount("n/a")
	assert.False(t, ok)
}

func TestSyntheticIDIsStable(t *testing.T) {
	a := SyntheticID("Lot #1 - Brass Lamp", "https://example.com/auction/1")
	b := SyntheticID("  lot #1 - brass lamp ", "https://example.com/auction/1")
	c := SyntheticID("Lot #1 - Brass Lamp", "https://example.com/auction/2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "lot-"))
	assert.Len(t, a, len("lot-")+16)
}

func TestItemIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://example.com/auction/42/lot/7", "42-7", true},
		{"https://example.com/auction/42", "", false},
		{"https://example.com/auction/9/register", "", false},
		{"https://example.com/item/99", "99", true},
		{"https://example.com/view?id=15", "15", true},
		{"https://example.com/listing-123.html", "123", true},
		{"https://example.com/terms-2024", "", false},
		{"https://example.com/about", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ItemIDFromURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEndTime(t *testing.T) {
	got, ok := ParseEndTime("2030-01-02 15:00:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 1, 2, 15, 0, 0, 0, time.Local).UTC(), got)

	got, ok = ParseEndTime("2030-01-02T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC), got)

	got, ok = ParseEndTime("January 2, 2030 at 03:04 PM")
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 1, 2, 15, 4, 0, 0, time.Local).UTC(), got)

	_, ok = ParseEndTime("sometime soon")
	assert.False(t, ok)

	_, ok = ParseEndTime("")
	assert.False(t, ok)
}

func TestEndTimeFromLines(t *testing.T) {
	got, ok := endTimeFromLines([]string{"Lot #1 - Lamp", "Ends: 01/02/2030 03:04 PM"})
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 1, 2, 15, 4, 0, 0, time.Local).UTC(), got)

	_, ok = endTimeFromLines([]string{"Lot #1 - Lamp", "Closing soon"})
	assert.False(t, ok)
}
