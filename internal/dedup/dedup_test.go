package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sjsage522/auctionwatcher/internal/extract"
)

func candidates(titles ...string) []extract.Candidate {
	out := make([]extract.Candidate, 0, len(titles))
	for i, title := range titles {
		out = append(out, extract.Candidate{Title: title, CurrentBid: float64(i + 1)})
	}
	return out
}

func TestCollapseFirstOccurrenceWins(t *testing.T) {
	d := New(0)

	got := d.Collapse(
		candidates("Lot #1 - Brass Lamp", "LOT #1 - BRASS LAMP  ", "Lot #2 - Oak Table"),
		candidates("  lot #1 - brass lamp", "Lot #3 - Silk Scarf"),
	)

	assert.Len(t, got, 3)
	assert.Equal(t, "Lot #1 - Brass Lamp", got[0].Title)
	assert.Equal(t, 1.0, got[0].CurrentBid)
	assert.Equal(t, "Lot #2 - Oak Table", got[1].Title)
	assert.Equal(t, "Lot #3 - Silk Scarf", got[2].Title)
}

func TestCollapseDropsShortTitles(t *testing.T) {
	got := New(DefaultMinLength).Collapse(candidates("", "abc", " ab ", "Lamp"))

	assert.Len(t, got, 1)
	assert.Equal(t, "Lamp", got[0].Title)
}

func TestCollapseEmpty(t *testing.T) {
	assert.Empty(t, New(0).Collapse())
	assert.Empty(t, New(0).Collapse(nil, nil))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lot #1 - lamp", Key("  Lot #1 - LAMP "))
}
