package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyGoldDiamondRing(t *testing.T) {
	r := New(DefaultLexicon()).Classify("14K Gold Diamond Ring", "")

	assert.GreaterOrEqual(t, r.Score, 2)
	assert.True(t, r.HasCategory(PreciousMetals))
	assert.True(t, r.HasCategory(Gems))
	assert.ElementsMatch(t, []string{"gold", "diamond"}, r.KeywordsFound)
	assert.Empty(t, r.RedFlags)
	assert.True(t, r.IsValuable)
}

func TestClassifyReplicaIsNegative(t *testing.T) {
	r := New(DefaultLexicon()).Classify("Gold Plated Replica Watch", "")

	assert.Less(t, r.Score, 0)
	assert.Contains(t, r.RedFlags, "replica")
	assert.False(t, r.IsValuable)
}

func TestClassifyUsesDescription(t *testing.T) {
	r := New(DefaultLexicon()).Classify("Lot #5 - Ring", "Sterling band with a small sapphire")

	assert.Equal(t, 2, r.Score)
	assert.Equal(t, []string{PreciousMetals, Gems}, r.Categories)
}

func TestClassifyCategoryListedOnce(t *testing.T) {
	r := New(DefaultLexicon()).Classify("Sterling Silver and Gold Locket", "")

	assert.Equal(t, 3, r.Score)
	assert.Equal(t, []string{PreciousMetals}, r.Categories)
	assert.Equal(t, []string{"gold", "silver", "sterling"}, r.KeywordsFound)
}

func TestClassifyNothingMatched(t *testing.T) {
	r := New(DefaultLexicon()).Classify("Lot #9 - Box of Cables", "")

	assert.Zero(t, r.Score)
	assert.Empty(t, r.Categories)
	assert.False(t, r.IsValuable)
}

func TestWithAvoidAddsRedFlagsOnce(t *testing.T) {
	lex := DefaultLexicon().WithAvoid([]string{"reproduction", "replica"})
	c := New(lex)

	r := c.Classify("Antique Reproduction Clock", "")
	assert.Equal(t, 1-2, r.Score)
	assert.Equal(t, []string{"reproduction"}, r.RedFlags)

	r = c.Classify("Replica Coin", "")
	assert.Equal(t, 1-2, r.Score)
	assert.Equal(t, []string{"replica"}, r.RedFlags)
}

func TestCondition(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Brand new in box, sealed", ConditionNew},
		{"Excellent shape", ConditionLikeNew},
		{"Very good overall", ConditionGood},
		{"Some wear on the edges", ConditionFair},
		{"Sold for parts", ConditionPoor},
		{"Oak table", ConditionUnknown},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Condition(tt.text))
		})
	}
}
