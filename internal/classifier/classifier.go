// Package classifier scores a lot's resale potential from its text. The score
// is a heuristic signal; it never estimates a monetary value.
package classifier

import (
	"strings"
)

// Category is one group of value-signalling keywords.
type Category struct {
	Name     string
	Keywords []string
}

// Lexicon is the vocabulary the classifier matches against.
type Lexicon struct {
	Categories []Category
	RedFlags   []string
}

// Category names.
const (
	PreciousMetals = "precious_metals"
	Gems           = "gems"
	Collectibles   = "collectibles"
	Brands         = "brands"
	Materials      = "materials"
	Coins          = "coins"
)

const (
	keywordWeight = 1
	redFlagWeight = -2
)

// DefaultLexicon returns the built-in vocabulary.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Categories: []Category{
			{PreciousMetals, []string{"gold", "silver", "platinum", "sterling"}},
			{Gems, []string{"diamond", "emerald", "ruby", "sapphire", "pearl"}},
			{Collectibles, []string{"vintage", "antique", "rare", "limited edition", "signed"}},
			{Brands, []string{"rolex", "cartier", "tiffany", "hermes", "louis vuitton"}},
			{Materials, []string{"leather", "silk", "cashmere", "mahogany", "crystal"}},
			{Coins, []string{"coin", "numismatic", "proof", "uncirculated"}},
		},
		RedFlags: []string{
			"replica", "style", "inspired", "fake", "faux",
			"damaged", "broken", "parts only", "not working",
		},
	}
}

// WithAvoid returns a copy of l whose red flags also include avoid. Keywords
// already present are not added twice.
func (l Lexicon) WithAvoid(avoid []string) Lexicon {
	flags := make([]string, 0, len(l.RedFlags)+len(avoid))
	flags = append(flags, l.RedFlags...)
	flags = appendUnique(flags, avoid...)
	l.RedFlags = flags
	return l
}

// Result is the outcome of classifying one lot. Sets are kept in lexicon order.
type Result struct {
	Categories    []string `json:"categories"`
	KeywordsFound []string `json:"keywords_found"`
	RedFlags      []string `json:"red_flags"`
	Score         int      `json:"score"`
	IsValuable    bool     `json:"is_valuable"`
}

// HasCategory reports whether name was matched.
func (r Result) HasCategory(name string) bool {
	for _, c := range r.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Classifier is immutable and safe for concurrent use.
type Classifier struct {
	lexicon Lexicon
}

// New creates a Classifier. Keywords are matched case-insensitively.
func New(lexicon Lexicon) *Classifier {
	norm := Lexicon{RedFlags: lower(lexicon.RedFlags)}
	for _, c := range lexicon.Categories {
		norm.Categories = append(norm.Categories, Category{Name: c.Name, Keywords: lower(c.Keywords)})
	}
	return &Classifier{lexicon: norm}
}

// Classify scores title and description together: +1 per category keyword,
// -2 per red flag. A lot is valuable when the score is positive.
func (c *Classifier) Classify(title, description string) Result {
	text := strings.ToLower(title + " " + description)

	var r Result
	for _, cat := range c.lexicon.Categories {
		for _, kw := range cat.Keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			r.Score += keywordWeight
			r.Categories = appendUnique(r.Categories, cat.Name)
			r.KeywordsFound = appendUnique(r.KeywordsFound, kw)
		}
	}
	for _, kw := range c.lexicon.RedFlags {
		if strings.Contains(text, kw) {
			r.Score += redFlagWeight
			r.RedFlags = appendUnique(r.RedFlags, kw)
		}
	}
	r.IsValuable = r.Score > 0
	return r
}

func lower(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = appendUnique(out, s)
		}
	}
	return out
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
