package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one structural assumption about how a listing page lays out lots.
type Strategy interface {
	Name() string
	Attempt(doc *Document) []Candidate
}

// ContainerStrategy looks for repeated item-like containers.
type ContainerStrategy struct {
	Selectors   []string
	MinElements int
}

// DefaultContainerSelectors are tried in order; the first selector whose
// elements yield lots wins.
var DefaultContainerSelectors = []string{
	".lot-item", ".auction-item", ".item", ".product-item", ".auction-lot",
	".listing-item", "[class*='item']", "[class*='lot']", "[class*='product']",
	"[id*='item']", "[id*='lot']", ".card", "article",
}

func (s ContainerStrategy) Name() string { return "container" }

func (s ContainerStrategy) Attempt(doc *Document) []Candidate {
	selectors := s.Selectors
	if len(selectors) == 0 {
		selectors = DefaultContainerSelectors
	}
	min := s.MinElements
	if min <= 0 {
		min = 2
	}
	for _, q := range selectors {
		sel := doc.Root.Find(q)
		if sel.Length() < min {
			continue
		}
		if found := doc.collect(sel, s.Name(), 0); len(found) > 0 {
			return found
		}
	}
	return nil
}

// TableStrategy reads lots from table rows, skipping each table's header row.
type TableStrategy struct{}

func (TableStrategy) Name() string { return "table" }

func (s TableStrategy) Attempt(doc *Document) []Candidate {
	var out []Candidate
	doc.Root.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() <= 2 {
			return
		}
		out = append(out, doc.collect(rows.Slice(1, goquery.ToEnd), s.Name(), 0)...)
	})
	return out
}

// GridStrategy targets bootstrap-like grid and card layouts.
type GridStrategy struct {
	Selectors []string
}

var DefaultGridSelectors = []string{
	".row .col", ".row > div", ".grid-item", ".col-md-6", ".col-lg-4", ".col-sm-12",
}

func (GridStrategy) Name() string { return "grid" }

func (s GridStrategy) Attempt(doc *Document) []Candidate {
	selectors := s.Selectors
	if len(selectors) == 0 {
		selectors = DefaultGridSelectors
	}
	for _, q := range selectors {
		sel := doc.Root.Find(q)
		if sel.Length() <= 2 {
			continue
		}
		if found := doc.collect(sel, s.Name(), 5); len(found) > 0 {
			return found
		}
	}
	return nil
}

// PriceAnchorStrategy starts from elements whose own text looks like a price
// and climbs to the nearest ancestor that also carries a lot title.
type PriceAnchorStrategy struct {
	Limit int
}

var priceMarkers = []string{"$", "usd", "bid", "price"}

func (PriceAnchorStrategy) Name() string { return "price_anchor" }

func (s PriceAnchorStrategy) Attempt(doc *Document) []Candidate {
	limit := s.Limit
	if limit <= 0 {
		limit = 20
	}

	var anchors []*goquery.Selection
	doc.Root.Find("body *").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if skipTags[goquery.NodeName(el)] {
			return true
		}
		own := strings.ToLower(ownText(el))
		for _, m := range priceMarkers {
			if strings.Contains(own, m) {
				anchors = append(anchors, el)
				break
			}
		}
		return len(anchors) < limit
	})

	var out []Candidate
	seen := make(map[string]bool)
	for _, anchor := range anchors {
		for _, el := range []*goquery.Selection{anchor, anchor.Parent(), anchor.Parent().Parent()} {
			if el.Length() == 0 {
				break
			}
			c, ok := doc.candidateFrom(el, s.Name())
			if !ok {
				continue
			}
			if !seen[c.Title] {
				seen[c.Title] = true
				out = append(out, c)
			}
			break
		}
	}
	return out
}

// TextScanStrategy scans the rendered page text line by line. It is the
// last resort and may supplement the structural strategies.
type TextScanStrategy struct {
	Limit int
}

func (TextScanStrategy) Name() string { return "text_scan" }

func (s TextScanStrategy) Attempt(doc *Document) []Candidate {
	limit := s.Limit
	if limit <= 0 {
		limit = 10
	}

	var out []Candidate
	for _, line := range doc.Lines() {
		if len(out) >= limit {
			break
		}
		if len(line) >= maxTitleLen {
			continue
		}
		title := CleanTitle(line)
		if !IsLotTitle(title) {
			continue
		}
		bid, _ := FirstPlausiblePrice(line)
		out = append(out, Candidate{
			ExternalID: SyntheticID(title, doc.URL),
			Title:      title,
			CurrentBid: bid,
			Strategy:   s.Name(),
		})
	}
	return out
}
