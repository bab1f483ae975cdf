package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/auctionwatcher/helpers"
)

// Candidate is a validated, caller-owned item record produced by a strategy.
type Candidate struct {
	ExternalID  string
	Title       string
	CurrentBid  float64
	URL         string
	Description string
	// EndTime is nil when the page did not state a parseable end time.
	EndTime  *time.Time
	Strategy string
}

var (
	titleSelectors = []string{
		"h1", "h2", "h3", "h4", "h5", "h6",
		".title", ".name", ".item-title", ".product-title",
		"strong", "b", "a", "span",
	}
	priceAttrs   = []string{"data-price", "data-bid", "data-amount"}
	idAttrs      = []string{"data-lot-id", "data-item-id", "data-id"}
	endTimeAttrs = []string{"data-end-time", "data-end", "data-closes"}
)

// firstAttr returns the first non-empty attribute among attrs, on sel itself
// or on its descendants.
func firstAttr(sel *goquery.Selection, attrs []string) (string, bool) {
	for _, a := range attrs {
		if v, ok := sel.Attr(a); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		if v, ok := sel.Find("[" + a + "]").First().Attr(a); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// lotTitle picks the first title source that cleans up into a valid lot title:
// heading-like descendants first, then the element's own lines.
func lotTitle(sel *goquery.Selection, lines []string) (string, bool) {
	for _, q := range titleSelectors {
		node := sel.Find(q).First()
		if node.Length() == 0 {
			continue
		}
		if title := CleanTitle(node.Text()); len(title) > 3 && IsLotTitle(title) {
			return title, true
		}
	}
	for _, line := range lines {
		if len(line) <= 3 || len(line) >= maxTitleLen {
			continue
		}
		if title := CleanTitle(line); IsLotTitle(title) {
			return title, true
		}
	}
	return "", false
}

func (d *Document) itemURL(sel *goquery.Selection) string {
	link := sel
	if goquery.NodeName(sel) != "a" {
		link = sel.Find("a[href]").First()
	}
	href, ok := link.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	return helpers.MakeAbsoluteURL(href, d.URL)
}

func endTimeOf(sel *goquery.Selection, lines []string) *time.Time {
	if v, ok := firstAttr(sel, endTimeAttrs); ok {
		if t, ok := ParseEndTime(v); ok {
			return &t
		}
	}
	if v, ok := sel.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, ok := ParseEndTime(v); ok {
			return &t
		}
	}
	if t, ok := endTimeFromLines(lines); ok {
		return &t
	}
	return nil
}

// candidateFrom builds a validated record from one element, or reports false
// when the element does not describe a lot.
func (d *Document) candidateFrom(sel *goquery.Selection, strategy string) (Candidate, bool) {
	text := VisibleText(sel)
	if len(text) < 3 {
		return Candidate{}, false
	}
	lines := splitLines(text)
	if lotTitleCount(lines) > 1 {
		// A wrapper around several lots; its members are read on their own.
		return Candidate{}, false
	}

	title, ok := lotTitle(sel, lines)
	if !ok {
		return Candidate{}, false
	}

	bid, ok := FirstPlausiblePrice(text)
	if !ok {
		if raw, found := firstAttr(sel, priceAttrs); found {
			if v, parsed := ParseAmount(raw); parsed && v <= MaxPlausiblePrice {
				bid = v
			}
		}
	}

	c := Candidate{
		Title:       title,
		CurrentBid:  bid,
		URL:         d.itemURL(sel),
		Description: helpers.Truncate(strings.Join(lines, "\n"), maxDescriptionLen),
		EndTime:     endTimeOf(sel, lines),
		Strategy:    strategy,
	}
	c.ExternalID = d.externalID(sel, c)
	return c, true
}

func (d *Document) externalID(sel *goquery.Selection, c Candidate) string {
	if v, ok := firstAttr(sel, idAttrs); ok {
		return v
	}
	if c.URL != "" && c.URL != d.URL {
		if id, ok := ItemIDFromURL(c.URL); ok {
			return id
		}
	}
	return SyntheticID(c.Title, d.URL)
}

// lotTitleCount counts the distinct lot titles among lines.
func lotTitleCount(lines []string) int {
	seen := make(map[string]bool)
	for _, line := range lines {
		if len(line) >= maxTitleLen {
			continue
		}
		if title := CleanTitle(line); IsLotTitle(title) {
			seen[strings.ToLower(title)] = true
		}
	}
	return len(seen)
}

// collect runs candidateFrom over every element of sel. Elements that contain
// another element of sel are skipped so loose selectors do not read a list
// wrapper as a lot.
func (d *Document) collect(sel *goquery.Selection, strategy string, minTitleLen int) []Candidate {
	var out []Candidate
	sel.Each(func(_ int, el *goquery.Selection) {
		if el.HasNodes(sel.Nodes...).Length() > 0 {
			return
		}
		if c, ok := d.candidateFrom(el, strategy); ok && len(c.Title) > minTitleLen {
			out = append(out, c)
		}
	})
	return out
}
