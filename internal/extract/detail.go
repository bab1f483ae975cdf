package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/auctionwatcher/helpers"
)

var (
	descriptionSelectors = []string{
		".item-description", ".lot-description", ".description", "#description",
		"[itemprop='description']",
	}
	bidSelectors = []string{
		".current-bid", ".high-bid", ".bid-amount", ".price", "[itemprop='price']",
	}
)

// Detail is what an item's own page adds to its listing entry. Zero fields
// mean the page did not say.
type Detail struct {
	Description string
	CurrentBid  float64
	EndTime     *time.Time
}

// Detail reads an item detail page.
func (d *Document) Detail() Detail {
	var det Detail
	body := d.Root.Find("body")

	for _, q := range descriptionSelectors {
		if text := helpers.CollapseSpace(d.Root.Find(q).First().Text()); text != "" {
			det.Description = helpers.Truncate(text, maxDescriptionLen)
			break
		}
	}
	if det.Description == "" {
		if v, ok := d.Root.Find(`meta[name="description"]`).Attr("content"); ok {
			det.Description = helpers.Truncate(helpers.CollapseSpace(v), maxDescriptionLen)
		}
	}

	for _, q := range bidSelectors {
		sel := d.Root.Find(q).First()
		if sel.Length() == 0 {
			continue
		}
		if v, ok := FirstPlausiblePrice(sel.Text()); ok {
			det.CurrentBid = v
			break
		}
		if v, ok := sel.Attr("content"); ok {
			if amount, parsed := ParseAmount(v); parsed && amount >= MinPlausiblePrice && amount <= MaxPlausiblePrice {
				det.CurrentBid = amount
				break
			}
		}
	}
	if det.CurrentBid == 0 {
		if raw, ok := firstAttr(body, priceAttrs); ok {
			if v, parsed := ParseAmount(raw); parsed && v >= MinPlausiblePrice && v <= MaxPlausiblePrice {
				det.CurrentBid = v
			}
		}
	}

	det.EndTime = endTimeOf(body, d.Lines())
	return det
}

// Refine fills c from det. Detail values win over listing values; empty
// detail fields keep what the listing said.
func (c Candidate) Refine(det Detail) Candidate {
	if det.Description != "" {
		c.Description = det.Description
	}
	if det.CurrentBid > 0 {
		c.CurrentBid = det.CurrentBid
	}
	if det.EndTime != nil {
		c.EndTime = det.EndTime
	}
	return c
}

// Links returns the absolute, same-site hrefs matched by the first selector
// that matches anything, in document order without repeats.
func (d *Document) Links(selectors []string, keep func(href string) bool) []string {
	for _, q := range selectors {
		sel := d.Root.Find(q)
		if sel.Length() == 0 {
			continue
		}
		var out []string
		seen := make(map[string]bool)
		sel.Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			href = strings.TrimSpace(href)
			if !ok || href == "" {
				return
			}
			abs := helpers.MakeAbsoluteURL(href, d.URL)
			if !helpers.IsSameSite(abs, d.URL) || seen[abs] || (keep != nil && !keep(abs)) {
				return
			}
			seen[abs] = true
			out = append(out, abs)
		})
		return out
	}
	return nil
}
