package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sjsage522/auctionwatcher/helpers"
)

// Document is a fetched, queryable page together with the URL it was loaded from.
type Document struct {
	URL  string
	Root *goquery.Document
}

// NewDocument parses HTML from r.
func NewDocument(pageURL string, r io.Reader) (*Document, error) {
	root, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("HTML parse error: %w", err)
	}
	return &Document{URL: pageURL, Root: root}, nil
}

// NewDocumentFromString parses an HTML string.
func NewDocumentFromString(pageURL, markup string) (*Document, error) {
	return NewDocument(pageURL, strings.NewReader(markup))
}

// Lines returns the rendered text of the page body, one visual line per entry.
func (d *Document) Lines() []string {
	body := d.Root.Find("body")
	if body.Length() == 0 {
		body = d.Root.Selection
	}
	return splitLines(VisibleText(body))
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "tfoot": true, "thead": true, "tr": true, "ul": true,
}

var cellTags = map[string]bool{"td": true, "th": true}

// VisibleText renders sel roughly the way a browser lays it out as text:
// block elements start new lines, table cells are space separated, and
// scripts are skipped.
func VisibleText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		walkText(&b, n)
	}
	return strings.Join(splitLines(b.String()), "\n")
}

func walkText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	cell := n.Type == html.ElementNode && cellTags[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(b, c)
	}
	switch {
	case block:
		b.WriteByte('\n')
	case cell:
		b.WriteByte(' ')
	}
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = helpers.CollapseSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ownText is the concatenated text of sel's direct text children.
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
