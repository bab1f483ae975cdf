package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"sjsage522/auctionwatcher/helpers"
)

// Plausible bid bounds; values outside are treated as parse noise.
const (
	MinPlausiblePrice = 0.01
	MaxPlausiblePrice = 50000.0

	maxTitleLen       = 200
	maxDescriptionLen = 500
)

var (
	lotTitlePattern = regexp.MustCompile(`(?i)^lot\s+#\d+\s*-\s*.+`)
	currencyPattern = regexp.MustCompile(`(?i)(?:\$|\busd)\s*([\d,]+(?:\.\d+)?)`)
	trailingLabel   = regexp.MustCompile(`(?i)[\s\-–—:|,]*(?:\b(?:current|starting|opening|high)\s+)?(?:\b(?:bid|price)\b)?[\s\-–—:|,]*$`)
	endLinePattern  = regexp.MustCompile(`(?i)\b(?:ends?|closes?|closing|end time)\b\s*(?:on|at)?\s*:?\s*(.+)$`)

	itemIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/lot/(\d+)`),
		regexp.MustCompile(`/item/(\d+)`),
		regexp.MustCompile(`[?&]id=(\d+)`),
		regexp.MustCompile(`-(\d+)\.html?`),
	}
	auctionIDPattern = regexp.MustCompile(`/auction/(\d+)`)

	endTimeLayouts = []string{
		"2006-01-02 15:04:05",
		"01/02/2006 03:04 PM",
		"1/2/2006 3:04 PM",
		"01/02/2006 15:04",
		"1/2/2006 15:04",
		"January 2, 2006 at 03:04 PM",
		"January 2, 2006 at 3:04 PM",
		"Jan 2, 2006 3:04 PM",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
)

// IsLotTitle reports whether title has the canonical "Lot #<n> - <description>" form.
func IsLotTitle(title string) bool {
	title = strings.TrimSpace(title)
	if len(title) < 5 {
		return false
	}
	return lotTitlePattern.MatchString(title)
}

// ParseAmount extracts a number from a price-like string such as "$1,234.50"
// or "USD 350".
func ParseAmount(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FirstPlausiblePrice returns the first currency-formatted value in text that
// falls inside the plausible bounds.
func FirstPlausiblePrice(text string) (float64, bool) {
	for _, m := range currencyPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if v >= MinPlausiblePrice && v <= MaxPlausiblePrice {
			return v, true
		}
	}
	return 0, false
}

// CleanTitle normalizes whitespace and drops a trailing price (and its label)
// when what remains is still a valid lot title.
func CleanTitle(raw string) string {
	title := helpers.CollapseSpace(raw)
	if loc := currencyPattern.FindStringIndex(title); loc != nil && loc[0] > 0 {
		cut := trailingLabel.ReplaceAllString(title[:loc[0]], "")
		if IsLotTitle(cut) {
			title = cut
		}
	}
	return helpers.Truncate(title, maxTitleLen)
}

// SyntheticID derives a stable identifier from a title and its page context.
func SyntheticID(title, context string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(title)) + "|" + context))
	return "lot-" + hex.EncodeToString(sum[:8])
}

// ItemIDFromURL extracts an item number from a listing URL. Only
// item-specific paths count; a bare auction or page link names no lot. When
// the URL also names its auction, the two are joined as "<auction>-<item>" so
// lot numbers that restart per auction stay distinct.
func ItemIDFromURL(raw string) (string, bool) {
	var id string
	for _, p := range itemIDPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			id = m[1]
			break
		}
	}
	if id == "" {
		return "", false
	}
	if m := auctionIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1] + "-" + id, true
	}
	return id, true
}

// ParseEndTime parses the auction end formats seen on listing pages. Times
// without a zone are read in the local zone; the result is UTC.
func ParseEndTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range endTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// endTimeFromLines looks for "Ends: <date>" style lines.
func endTimeFromLines(lines []string) (time.Time, bool) {
	for _, line := range lines {
		m := endLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if t, ok := ParseEndTime(m[1]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
