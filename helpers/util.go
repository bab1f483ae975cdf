package helpers

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// CollapseSpace trims s and folds internal whitespace runs to single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// MakeAbsoluteURL resolves ref against base. Unparseable input returns ref unchanged.
func MakeAbsoluteURL(ref, base string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// IsSameSite reports whether ref is relative or on the same host as base.
func IsSameSite(ref, base string) bool {
	r, err := url.Parse(ref)
	if err != nil {
		return false
	}
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	return r.Host == "" || strings.EqualFold(r.Host, b.Host)
}
