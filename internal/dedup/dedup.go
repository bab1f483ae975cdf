// Package dedup collapses candidate lots that share a normalized title.
package dedup

import (
	"strings"

	"sjsage522/auctionwatcher/internal/extract"
)

// DefaultMinLength is the shortest normalized title kept.
const DefaultMinLength = 4

// Deduplicator keeps the first occurrence of each normalized title.
type Deduplicator struct {
	minLen int
}

// New creates a Deduplicator that drops titles shorter than minLen.
func New(minLen int) *Deduplicator {
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	return &Deduplicator{minLen: minLen}
}

// Key is the identity two candidates share when they describe the same lot.
func Key(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Collapse merges seqs in order, keeping at most one record per key.
func (d *Deduplicator) Collapse(seqs ...[]extract.Candidate) []extract.Candidate {
	seen := make(map[string]struct{})
	var out []extract.Candidate
	for _, seq := range seqs {
		for _, c := range seq {
			key := Key(c.Title)
			if len(key) < d.minLen {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
