// Package extract turns fetched listing pages into validated lot records.
package extract

import (
	"fmt"

	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// Engine applies an ordered list of strategies and keeps the first result set
// that is large enough. The supplemental strategy may add lots the winning
// strategy missed.
type Engine struct {
	strategies   []Strategy
	supplemental Strategy
	minResults   int
	log          *logger.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithStrategies replaces the primary strategies.
func WithStrategies(s ...Strategy) Option {
	return func(e *Engine) { e.strategies = s }
}

// WithSupplemental replaces the supplemental strategy; nil disables it.
func WithSupplemental(s Strategy) Option {
	return func(e *Engine) { e.supplemental = s }
}

// WithMinResults sets how many lots a strategy must produce to win.
func WithMinResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minResults = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// DefaultStrategies returns the primary strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		ContainerStrategy{},
		TableStrategy{},
		GridStrategy{},
		PriceAnchorStrategy{},
	}
}

// NewEngine creates an Engine with the default strategies.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		strategies:   DefaultStrategies(),
		supplemental: TextScanStrategy{},
		minResults:   1,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the lots found in doc. An ExtractionMismatch error is
// returned when no strategy produced a single valid lot.
func (e *Engine) Extract(doc *Document) ([]Candidate, error) {
	var out []Candidate
	seen := make(map[string]bool)
	add := func(cs []Candidate) {
		for _, c := range cs {
			key := c.Title
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}

	for _, s := range e.strategies {
		found := s.Attempt(doc)
		e.log.Debug().
			Str("strategy", s.Name()).
			Int("count", len(found)).
			Str("url", doc.URL).
			Msg("Strategy attempted")
		if len(found) >= e.minResults {
			add(found)
			break
		}
	}

	if e.supplemental != nil {
		before := len(out)
		add(e.supplemental.Attempt(doc))
		if n := len(out) - before; n > 0 {
			e.log.Debug().
				Str("strategy", e.supplemental.Name()).
				Int("added", n).
				Msg("Supplemental strategy added lots")
		}
	}

	if len(out) == 0 {
		return nil, apperrors.NewExtractionMismatch("extract", fmt.Sprintf("no strategy matched %s", doc.URL))
	}
	if n := disambiguate(out, doc.URL); n > 0 {
		e.log.Debug().
			Int("rewritten", n).
			Str("url", doc.URL).
			Msg("Shared external ids replaced")
	}
	return out, nil
}

// disambiguate gives every lot whose external ID is shared with a differently
// titled lot a synthetic ID instead. It returns how many IDs were rewritten.
func disambiguate(cs []Candidate, pageURL string) int {
	titlesByID := make(map[string]map[string]bool)
	for _, c := range cs {
		if titlesByID[c.ExternalID] == nil {
			titlesByID[c.ExternalID] = make(map[string]bool)
		}
		titlesByID[c.ExternalID][c.Title] = true
	}

	n := 0
	for i := range cs {
		if len(titlesByID[cs[i].ExternalID]) > 1 {
			cs[i].ExternalID = SyntheticID(cs[i].Title, pageURL)
			n++
		}
	}
	return n
}
