// Package valuation turns an estimated resale value into a profit analysis.
// Estimates come from an Estimator; nothing here guesses a value on its own.
package valuation

import (
	"context"
	"sort"
	"strings"

	"sjsage522/auctionwatcher/internal/model"
)

// StrongBuyMargin is the margin at or above which a qualifying lot is a strong buy.
const StrongBuyMargin = 75.0

// Estimate is a resale value with the estimator's confidence in [0, 1].
type Estimate struct {
	Value      float64
	Confidence float64
	Source     string
}

// Estimator looks up a resale value for a lot. ok is false when it has no opinion.
type Estimator interface {
	Estimate(ctx context.Context, title, description string) (est Estimate, ok bool, err error)
}

// Thresholds decide the recommendation label.
type Thresholds struct {
	MinMarginPct float64
	MinAmount    float64
}

// Analyze builds the profit analysis for an item at its current bid. The
// margin is kept unrounded so stored threshold comparisons match Recommend.
// NetProfit is what remains after resale fees on the estimated value.
func Analyze(itemID int64, currentBid float64, est Estimate, th Thresholds) model.ProfitAnalysis {
	potential := est.Value - currentBid
	var margin float64
	if est.Value > 0 {
		margin = potential / est.Value * 100
	}
	fees := CalculateFees(est.Value, 0)
	return model.ProfitAnalysis{
		ItemID:          itemID,
		EstimatedValue:  round2(est.Value),
		CurrentBid:      currentBid,
		PotentialProfit: round2(potential),
		NetProfit:       round2(fees.NetAfterFees - currentBid),
		ProfitMargin:    margin,
		ConfidenceScore: est.Confidence,
		Recommendation:  Recommend(margin, potential, th),
	}
}

// Recommend labels a margin/profit pair.
func Recommend(margin, potential float64, th Thresholds) string {
	switch {
	case margin >= StrongBuyMargin && potential >= th.MinAmount:
		return model.RecommendStrongBuy
	case margin >= th.MinMarginPct && potential >= th.MinAmount:
		return model.RecommendBuy
	case margin > 0:
		return model.RecommendWatch
	default:
		return model.RecommendPass
	}
}

// KeywordConfidence is the confidence attached to operator-supplied hints.
const KeywordConfidence = 0.3

// KeywordEstimator values a lot by operator-supplied keyword hints. When
// several hints match, the longest keyword wins.
type KeywordEstimator struct {
	hints []hint
}

type hint struct {
	keyword string
	value   float64
}

var _ Estimator = (*KeywordEstimator)(nil)

// NewKeywordEstimator creates an estimator from keyword=value hints.
func NewKeywordEstimator(hints map[string]float64) *KeywordEstimator {
	e := &KeywordEstimator{}
	for k, v := range hints {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || v <= 0 {
			continue
		}
		e.hints = append(e.hints, hint{keyword: k, value: v})
	}
	sort.Slice(e.hints, func(i, j int) bool {
		if len(e.hints[i].keyword) != len(e.hints[j].keyword) {
			return len(e.hints[i].keyword) > len(e.hints[j].keyword)
		}
		return e.hints[i].keyword < e.hints[j].keyword
	})
	return e
}

// Len returns the number of usable hints.
func (e *KeywordEstimator) Len() int { return len(e.hints) }

func (e *KeywordEstimator) Estimate(_ context.Context, title, description string) (Estimate, bool, error) {
	text := strings.ToLower(title + " " + description)
	for _, h := range e.hints {
		if strings.Contains(text, h.keyword) {
			return Estimate{Value: h.value, Confidence: KeywordConfidence, Source: "keyword:" + h.keyword}, true, nil
		}
	}
	return Estimate{}, false, nil
}
