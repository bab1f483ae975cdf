package valuation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/auctionwatcher/internal/model"
)

func TestCalculateFees(t *testing.T) {
	fees := CalculateFees(200, 0)

	assert.InDelta(t, 27.20, fees.FinalValueFee, 0.001)
	assert.InDelta(t, 5.00, fees.PaymentFee, 0.001)
	assert.InDelta(t, 32.20, fees.Total, 0.001)
	assert.InDelta(t, 167.80, fees.NetAfterFees, 0.001)

	fees = CalculateFees(50, 10)
	assert.InDelta(t, 6.80, fees.FinalValueFee, 0.001)
	assert.InDelta(t, 1.71, fees.PaymentFee, 0.001)
}

func TestAnalyze(t *testing.T) {
	th := Thresholds{MinMarginPct: 50, MinAmount: 25}

	a := Analyze(7, 40, Estimate{Value: 200, Confidence: 0.3}, th)
	assert.Equal(t, int64(7), a.ItemID)
	assert.InDelta(t, 160.0, a.PotentialProfit, 0.001)
	assert.InDelta(t, 127.80, a.NetProfit, 0.001)
	assert.InDelta(t, 80.0, a.ProfitMargin, 0.001)
	assert.Equal(t, 0.3, a.ConfidenceScore)
	assert.Equal(t, model.RecommendStrongBuy, a.Recommendation)

	a = Analyze(7, 90, Estimate{Value: 200}, th)
	assert.InDelta(t, 55.0, a.ProfitMargin, 0.001)
	assert.Equal(t, model.RecommendBuy, a.Recommendation)

	a = Analyze(7, 150, Estimate{Value: 200}, th)
	assert.InDelta(t, 25.0, a.ProfitMargin, 0.001)
	assert.Equal(t, model.RecommendWatch, a.Recommendation)

	a = Analyze(7, 250, Estimate{Value: 200}, th)
	assert.InDelta(t, -50.0, a.PotentialProfit, 0.001)
	assert.Equal(t, model.RecommendPass, a.Recommendation)
}

func TestRecommendRequiresMinimumAmount(t *testing.T) {
	th := Thresholds{MinMarginPct: 50, MinAmount: 25}

	assert.Equal(t, model.RecommendWatch, Recommend(90, 10, th))
	assert.Equal(t, model.RecommendBuy, Recommend(50, 25, th))
	assert.Equal(t, model.RecommendWatch, Recommend(49.9, 100, th))
	assert.Equal(t, model.RecommendPass, Recommend(0, 0, th))
}

func TestKeywordEstimatorPrefersLongestKeyword(t *testing.T) {
	e := NewKeywordEstimator(map[string]float64{
		"silver":      40,
		"silver coin": 25,
		"":            99,
		"broken":      0,
	})
	require.Equal(t, 2, e.Len())

	est, ok, err := e.Estimate(context.Background(), "Lot #3 - 1921 Silver Coin", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 25.0, est.Value)
	assert.Equal(t, KeywordConfidence, est.Confidence)
	assert.Equal(t, "keyword:silver coin", est.Source)

	est, ok, err = e.Estimate(context.Background(), "Lot #4 - Tray", "sterling SILVER")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 40.0, est.Value)

	_, ok, err = e.Estimate(context.Background(), "Lot #5 - Oak Chair", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnalyzeKeepsMarginUnrounded(t *testing.T) {
	th := Thresholds{MinMarginPct: 50, MinAmount: 25}

	a := Analyze(3, 5000.40, Estimate{Value: 10000}, th)
	assert.InDelta(t, 49.996, a.ProfitMargin, 1e-9)
	assert.Less(t, a.ProfitMargin, th.MinMarginPct)
	assert.Equal(t, model.RecommendWatch, a.Recommendation)
}

func TestAnalyzeNetProfitAfterFees(t *testing.T) {
	a := Analyze(4, 180, Estimate{Value: 200}, Thresholds{})
	assert.InDelta(t, 20.0, a.PotentialProfit, 0.001)
	assert.InDelta(t, -12.20, a.NetProfit, 0.001, "fees can turn a nominal profit into a loss")

	a = Analyze(4, 0, Estimate{}, Thresholds{})
	assert.Zero(t, a.ProfitMargin)
	assert.InDelta(t, -0.30, a.NetProfit, 0.001)
}
