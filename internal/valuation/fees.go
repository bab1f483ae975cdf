package valuation

import "math"

// Marketplace resale fees.
const (
	FinalValueFeeRate  = 0.136
	PaymentFeeRate     = 0.0235
	PaymentFixedCharge = 0.30
)

// Fees is the cost breakdown of reselling an item, rounded to cents.
type Fees struct {
	FinalValueFee float64 `json:"final_value_fee"`
	PaymentFee    float64 `json:"payment_fee"`
	Total         float64 `json:"total_fees"`
	NetAfterFees  float64 `json:"net_after_fees"`
}

// CalculateFees returns the fees charged on a sale at salePrice plus shipping.
func CalculateFees(salePrice, shipping float64) Fees {
	fvf := salePrice * FinalValueFeeRate
	payment := (salePrice+shipping)*PaymentFeeRate + PaymentFixedCharge
	total := fvf + payment
	return Fees{
		FinalValueFee: round2(fvf),
		PaymentFee:    round2(payment),
		Total:         round2(total),
		NetAfterFees:  round2(salePrice - total),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
