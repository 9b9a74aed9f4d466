package commission_fee

import "github.com/shopspring/decimal"

// RateCommissionFee charges a fixed fraction of the notional on every leg.
type RateCommissionFee struct {
	rate decimal.Decimal
}

// NewRateCommissionFee creates a commission model charging rate * notional.
func NewRateCommissionFee(rate float64) CommissionFee {
	return &RateCommissionFee{
		rate: decimal.NewFromFloat(rate),
	}
}

func (c *RateCommissionFee) Calculate(notional float64) float64 {
	fee, _ := decimal.NewFromFloat(notional).Mul(c.rate).Float64()

	return fee
}
