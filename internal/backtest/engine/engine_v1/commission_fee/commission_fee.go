package commission_fee

type CommissionFee interface {
	// Calculate the commission fee for a given notional value and returns the fee in quote currency
	Calculate(notional float64) float64
}

// GetCommissionFeeHandler returns the commission model for a rate. A zero rate
// uses the zero commission model.
func GetCommissionFeeHandler(rate float64) CommissionFee {
	if rate <= 0 {
		return NewZeroCommissionFee()
	}

	return NewRateCommissionFee(rate)
}
