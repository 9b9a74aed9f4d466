package metrics

import (
	"time"

	"github.com/rxtech-lab/argo-replay/internal/types"
)

// Drawdown summarizes the declines of an equity curve from its running peak.
// The three fields are tracked independently: the deepest decline, the
// deepest decline relative to its peak and the longest time under water need
// not come from the same stretch.
type Drawdown struct {
	// Amount is the largest peak minus value seen
	Amount float64
	// Pct is the largest (peak - value) / peak * 100 seen
	Pct float64
	// Duration is the longest time from a peak to a later point still below it
	Duration time.Duration
}

// MaxDrawdown scans the curve once, keeping the running peak.
func MaxDrawdown(curve []types.EquityPoint) Drawdown {
	var result Drawdown

	if len(curve) == 0 {
		return result
	}

	peak := curve[0].Balance
	peakTime := curve[0].Time

	for _, point := range curve[1:] {
		if point.Balance >= peak {
			peak = point.Balance
			peakTime = point.Time

			continue
		}

		amount := peak - point.Balance
		if amount > result.Amount {
			result.Amount = amount
		}

		if peak > 0 {
			if pct := amount / peak * 100; pct > result.Pct {
				result.Pct = pct
			}
		}

		if underwater := point.Time.Sub(peakTime); underwater > result.Duration {
			result.Duration = underwater
		}
	}

	return result
}
