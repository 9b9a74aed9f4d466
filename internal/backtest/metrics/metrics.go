// Package metrics derives risk and performance statistics from a finished replay.
//
// Degenerate inputs are resolved locally and never produce NaN or Inf:
//   - ratios with a zero denominator return 0
//   - ProfitFactor returns Sentinel when there are profits but no losses
//   - SortinoRatio returns Sentinel when there are returns but none negative
package metrics

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rxtech-lab/argo-replay/internal/types"
)

// Sentinel stands in for an unbounded ratio.
const Sentinel = 999.0

// PeriodsPerYear annualizes per-sample statistics.
const PeriodsPerYear = 365.0

// Compute returns the advanced metrics of a result. It does not modify the result.
func Compute(result types.Result) types.AdvancedMetrics {
	returns := Returns(result.EquityCurve)
	drawdown := MaxDrawdown(result.EquityCurve)
	trades := summarizeTrades(result.Trades)

	netProfit := result.FinalBalance - result.InitialBalance
	totalReturnPct := 0.0

	if result.InitialBalance != 0 {
		totalReturnPct = netProfit / result.InitialBalance * 100
	}

	annualized := AnnualizedReturnPct(result.InitialBalance, result.FinalBalance, result.Period.Duration())

	return types.AdvancedMetrics{
		TotalReturnPct:            finite(totalReturnPct),
		AnnualizedReturnPct:       finite(annualized),
		NetProfit:                 finite(netProfit),
		WinRate:                   finite(trades.winRate),
		AverageWin:                finite(trades.averageWin),
		AverageLoss:               finite(trades.averageLoss),
		LargestWin:                finite(trades.largestWin),
		LargestLoss:               finite(trades.largestLoss),
		Expectancy:                finite(trades.expectancy),
		ProfitFactor:              finite(ProfitFactor(result.GrossProfit, result.GrossLoss)),
		SharpeRatio:               finite(SharpeRatio(returns, result.Config.RiskFreeRate)),
		SortinoRatio:              finite(SortinoRatio(returns, result.Config.RiskFreeRate)),
		Volatility:                finite(Volatility(returns)),
		MaxDrawdown:               finite(drawdown.Amount),
		MaxDrawdownPct:            finite(drawdown.Pct),
		MaxDrawdownDuration:       drawdown.Duration,
		CalmarRatio:               finite(CalmarRatio(annualized, drawdown.Pct)),
		RecoveryFactor:            finite(RecoveryFactor(netProfit, drawdown.Amount)),
		AverageTradeDurationHours: finite(trades.averageDurationHours),
		MaxConsecutiveWins:        trades.maxConsecutiveWins,
		MaxConsecutiveLosses:      trades.maxConsecutiveLosses,
		TotalCommission:           finite(trades.commission),
	}
}

// Returns converts an equity curve into fractional period returns.
// A point following a non-positive balance contributes a zero return.
func Returns(curve []types.EquityPoint) []float64 {
	if len(curve) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Balance
		if prev <= 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, (curve[i].Balance-prev)/prev)
	}

	return returns
}

// SharpeRatio is the annualized mean excess return over the standard deviation of returns.
func SharpeRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	stdDev, err := stats.StandardDeviationPopulation(returns)
	if err != nil || stdDev == 0 {
		return 0
	}

	return meanExcess(returns, annualRiskFree) / stdDev * math.Sqrt(PeriodsPerYear)
}

// SortinoRatio is the annualized mean excess return over the downside deviation.
// The downside deviation averages the squared negative returns over all samples.
func SortinoRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var sumSquares float64

	negatives := 0

	for _, r := range returns {
		if r < 0 {
			sumSquares += r * r
			negatives++
		}
	}

	if negatives == 0 {
		return Sentinel
	}

	downside := math.Sqrt(sumSquares / float64(len(returns)))
	if downside == 0 {
		return 0
	}

	return meanExcess(returns, annualRiskFree) / downside * math.Sqrt(PeriodsPerYear)
}

// Volatility is the annualized population standard deviation of returns.
func Volatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	stdDev, err := stats.StandardDeviationPopulation(returns)
	if err != nil {
		return 0
	}

	return stdDev * math.Sqrt(PeriodsPerYear)
}

// ProfitFactor is gross profit over gross loss.
func ProfitFactor(grossProfit float64, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return Sentinel
		}

		return 0
	}

	return grossProfit / grossLoss
}

// CalmarRatio is the annualized return over the max drawdown, both in percent.
func CalmarRatio(annualizedReturnPct float64, maxDrawdownPct float64) float64 {
	if maxDrawdownPct == 0 {
		return 0
	}

	return annualizedReturnPct / maxDrawdownPct
}

// RecoveryFactor is net profit over the absolute max drawdown.
func RecoveryFactor(netProfit float64, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}

	return netProfit / maxDrawdown
}

// AnnualizedReturnPct compounds the total return to a 365 day year. Periods
// shorter than a day are not annualized and return the plain total return.
func AnnualizedReturnPct(initial float64, final float64, period time.Duration) float64 {
	if initial <= 0 {
		return 0
	}

	growth := final / initial
	if growth <= 0 {
		return -100
	}

	days := period.Hours() / 24
	if days < 1 {
		return (growth - 1) * 100
	}

	return (math.Pow(growth, PeriodsPerYear/days) - 1) * 100
}

func meanExcess(returns []float64, annualRiskFree float64) float64 {
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}

	return mean - annualRiskFree/PeriodsPerYear
}

// finite maps NaN and infinities to 0 so they never reach a result.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
