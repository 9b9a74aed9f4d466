package metrics

import (
	"github.com/rxtech-lab/argo-replay/internal/types"
)

type tradeSummary struct {
	winRate              float64
	averageWin           float64
	averageLoss          float64
	largestWin           float64
	largestLoss          float64
	expectancy           float64
	averageDurationHours float64
	maxConsecutiveWins   int
	maxConsecutiveLosses int
	commission           float64
}

// summarizeTrades computes the per-trade statistics. Everything is zero for an empty list.
func summarizeTrades(trades []types.Trade) tradeSummary {
	var summary tradeSummary

	if len(trades) == 0 {
		return summary
	}

	var (
		wins, losses            int
		winSum, lossSum, netSum float64
		hours                   float64
		winStreak, lossStreak   int
	)

	for _, trade := range trades {
		netSum += trade.PnL
		hours += trade.Duration.Hours()
		summary.commission += trade.Commission

		switch {
		case trade.IsWin():
			wins++
			winSum += trade.PnL
			winStreak++
			lossStreak = 0

			if trade.PnL > summary.largestWin {
				summary.largestWin = trade.PnL
			}
		case trade.IsLoss():
			losses++
			lossSum += trade.PnL
			lossStreak++
			winStreak = 0

			if trade.PnL < summary.largestLoss {
				summary.largestLoss = trade.PnL
			}
		default:
			winStreak = 0
			lossStreak = 0
		}

		summary.maxConsecutiveWins = max(summary.maxConsecutiveWins, winStreak)
		summary.maxConsecutiveLosses = max(summary.maxConsecutiveLosses, lossStreak)
	}

	count := float64(len(trades))
	summary.winRate = float64(wins) / count * 100
	summary.expectancy = netSum / count
	summary.averageDurationHours = hours / count

	if wins > 0 {
		summary.averageWin = winSum / float64(wins)
	}

	if losses > 0 {
		summary.averageLoss = lossSum / float64(losses)
	}

	return summary
}
