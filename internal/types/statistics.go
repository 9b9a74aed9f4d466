package types

import (
	"time"
)

// EquityPoint is one sample of mark-to-market equity (cash plus unrealized PnL).
type EquityPoint struct {
	Time    time.Time `yaml:"time" json:"time" csv:"time"`
	Balance float64   `yaml:"balance" json:"balance" csv:"balance"`
}

// Period is the time span covered by a run.
type Period struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// Duration returns the length of the period.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Result is everything a replay run produces.
type Result struct {
	// Config is the validated configuration the run used.
	Config    BacktestConfig `yaml:"config" json:"config"`
	Symbol    string         `yaml:"symbol" json:"symbol"`
	Timeframe string         `yaml:"timeframe" json:"timeframe"`
	Period    Period         `yaml:"period" json:"period"`
	// InitialBalance and FinalBalance are cash balances. All positions are
	// closed at the end of a run so FinalBalance is also final equity.
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`
	FinalBalance   float64 `yaml:"final_balance" json:"final_balance"`
	TotalTrades    int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades  int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades   int     `yaml:"losing_trades" json:"losing_trades"`
	// GrossProfit is the sum of winning trade PnL.
	GrossProfit float64 `yaml:"gross_profit" json:"gross_profit"`
	// GrossLoss is the absolute sum of losing trade PnL.
	GrossLoss   float64         `yaml:"gross_loss" json:"gross_loss"`
	Trades      []Trade         `yaml:"trades" json:"trades"`
	EquityCurve []EquityPoint   `yaml:"equity_curve" json:"equity_curve"`
	Metrics     AdvancedMetrics `yaml:"metrics" json:"metrics"`
}

// NetProfit is FinalBalance minus InitialBalance.
func (r *Result) NetProfit() float64 {
	return r.FinalBalance - r.InitialBalance
}

// AdvancedMetrics holds the derived risk and performance statistics of a run.
// Degenerate inputs never produce NaN or Inf; see the metrics package for the
// sentinel policy of each field.
type AdvancedMetrics struct {
	// Total return over the run in percent.
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// Total return compounded to a 365 day year, in percent.
	AnnualizedReturnPct float64 `yaml:"annualized_return_pct" json:"annualized_return_pct"`
	NetProfit           float64 `yaml:"net_profit" json:"net_profit"`
	// Win rate in percent.
	WinRate     float64 `yaml:"win_rate" json:"win_rate"`
	AverageWin  float64 `yaml:"average_win" json:"average_win"`
	AverageLoss float64 `yaml:"average_loss" json:"average_loss"`
	LargestWin  float64 `yaml:"largest_win" json:"largest_win"`
	LargestLoss float64 `yaml:"largest_loss" json:"largest_loss"`
	// Expectancy is the mean PnL per trade.
	Expectancy   float64 `yaml:"expectancy" json:"expectancy"`
	ProfitFactor float64 `yaml:"profit_factor" json:"profit_factor"`
	SharpeRatio  float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	// Annualized standard deviation of equity returns.
	Volatility     float64 `yaml:"volatility" json:"volatility"`
	MaxDrawdown    float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// Longest time spent below a previous equity peak.
	MaxDrawdownDuration       time.Duration `yaml:"max_drawdown_duration" json:"max_drawdown_duration"`
	CalmarRatio               float64       `yaml:"calmar_ratio" json:"calmar_ratio"`
	RecoveryFactor            float64       `yaml:"recovery_factor" json:"recovery_factor"`
	AverageTradeDurationHours float64       `yaml:"average_trade_duration_hours" json:"average_trade_duration_hours"`
	MaxConsecutiveWins        int           `yaml:"max_consecutive_wins" json:"max_consecutive_wins"`
	MaxConsecutiveLosses      int           `yaml:"max_consecutive_losses" json:"max_consecutive_losses"`
	TotalCommission           float64       `yaml:"total_commission" json:"total_commission"`
}
