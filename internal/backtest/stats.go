package backtest

import (
	"math"

	"chartscan/internal/model"
)

// DefaultAnnualRiskFree is the annual risk-free rate used in the Sharpe
// ratio, spread over 252 trading days.
const DefaultAnnualRiskFree = 0.04

const tradingDaysPerYear = 252

// SignalTypeStats breaks aggregate performance down by originating signal.
type SignalTypeStats struct {
	SignalType   model.SignalType `json:"signal_type"`
	TradeCount   int              `json:"trade_count"`
	WinCount     int              `json:"win_count"`
	WinRate      float64          `json:"win_rate"`
	TotalPnL     float64          `json:"total_pnl"`
	GrossProfit  float64          `json:"gross_profit"`
	GrossLoss    float64          `json:"gross_loss"`
	ProfitFactor float64          `json:"profit_factor"`
	AvgWinPct    float64          `json:"avg_win_pct"`
	AvgLossPct   float64          `json:"avg_loss_pct"`
}

// Stats aggregates the performance of one backtest run.
type Stats struct {
	TotalReturn    float64                               `json:"total_return"`
	TotalReturnPct float64                               `json:"total_return_pct"`
	TotalPnL       float64                               `json:"total_pnl"`
	TradeCount     int                                   `json:"trade_count"`
	WinCount       int                                   `json:"win_count"`
	WinRate        float64                               `json:"win_rate"`
	AvgWin         float64                               `json:"avg_win"`
	AvgLoss        float64                               `json:"avg_loss"`
	AvgWinPct      float64                               `json:"avg_win_pct"`
	AvgLossPct     float64                               `json:"avg_loss_pct"`
	ProfitFactor   float64                               `json:"profit_factor"`
	MaxDrawdown    float64                               `json:"max_drawdown"`
	MaxDrawdownPct float64                               `json:"max_drawdown_pct"`
	SharpeRatio    float64                               `json:"sharpe_ratio"`
	BySignalType   map[model.SignalType]*SignalTypeStats `json:"by_signal_type"`
}

// computeStats rolls trades and the equity curve into aggregate and
// per-signal-type statistics. Wins are trades with pnl > 0.
func computeStats(trades []SimulatedTrade, curve []EquityPoint, initialCapital float64) Stats {
	if len(trades) == 0 {
		return Stats{}
	}

	var wins, losses []SimulatedTrade
	for _, t := range trades {
		if t.PnL > 0 {
			wins = append(wins, t)
		} else {
			losses = append(losses, t)
		}
	}

	var grossProfit, grossLoss, totalPnL float64
	for _, t := range wins {
		grossProfit += t.PnL
	}
	for _, t := range losses {
		grossLoss += -t.PnL
	}
	totalPnL = grossProfit - grossLoss

	stats := Stats{
		TotalReturn:  round2(totalPnL),
		TotalPnL:     round2(totalPnL),
		TradeCount:   len(trades),
		WinCount:     len(wins),
		WinRate:      round2(float64(len(wins)) / float64(len(trades)) * 100),
		ProfitFactor: profitFactor(grossProfit, grossLoss),
		BySignalType: make(map[model.SignalType]*SignalTypeStats),
	}
	if initialCapital > 0 {
		stats.TotalReturnPct = round2(totalPnL / initialCapital * 100)
	}
	if len(wins) > 0 {
		stats.AvgWin = round2(grossProfit / float64(len(wins)))
		stats.AvgWinPct = round2(sumPct(wins) / float64(len(wins)))
	}
	if len(losses) > 0 {
		stats.AvgLoss = round2(grossLoss / float64(len(losses)))
		stats.AvgLossPct = round2(math.Abs(sumPct(losses) / float64(len(losses))))
	}

	dd, ddPct := maxDrawdown(curve)
	stats.MaxDrawdown = round2(dd)
	stats.MaxDrawdownPct = round2(ddPct)
	stats.SharpeRatio = round2(sharpeRatio(curve, DefaultAnnualRiskFree))

	for _, t := range trades {
		st := stats.BySignalType[t.SignalType]
		if st == nil {
			st = &SignalTypeStats{SignalType: t.SignalType}
			stats.BySignalType[t.SignalType] = st
		}
		st.TradeCount++
		st.TotalPnL += t.PnL
		if t.PnL > 0 {
			st.WinCount++
			st.GrossProfit += t.PnL
			st.AvgWinPct += t.PnLPct
		} else {
			st.GrossLoss += -t.PnL
			st.AvgLossPct += t.PnLPct
		}
	}
	for _, st := range stats.BySignalType {
		st.WinRate = round2(float64(st.WinCount) / float64(st.TradeCount) * 100)
		st.ProfitFactor = profitFactor(st.GrossProfit, st.GrossLoss)
		if st.WinCount > 0 {
			st.AvgWinPct = round2(st.AvgWinPct / float64(st.WinCount))
		}
		if lossCount := st.TradeCount - st.WinCount; lossCount > 0 {
			st.AvgLossPct = round2(math.Abs(st.AvgLossPct / float64(lossCount)))
		} else {
			st.AvgLossPct = 0
		}
		st.TotalPnL = round2(st.TotalPnL)
		st.GrossProfit = round2(st.GrossProfit)
		st.GrossLoss = round2(st.GrossLoss)
	}

	return stats
}

// profitFactor is gross profit over gross loss, +Inf when nothing was lost.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss <= 0 {
		return math.Inf(1)
	}
	return round2(grossProfit / grossLoss)
}

// maxDrawdown walks the equity curve tracking the running peak and returns
// the deepest absolute drop and its percentage of the peak.
func maxDrawdown(curve []EquityPoint) (float64, float64) {
	if len(curve) == 0 {
		return 0, 0
	}
	peak := curve[0].Equity
	var maxDD, maxDDPct float64
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		dd := peak - pt.Equity
		if dd > maxDD {
			maxDD = dd
			if peak > 0 {
				maxDDPct = dd / peak * 100
			}
		}
	}
	return maxDD, maxDDPct
}

// sharpeRatio annualizes the mean daily excess return over its standard
// deviation. Returns 0 with fewer than 2 points or zero variance.
func sharpeRatio(curve []EquityPoint, annualRiskFree float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev > 0 {
			returns = append(returns, (curve[i].Equity-prev)/prev)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(len(returns)))
	if stdDev == 0 {
		return 0
	}

	dailyRiskFree := annualRiskFree / tradingDaysPerYear
	return (mean - dailyRiskFree) / stdDev * math.Sqrt(tradingDaysPerYear)
}

func sumPct(trades []SimulatedTrade) float64 {
	var sum float64
	for _, t := range trades {
		sum += t.PnLPct
	}
	return sum
}
