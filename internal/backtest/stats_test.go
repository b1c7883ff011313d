package backtest

import (
	"math"
	"testing"
	"time"

	"chartscan/internal/model"
)

func curveOf(values ...float64) []EquityPoint {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]EquityPoint, len(values))
	for i, v := range values {
		out[i] = EquityPoint{Date: start.AddDate(0, 0, i), Equity: v}
	}
	return out
}

func TestMaxDrawdown(t *testing.T) {
	dd, ddPct := maxDrawdown(curveOf(100, 120, 90, 110))
	if math.Abs(dd-30) > 1e-9 {
		t.Errorf("drawdown: expected 30, got %.2f", dd)
	}
	if math.Abs(ddPct-25.0) > 1e-9 {
		t.Errorf("drawdown pct: expected 25.0, got %.2f", ddPct)
	}

	if dd, _ := maxDrawdown(curveOf(100, 110, 120)); dd != 0 {
		t.Errorf("monotonic curve: expected 0 drawdown, got %.2f", dd)
	}
	if dd, _ := maxDrawdown(nil); dd != 0 {
		t.Errorf("empty curve: expected 0 drawdown, got %.2f", dd)
	}
}

func TestSharpeRatio_Edges(t *testing.T) {
	if got := sharpeRatio(curveOf(100), DefaultAnnualRiskFree); got != 0 {
		t.Errorf("single point: expected 0, got %.4f", got)
	}
	// Constant returns have zero variance.
	if got := sharpeRatio(curveOf(100, 200, 400), DefaultAnnualRiskFree); got != 0 {
		t.Errorf("zero variance: expected 0, got %.4f", got)
	}
}

func TestSharpeRatio_Positive(t *testing.T) {
	// Alternating strong gains should produce a positive annualized ratio.
	got := sharpeRatio(curveOf(100, 102, 103, 106, 107, 110), DefaultAnnualRiskFree)
	if got <= 0 {
		t.Errorf("expected positive Sharpe, got %.4f", got)
	}
}

func tradeWith(sigType model.SignalType, pnl, pnlPct float64) SimulatedTrade {
	return SimulatedTrade{
		Symbol:     "TEST",
		SignalType: sigType,
		PnL:        pnl,
		PnLPct:     pnlPct,
	}
}

func TestComputeStats(t *testing.T) {
	trades := []SimulatedTrade{
		tradeWith(model.SignalTwoB, 1000, 10),
		tradeWith(model.SignalTwoB, -500, -5),
		tradeWith(model.SignalConcentration, 2000, 8),
	}
	stats := computeStats(trades, curveOf(100000, 101000, 100500, 102500), 100000)

	if stats.TradeCount != 3 || stats.WinCount != 2 {
		t.Fatalf("expected 3 trades / 2 wins, got %d / %d", stats.TradeCount, stats.WinCount)
	}
	if math.Abs(stats.WinRate-66.67) > 0.01 {
		t.Errorf("win rate: expected 66.67, got %.2f", stats.WinRate)
	}
	if math.Abs(stats.TotalPnL-2500) > 1e-9 {
		t.Errorf("total pnl: expected 2500, got %.2f", stats.TotalPnL)
	}
	if math.Abs(stats.TotalReturnPct-2.5) > 1e-9 {
		t.Errorf("total return pct: expected 2.5, got %.2f", stats.TotalReturnPct)
	}
	if math.Abs(stats.AvgWin-1500) > 1e-9 {
		t.Errorf("avg win: expected 1500, got %.2f", stats.AvgWin)
	}
	if math.Abs(stats.AvgLoss-500) > 1e-9 {
		t.Errorf("avg loss: expected 500, got %.2f", stats.AvgLoss)
	}
	if math.Abs(stats.ProfitFactor-6.0) > 1e-9 {
		t.Errorf("profit factor: expected 6.0, got %.2f", stats.ProfitFactor)
	}

	twoB := stats.BySignalType[model.SignalTwoB]
	if twoB == nil || twoB.TradeCount != 2 || twoB.WinCount != 1 {
		t.Fatalf("unexpected 2B breakdown: %+v", twoB)
	}
	if math.Abs(twoB.TotalPnL-500) > 1e-9 {
		t.Errorf("2B total pnl: expected 500, got %.2f", twoB.TotalPnL)
	}
	if math.Abs(twoB.AvgLossPct-5) > 1e-9 {
		t.Errorf("2B avg loss pct: expected 5, got %.2f", twoB.AvgLossPct)
	}

	conc := stats.BySignalType[model.SignalConcentration]
	if conc == nil || conc.TradeCount != 1 || conc.WinCount != 1 {
		t.Fatalf("unexpected concentration breakdown: %+v", conc)
	}
	if !math.IsInf(conc.ProfitFactor, 1) {
		t.Errorf("lossless bucket: expected +Inf profit factor, got %.2f", conc.ProfitFactor)
	}
}

func TestComputeStats_NoTrades(t *testing.T) {
	stats := computeStats(nil, curveOf(100000, 99000), 100000)
	if stats.TradeCount != 0 || stats.WinRate != 0 || stats.BySignalType != nil {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
