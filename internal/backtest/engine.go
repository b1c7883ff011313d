// Package backtest replays buy signals bar-by-bar over historical data,
// simulating trade lifecycles and measuring strategy performance.
//
// A run is a pure function of the bar sequence and config: no randomness,
// no wall clock, no shared state. Re-running with identical inputs yields
// identical trades and equity curve.
package backtest

import (
	"math"
	"time"

	"chartscan/internal/indicator"
	"chartscan/internal/model"
	"chartscan/internal/risk"
	"chartscan/internal/signal"
)

// warmupBars is the minimum history before the first simulated bar; it
// covers the longest detector window.
const warmupBars = 120

// atrPeriod is the true-range window for the optional ATR stop.
const atrPeriod = 14

// ExitReason records why a simulated position was closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "STOP_LOSS"
	ExitTrailingStop ExitReason = "TRAILING_STOP"
	ExitTargetHit    ExitReason = "TARGET_HIT"
	ExitTimeLimit    ExitReason = "TIME_EXIT"
	ExitEndOfData    ExitReason = "END_OF_DATA"
)

// SimulatedTrade is one completed round-trip.
type SimulatedTrade struct {
	Symbol      string           `json:"symbol"`
	SignalType  model.SignalType `json:"signal_type"`
	EntryDate   time.Time        `json:"entry_date"`
	EntryPrice  float64          `json:"entry_price"`
	ExitDate    time.Time        `json:"exit_date"`
	ExitPrice   float64          `json:"exit_price"`
	ExitReason  ExitReason       `json:"exit_reason"`
	Shares      int              `json:"shares"`
	StopLoss    float64          `json:"stop_loss"`
	TargetPrice float64          `json:"target_price"`
	PnL         float64          `json:"pnl"`
	PnLPct      float64          `json:"pnl_pct"`
	HoldingDays int              `json:"holding_days"`
}

// EquityPoint marks total equity (realized capital plus unrealized P&L)
// at one bar's close.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Result is the read-only outcome of one backtest run.
type Result struct {
	Symbol      string           `json:"symbol"`
	Config      Config           `json:"config"`
	Stats       Stats            `json:"stats"`
	Trades      []SimulatedTrade `json:"trades"`
	EquityCurve []EquityPoint    `json:"equity_curve"`
}

// openPosition is per-run simulator state, never visible outside a run.
type openPosition struct {
	signalType        model.SignalType
	entryDate         time.Time
	entryPrice        float64
	shares            int
	stopLoss          float64
	targetPrice       float64
	trailingStop      float64 // 0 when trailing is disabled
	highestSinceEntry float64
}

// Backtester replays the signal synthesizer over history for one symbol
// at a time.
type Backtester struct {
	cfg Config
}

// New creates a Backtester with the given config.
func New(cfg Config) *Backtester {
	return &Backtester{cfg: cfg}
}

// Run simulates the strategy over the bar sequence. Sequences shorter than
// the 120-bar warm-up produce an empty result.
func (b *Backtester) Run(bars []model.Bar, symbol string) Result {
	result := Result{Symbol: symbol, Config: b.cfg}
	if len(bars) < warmupBars {
		return result
	}

	capital := b.cfg.InitialCapital
	var position *openPosition
	var cooldownUntil time.Time

	trades := make([]SimulatedTrade, 0, 16)
	curve := make([]EquityPoint, 0, len(bars)-warmupBars)

	for i := warmupBars; i < len(bars); i++ {
		bar := bars[i]

		if position != nil {
			if trade := b.checkExit(position, bar, symbol); trade != nil {
				trades = append(trades, *trade)
				capital += trade.PnL
				if trade.ExitReason == ExitStopLoss && b.cfg.CooldownDays > 0 {
					cooldownUntil = bar.Date.AddDate(0, 0, b.cfg.CooldownDays)
				}
				position = nil
			} else {
				if bar.High > position.highestSinceEntry {
					position.highestSinceEntry = bar.High
				}
				if b.cfg.TrailingStopPct > 0 && position.trailingStop > 0 {
					// Ratchet upward only.
					trail := position.highestSinceEntry * (1 - b.cfg.TrailingStopPct)
					if trail > position.trailingStop {
						position.trailingStop = trail
					}
				}
			}
		}

		if position == nil {
			if cooldownUntil.IsZero() || !bar.Date.Before(cooldownUntil) {
				cooldownUntil = time.Time{}
				// Evaluate on the prefix only: no look-ahead.
				position = b.tryEntry(bars[:i+1], capital)
			}
		}

		equity := capital
		if position != nil {
			equity += float64(position.shares) * (bar.Close - position.entryPrice)
		}
		curve = append(curve, EquityPoint{Date: bar.Date, Equity: equity})
	}

	if position != nil {
		last := bars[len(bars)-1]
		trade := closeTrade(position, last.Date, last.Close, ExitEndOfData, symbol)
		trades = append(trades, trade)
		capital += trade.PnL
	}

	result.Stats = computeStats(trades, curve, b.cfg.InitialCapital)
	result.Trades = trades
	result.EquityCurve = curve
	return result
}

// checkExit applies the exit rules in fixed priority order: stop loss,
// trailing stop, target, time limit. First match wins even when several
// conditions hold on the same bar.
func (b *Backtester) checkExit(pos *openPosition, bar model.Bar, symbol string) *SimulatedTrade {
	if bar.Low <= pos.stopLoss {
		t := closeTrade(pos, bar.Date, pos.stopLoss, ExitStopLoss, symbol)
		return &t
	}
	if pos.trailingStop > 0 && bar.Low <= pos.trailingStop {
		t := closeTrade(pos, bar.Date, pos.trailingStop, ExitTrailingStop, symbol)
		return &t
	}
	if bar.High >= pos.targetPrice {
		t := closeTrade(pos, bar.Date, pos.targetPrice, ExitTargetHit, symbol)
		return &t
	}
	if holdingDays(pos.entryDate, bar.Date) >= b.cfg.MaxHoldingDays {
		t := closeTrade(pos, bar.Date, bar.Close, ExitTimeLimit, symbol)
		return &t
	}
	return nil
}

func closeTrade(pos *openPosition, exitDate time.Time, exitPrice float64, reason ExitReason, symbol string) SimulatedTrade {
	pnl := float64(pos.shares) * (exitPrice - pos.entryPrice)
	pnlPct := 0.0
	if pos.entryPrice != 0 {
		pnlPct = (exitPrice - pos.entryPrice) / pos.entryPrice * 100
	}
	return SimulatedTrade{
		Symbol:      symbol,
		SignalType:  pos.signalType,
		EntryDate:   pos.entryDate,
		EntryPrice:  pos.entryPrice,
		ExitDate:    exitDate,
		ExitPrice:   round2(exitPrice),
		ExitReason:  reason,
		Shares:      pos.shares,
		StopLoss:    pos.stopLoss,
		TargetPrice: pos.targetPrice,
		PnL:         round2(pnl),
		PnLPct:      round2(pnlPct),
		HoldingDays: holdingDays(pos.entryDate, exitDate),
	}
}

// tryEntry runs the synthesizer over the history prefix and opens a
// position from the first admissible signal, or returns nil.
func (b *Backtester) tryEntry(prefix []model.Bar, capital float64) *openPosition {
	if b.cfg.TrendFilter && decliningTrend(prefix) {
		return nil
	}

	signals := signal.Scan(prefix)
	var sig *model.BuySignal
	for i := range signals {
		if b.cfg.allowsSignal(signals[i].SignalType) {
			sig = &signals[i]
			break
		}
	}
	if sig == nil {
		return nil
	}

	stop := sig.StopLoss
	if b.cfg.StopLossATRMult > 0 {
		if atr, ok := averageTrueRange(prefix); ok {
			stop = round2(sig.EntryPrice - atr*b.cfg.StopLossATRMult)
		}
	}

	size := risk.PositionSize(capital, sig.EntryPrice, stop, b.cfg.RiskPerTrade)
	if size.Shares <= 0 || size.TotalCost > capital {
		return nil
	}

	trailing := 0.0
	if b.cfg.TrailingStopPct > 0 {
		trailing = sig.EntryPrice * (1 - b.cfg.TrailingStopPct)
	}

	entryBar := prefix[len(prefix)-1]
	return &openPosition{
		signalType:        sig.SignalType,
		entryDate:         entryBar.Date,
		entryPrice:        sig.EntryPrice,
		shares:            size.Shares,
		stopLoss:          stop,
		targetPrice:       sig.TargetPrice,
		trailingStop:      trailing,
		highestSinceEntry: sig.EntryPrice,
	}
}

// decliningTrend rejects entries while the 60-bar average sits below its
// level 10 bars earlier.
func decliningTrend(bars []model.Bar) bool {
	sma60 := indicator.SMA(model.Closes(bars), 60)
	n := len(sma60)
	if n < 11 {
		return false
	}
	now, then := sma60[n-1], sma60[n-11]
	return now.OK && then.OK && now.V < then.V
}

// averageTrueRange computes the mean of the last atrPeriod true ranges.
// TR = max(high-low, |high-prevClose|, |low-prevClose|).
func averageTrueRange(bars []model.Bar) (float64, bool) {
	if len(bars) < atrPeriod+1 {
		return 0, false
	}
	window := bars[len(bars)-atrPeriod-1:]
	var sum float64
	for i := 1; i < len(window); i++ {
		h, l, pc := window[i].High, window[i].Low, window[i-1].Close
		tr := math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))
		sum += tr
	}
	return sum / atrPeriod, true
}

func holdingDays(entry, exit time.Time) int {
	return int(exit.Sub(entry).Hours() / 24)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
