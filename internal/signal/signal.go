// Package signal synthesizes actionable buy signals from the pattern
// detectors, applying risk/reward filtering per signal type.
package signal

import (
	"fmt"

	"chartscan/internal/indicator"
	"chartscan/internal/model"
	"chartscan/internal/pattern"
)

const (
	// minScanBars is the minimum history for a full evaluation; it covers
	// the longest detector window (EMA120 concentration).
	minScanBars = 120

	// minRiskReward gates every emitted signal.
	minRiskReward = 2.0

	// maxRiskFraction caps the 2B stop distance relative to entry.
	maxRiskFraction = 0.10

	twoBStopDiscount       = 0.98
	twoBFallbackTargetMult = 1.15
	concStopDiscount       = 0.98
	concTargetMult         = 1.20
	turnStopDiscount       = 0.95
	turnFallbackTargetMult = 1.12
	turnMinConfidence      = 0.5
	turnPredictionPeriod   = 20
)

// Scan evaluates all three detectors on a bar sequence and returns the
// qualifying buy signals in fixed order: 2B, concentration, turn-up.
// Signals are independent; zero, one, or all three may fire. Returns an
// empty slice below 120 bars.
func Scan(bars []model.Bar) []model.BuySignal {
	if len(bars) < minScanBars {
		return nil
	}

	closes := model.Closes(bars)
	lastPrice := closes[len(closes)-1]
	ma60 := indicator.Last(indicator.SMA(closes, 60))

	var signals []model.BuySignal

	if twoB := pattern.DetectTwoB(bars); twoB != nil && twoB.IsSubstantive {
		stop := twoB.PointBPrice * twoBStopDiscount
		target := lastPrice * twoBFallbackTargetMult
		if ma60.OK {
			target = ma60.V
		}
		risk := lastPrice - stop
		rr := riskReward(lastPrice, stop, target)
		if rr >= minRiskReward && risk/lastPrice < maxRiskFraction {
			validation := "awaiting deduction-price validation"
			if twoB.DeductionValidated {
				validation = "deduction price validated"
			}
			signals = append(signals, model.BuySignal{
				SignalType:      model.SignalTwoB,
				PositionAdvice:  model.AdviceProbe,
				EntryPrice:      lastPrice,
				StopLoss:        stop,
				TargetPrice:     target,
				RiskRewardRatio: rr,
				Reasoning: fmt.Sprintf(
					"2B structure: prior low %.2f -> lower low %.2f -> reclaimed %.2f; %s; probe entry",
					twoB.PointAPrice, twoB.PointBPrice, twoB.RecoveryPrice, validation),
			})
		}
	}

	if conc := pattern.DetectConcentration(bars); conc != nil && conc.BreakoutDetected && conc.VolumeConfirmed {
		stop := conc.RangeLow * concStopDiscount
		target := lastPrice * concTargetMult
		rr := riskReward(lastPrice, stop, target)
		if rr >= minRiskReward {
			signals = append(signals, model.BuySignal{
				SignalType:      model.SignalConcentration,
				PositionAdvice:  model.AdviceConfirm,
				EntryPrice:      lastPrice,
				StopLoss:        stop,
				TargetPrice:     target,
				RiskRewardRatio: rr,
				Reasoning: fmt.Sprintf(
					"MA concentration (%s) breakout: band %.2f-%.2f cleared on confirming volume; full position",
					conc.Level, conc.RangeLow, conc.RangeHigh),
			})
		}
	}

	if turn := pattern.PredictMATurn(bars, turnPredictionPeriod); turn.WillTurnUp && turn.Confidence > turnMinConfidence {
		stop := lastPrice * turnStopDiscount
		target := lastPrice * turnFallbackTargetMult
		if ma60.OK && ma60.V > lastPrice {
			target = ma60.V
		}
		rr := riskReward(lastPrice, stop, target)
		if rr >= minRiskReward {
			signals = append(signals, model.BuySignal{
				SignalType:      model.SignalMATurnUp,
				PositionAdvice:  model.AdviceProbe,
				EntryPrice:      lastPrice,
				StopLoss:        stop,
				TargetPrice:     target,
				RiskRewardRatio: rr,
				Reasoning: fmt.Sprintf(
					"MA20 turning up: price %.2f above required %.2f, confidence %.2f",
					lastPrice, turn.RequiredPrice, turn.Confidence),
			})
		}
	}

	return signals
}

func riskReward(entry, stop, target float64) float64 {
	risk := entry - stop
	if risk <= 0 {
		return 0
	}
	return (target - entry) / risk
}
