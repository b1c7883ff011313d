package scanner

import (
	"fmt"

	"chartscan/internal/analysis"
	"chartscan/internal/model"
	"chartscan/internal/pattern"
)

// Qualification thresholds.
const (
	maxQualifyBias    = 50.0
	minQualifyTurnCfd = 0.3
)

// Score ranks a symbol for watchlist ordering. Higher is better. The scale
// is open-ended but in practice tops out around 100 for a symbol showing a
// confirmed breakout with a validated 2B and a confident turn.
func Score(report *analysis.Report, signals []model.BuySignal) float64 {
	score := 0.0

	bestRR := 0.0
	hasConc := false
	hasTwoB := false
	hasTurn := false
	for _, sig := range signals {
		if sig.RiskRewardRatio > bestRR {
			bestRR = sig.RiskRewardRatio
		}
		switch sig.SignalType {
		case model.SignalConcentration:
			hasConc = true
		case model.SignalTwoB:
			hasTwoB = true
		case model.SignalMATurnUp:
			hasTurn = true
		}
	}
	if rr := bestRR * 10; rr > 40 {
		score += 40
	} else {
		score += rr
	}

	if hasConc {
		score += 30
	}
	if hasTwoB {
		score += 15
	}
	if hasTurn {
		score += 10
	}

	if c := report.Concentration; c != nil {
		if c.Level == pattern.ConcentrationFull {
			score += 20
		} else {
			score += 10
		}
		if c.BreakoutDetected {
			score += 15
		}
	}
	if b := report.TwoB; b != nil && b.IsSubstantive && b.DeductionValidated {
		score += 15
	}
	if report.MA20Turn.WillTurnUp && report.MA20Turn.Confidence > 0.5 {
		score += 10
	}

	return score
}

// Qualifies decides watchlist membership. A declining 60-bar average or an
// overextended bias rejects outright; otherwise any active signal, a
// concentration, a substantive 2B, or a moderately confident turn admits
// the symbol.
func Qualifies(report *analysis.Report, signals []model.BuySignal) (bool, string) {
	if n := len(report.Slopes); n > 0 {
		if phase := report.Slopes[n-1].MA60Phase; phase.Declining() {
			return false, "60-bar average in decline"
		}
	}
	if report.Bias120.OK && report.Bias120.V > maxQualifyBias {
		return false, fmt.Sprintf("overextended: %.1f%% above 120-bar average", report.Bias120.V)
	}

	if len(signals) > 0 {
		return true, fmt.Sprintf("%d active buy signal(s)", len(signals))
	}
	if report.Concentration != nil {
		return true, "moving averages concentrated"
	}
	if b := report.TwoB; b != nil && b.IsSubstantive {
		return true, "substantive 2B structure"
	}
	if t := report.MA20Turn; t.WillTurnUp && t.Confidence > minQualifyTurnCfd {
		return true, fmt.Sprintf("20-bar average turning up (confidence %.2f)", t.Confidence)
	}

	return false, "no active setup"
}
