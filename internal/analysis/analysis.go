// Package analysis assembles the full per-symbol technical picture used by
// direct signal queries and the scanner: moving-average series, slopes with
// phase classification, deduction prices, turn predictions, bias, and the
// detected chart structures.
package analysis

import (
	"time"

	"chartscan/internal/indicator"
	"chartscan/internal/model"
	"chartscan/internal/pattern"
)

// minAnalysisBars is the minimum history for any analysis output.
const minAnalysisBars = 20

// MAPoint carries the three tracked averages at one bar.
type MAPoint struct {
	Date   time.Time       `json:"date"`
	MA20   indicator.Value `json:"ma20"`
	MA60   indicator.Value `json:"ma60"`
	EMA120 indicator.Value `json:"ema120"`
}

// SlopePoint carries the average slopes and their phases at one bar.
// Phases are empty strings while the slope is undefined.
type SlopePoint struct {
	Date        time.Time       `json:"date"`
	MA20Slope   indicator.Value `json:"ma20_slope"`
	MA60Slope   indicator.Value `json:"ma60_slope"`
	EMA120Slope indicator.Value `json:"ema120_slope"`
	MA20Phase   indicator.Phase `json:"ma20_phase,omitempty"`
	MA60Phase   indicator.Phase `json:"ma60_phase,omitempty"`
}

// DeductionPoint carries the prices aging out of the 20- and 60-bar
// rolling windows at one bar.
type DeductionPoint struct {
	Date        time.Time       `json:"date"`
	Deduction20 indicator.Value `json:"deduction_20"`
	Deduction60 indicator.Value `json:"deduction_60"`
}

// Report is the full analysis snapshot for one symbol.
type Report struct {
	LastDate      time.Time              `json:"last_date"`
	LastPrice     float64                `json:"last_price"`
	MAs           []MAPoint              `json:"mas"`
	Slopes        []SlopePoint           `json:"slopes"`
	Deductions    []DeductionPoint       `json:"deduction_prices"`
	MA20Turn      pattern.TurnPrediction `json:"ma20_turn"`
	MA60Turn      pattern.TurnPrediction `json:"ma60_turn"`
	Bias120       indicator.Value        `json:"bias_ratio_120"`
	TwoB          *pattern.TwoB          `json:"two_b,omitempty"`
	Concentration *pattern.Concentration `json:"ma_concentration,omitempty"`
}

// Analyze computes the full report over a bar sequence. Returns nil below
// 20 bars.
func Analyze(bars []model.Bar) *Report {
	if len(bars) < minAnalysisBars {
		return nil
	}

	n := len(bars)
	closes := model.Closes(bars)

	ma20 := indicator.SMA(closes, 20)
	ma60 := indicator.SMA(closes, 60)
	ema120 := indicator.EMA(closes, 120)

	slope20 := indicator.Slope(ma20, indicator.DefaultSlopeLag)
	slope60 := indicator.Slope(ma60, indicator.DefaultSlopeLag)
	slope120 := indicator.Slope(ema120, indicator.DefaultSlopeLag)

	ded20 := indicator.DeductionPrices(closes, 20)
	ded60 := indicator.DeductionPrices(closes, 60)

	report := &Report{
		LastDate:      bars[n-1].Date,
		LastPrice:     closes[n-1],
		MAs:           make([]MAPoint, n),
		Slopes:        make([]SlopePoint, n),
		Deductions:    make([]DeductionPoint, n),
		MA20Turn:      pattern.PredictMATurn(bars, 20),
		MA60Turn:      pattern.PredictMATurn(bars, 60),
		TwoB:          pattern.DetectTwoB(bars),
		Concentration: pattern.DetectConcentration(bars),
	}

	for i, bar := range bars {
		report.MAs[i] = MAPoint{Date: bar.Date, MA20: ma20[i], MA60: ma60[i], EMA120: ema120[i]}

		sp := SlopePoint{
			Date:        bar.Date,
			MA20Slope:   slope20[i],
			MA60Slope:   slope60[i],
			EMA120Slope: slope120[i],
		}
		if slope20[i].OK {
			sp.MA20Phase = indicator.ClassifyPhase(slope20[i].V)
		}
		if slope60[i].OK {
			sp.MA60Phase = indicator.ClassifyPhase(slope60[i].V)
		}
		report.Slopes[i] = sp

		report.Deductions[i] = DeductionPoint{Date: bar.Date, Deduction20: ded20[i], Deduction60: ded60[i]}
	}

	if last := indicator.Last(ema120); last.OK {
		report.Bias120 = indicator.Defined(indicator.BiasRatio(closes[n-1], last.V))
	}

	return report
}
