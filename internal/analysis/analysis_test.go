package analysis

import (
	"math"
	"testing"
	"time"

	"chartscan/internal/indicator"
	"chartscan/internal/model"
)

func barsFromCloses(closes []float64) []model.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestAnalyze_TooFewBars(t *testing.T) {
	if got := Analyze(barsFromCloses(make([]float64, 19))); got != nil {
		t.Fatal("expected nil below 20 bars")
	}
}

func TestAnalyze_SeriesAlignment(t *testing.T) {
	closes := make([]float64, 130)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	bars := barsFromCloses(closes)

	report := Analyze(bars)
	if report == nil {
		t.Fatal("expected a report")
	}
	if len(report.MAs) != len(bars) || len(report.Slopes) != len(bars) || len(report.Deductions) != len(bars) {
		t.Fatalf("series must align with bars: mas=%d slopes=%d deductions=%d",
			len(report.MAs), len(report.Slopes), len(report.Deductions))
	}
	if math.Abs(report.LastPrice-closes[129]) > 1e-9 {
		t.Errorf("last price: expected %.2f, got %.2f", closes[129], report.LastPrice)
	}

	// Warm-up entries undefined, later entries defined.
	if report.MAs[18].MA20.OK {
		t.Error("MA20 must be undefined before index 19")
	}
	if !report.MAs[19].MA20.OK {
		t.Error("MA20 must be defined at index 19")
	}
	if report.MAs[58].MA60.OK || !report.MAs[59].MA60.OK {
		t.Error("MA60 warm-up boundary at index 59")
	}
	if !report.MAs[0].EMA120.OK {
		t.Error("EMA must be defined from the first bar")
	}

	// A steady +0.5/bar climb gives every MA a 0.5 slope: GENTLE_UP.
	lastSlope := report.Slopes[129]
	if !lastSlope.MA20Slope.OK || math.Abs(lastSlope.MA20Slope.V-0.5) > 1e-9 {
		t.Errorf("expected MA20 slope 0.5, got %+v", lastSlope.MA20Slope)
	}
	if lastSlope.MA20Phase != indicator.PhaseStrongUp {
		// 0.5 sits on the gentle/strong boundary, which resolves upward.
		t.Errorf("expected STRONG_UP at the boundary, got %s", lastSlope.MA20Phase)
	}
	if report.Slopes[10].MA20Phase != "" {
		t.Error("phase must be empty while the slope is undefined")
	}

	if !report.Deductions[129].Deduction20.OK ||
		math.Abs(report.Deductions[129].Deduction20.V-closes[109]) > 1e-9 {
		t.Errorf("deduction20 must be the close 20 bars back, got %+v", report.Deductions[129].Deduction20)
	}

	if !report.Bias120.OK {
		t.Fatal("expected a bias ratio with 130 bars")
	}
	if report.Bias120.V <= 0 {
		t.Errorf("trending series must sit away from EMA120, got %.4f", report.Bias120.V)
	}

	// Rising closes always exceed what the 20-bar window sheds.
	if !report.MA20Turn.WillTurnUp {
		t.Error("expected MA20 turn-up on a rising series")
	}
	if !report.MA60Turn.WillTurnUp {
		t.Error("expected MA60 turn-up on a rising series")
	}
}

func TestAnalyze_ShortHistoryDegradesGracefully(t *testing.T) {
	// 25 bars: enough for MA20 but not for MA60, EMA warm-up, or patterns.
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}
	report := Analyze(barsFromCloses(closes))
	if report == nil {
		t.Fatal("expected a report at 25 bars")
	}
	if !report.MAs[24].MA20.OK {
		t.Error("MA20 must be defined")
	}
	if report.MAs[24].MA60.OK {
		t.Error("MA60 must be undefined at 25 bars")
	}
	if report.MA20Turn.WillTurnUp {
		t.Error("turn prediction needs period+lookahead bars")
	}
	if report.Concentration != nil || report.TwoB != nil {
		t.Error("patterns need more history")
	}
}
