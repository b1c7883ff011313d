package pattern

import (
	"math"
	"testing"
	"time"

	"chartscan/internal/model"
)

// barsFromCloses builds a daily bar sequence with the given closes and a
// flat volume of 1000.
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

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestDetectTwoB_Substantive(t *testing.T) {
	closes := repeat(105, 40)
	closes[10] = 100 // point A: swing low
	closes[20] = 90  // point B: lower low
	for i := 21; i < 25; i++ {
		closes[i] = 95
	}
	closes[25] = 101 // recovery above point A
	closes[26] = 102
	for i := 27; i < 40; i++ {
		closes[i] = 99
	}

	got := DetectTwoB(barsFromCloses(closes))
	if got == nil {
		t.Fatal("expected a 2B structure")
	}
	if math.Abs(got.PointAPrice-100) > 1e-9 {
		t.Errorf("point A: expected 100, got %.2f", got.PointAPrice)
	}
	if math.Abs(got.PointBPrice-90) > 1e-9 {
		t.Errorf("point B: expected 90, got %.2f", got.PointBPrice)
	}
	if math.Abs(got.RecoveryPrice-101) > 1e-9 {
		t.Errorf("recovery: expected 101, got %.2f", got.RecoveryPrice)
	}
	if !got.IsSubstantive {
		t.Error("expected substantive reclaim with 2 closes above point A")
	}
	if got.DeductionValidated {
		t.Error("expected deduction validation to fail with last close below deduction price")
	}
}

func TestDetectTwoB_SingleRecoveryNotSubstantive(t *testing.T) {
	closes := repeat(105, 40)
	closes[10] = 100
	closes[20] = 90
	for i := 21; i < 40; i++ {
		closes[i] = 95
	}
	closes[25] = 101 // only close above point A

	got := DetectTwoB(barsFromCloses(closes))
	if got == nil {
		t.Fatal("expected a 2B structure")
	}
	if got.IsSubstantive {
		t.Error("single recovery close must not be substantive")
	}
}

func TestDetectTwoB_Rejections(t *testing.T) {
	// Too few bars.
	if got := DetectTwoB(barsFromCloses(repeat(100, 20))); got != nil {
		t.Error("expected nil below 30 bars")
	}

	// Minimum at the window's edge: steadily declining closes.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	if got := DetectTwoB(barsFromCloses(closes)); got != nil {
		t.Error("expected nil when the low sits at the window edge")
	}

	// No recovery above point A after the low.
	closes = repeat(105, 40)
	closes[10] = 100
	closes[20] = 90
	for i := 21; i < 40; i++ {
		closes[i] = 95
	}
	if got := DetectTwoB(barsFromCloses(closes)); got != nil {
		t.Error("expected nil without a recovery above point A")
	}
}

func TestDetectConcentration_FlatSeries(t *testing.T) {
	got := DetectConcentration(barsFromCloses(repeat(100, 120)))
	if got == nil {
		t.Fatal("expected concentration on a flat series")
	}
	if got.Level != ConcentrationFull {
		t.Errorf("expected full concentration, got %s", got.Level)
	}
	if got.BreakoutDetected {
		t.Error("flat series must not report a breakout")
	}
	if got.VolumeConfirmed {
		t.Error("flat volume must not confirm")
	}
}

func TestDetectConcentration_BreakoutWithVolume(t *testing.T) {
	closes := repeat(100, 120)
	closes[119] = 103
	bars := barsFromCloses(closes)
	for i := 115; i < 120; i++ {
		bars[i].Volume = 5000
	}

	got := DetectConcentration(bars)
	if got == nil {
		t.Fatal("expected concentration")
	}
	if !got.BreakoutDetected {
		t.Error("expected breakout above the averages")
	}
	if !got.VolumeConfirmed {
		t.Error("expected volume confirmation")
	}
}

func TestDetectConcentration_WideSpread(t *testing.T) {
	// Strong uptrend keeps the averages far apart.
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}
	if got := DetectConcentration(barsFromCloses(closes)); got != nil {
		t.Errorf("expected nil for spread ratio %.4f", got.SpreadRatio)
	}
}

func TestDetectConcentration_InsufficientBars(t *testing.T) {
	if got := DetectConcentration(barsFromCloses(repeat(100, 119))); got != nil {
		t.Error("expected nil below 120 bars")
	}
}

func TestPredictMATurn_TurnUp(t *testing.T) {
	closes := repeat(100, 40)
	closes[30] = 90 // the minimum the 20-bar average will shed

	got := PredictMATurn(barsFromCloses(closes), 20)
	if !got.WillTurnUp {
		t.Fatal("expected a turn-up prediction")
	}
	if math.Abs(got.RequiredPrice-90) > 1e-9 {
		t.Errorf("required price: expected 90, got %.2f", got.RequiredPrice)
	}
	wantConf := math.Min(1, (100-90)/90.0*TurnConfidenceGain)
	if math.Abs(got.Confidence-wantConf) > 1e-9 {
		t.Errorf("confidence: expected %.4f, got %.4f", wantConf, got.Confidence)
	}
	if got.TurnWindowStart.IsZero() || got.TurnWindowEnd.IsZero() {
		t.Fatal("expected a forecast window")
	}
	if !got.TurnWindowEnd.After(got.TurnWindowStart) {
		t.Error("forecast window end must follow its start")
	}
}

func TestPredictMATurn_NoTurn(t *testing.T) {
	closes := repeat(100, 40)
	closes[39] = 80 // last close below everything the window will shed

	got := PredictMATurn(barsFromCloses(closes), 20)
	if got.WillTurnUp {
		t.Error("expected no turn with last close below the required price")
	}
	if got.Confidence != 0 {
		t.Errorf("expected zero confidence, got %.4f", got.Confidence)
	}
}

func TestPredictMATurn_InsufficientBars(t *testing.T) {
	got := PredictMATurn(barsFromCloses(repeat(100, 39)), 20)
	if got.WillTurnUp {
		t.Error("expected no prediction below period+lookahead bars")
	}
}
