package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"chartscan/internal/analysis"
	"chartscan/internal/model"
	"chartscan/internal/pattern"
	"chartscan/internal/signal"
)

type fakeSource struct {
	bars map[string][]model.Bar
	errs map[string]error
}

func (f *fakeSource) Bars(_ context.Context, symbol string) ([]model.Bar, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

func flatBars(n int) []model.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 1000,
		}
	}
	return bars
}

// breakoutBars shows a concentration breakout at the last bar: flat history
// keeps the averages converged, then the close jumps on heavy volume.
func breakoutBars() []model.Bar {
	bars := flatBars(130)
	bars[129].Close = 103
	bars[129].High = 104
	for i := 125; i < 130; i++ {
		bars[i].Volume = 5000
	}
	return bars
}

func decliningBars() []model.Bar {
	bars := flatBars(130)
	for i := range bars {
		c := 300.0 - float64(i)
		bars[i].Open = c
		bars[i].High = c + 1
		bars[i].Low = c - 1
		bars[i].Close = c
	}
	return bars
}

func TestScanUniverse_OrderAndIsolation(t *testing.T) {
	src := &fakeSource{
		bars: map[string][]model.Bar{
			"AAA": breakoutBars(),
			"BBB": flatBars(50),
			"DDD": decliningBars(),
		},
		errs: map[string]error{"CCC": errors.New("no such table")},
	}
	s := New(src, 3, nil)

	results := s.ScanUniverse(context.Background(), []string{"AAA", "BBB", "CCC", "DDD"})
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	for i, sym := range []string{"AAA", "BBB", "CCC", "DDD"} {
		if results[i].Symbol != sym {
			t.Errorf("results[%d].Symbol = %q, want %q", i, results[i].Symbol, sym)
		}
	}

	if !results[0].Qualified {
		t.Errorf("AAA not qualified: %s", results[0].Reason)
	}
	if len(results[0].Signals) == 0 {
		t.Error("AAA has no signals")
	}
	if results[0].Score <= 0 {
		t.Errorf("AAA score = %v, want > 0", results[0].Score)
	}

	if results[1].Qualified || results[1].Reason != "insufficient history" {
		t.Errorf("BBB = %+v, want insufficient history", results[1])
	}
	if results[2].Qualified || results[2].Reason != "history unavailable" {
		t.Errorf("CCC = %+v, want history unavailable", results[2])
	}
	if results[3].Qualified {
		t.Errorf("DDD qualified against a declining trend: %s", results[3].Reason)
	}
}

func TestScanUniverse_DefaultWorkers(t *testing.T) {
	src := &fakeSource{bars: map[string][]model.Bar{"AAA": flatBars(50)}}
	s := New(src, 0, nil)
	if s.workers != DefaultWorkers {
		t.Fatalf("workers = %d, want %d", s.workers, DefaultWorkers)
	}
	results := s.ScanUniverse(context.Background(), []string{"AAA"})
	if len(results) != 1 || results[0].Symbol != "AAA" {
		t.Fatalf("results = %+v", results)
	}
}

func TestScanUniverse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{bars: map[string][]model.Bar{}}
	s := New(src, 2, nil)
	symbols := []string{"AAA", "BBB", "CCC"}

	results := s.ScanUniverse(ctx, symbols)
	if len(results) != len(symbols) {
		t.Fatalf("results = %d, want %d", len(results), len(symbols))
	}
	for i, r := range results {
		if r.Symbol != symbols[i] {
			t.Errorf("results[%d].Symbol = %q, want %q", i, r.Symbol, symbols[i])
		}
		if r.Qualified {
			t.Errorf("%s qualified after cancellation", r.Symbol)
		}
	}
}

func TestScore_Components(t *testing.T) {
	report := &analysis.Report{
		Concentration: &pattern.Concentration{Level: pattern.ConcentrationFull, BreakoutDetected: true},
		TwoB:          &pattern.TwoB{IsSubstantive: true, DeductionValidated: true},
		MA20Turn:      pattern.TurnPrediction{WillTurnUp: true, Confidence: 0.9},
	}
	signals := []model.BuySignal{
		{SignalType: model.SignalConcentration, RiskRewardRatio: 5},
		{SignalType: model.SignalTwoB, RiskRewardRatio: 3},
	}

	// rr capped at 40, conc 30, 2B 15, full level 20, breakout 15,
	// validated 2B 15, confident turn 10.
	want := 40.0 + 30 + 15 + 20 + 15 + 15 + 10
	if got := Score(report, signals); got != want {
		t.Fatalf("Score = %v, want %v", got, want)
	}

	if got := Score(&analysis.Report{}, nil); got != 0 {
		t.Fatalf("empty Score = %v, want 0", got)
	}
}

func TestQualifies_Rejections(t *testing.T) {
	overextended := &analysis.Report{}
	overextended.Bias120.OK = true
	overextended.Bias120.V = 60

	ok, reason := Qualifies(overextended, nil)
	if ok {
		t.Fatalf("overextended symbol qualified: %s", reason)
	}

	ok, reason = Qualifies(&analysis.Report{}, nil)
	if ok || reason != "no active setup" {
		t.Fatalf("empty report = (%v, %q), want no active setup", ok, reason)
	}
}

func TestQualifies_TurnConfidence(t *testing.T) {
	report := &analysis.Report{MA20Turn: pattern.TurnPrediction{WillTurnUp: true, Confidence: 0.4}}
	if ok, _ := Qualifies(report, nil); !ok {
		t.Fatal("confident turn did not qualify")
	}
	report.MA20Turn.Confidence = 0.2
	if ok, _ := Qualifies(report, nil); ok {
		t.Fatal("weak turn qualified")
	}
}

func TestScanOne_MatchesDirectScan(t *testing.T) {
	bars := breakoutBars()
	src := &fakeSource{bars: map[string][]model.Bar{"AAA": bars}}
	s := New(src, 1, nil)

	got := s.scanOne(context.Background(), "AAA")
	want := signal.Scan(bars)
	if len(got.Signals) != len(want) {
		t.Fatalf("signals = %d, want %d", len(got.Signals), len(want))
	}
	for i := range want {
		if got.Signals[i] != want[i] {
			t.Errorf("signal %d = %+v, want %+v", i, got.Signals[i], want[i])
		}
	}
}
