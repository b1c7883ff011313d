package risk

import (
	"math"
	"testing"
)

func TestPositionSize(t *testing.T) {
	got := PositionSize(100000, 50, 45, 0.02)
	if got.Shares != 400 {
		t.Errorf("shares: expected 400, got %d", got.Shares)
	}
	if math.Abs(got.RiskAmount-2000) > 1e-9 {
		t.Errorf("risk amount: expected 2000, got %.2f", got.RiskAmount)
	}
	if math.Abs(got.TotalCost-20000) > 1e-9 {
		t.Errorf("total cost: expected 20000, got %.2f", got.TotalCost)
	}
}

func TestPositionSize_DegenerateRisk(t *testing.T) {
	for _, stop := range []float64{50, 50.0001} {
		got := PositionSize(100000, 50, stop, 0.02)
		if stop == 50 && got.Shares != 0 {
			t.Errorf("stop == entry: expected 0 shares, got %d", got.Shares)
		}
	}
	// Stop above entry still sizes off the absolute distance.
	got := PositionSize(100000, 50, 55, 0.02)
	if got.Shares != 400 {
		t.Errorf("inverted stop: expected 400 shares, got %d", got.Shares)
	}
}

func TestPositionSize_FloorsShares(t *testing.T) {
	got := PositionSize(100000, 50, 47, 0.02) // 2000 / 3 = 666.67
	if got.Shares != 666 {
		t.Errorf("expected floor to 666 shares, got %d", got.Shares)
	}
}

func TestValidatePlan(t *testing.T) {
	if errs := ValidatePlan(100, 95, 115, 3.0, 5.0); len(errs) != 0 {
		t.Errorf("expected clean plan, got %v", errs)
	}

	errs := ValidatePlan(100, 105, 95, 1.0, 12.0)
	if len(errs) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(errs), errs)
	}
}
