package pattern

import (
	"time"

	"chartscan/internal/indicator"
	"chartscan/internal/model"
)

const (
	minTwoBBars  = 30
	twoBLookback = 60

	// Point B must not sit against either edge of the inspection window:
	// the first 5 positions leave no room for point A, the last 2 leave
	// no room for a recovery.
	twoBMinEdge = 5
	twoBMaxEdge = 2

	// Local minima for point A must undercut this many neighbors per side.
	swingNeighbors = 2

	// Deduction validation compares the last close against the price
	// aging out of a 20-bar rolling window.
	twoBDeductionPeriod = 20
)

// SubstantiveRecoveryCloses is the number of closes above point A required
// after point B for the reclaim to count as substantive rather than a
// single-bar wick. Heuristic threshold, overridable by callers.
var SubstantiveRecoveryCloses = 2

// TwoB describes a failed-breakdown reversal: price undercuts a prior swing
// low (point A) to a lower low (point B), then reclaims above point A.
type TwoB struct {
	PointADate         time.Time `json:"point_a_date"`
	PointAPrice        float64   `json:"point_a_price"`
	PointBDate         time.Time `json:"point_b_date"`
	PointBPrice        float64   `json:"point_b_price"`
	RecoveryPrice      float64   `json:"recovery_price"`
	IsSubstantive      bool      `json:"is_substantive"`
	DeductionValidated bool      `json:"deduction_validated"`
}

// DetectTwoB inspects the last min(60, n-1) closes for a 2B structure.
// Returns nil when no valid structure exists.
func DetectTwoB(bars []model.Bar) *TwoB {
	n := len(bars)
	if n < minTwoBBars {
		return nil
	}

	lookback := twoBLookback
	if n-1 < lookback {
		lookback = n - 1
	}
	window := bars[n-lookback:]

	// Point B: global minimum close in the window (first occurrence).
	minPos := 0
	for i := 1; i < len(window); i++ {
		if window[i].Close < window[minPos].Close {
			minPos = i
		}
	}
	if minPos < twoBMinEdge || minPos > lookback-twoBMaxEdge-1 {
		return nil
	}

	// Point A: the most recent swing low strictly before point B.
	pre := window[:minPos]
	pointAPos := -1
	for i := swingNeighbors; i < len(pre)-swingNeighbors; i++ {
		isLow := true
		for d := 1; d <= swingNeighbors; d++ {
			if pre[i].Close >= pre[i-d].Close || pre[i].Close >= pre[i+d].Close {
				isLow = false
				break
			}
		}
		if isLow {
			pointAPos = i
		}
	}
	if pointAPos < 0 {
		return nil
	}

	pointA := pre[pointAPos]
	pointB := window[minPos]
	if pointB.Close >= pointA.Close {
		return nil
	}

	// Recovery: first close after B above point A's price.
	recoveryPrice := 0.0
	recoveryCount := 0
	for _, b := range window[minPos+1:] {
		if b.Close > pointA.Close {
			if recoveryCount == 0 {
				recoveryPrice = b.Close
			}
			recoveryCount++
		}
	}
	if recoveryCount == 0 {
		return nil
	}

	closes := model.Closes(bars)
	ded := indicator.Last(indicator.DeductionPrices(closes, twoBDeductionPeriod))
	validated := ded.OK && closes[n-1] > ded.V

	return &TwoB{
		PointADate:         pointA.Date,
		PointAPrice:        pointA.Close,
		PointBDate:         pointB.Date,
		PointBPrice:        pointB.Close,
		RecoveryPrice:      recoveryPrice,
		IsSubstantive:      recoveryCount >= SubstantiveRecoveryCloses,
		DeductionValidated: validated,
	}
}
