// Package pattern detects recurring chart structures on daily bar
// sequences: moving-average concentration, the 2B failed-breakdown
// reversal, and moving-average turn-up prediction.
//
// Every detector treats insufficient history as "no detection" and
// returns nil (or a zero prediction), never an error.
package pattern

import (
	"chartscan/internal/indicator"
	"chartscan/internal/model"
)

// ConcentrationLevel grades how tightly the moving averages have converged.
type ConcentrationLevel string

const (
	ConcentrationFull    ConcentrationLevel = "full"
	ConcentrationPartial ConcentrationLevel = "partial"
)

const (
	minConcentrationBars = 120

	// Spread thresholds relative to the mean of the three averages.
	concentrationMaxSpread  = 0.05
	concentrationFullSpread = 0.02

	// Breakout requires the last close above the highest average by 1%.
	breakoutMargin = 1.01

	// Volume confirmation: mean of last 5 bars vs mean of last 60 bars.
	volumeRecentBars  = 5
	volumeBaseBars    = 60
	volumeConfirmMult = 1.5
)

// Concentration describes SMA20/SMA60/EMA120 converging within a narrow band,
// a setup that often precedes a directional breakout.
type Concentration struct {
	Level            ConcentrationLevel `json:"level"`
	RangeLow         float64            `json:"range_low"`
	RangeHigh        float64            `json:"range_high"`
	SpreadRatio      float64            `json:"spread_ratio"`
	BreakoutDetected bool               `json:"breakout_detected"`
	VolumeConfirmed  bool               `json:"volume_confirmed"`
}

// DetectConcentration checks whether SMA20, SMA60 and EMA120 have converged
// at the last bar. Returns nil when history is too short, any average is
// undefined, or the spread is too wide.
func DetectConcentration(bars []model.Bar) *Concentration {
	if len(bars) < minConcentrationBars {
		return nil
	}

	closes := model.Closes(bars)
	ma20 := indicator.Last(indicator.SMA(closes, 20))
	ma60 := indicator.Last(indicator.SMA(closes, 60))
	ema120 := indicator.Last(indicator.EMA(closes, 120))
	if !ma20.OK || !ma60.OK || !ema120.OK {
		return nil
	}

	low, high := ma20.V, ma20.V
	for _, v := range []float64{ma60.V, ema120.V} {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	mean := (ma20.V + ma60.V + ema120.V) / 3
	if mean <= 0 {
		return nil
	}
	spreadRatio := (high - low) / mean
	if spreadRatio > concentrationMaxSpread {
		return nil
	}

	level := ConcentrationPartial
	if spreadRatio < concentrationFullSpread {
		level = ConcentrationFull
	}

	lastClose := closes[len(closes)-1]
	breakout := lastClose > high*breakoutMargin

	return &Concentration{
		Level:            level,
		RangeLow:         low,
		RangeHigh:        high,
		SpreadRatio:      spreadRatio,
		BreakoutDetected: breakout,
		VolumeConfirmed:  volumeConfirmed(bars),
	}
}

func volumeConfirmed(bars []model.Bar) bool {
	n := len(bars)
	if n < volumeBaseBars {
		return false
	}
	recent := meanVolume(bars[n-volumeRecentBars:])
	base := meanVolume(bars[n-volumeBaseBars:])
	if base <= 0 {
		return false
	}
	return recent > base*volumeConfirmMult
}

func meanVolume(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += float64(b.Volume)
	}
	return sum / float64(len(bars))
}
