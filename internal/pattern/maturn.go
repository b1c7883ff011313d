package pattern

import (
	"time"

	"chartscan/internal/model"
)

// TurnLookahead is how many future bars of window aging the turn predictor
// considers.
const TurnLookahead = 20

// TurnConfidenceGain scales the relative gap between the last close and the
// required price into a [0,1] confidence. Heuristic factor, overridable.
var TurnConfidenceGain = 5.0

// TurnPrediction forecasts whether a rolling average is about to turn up,
// based on the prices it will shed as its window advances.
type TurnPrediction struct {
	Period          int       `json:"period"`
	WillTurnUp      bool      `json:"will_turn_up"`
	RequiredPrice   float64   `json:"required_price"`
	TurnWindowStart time.Time `json:"turn_window_start"`
	TurnWindowEnd   time.Time `json:"turn_window_end"`
	Confidence      float64   `json:"confidence"`
}

// PredictMATurn examines the closes a period-length rolling average will
// shed over the next TurnLookahead bars. If the last close exceeds the
// minimum of those (the required price), the average must eventually bend
// upward; the forecast window spans from when that minimum ages out until
// the last inspected close ages out.
func PredictMATurn(bars []model.Bar, period int) TurnPrediction {
	pred := TurnPrediction{Period: period}

	n := len(bars)
	if period <= 0 || n < period+TurnLookahead {
		return pred
	}

	closes := model.Closes(bars)
	start := n - period
	end := start + TurnLookahead
	if end > n {
		end = n
	}

	minIdx := start
	for i := start + 1; i < end; i++ {
		if closes[i] < closes[minIdx] {
			minIdx = i
		}
	}
	required := closes[minIdx]
	pred.RequiredPrice = required

	lastClose := closes[n-1]
	if lastClose <= required {
		return pred
	}
	pred.WillTurnUp = true

	// closes[k] leaves the window (k+period)-(n-1) bars from now.
	lastDate := bars[n-1].Date
	daysToMin := minIdx + period - (n - 1)
	daysToEnd := end - 1 + period - (n - 1)
	if daysToMin < 0 {
		daysToMin = 0
	}
	pred.TurnWindowStart = lastDate.AddDate(0, 0, daysToMin)
	pred.TurnWindowEnd = lastDate.AddDate(0, 0, daysToEnd)

	if required > 0 {
		conf := (lastClose - required) / required * TurnConfidenceGain
		if conf > 1 {
			conf = 1
		}
		pred.Confidence = conf
	}
	return pred
}
