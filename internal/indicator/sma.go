package indicator

// SMA computes the simple moving average of closes over a rolling window.
// Uses a running sum so the pass stays O(n) regardless of period.
// Entries before index period-1 are undefined.
func SMA(closes []float64, period int) []Value {
	out := make([]Value, len(closes))
	if period <= 0 {
		return out
	}

	var sum float64
	for i, price := range closes {
		sum += price
		if i >= period {
			// Drop the value that aged out of the window
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = Defined(sum / float64(period))
		}
	}
	return out
}

// DeductionPrices returns, for each index, the close that will age out of a
// period-length rolling window: closes[i-period]. Comparing today's price
// against it forecasts whether the rolling average will rise or fall.
func DeductionPrices(closes []float64, period int) []Value {
	out := make([]Value, len(closes))
	if period <= 0 {
		return out
	}
	for i := range closes {
		if i >= period {
			out[i] = Defined(closes[i-period])
		}
	}
	return out
}
