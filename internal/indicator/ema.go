package indicator

// EMA computes the exponential moving average of closes with smoothing
// factor 2/(period+1). The series is seeded with the raw first close, so
// unlike SMA there is no warm-up gap: every index is defined.
func EMA(closes []float64, period int) []Value {
	out := make([]Value, len(closes))
	if period <= 0 || len(closes) == 0 {
		return out
	}

	alpha := 2.0 / float64(period+1)
	ema := closes[0]
	out[0] = Defined(ema)
	for i := 1; i < len(closes); i++ {
		ema = alpha*closes[i] + (1-alpha)*ema
		out[i] = Defined(ema)
	}
	return out
}
