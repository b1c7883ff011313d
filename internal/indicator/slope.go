package indicator

// DefaultSlopeLag is the lookback used for moving-average slopes.
const DefaultSlopeLag = 5

// Slope computes the per-bar rate of change of a series over a fixed lag:
// (series[i] - series[i-lag]) / lag. A point is defined only when both ends
// of the lag window are defined.
func Slope(series []Value, lag int) []Value {
	out := make([]Value, len(series))
	if lag <= 0 {
		return out
	}
	for i := lag; i < len(series); i++ {
		if series[i].OK && series[i-lag].OK {
			out[i] = Defined((series[i].V - series[i-lag].V) / float64(lag))
		}
	}
	return out
}

// Phase classifies the strength and direction of a moving-average slope.
type Phase string

const (
	PhaseFlat        Phase = "FLAT"
	PhaseGentleUp    Phase = "GENTLE_UP"
	PhaseStrongUp    Phase = "STRONG_UP"
	PhaseExtremeUp   Phase = "EXTREME_UP"
	PhaseGentleDown  Phase = "GENTLE_DOWN"
	PhaseStrongDown  Phase = "STRONG_DOWN"
	PhaseExtremeDown Phase = "EXTREME_DOWN"
)

// Slope magnitude thresholds separating the phases. Boundary values fall
// into the upper bucket.
const (
	flatSlopeMax   = 0.1
	gentleSlopeMax = 0.5
	strongSlopeMax = 2.0
)

// ClassifyPhase buckets a slope value by magnitude and direction.
func ClassifyPhase(slope float64) Phase {
	abs := slope
	if abs < 0 {
		abs = -abs
	}
	if abs < flatSlopeMax {
		return PhaseFlat
	}
	up := slope > 0
	switch {
	case abs < gentleSlopeMax:
		if up {
			return PhaseGentleUp
		}
		return PhaseGentleDown
	case abs < strongSlopeMax:
		if up {
			return PhaseStrongUp
		}
		return PhaseStrongDown
	default:
		if up {
			return PhaseExtremeUp
		}
		return PhaseExtremeDown
	}
}

// Declining reports whether a phase is one of the strong downward phases.
func (p Phase) Declining() bool {
	return p == PhaseStrongDown || p == PhaseExtremeDown
}
