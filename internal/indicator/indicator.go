// Package indicator computes windowed statistics over daily close series:
// moving averages, slopes, phase classification, deduction prices, and bias.
//
// All series functions return []Value aligned one-to-one with the input.
// Entries inside a window's warm-up are undefined (OK=false) rather than
// zero or NaN, so downstream consumers must check before use.
package indicator

import "encoding/json"

// Value is one point of an indicator series. OK is false while the
// underlying window has not yet filled.
type Value struct {
	V  float64
	OK bool
}

// Defined wraps a float in a defined Value.
func Defined(v float64) Value { return Value{V: v, OK: true} }

// Undefined returns the zero, not-yet-computable Value.
func Undefined() Value { return Value{} }

// Last returns the final point of a series, or an undefined Value for an
// empty series.
func Last(series []Value) Value {
	if len(series) == 0 {
		return Undefined()
	}
	return series[len(series)-1]
}

// MarshalJSON encodes an undefined Value as null so downstream consumers
// cannot mistake warm-up entries for zeros.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.OK {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// BiasRatio measures how far price has stretched from a long moving average,
// as a percentage of the average. Returns 0 when the average is 0.
func BiasRatio(price, longEMA float64) float64 {
	if longEMA == 0 {
		return 0
	}
	diff := price - longEMA
	if diff < 0 {
		diff = -diff
	}
	return diff / longEMA * 100
}
