// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package mapping

import "math"

// Bit-level float64 constants used by the interpolated mappings to
// approximate log2 from a value's raw IEEE-754 bits, avoiding a
// transcendental call on the hot insertion path.
const (
	exponentMask   = 0x7FF0000000000000
	significandMask = 0x000FFFFFFFFFFFFF
	exponentBias   = 1023
	exponentShift  = 52
	oneMask        = 0x3FF0000000000000 // bit pattern of 1.0
)

// getExponent returns the unbiased base-2 exponent of v's representation.
func getExponent(v float64) float64 {
	return float64((math.Float64bits(v)&exponentMask)>>exponentShift) - exponentBias
}

// getSignificandPlusOne returns the value's significand shifted into
// [1, 2), i.e. 1.significand.
func getSignificandPlusOne(v float64) float64 {
	return math.Float64frombits(math.Float64bits(v)&significandMask | oneMask)
}

// buildFloat64 reconstructs a float64 from an exponent and a significand
// already expressed as 1.significand, the inverse of
// getExponent/getSignificandPlusOne.
func buildFloat64(exponent float64, significandPlusOne float64) float64 {
	return math.Float64frombits(
		(uint64(exponent+exponentBias) << exponentShift) | (math.Float64bits(significandPlusOne) & significandMask),
	)
}
