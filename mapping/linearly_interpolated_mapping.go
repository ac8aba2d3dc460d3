// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package mapping

import (
	"math"

	enc "github.com/quantilesketch/ddsketch/encoding"
)

// LinearlyInterpolatedMapping approximates log2 by linearly interpolating
// between a value's exponent and its significand, trading some extra
// indices (relative to LogarithmicMapping) for the removal of the
// transcendental call from Index/Value.
type LinearlyInterpolatedMapping struct {
	gamma             float64
	indexOffset       float64
	multiplier        float64
	minIndexableValue float64
	maxIndexableValue float64
}

func NewLinearlyInterpolatedMapping(relativeAccuracy float64) (*LinearlyInterpolatedMapping, error) {
	gamma, err := gammaFromRelativeAccuracy(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	return NewLinearlyInterpolatedMappingWithGamma(gamma, 0)
}

func NewLinearlyInterpolatedMappingWithGamma(gamma, indexOffset float64) (*LinearlyInterpolatedMapping, error) {
	if gamma <= 1 {
		return nil, ErrInvalidGamma
	}
	multiplier := 1 / math.Log(gamma)
	return &LinearlyInterpolatedMapping{
		gamma:       gamma,
		indexOffset: indexOffset,
		multiplier:  multiplier,
		minIndexableValue: math.Max(
			math.Pow(2, (math.MinInt32-indexOffset)/multiplier+1),
			minNormalFloat64*gamma,
		),
		maxIndexableValue: math.Min(
			math.Pow(2, (math.MaxInt32-indexOffset)/multiplier-1),
			math.MaxFloat64/2*gamma,
		),
	}, nil
}

func (m *LinearlyInterpolatedMapping) Equals(other IndexMapping) bool {
	o, ok := other.(*LinearlyInterpolatedMapping)
	if !ok {
		return false
	}
	const tol = 1e-12
	return withinTolerance(m.gamma, o.gamma, tol) && withinTolerance(m.indexOffset, o.indexOffset, tol)
}

func (m *LinearlyInterpolatedMapping) Index(value float64) int {
	index := m.log2Approx(value)*m.multiplier + m.indexOffset
	if index >= 0 {
		return int(index)
	}
	return int(index) - 1
}

func (m *LinearlyInterpolatedMapping) Value(index int) float64 {
	return m.LowerBound(index) * (1 + m.RelativeAccuracy())
}

func (m *LinearlyInterpolatedMapping) LowerBound(index int) float64 {
	return m.exp2Approx((float64(index) - m.indexOffset) / m.multiplier)
}

func (m *LinearlyInterpolatedMapping) Gamma() float64             { return m.gamma }
func (m *LinearlyInterpolatedMapping) IndexOffset() float64       { return m.indexOffset }
func (m *LinearlyInterpolatedMapping) MinIndexableValue() float64 { return m.minIndexableValue }
func (m *LinearlyInterpolatedMapping) MaxIndexableValue() float64 { return m.maxIndexableValue }
func (m *LinearlyInterpolatedMapping) RelativeAccuracy() float64 {
	return relativeAccuracyFromGamma(m.gamma)
}

func (m *LinearlyInterpolatedMapping) Encode(b *[]byte) {
	enc.EncodeFlag(b, enc.FlagIndexMappingLinearInterp)
	enc.EncodeFloat64LE(b, m.gamma)
	enc.EncodeFloat64LE(b, m.indexOffset)
}

// log2Approx approximates log2(value) by linearly interpolating the
// significand between consecutive powers of two: exponent + (significand - 1).
func (m *LinearlyInterpolatedMapping) log2Approx(value float64) float64 {
	return getExponent(value) + getSignificandPlusOne(value) - 1
}

// exp2Approx inverts log2Approx.
func (m *LinearlyInterpolatedMapping) exp2Approx(value float64) float64 {
	exponent := math.Floor(value)
	significandPlusOne := value - exponent + 1
	return buildFloat64(exponent, significandPlusOne)
}

var _ IndexMapping = (*LinearlyInterpolatedMapping)(nil)
