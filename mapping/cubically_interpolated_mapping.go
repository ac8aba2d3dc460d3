// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package mapping

import (
	"math"

	enc "github.com/quantilesketch/ddsketch/encoding"
)

// Coefficients of the cubic polynomial that approximates the fractional
// part of log2 over the significand range [1, 2). Chosen to minimize the
// multiplier (and hence the memory footprint of the sketch) required to
// still guarantee the target relative accuracy.
const (
	cubicA = 6.0 / 35.0
	cubicB = -3.0 / 5.0
	cubicC = 10.0 / 7.0
)

// CubicallyInterpolatedMapping approximates log2 by a cubic polynomial of
// the significand, a tighter fit than LinearlyInterpolatedMapping at the
// cost of a handful of extra flops per call and a Cardano's-formula
// inversion instead of a closed-form one.
type CubicallyInterpolatedMapping struct {
	gamma                 float64
	multiplier            float64
	normalizedIndexOffset float64
	minIndexableValue     float64
	maxIndexableValue     float64
}

func NewCubicallyInterpolatedMapping(relativeAccuracy float64) (*CubicallyInterpolatedMapping, error) {
	gamma, err := gammaFromRelativeAccuracy(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	return NewCubicallyInterpolatedMappingWithGamma(gamma, 0)
}

func NewCubicallyInterpolatedMappingWithGamma(gamma, indexOffset float64) (*CubicallyInterpolatedMapping, error) {
	if gamma <= 1 {
		return nil, ErrInvalidGamma
	}
	m := &CubicallyInterpolatedMapping{
		gamma:      gamma,
		multiplier: 1 / (cubicC * math.Log(gamma)),
	}
	m.normalizedIndexOffset = indexOffset - m.log2Approx(1)*m.multiplier
	m.minIndexableValue = math.Max(
		math.Exp2((math.MinInt32-m.normalizedIndexOffset)/m.multiplier-m.log2Approx(1)+1),
		minNormalFloat64*gamma,
	)
	m.maxIndexableValue = math.Min(
		math.Exp2((math.MaxInt32-m.normalizedIndexOffset)/m.multiplier-m.log2Approx(1)-1),
		math.Exp(expOverflow)/(2*gamma)*(gamma+1),
	)
	return m, nil
}

func (m *CubicallyInterpolatedMapping) Equals(other IndexMapping) bool {
	o, ok := other.(*CubicallyInterpolatedMapping)
	if !ok {
		return false
	}
	const tol = 1e-12
	return withinTolerance(m.multiplier, o.multiplier, tol) &&
		withinTolerance(m.normalizedIndexOffset, o.normalizedIndexOffset, tol)
}

func (m *CubicallyInterpolatedMapping) Index(value float64) int {
	index := m.log2Approx(value)*m.multiplier + m.normalizedIndexOffset
	if index >= 0 {
		return int(index)
	}
	return int(index) - 1
}

func (m *CubicallyInterpolatedMapping) Value(index int) float64 {
	return m.LowerBound(index) * (1 + m.RelativeAccuracy())
}

func (m *CubicallyInterpolatedMapping) LowerBound(index int) float64 {
	return m.exp2Approx((float64(index) - m.normalizedIndexOffset) / m.multiplier)
}

func (m *CubicallyInterpolatedMapping) Gamma() float64 { return m.gamma }

// IndexOffset undoes the normalization applied at construction, returning
// the offset as originally supplied.
func (m *CubicallyInterpolatedMapping) IndexOffset() float64 {
	return m.normalizedIndexOffset + m.log2Approx(1)*m.multiplier
}

func (m *CubicallyInterpolatedMapping) MinIndexableValue() float64 { return m.minIndexableValue }
func (m *CubicallyInterpolatedMapping) MaxIndexableValue() float64 { return m.maxIndexableValue }
func (m *CubicallyInterpolatedMapping) RelativeAccuracy() float64 {
	return relativeAccuracyFromGamma(m.gamma)
}

func (m *CubicallyInterpolatedMapping) Encode(b *[]byte) {
	enc.EncodeFlag(b, enc.FlagIndexMappingCubicInterp)
	enc.EncodeFloat64LE(b, m.gamma)
	enc.EncodeFloat64LE(b, m.IndexOffset())
}

// log2Approx approximates log2(value) as exponent + a cubic polynomial of
// the significand's fractional part, tighter than the linear mapping's
// first-order fit.
func (m *CubicallyInterpolatedMapping) log2Approx(value float64) float64 {
	exponent := getExponent(value)
	s := getSignificandPlusOne(value) - 1
	return ((cubicA*s+cubicB)*s+cubicC)*s + exponent
}

// exp2Approx inverts log2Approx by solving the cubic for its fractional
// part via Cardano's formula.
func (m *CubicallyInterpolatedMapping) exp2Approx(value float64) float64 {
	exponent := math.Floor(value)
	d0 := cubicB*cubicB - 3*cubicA*cubicC
	d1 := 2*cubicB*cubicB*cubicB - 9*cubicA*cubicB*cubicC - 27*cubicA*cubicA*(value-exponent)
	p := math.Cbrt((d1 - math.Sqrt(d1*d1-4*d0*d0*d0)) / 2)
	s := -(cubicB + p + d0/p) / (3 * cubicA)
	return buildFloat64(exponent, s+1)
}

var _ IndexMapping = (*CubicallyInterpolatedMapping)(nil)
