// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package mapping

import (
	"bytes"
	"fmt"
	"math"

	enc "github.com/quantilesketch/ddsketch/encoding"
)

// LogarithmicMapping is memory-optimal: given a targeted relative
// accuracy, it requires the fewest indices to cover a given range of
// values, at the cost of a transcendental call (math.Log/math.Exp) on
// every insertion and lookup.
type LogarithmicMapping struct {
	gamma             float64
	indexOffset       float64
	multiplier        float64 // 1 / log(gamma), precomputed
	minIndexableValue float64
	maxIndexableValue float64
}

func NewLogarithmicMapping(relativeAccuracy float64) (*LogarithmicMapping, error) {
	gamma, err := gammaFromRelativeAccuracy(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	return NewLogarithmicMappingWithGamma(gamma, 0)
}

// NewLogarithmicMappingWithGamma builds a mapping directly from its wire
// parameters: gamma (the bin-width base) and indexOffset (the additive
// shift applied to every key).
func NewLogarithmicMappingWithGamma(gamma, indexOffset float64) (*LogarithmicMapping, error) {
	if gamma <= 1 {
		return nil, ErrInvalidGamma
	}
	multiplier := 1 / math.Log(gamma)
	return &LogarithmicMapping{
		gamma:       gamma,
		indexOffset: indexOffset,
		multiplier:  multiplier,
		minIndexableValue: math.Max(
			math.Exp((math.MinInt32-indexOffset)/multiplier+1), // so that index >= MinInt32
			minNormalFloat64*gamma,
		),
		maxIndexableValue: math.Min(
			math.Exp((math.MaxInt32-indexOffset)/multiplier-1), // so that index <= MaxInt32
			math.Exp(expOverflow)/(2*gamma)*(gamma+1),          // so that math.Exp does not overflow
		),
	}, nil
}

func (m *LogarithmicMapping) Equals(other IndexMapping) bool {
	o, ok := other.(*LogarithmicMapping)
	if !ok {
		return false
	}
	const tol = 1e-12
	return withinTolerance(m.gamma, o.gamma, tol) && withinTolerance(m.indexOffset, o.indexOffset, tol)
}

func (m *LogarithmicMapping) Index(value float64) int {
	index := math.Log(value)*m.multiplier + m.indexOffset
	if index >= 0 {
		return int(index)
	}
	return int(index) - 1 // floor, without the call to math.Floor
}

func (m *LogarithmicMapping) Value(index int) float64 {
	return m.LowerBound(index) * (1 + m.RelativeAccuracy())
}

func (m *LogarithmicMapping) LowerBound(index int) float64 {
	return math.Exp((float64(index) - m.indexOffset) / m.multiplier)
}

func (m *LogarithmicMapping) Gamma() float64             { return m.gamma }
func (m *LogarithmicMapping) IndexOffset() float64       { return m.indexOffset }
func (m *LogarithmicMapping) MinIndexableValue() float64 { return m.minIndexableValue }
func (m *LogarithmicMapping) MaxIndexableValue() float64 { return m.maxIndexableValue }
func (m *LogarithmicMapping) RelativeAccuracy() float64  { return relativeAccuracyFromGamma(m.gamma) }

func (m *LogarithmicMapping) Encode(b *[]byte) {
	enc.EncodeFlag(b, enc.FlagIndexMappingBaseLogarithmic)
	enc.EncodeFloat64LE(b, m.gamma)
	enc.EncodeFloat64LE(b, m.indexOffset)
}

func (m *LogarithmicMapping) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "gamma: %v, indexOffset: %v", m.gamma, m.indexOffset)
	return buf.String()
}

var _ IndexMapping = (*LogarithmicMapping)(nil)
