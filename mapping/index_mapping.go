// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

// Package mapping implements the index mapping component of the sketch: it
// translates real values to integer bin keys with a bounded relative
// distortion, and back.
package mapping

import (
	"errors"
	"math"

	enc "github.com/quantilesketch/ddsketch/encoding"
)

// ErrInvalidRelativeAccuracy is returned by every mapping constructor when
// the requested relative accuracy is not in the open interval (0, 1).
var ErrInvalidRelativeAccuracy = errors.New("relative accuracy must be between 0 and 1")

// ErrInvalidGamma is returned by the WithGamma constructors when gamma is
// not strictly greater than 1.
var ErrInvalidGamma = errors.New("gamma must be greater than 1")

// ErrUnknownInterpolation is returned by Decode when the wire form names an
// interpolation kind this package does not know how to build.
var ErrUnknownInterpolation = errors.New("unknown index mapping interpolation kind")

const (
	// expOverflow is the value at which math.Exp overflows.
	expOverflow      = 7.094361393031e+02
	minNormalFloat64 = 2.2250738585072014e-308 // 2^-1022
)

// IndexMapping maps positive real values to integer bin keys, and back,
// such that value(key(v)) is within a fixed relative accuracy of v. Every
// implementation is immutable after construction.
type IndexMapping interface {
	// Equals reports whether other computes the same key/value mapping.
	Equals(other IndexMapping) bool
	// Index returns the bin key for a strictly positive value.
	Index(value float64) int
	// Value returns the representative value of the bin identified by index.
	Value(index int) float64
	// LowerBound returns the lower boundary of the bin identified by index.
	LowerBound(index int) float64
	// Gamma returns the mapping's bin-width base, (1+relativeAccuracy)/(1-relativeAccuracy).
	Gamma() float64
	// IndexOffset returns the additive shift applied to every computed key.
	IndexOffset() float64
	RelativeAccuracy() float64
	MinIndexableValue() float64
	MaxIndexableValue() float64
	// Encode appends the wire encoding of the mapping to *b.
	Encode(b *[]byte)
}

// Decode reads an IndexMapping from the front of *b. flag has already been
// consumed by the caller and identifies the interpolation kind; the
// mapping's own two float64LE fields (gamma, indexOffset) follow in *b.
func Decode(b *[]byte, flag enc.Flag) (IndexMapping, error) {
	gamma, err := enc.DecodeFloat64LE(b)
	if err != nil {
		return nil, err
	}
	indexOffset, err := enc.DecodeFloat64LE(b)
	if err != nil {
		return nil, err
	}
	switch flag.SubFlag() {
	case enc.InterpolationNone:
		return NewLogarithmicMappingWithGamma(gamma, indexOffset)
	case enc.InterpolationLinear:
		return NewLinearlyInterpolatedMappingWithGamma(gamma, indexOffset)
	case enc.InterpolationCubic:
		return NewCubicallyInterpolatedMappingWithGamma(gamma, indexOffset)
	default:
		return nil, ErrUnknownInterpolation
	}
}

// NewDefaultMapping returns the memory-optimal (logarithmic) mapping for
// the given relative accuracy, matching the teacher's NewDefaultMapping.
func NewDefaultMapping(relativeAccuracy float64) (IndexMapping, error) {
	return NewLogarithmicMapping(relativeAccuracy)
}

func withinTolerance(x, y, tolerance float64) bool {
	if x == y {
		return true
	}
	return math.Abs(x-y) <= tolerance
}

func gammaFromRelativeAccuracy(relativeAccuracy float64) (float64, error) {
	if relativeAccuracy <= 0 || relativeAccuracy >= 1 {
		return 0, ErrInvalidRelativeAccuracy
	}
	return (1 + relativeAccuracy) / (1 - relativeAccuracy), nil
}

func relativeAccuracyFromGamma(gamma float64) float64 {
	return 1 - 2/(1+gamma)
}
