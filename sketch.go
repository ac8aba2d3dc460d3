// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

// Package ddsketch implements a relative-error quantile sketch: a data
// structure that ingests a stream of real-valued observations and answers
// approximate quantile queries within a configurable relative accuracy. It
// composes an IndexMapping (mapping/) and two BinStores (store/), one for
// positive magnitudes and one for negative, plus a zero-count bucket and
// running summary statistics.
package ddsketch

import (
	"errors"
	"math"

	enc "github.com/quantilesketch/ddsketch/encoding"
	"github.com/quantilesketch/ddsketch/mapping"
	"github.com/quantilesketch/ddsketch/store"
)

var (
	// ErrNegativeWeight is returned by Add/AddWithCount when the weight is
	// not strictly positive.
	ErrNegativeWeight = errors.New("weight must be greater than 0")
	// ErrUnequalSketchParameters is returned by Merge when the two
	// sketches' index mappings disagree on gamma.
	ErrUnequalSketchParameters = errors.New("cannot merge sketches with different index mappings")
	// ErrUnknownFlag is returned while decoding a wire payload that uses a
	// flag this package does not recognize.
	ErrUnknownFlag = errors.New("unknown encoding flag")

	errIndexMappingMismatch = errors.New("decoded index mapping does not match the sketch's own mapping")
)

// defaultMaxNumBins is substituted whenever a caller supplies binLimit <= 0
// to one of the collapsing constructors.
const defaultMaxNumBins = 2048

// Sketch is a relative-error quantile sketch. It owns exactly one
// IndexMapping and two BinStores (positive and negative magnitudes); there
// is no shared ownership between Sketch instances. A Sketch is not safe
// for concurrent use by multiple goroutines.
type Sketch struct {
	mapping       mapping.IndexMapping
	positiveStore store.BinStore
	negativeStore store.BinStore
	zeroCount     float64
	count         float64
	sum           float64
	min           float64
	max           float64
}

// NewSketch builds a Sketch from an already-constructed mapping and pair of
// (positive, negative) stores. Most callers want one of the named
// constructors below instead.
func NewSketch(m mapping.IndexMapping, positiveStore, negativeStore store.BinStore) *Sketch {
	return &Sketch{
		mapping:       m,
		positiveStore: positiveStore,
		negativeStore: negativeStore,
		min:           math.Inf(1),
		max:           math.Inf(-1),
	}
}

// NewDefaultDDSketch returns the memory-optimal (logarithmic mapping,
// unbounded dense stores) sketch for the given relative accuracy.
func NewDefaultDDSketch(relativeAccuracy float64) (*Sketch, error) {
	return LogUnboundedDenseDDSketch(relativeAccuracy)
}

// LogUnboundedDenseDDSketch offers constant-time insertion and grows
// indefinitely to accommodate the range of input values, using the
// logarithmic (memory-optimal) index mapping.
func LogUnboundedDenseDDSketch(relativeAccuracy float64) (*Sketch, error) {
	m, err := mapping.NewLogarithmicMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	return NewSketch(m, store.NewDenseStore(), store.NewDenseStore()), nil
}

// LogCollapsingLowestDenseDDSketch bounds memory at maxNumBins per store by
// collapsing the lowest-index bins once the cap is reached; this loses the
// relative-accuracy guarantee on the smallest-magnitude values once
// collapsing has occurred. maxNumBins <= 0 is normalized to the default 2048.
func LogCollapsingLowestDenseDDSketch(relativeAccuracy float64, maxNumBins int) (*Sketch, error) {
	m, err := mapping.NewLogarithmicMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	maxNumBins = normalizeMaxNumBins(maxNumBins)
	return NewSketch(m, store.NewCollapsingLowestDenseStore(maxNumBins), store.NewCollapsingLowestDenseStore(maxNumBins)), nil
}

// LogCollapsingHighestDenseDDSketch mirrors LogCollapsingLowestDenseDDSketch
// but collapses the highest-index bins once maxNumBins is reached.
func LogCollapsingHighestDenseDDSketch(relativeAccuracy float64, maxNumBins int) (*Sketch, error) {
	m, err := mapping.NewLogarithmicMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	maxNumBins = normalizeMaxNumBins(maxNumBins)
	return NewSketch(m, store.NewCollapsingHighestDenseStore(maxNumBins), store.NewCollapsingHighestDenseStore(maxNumBins)), nil
}

// MemoryOptimalCollapsingLowestSketch is an alias for
// LogCollapsingLowestDenseDDSketch kept for readers coming from the
// reference implementation's naming, where "memory-optimal" describes the
// logarithmic mapping rather than any property of the collapsing variant.
func MemoryOptimalCollapsingLowestSketch(relativeAccuracy float64, maxNumBins int) (*Sketch, error) {
	return LogCollapsingLowestDenseDDSketch(relativeAccuracy, maxNumBins)
}

// LinearUnboundedDenseDDSketch uses the linearly-interpolated index mapping,
// trading a few extra bins for the removal of a transcendental call from
// the hot insertion path.
func LinearUnboundedDenseDDSketch(relativeAccuracy float64) (*Sketch, error) {
	m, err := mapping.NewLinearlyInterpolatedMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	return NewSketch(m, store.NewDenseStore(), store.NewDenseStore()), nil
}

// LinearCollapsingLowestDenseDDSketch is LinearUnboundedDenseDDSketch bounded
// to maxNumBins per store, collapsing the lowest-index bins on overflow.
func LinearCollapsingLowestDenseDDSketch(relativeAccuracy float64, maxNumBins int) (*Sketch, error) {
	m, err := mapping.NewLinearlyInterpolatedMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	maxNumBins = normalizeMaxNumBins(maxNumBins)
	return NewSketch(m, store.NewCollapsingLowestDenseStore(maxNumBins), store.NewCollapsingLowestDenseStore(maxNumBins)), nil
}

// LinearCollapsingHighestDenseDDSketch mirrors
// LinearCollapsingLowestDenseDDSketch, collapsing the highest-index bins.
func LinearCollapsingHighestDenseDDSketch(relativeAccuracy float64, maxNumBins int) (*Sketch, error) {
	m, err := mapping.NewLinearlyInterpolatedMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	maxNumBins = normalizeMaxNumBins(maxNumBins)
	return NewSketch(m, store.NewCollapsingHighestDenseStore(maxNumBins), store.NewCollapsingHighestDenseStore(maxNumBins)), nil
}

// CubicUnboundedDenseDDSketch uses the cubically-interpolated index
// mapping, a tighter approximation than the linear variant at the cost of
// a handful of extra flops per call.
func CubicUnboundedDenseDDSketch(relativeAccuracy float64) (*Sketch, error) {
	m, err := mapping.NewCubicallyInterpolatedMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	return NewSketch(m, store.NewDenseStore(), store.NewDenseStore()), nil
}

// CubicCollapsingLowestDenseDDSketch is CubicUnboundedDenseDDSketch bounded
// to maxNumBins per store, collapsing the lowest-index bins on overflow.
func CubicCollapsingLowestDenseDDSketch(relativeAccuracy float64, maxNumBins int) (*Sketch, error) {
	m, err := mapping.NewCubicallyInterpolatedMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	maxNumBins = normalizeMaxNumBins(maxNumBins)
	return NewSketch(m, store.NewCollapsingLowestDenseStore(maxNumBins), store.NewCollapsingLowestDenseStore(maxNumBins)), nil
}

// CubicCollapsingHighestDenseDDSketch mirrors
// CubicCollapsingLowestDenseDDSketch, collapsing the highest-index bins.
func CubicCollapsingHighestDenseDDSketch(relativeAccuracy float64, maxNumBins int) (*Sketch, error) {
	m, err := mapping.NewCubicallyInterpolatedMapping(relativeAccuracy)
	if err != nil {
		return nil, err
	}
	maxNumBins = normalizeMaxNumBins(maxNumBins)
	return NewSketch(m, store.NewCollapsingHighestDenseStore(maxNumBins), store.NewCollapsingHighestDenseStore(maxNumBins)), nil
}

func normalizeMaxNumBins(maxNumBins int) int {
	if maxNumBins <= 0 {
		return defaultMaxNumBins
	}
	return maxNumBins
}

// Add inserts value with weight 1.
func (s *Sketch) Add(value float64) error {
	return s.AddWithCount(value, 1)
}

// AddWithCount inserts value with the given weight, which must be strictly
// positive; otherwise it returns ErrNegativeWeight.
func (s *Sketch) AddWithCount(value, weight float64) error {
	if weight <= 0 {
		return ErrNegativeWeight
	}
	minIndexable := s.mapping.MinIndexableValue()
	if value > minIndexable {
		s.positiveStore.AddWithCount(s.mapping.Index(value), weight)
	} else if value < -minIndexable {
		s.negativeStore.AddWithCount(s.mapping.Index(-value), weight)
	} else {
		s.zeroCount += weight
	}
	s.count += weight
	s.sum += value * weight
	if value < s.min {
		s.min = value
	}
	if value > s.max {
		s.max = value
	}
	return nil
}

// IsEmpty reports whether no value has ever been added to the sketch.
func (s *Sketch) IsEmpty() bool {
	return s.count == 0
}

// Count returns the total weight of all values added to the sketch.
func (s *Sketch) Count() float64 { return s.count }

// Sum returns the running sum of value*weight over every insertion.
func (s *Sketch) Sum() float64 { return s.sum }

// Avg returns Sum()/Count(), or NaN if the sketch is empty.
func (s *Sketch) Avg() float64 {
	if s.count == 0 {
		return math.NaN()
	}
	return s.sum / s.count
}

// Min returns the smallest value added to the sketch, or +Inf if empty.
func (s *Sketch) Min() float64 { return s.min }

// Max returns the largest value added to the sketch, or -Inf if empty.
func (s *Sketch) Max() float64 { return s.max }

// ZeroCount returns the weight of all values that fell within the
// mapping's indeterminate region around zero.
func (s *Sketch) ZeroCount() float64 { return s.zeroCount }

// RelativeAccuracy returns the sketch's configured relative accuracy.
func (s *Sketch) RelativeAccuracy() float64 { return s.mapping.RelativeAccuracy() }

// Quantile returns an estimate of the value at quantile q. It returns NaN
// when q is outside [0, 1] or the sketch is empty, rather than erroring:
// quantile is a total function.
func (s *Sketch) Quantile(q float64) float64 {
	if q < 0 || q > 1 || s.count == 0 {
		return math.NaN()
	}
	// An explicit float64 conversion keeps the subtraction from being
	// fused into a single FMA, which would make the rounding of rank
	// depend on the architecture and compiler.
	rank := float64(q * (s.count - 1))

	negativeCount := s.negativeStore.TotalCount()
	if rank < negativeCount {
		key := s.negativeStore.KeyAtRank(negativeCount - 1 - rank)
		return -s.mapping.Value(key)
	}
	if rank < s.zeroCount+negativeCount {
		return 0
	}
	key := s.positiveStore.KeyAtRank(rank - s.zeroCount - negativeCount)
	return s.mapping.Value(key)
}

// Merge folds other into s. If the two sketches' index mappings disagree
// on gamma, Merge returns ErrUnequalSketchParameters and leaves s
// unchanged. Merging an empty sketch is a no-op; merging into an empty
// sketch copies other's state.
func (s *Sketch) Merge(other *Sketch) error {
	if s.mapping.Gamma() != other.mapping.Gamma() {
		return ErrUnequalSketchParameters
	}
	if other.count == 0 {
		return nil
	}
	if s.count == 0 {
		s.positiveStore.MergeWith(other.positiveStore.Copy())
		s.negativeStore.MergeWith(other.negativeStore.Copy())
		s.zeroCount = other.zeroCount
		s.count = other.count
		s.sum = other.sum
		s.min = other.min
		s.max = other.max
		return nil
	}
	s.positiveStore.MergeWith(other.positiveStore)
	s.negativeStore.MergeWith(other.negativeStore)
	s.zeroCount += other.zeroCount
	s.count += other.count
	s.sum += other.sum
	if other.min < s.min {
		s.min = other.min
	}
	if other.max > s.max {
		s.max = other.max
	}
	return nil
}

// Copy returns a deep copy of s: the returned Sketch shares no mutable
// state with the receiver.
func (s *Sketch) Copy() *Sketch {
	return &Sketch{
		mapping:       s.mapping,
		positiveStore: s.positiveStore.Copy(),
		negativeStore: s.negativeStore.Copy(),
		zeroCount:     s.zeroCount,
		count:         s.count,
		sum:           s.sum,
		min:           s.min,
		max:           s.max,
	}
}

// Reweight multiplies every recorded observation's weight by factor,
// preserving the shape of the distribution while scaling its mass. sum is
// scaled along with it; min and max are unaffected, since they record
// observed values rather than accumulated weight.
func (s *Sketch) Reweight(factor float64) error {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return store.ErrInvalidReweight
	}
	if factor == 1 {
		return nil
	}
	if err := s.positiveStore.Reweight(factor); err != nil {
		return err
	}
	if err := s.negativeStore.Reweight(factor); err != nil {
		return err
	}
	s.zeroCount *= factor
	s.count *= factor
	s.sum *= factor
	return nil
}

// ForEach applies f to every (value, count) pair the sketch holds,
// including the zero bucket, until f returns true. There is no guarantee
// on iteration order across the two stores.
func (s *Sketch) ForEach(f func(value, count float64) (stop bool)) {
	if s.zeroCount != 0 && f(0, s.zeroCount) {
		return
	}
	stopped := false
	s.positiveStore.ForEach(func(index int, count float64) bool {
		stopped = f(s.mapping.Value(index), count)
		return stopped
	})
	if stopped {
		return
	}
	s.negativeStore.ForEach(func(index int, count float64) bool {
		return f(-s.mapping.Value(index), count)
	})
}

// Encode appends the wire encoding of s to *b. See the package
// documentation of the encoding subpackage for the format.
func (s *Sketch) Encode(b *[]byte) {
	if s.zeroCount != 0 {
		enc.EncodeFlag(b, enc.FlagZeroCountVarFloat)
		enc.EncodeVarfloat64(b, s.zeroCount)
	}
	if s.count != 0 {
		enc.EncodeFlag(b, enc.FlagCount)
		enc.EncodeFloat64LE(b, s.count)
		enc.EncodeFlag(b, enc.FlagSum)
		enc.EncodeFloat64LE(b, s.sum)
		enc.EncodeFlag(b, enc.FlagMin)
		enc.EncodeFloat64LE(b, s.min)
		enc.EncodeFlag(b, enc.FlagMax)
		enc.EncodeFloat64LE(b, s.max)
	}
	s.mapping.Encode(b)
	s.positiveStore.Encode(b, enc.FlagTypePositiveStore)
	s.negativeStore.Encode(b, enc.FlagTypeNegativeStore)
}

// DecodeDDSketch decodes a Sketch encoded by Encode, building its stores
// with newStore (called once per side). newStore lets the caller pick the
// store variant to decode into; per the wire format's design, the decoded
// stores are always unbounded-dense-shaped accumulations unless newStore
// itself imposes a cap.
func DecodeDDSketch(b []byte, newStore func() store.BinStore) (*Sketch, error) {
	s := &Sketch{
		positiveStore: newStore(),
		negativeStore: newStore(),
		min:           math.Inf(1),
		max:           math.Inf(-1),
	}
	if err := s.DecodeAndMergeWith(b); err != nil {
		return nil, err
	}
	if s.mapping == nil {
		return nil, ErrUnknownFlag
	}
	return s, nil
}

// DecodeAndMergeWith decodes a wire payload and merges its content into s.
// If the payload carries an index mapping that disagrees with s's own
// (when s already has one), DecodeAndMergeWith returns an error; every
// field decoded before the mismatch was detected (with Encode's field
// order: the zero count and the summary statistics) stays merged into s --
// matching the teacher's own merge-as-you-decode
// streaming approach, since the format does not support a dry-run pass.
func (s *Sketch) DecodeAndMergeWith(bb []byte) error {
	b := &bb
	sawExactStats := false
	for len(*b) > 0 {
		flag, err := enc.DecodeFlag(b)
		if err != nil {
			return err
		}
		switch flag.Type() {
		case enc.FlagTypePositiveStore:
			if s.positiveStore == nil {
				s.positiveStore = store.NewDenseStore()
			}
			if err := s.positiveStore.DecodeAndMergeWith(b, flag.SubFlag()); err != nil {
				return err
			}
		case enc.FlagTypeNegativeStore:
			if s.negativeStore == nil {
				s.negativeStore = store.NewDenseStore()
			}
			if err := s.negativeStore.DecodeAndMergeWith(b, flag.SubFlag()); err != nil {
				return err
			}
		case enc.FlagTypeIndexMapping:
			decoded, err := mapping.Decode(b, flag)
			if err != nil {
				return err
			}
			if s.mapping != nil && !s.mapping.Equals(decoded) {
				return errIndexMappingMismatch
			}
			s.mapping = decoded
		default:
			switch flag {
			case enc.FlagZeroCountVarFloat:
				v, err := enc.DecodeVarfloat64(b)
				if err != nil {
					return err
				}
				s.zeroCount += v
			case enc.FlagCount:
				v, err := enc.DecodeFloat64LE(b)
				if err != nil {
					return err
				}
				s.count += v
				sawExactStats = true
			case enc.FlagSum:
				v, err := enc.DecodeFloat64LE(b)
				if err != nil {
					return err
				}
				s.sum += v
			case enc.FlagMin:
				v, err := enc.DecodeFloat64LE(b)
				if err != nil {
					return err
				}
				if v < s.min {
					s.min = v
				}
			case enc.FlagMax:
				v, err := enc.DecodeFloat64LE(b)
				if err != nil {
					return err
				}
				if v > s.max {
					s.max = v
				}
			default:
				return ErrUnknownFlag
			}
		}
	}
	if !sawExactStats && s.positiveStore != nil && s.negativeStore != nil {
		s.count = s.zeroCount + s.positiveStore.TotalCount() + s.negativeStore.TotalCount()
	}
	return nil
}
