// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

// Package store implements the bin-store component of the sketch: a
// growable array of per-index counters, with variants that bound their own
// memory footprint by collapsing the bins at one end of the index range.
package store

import (
	"errors"

	enc "github.com/quantilesketch/ddsketch/encoding"
)

var (
	ErrUndefinedMinIndex = errors.New("MinIndex of empty store is undefined")
	ErrUndefinedMaxIndex = errors.New("MaxIndex of empty store is undefined")
	ErrInvalidReweight   = errors.New("reweighting factor must be positive and finite")
)

// Bin is one (index, count) pair emitted while iterating a store.
type Bin struct {
	index int
	count float64
}

func (b Bin) Index() int      { return b.index }
func (b Bin) Count() float64  { return b.count }
func (b Bin) IsEmpty() bool   { return b.count == 0 }

// BinStore accumulates counts at integer bin indices, exposes them in
// rank order, and can bound the number of distinct indices it retains by
// collapsing the bins furthest from where most of the mass lives.
type BinStore interface {
	Add(index int)
	AddWithCount(index int, count float64)
	AddBin(bin Bin)
	// Bins streams the store's non-empty bins over a channel. The caller
	// must drain it to completion or the backing goroutine leaks.
	Bins() <-chan Bin
	// ForEach applies f to every non-empty bin until f returns true.
	ForEach(f func(index int, count float64) (stop bool))
	Copy() BinStore
	// Clear empties the store, zeroing its backing array in place. The
	// next insertion into a cleared store allocates a new backing array.
	Clear()
	IsEmpty() bool
	MaxIndex() (int, error)
	MinIndex() (int, error)
	TotalCount() float64
	// KeyAtRank returns the index of the bin holding the value at rank,
	// counting from the lowest index.
	KeyAtRank(rank float64) int
	MergeWith(store BinStore)
	// Reweight multiplies every count in the store by w, preserving the
	// relative shape of the distribution.
	Reweight(w float64) error
	// Encode appends the store's bins to *b, tagged with t to mark
	// whether this is the positive or negative store.
	Encode(b *[]byte, t enc.FlagType)
	// DecodeAndMergeWith decodes bins encoded under binEncodingMode from
	// the front of *b and merges them into the receiver.
	DecodeAndMergeWith(b *[]byte, binEncodingMode enc.SubFlag) error
}

func maxIndex(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func minIndex(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// encodeContiguousCounts appends the BinEncodingContiguousCounts wire form
// of a contiguous bins[0:n] array starting at offset, skipping leading and
// trailing zero counts.
func encodeContiguousCounts(b *[]byte, t enc.FlagType, bins []float64, offset int) {
	lo, hi := 0, len(bins)
	for lo < hi && bins[lo] == 0 {
		lo++
	}
	for hi > lo && bins[hi-1] == 0 {
		hi--
	}
	n := hi - lo
	if n == 0 {
		return
	}
	enc.EncodeFlag(b, enc.NewStoreFlag(t, enc.BinEncodingContiguousCounts))
	enc.EncodeUvarint64(b, uint64(n))
	enc.EncodeVarint64(b, int64(offset+lo))
	enc.EncodeVarint64(b, 1) // fixed stride between contiguous bins
	for i := lo; i < hi; i++ {
		enc.EncodeVarfloat64(b, bins[i])
	}
}

// DecodeAndMergeWith decodes bins encoded under binEncodingMode from the
// front of *b, calling back into s to apply them. The three encodings
// mirror the Section 6 wire format: a sparse run of (delta, count) pairs,
// a sparse run of unit-weight deltas, or a dense contiguous run.
func DecodeAndMergeWith(s BinStore, b *[]byte, binEncodingMode enc.SubFlag) error {
	switch binEncodingMode {
	case enc.BinEncodingIndexDeltasAndCounts:
		numBins, err := enc.DecodeUvarint64(b)
		if err != nil {
			return err
		}
		index := int64(0)
		for i := uint64(0); i < numBins; i++ {
			delta, err := enc.DecodeVarint64(b)
			if err != nil {
				return err
			}
			count, err := enc.DecodeVarfloat64(b)
			if err != nil {
				return err
			}
			index += delta
			s.AddWithCount(int(index), count)
		}
	case enc.BinEncodingIndexDeltas:
		numBins, err := enc.DecodeUvarint64(b)
		if err != nil {
			return err
		}
		index := int64(0)
		for i := uint64(0); i < numBins; i++ {
			delta, err := enc.DecodeVarint64(b)
			if err != nil {
				return err
			}
			index += delta
			s.Add(int(index))
		}
	case enc.BinEncodingContiguousCounts:
		numBins, err := enc.DecodeUvarint64(b)
		if err != nil {
			return err
		}
		index, err := enc.DecodeVarint64(b)
		if err != nil {
			return err
		}
		stride, err := enc.DecodeVarint64(b)
		if err != nil {
			return err
		}
		for i := uint64(0); i < numBins; i++ {
			count, err := enc.DecodeVarfloat64(b)
			if err != nil {
				return err
			}
			s.AddWithCount(int(index), count)
			index += stride
		}
	default:
		return errUnknownBinEncoding
	}
	return nil
}

var errUnknownBinEncoding = errors.New("unknown bin encoding")
