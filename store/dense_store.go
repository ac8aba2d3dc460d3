// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package store

import (
	"bytes"
	"fmt"
	"math"

	enc "github.com/quantilesketch/ddsketch/encoding"
)

// growthBuffer bins are allocated beyond what's strictly required so that
// a run of nearby inserts doesn't reallocate on every single one.
const growthBuffer = 128

// DenseStore is a dynamically growing contiguous store. Its bin count is
// bound only by the range of indices actually inserted.
type DenseStore struct {
	bins     []float64
	count    float64
	minIndex int
	maxIndex int
}

func NewDenseStore() *DenseStore {
	return &DenseStore{}
}

func (s *DenseStore) Add(index int) {
	s.AddWithCount(index, 1)
}

func (s *DenseStore) AddBin(bin Bin) {
	if bin.count == 0 {
		return
	}
	s.AddWithCount(bin.index, bin.count)
}

func (s *DenseStore) AddWithCount(index int, count float64) {
	if count == 0 {
		return
	}
	if s.count == 0 {
		s.bins = make([]float64, growthBuffer)
		s.maxIndex = index
		s.minIndex = index - len(s.bins) + 1
	}
	if index < s.minIndex {
		s.growLeft(index)
	} else if index > s.maxIndex {
		s.growRight(index)
	}
	s.bins[index-s.minIndex] += count
	s.count += count
}

func (s *DenseStore) IsEmpty() bool      { return s.count == 0 }
func (s *DenseStore) TotalCount() float64 { return s.count }

func (s *DenseStore) MinIndex() (int, error) {
	if s.count == 0 {
		return 0, ErrUndefinedMinIndex
	}
	for i, c := range s.bins {
		if c > 0 {
			return i + s.minIndex, nil
		}
	}
	return s.maxIndex, nil
}

func (s *DenseStore) MaxIndex() (int, error) {
	if s.count == 0 {
		return 0, ErrUndefinedMaxIndex
	}
	for i := len(s.bins) - 1; i >= 0; i-- {
		if s.bins[i] > 0 {
			return i + s.minIndex, nil
		}
	}
	return s.minIndex, nil
}

func (s *DenseStore) KeyAtRank(rank float64) int {
	var n float64
	for i, c := range s.bins {
		n += c
		if n > rank {
			return i + s.minIndex
		}
	}
	return s.maxIndex
}

func (s *DenseStore) growLeft(index int) {
	if s.minIndex < index {
		return
	}
	minIdx := index - growthBuffer
	tmp := make([]float64, s.maxIndex-minIdx+1)
	copy(tmp[s.minIndex-minIdx:], s.bins)
	s.bins = tmp
	s.minIndex = minIdx
}

func (s *DenseStore) growRight(index int) {
	if s.maxIndex > index {
		return
	}
	maxIdx := index + growthBuffer
	tmp := make([]float64, maxIdx-s.minIndex+1)
	copy(tmp, s.bins)
	s.bins = tmp
	s.maxIndex = maxIdx
}

func (s *DenseStore) MergeWith(other BinStore) {
	if other.TotalCount() == 0 {
		return
	}
	o, ok := other.(*DenseStore)
	if !ok {
		other.ForEach(func(index int, count float64) bool {
			s.AddWithCount(index, count)
			return false
		})
		return
	}
	if s.count == 0 {
		s.copyFrom(o)
		return
	}
	if s.minIndex > o.minIndex {
		s.growLeft(o.minIndex)
	}
	if s.maxIndex < o.maxIndex {
		s.growRight(o.maxIndex)
	}
	for idx := o.minIndex; idx <= o.maxIndex; idx++ {
		s.bins[idx-s.minIndex] += o.bins[idx-o.minIndex]
	}
	s.count += o.count
}

func (s *DenseStore) Reweight(w float64) error {
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return ErrInvalidReweight
	}
	if w == 1 {
		return nil
	}
	for i := range s.bins {
		s.bins[i] *= w
	}
	s.count *= w
	return nil
}

func (s *DenseStore) Bins() <-chan Bin {
	ch := make(chan Bin)
	go func() {
		defer close(ch)
		if s.count == 0 {
			return
		}
		for idx := s.minIndex; idx <= s.maxIndex; idx++ {
			if c := s.bins[idx-s.minIndex]; c > 0 {
				ch <- Bin{index: idx, count: c}
			}
		}
	}()
	return ch
}

func (s *DenseStore) ForEach(f func(index int, count float64) (stop bool)) {
	if s.count == 0 {
		return
	}
	for idx := s.minIndex; idx <= s.maxIndex; idx++ {
		if c := s.bins[idx-s.minIndex]; c > 0 {
			if f(idx, c) {
				return
			}
		}
	}
}

func (s *DenseStore) Clear() {
	for i := range s.bins {
		s.bins[i] = 0
	}
	s.count = 0
	s.minIndex = 0
	s.maxIndex = 0
}

func (s *DenseStore) Copy() BinStore {
	c := &DenseStore{}
	c.copyFrom(s)
	return c
}

func (s *DenseStore) copyFrom(o *DenseStore) {
	s.bins = make([]float64, len(o.bins))
	copy(s.bins, o.bins)
	s.minIndex = o.minIndex
	s.maxIndex = o.maxIndex
	s.count = o.count
}

func (s *DenseStore) Encode(b *[]byte, t enc.FlagType) {
	encodeContiguousCounts(b, t, s.bins, s.minIndex)
}

func (s *DenseStore) DecodeAndMergeWith(b *[]byte, binEncodingMode enc.SubFlag) error {
	return DecodeAndMergeWith(s, b, binEncodingMode)
}

func (s *DenseStore) String() string {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, c := range s.bins {
		if c > 0 {
			fmt.Fprintf(&buf, "%d: %v, ", i+s.minIndex, c)
		}
	}
	fmt.Fprintf(&buf, "count: %v, minIndex: %d, maxIndex: %d}", s.count, s.minIndex, s.maxIndex)
	return buf.String()
}

var _ BinStore = (*DenseStore)(nil)
