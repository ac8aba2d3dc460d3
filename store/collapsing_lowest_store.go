// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package store

import enc "github.com/quantilesketch/ddsketch/encoding"

// CollapsingLowestDenseStore is a dynamically growing contiguous store
// that never holds more than maxNumBins distinct indices: once that limit
// is reached, the lowest-index bins are merged into the lowest retained
// bin, trading resolution at the low end of the distribution for a fixed
// memory bound.
type CollapsingLowestDenseStore struct {
	DenseStore
	maxNumBins int
}

func NewCollapsingLowestDenseStore(maxNumBins int) *CollapsingLowestDenseStore {
	return &CollapsingLowestDenseStore{maxNumBins: maxNumBins}
}

func (s *CollapsingLowestDenseStore) Add(index int) {
	s.AddWithCount(index, 1)
}

func (s *CollapsingLowestDenseStore) AddWithCount(index int, count float64) {
	if count == 0 {
		return
	}
	if s.count == 0 {
		s.bins = make([]float64, minIndex(growthBuffer, s.maxNumBins))
		s.maxIndex = index
		s.minIndex = index - len(s.bins) + 1
	}
	if index < s.minIndex {
		s.growLeft(index)
	} else if index > s.maxIndex {
		s.growRight(index)
	}
	idx := maxIndex(0, index-s.minIndex)
	s.bins[idx] += count
	s.count += count
}

func (s *CollapsingLowestDenseStore) AddBin(bin Bin) {
	if bin.count == 0 {
		return
	}
	s.AddWithCount(bin.index, bin.count)
}

func (s *CollapsingLowestDenseStore) growLeft(index int) {
	if s.minIndex < index || len(s.bins) >= s.maxNumBins {
		return
	}
	var newMin int
	if s.maxIndex >= index+s.maxNumBins {
		newMin = s.maxIndex - s.maxNumBins + 1
	} else {
		newMin = maxIndex(index-growthBuffer, s.maxIndex-s.maxNumBins+1)
	}
	tmp := make([]float64, s.maxIndex-newMin+1)
	copy(tmp[s.minIndex-newMin:], s.bins)
	s.bins = tmp
	s.minIndex = newMin
}

func (s *CollapsingLowestDenseStore) growRight(index int) {
	if s.maxIndex > index {
		return
	}
	if index >= s.maxIndex+s.maxNumBins {
		s.bins = make([]float64, s.maxNumBins)
		s.maxIndex = index
		s.minIndex = index - s.maxNumBins + 1
		s.bins[0] = s.count
		return
	}
	if index >= s.minIndex+s.maxNumBins {
		newMin := index - s.maxNumBins + 1
		var collapsed float64
		for i := s.minIndex; i < newMin && i <= s.maxIndex; i++ {
			collapsed += s.bins[i-s.minIndex]
		}
		if len(s.bins) < s.maxNumBins {
			tmp := make([]float64, s.maxNumBins)
			copy(tmp, s.bins[newMin-s.minIndex:])
			s.bins = tmp
		} else {
			copy(s.bins, s.bins[newMin-s.minIndex:])
			for i := s.maxIndex - newMin + 1; i < s.maxNumBins; i++ {
				s.bins[i] = 0
			}
		}
		s.maxIndex = index
		s.minIndex = newMin
		s.bins[0] += collapsed
		return
	}
	newMax := minIndex(index+growthBuffer, s.minIndex+s.maxNumBins-1)
	tmp := make([]float64, newMax-s.minIndex+1)
	copy(tmp, s.bins)
	s.bins = tmp
	s.maxIndex = newMax
}

func (s *CollapsingLowestDenseStore) MergeWith(other BinStore) {
	if other.TotalCount() == 0 {
		return
	}
	o, ok := other.(*CollapsingLowestDenseStore)
	if !ok {
		other.ForEach(func(index int, count float64) bool {
			s.AddWithCount(index, count)
			return false
		})
		return
	}
	if s.count == 0 {
		s.copyFromCollapsingLowest(o)
		return
	}
	s.growRight(o.maxIndex)
	s.growLeft(o.minIndex)
	for i := maxIndex(s.minIndex, o.minIndex); i <= minIndex(s.maxIndex, o.maxIndex); i++ {
		s.bins[i-s.minIndex] += o.bins[i-o.minIndex]
	}
	var collapsed float64
	for i := o.minIndex; i <= minIndex(s.minIndex-1, o.maxIndex); i++ {
		collapsed += o.bins[i-o.minIndex]
	}
	s.bins[0] += collapsed
	s.count += o.count
}

func (s *CollapsingLowestDenseStore) Copy() BinStore {
	c := &CollapsingLowestDenseStore{maxNumBins: s.maxNumBins}
	c.copyFromCollapsingLowest(s)
	return c
}

func (s *CollapsingLowestDenseStore) copyFromCollapsingLowest(o *CollapsingLowestDenseStore) {
	s.copyFrom(&o.DenseStore)
	s.maxNumBins = o.maxNumBins
}

func (s *CollapsingLowestDenseStore) Clear() {
	s.DenseStore.Clear()
}

func (s *CollapsingLowestDenseStore) Encode(b *[]byte, t enc.FlagType) {
	s.DenseStore.Encode(b, t)
}

func (s *CollapsingLowestDenseStore) DecodeAndMergeWith(b *[]byte, binEncodingMode enc.SubFlag) error {
	return DecodeAndMergeWith(s, b, binEncodingMode)
}

var _ BinStore = (*CollapsingLowestDenseStore)(nil)
