// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package store

import enc "github.com/quantilesketch/ddsketch/encoding"

// CollapsingHighestDenseStore mirrors CollapsingLowestDenseStore but
// collapses the highest-index bins once maxNumBins is reached, trading
// resolution at the high end of the distribution for a fixed memory bound.
type CollapsingHighestDenseStore struct {
	DenseStore
	maxNumBins int
}

func NewCollapsingHighestDenseStore(maxNumBins int) *CollapsingHighestDenseStore {
	return &CollapsingHighestDenseStore{maxNumBins: maxNumBins}
}

func (s *CollapsingHighestDenseStore) Add(index int) {
	s.AddWithCount(index, 1)
}

func (s *CollapsingHighestDenseStore) AddWithCount(index int, count float64) {
	if count == 0 {
		return
	}
	if s.count == 0 {
		s.bins = make([]float64, minIndex(growthBuffer, s.maxNumBins))
		s.minIndex = index
		s.maxIndex = index + len(s.bins) - 1
	}
	if index < s.minIndex {
		s.growLeft(index)
	} else if index > s.maxIndex {
		s.growRight(index)
	}
	var idx int
	if index > s.maxIndex {
		idx = len(s.bins) - 1
	} else {
		idx = index - s.minIndex
	}
	s.bins[idx] += count
	s.count += count
}

func (s *CollapsingHighestDenseStore) AddBin(bin Bin) {
	if bin.count == 0 {
		return
	}
	s.AddWithCount(bin.index, bin.count)
}

func (s *CollapsingHighestDenseStore) growLeft(index int) {
	if s.minIndex < index {
		return
	}
	if index <= s.minIndex-s.maxNumBins {
		s.bins = make([]float64, s.maxNumBins)
		s.minIndex = index
		s.maxIndex = index + s.maxNumBins - 1
		s.bins[s.maxNumBins-1] = s.count
		return
	}
	if index <= s.maxIndex-s.maxNumBins {
		newMax := index + s.maxNumBins - 1
		var collapsed float64
		for i := maxIndex(s.minIndex, newMax+1); i <= s.maxIndex; i++ {
			collapsed += s.bins[i-s.minIndex]
		}
		if len(s.bins) < s.maxNumBins {
			tmp := make([]float64, s.maxNumBins)
			copy(tmp[s.minIndex-index:], s.bins)
			s.bins = tmp
		} else {
			copy(s.bins[s.minIndex-index:], s.bins)
			for i := 0; i < s.minIndex-index; i++ {
				s.bins[i] = 0
			}
		}
		s.minIndex = index
		s.maxIndex = newMax
		s.bins[s.maxNumBins-1] += collapsed
		return
	}
	tmp := make([]float64, s.maxIndex-index+1)
	copy(tmp[s.minIndex-index:], s.bins)
	s.bins = tmp
	s.minIndex = index
}

func (s *CollapsingHighestDenseStore) growRight(index int) {
	if s.maxIndex > index || len(s.bins) >= s.maxNumBins {
		return
	}
	var newMax int
	if index >= s.minIndex+s.maxNumBins {
		newMax = s.minIndex + s.maxNumBins - 1
	} else {
		newMax = minIndex(index+growthBuffer, s.minIndex+s.maxNumBins-1)
	}
	tmp := make([]float64, newMax-s.minIndex+1)
	copy(tmp, s.bins)
	s.bins = tmp
	s.maxIndex = newMax
}

func (s *CollapsingHighestDenseStore) MergeWith(other BinStore) {
	if other.TotalCount() == 0 {
		return
	}
	o, ok := other.(*CollapsingHighestDenseStore)
	if !ok {
		other.ForEach(func(index int, count float64) bool {
			s.AddWithCount(index, count)
			return false
		})
		return
	}
	if s.count == 0 {
		s.copyFromCollapsingHighest(o)
		return
	}
	s.growRight(o.maxIndex)
	s.growLeft(o.minIndex)
	for i := maxIndex(s.minIndex, o.minIndex); i <= minIndex(s.maxIndex, o.maxIndex); i++ {
		s.bins[i-s.minIndex] += o.bins[i-o.minIndex]
	}
	var collapsed float64
	for i := maxIndex(s.maxIndex+1, o.minIndex); i <= o.maxIndex; i++ {
		collapsed += o.bins[i-o.minIndex]
	}
	s.bins[len(s.bins)-1] += collapsed
	s.count += o.count
}

func (s *CollapsingHighestDenseStore) Copy() BinStore {
	c := &CollapsingHighestDenseStore{maxNumBins: s.maxNumBins}
	c.copyFromCollapsingHighest(s)
	return c
}

func (s *CollapsingHighestDenseStore) copyFromCollapsingHighest(o *CollapsingHighestDenseStore) {
	s.copyFrom(&o.DenseStore)
	s.maxNumBins = o.maxNumBins
}

func (s *CollapsingHighestDenseStore) Clear() {
	s.DenseStore.Clear()
}

func (s *CollapsingHighestDenseStore) Encode(b *[]byte, t enc.FlagType) {
	s.DenseStore.Encode(b, t)
}

func (s *CollapsingHighestDenseStore) DecodeAndMergeWith(b *[]byte, binEncodingMode enc.SubFlag) error {
	return DecodeAndMergeWith(s, b, binEncodingMode)
}

var _ BinStore = (*CollapsingHighestDenseStore)(nil)
