// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package ddsketch

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantilesketch/ddsketch/store"
)

func newTestDenseStore() store.BinStore {
	return store.NewDenseStore()
}

// withinRelativeAccuracy reports whether estimate is within relativeAccuracy
// of expected, per the sketch's core error bound
// |estimate - expected| <= alpha*|expected|.
func withinRelativeAccuracy(t *testing.T, expected, estimate, relativeAccuracy float64) {
	t.Helper()
	if expected == 0 {
		assert.Zero(t, estimate)
		return
	}
	tolerance := relativeAccuracy*math.Abs(expected) + 1e-9
	assert.LessOrEqual(t, math.Abs(estimate-expected), tolerance)
}

// exactQuantile returns the rank-based quantile of a sorted copy of values,
// used only inside tests as ground truth to check sketch estimates against.
func exactQuantile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := int(q * float64(len(sorted)-1))
	return sorted[rank]
}

func TestSketchInsertOneToHundred(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	for i := 1; i <= 100; i++ {
		require.NoError(t, s.Add(float64(i)))
	}
	p50 := s.Quantile(0.5)
	assert.GreaterOrEqual(t, p50, 49.5)
	assert.LessOrEqual(t, p50, 51.5)
	p99 := s.Quantile(0.99)
	assert.GreaterOrEqual(t, p99, 98.0)
	assert.LessOrEqual(t, p99, 101.0)
}

func TestSketchNormalSamples(t *testing.T) {
	s, err := NewDefaultDDSketch(0.02)
	require.NoError(t, err)
	rnd := rand.New(rand.NewSource(42))
	n := 100000
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		v := rnd.NormFloat64()
		values[i] = v
		require.NoError(t, s.Add(v))
	}
	p50 := s.Quantile(0.5)
	assert.GreaterOrEqual(t, p50, -0.02)
	assert.LessOrEqual(t, p50, 0.02)

	truth := exactQuantile(values, 0.99)
	withinRelativeAccuracy(t, truth, s.Quantile(0.99), 0.02)
}

func TestSketchMergeEquivalence(t *testing.T) {
	a, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	b, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	for i := 1; i <= 1000; i++ {
		require.NoError(t, a.Add(float64(i)))
	}
	for i := 1001; i <= 2000; i++ {
		require.NoError(t, b.Add(float64(i)))
	}
	require.NoError(t, a.Merge(b))
	assert.Equal(t, float64(2000), a.Count())
	assert.Equal(t, float64(2001000), a.Sum())
	median := a.Quantile(0.5)
	assert.InDelta(t, 1000, median, 10)
}

func TestSketchSignedValues(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	for _, v := range []float64{-3, -2, -1, 0, 0, 1, 2, 3} {
		require.NoError(t, s.Add(v))
	}
	median := s.Quantile(0.5)
	assert.InDelta(t, 0, median, 1e-6)

	alpha := s.RelativeAccuracy()
	lo := s.Quantile(0)
	assert.InDelta(t, -3, lo, alpha*3+1e-9)
	hi := s.Quantile(1)
	assert.InDelta(t, 3, hi, alpha*3+1e-9)
}

func TestSketchBoundedLowCollapsing(t *testing.T) {
	s, err := LogCollapsingLowestDenseDDSketch(0.01, 32)
	require.NoError(t, err)
	inserted := 0
	for i := 0; i <= 200; i++ {
		require.NoError(t, s.Add(math.Pow(2, float64(i))))
		inserted++
		assert.Equal(t, float64(inserted), s.Count())
	}
}

// TestSketchWireRoundTripPreservesSummaryStats exercises an encode/decode
// round trip via the store-typed constructor helper, checking bit-exact
// preservation of count/sum/min/max/zeroCount and quantile agreement.
func TestSketchWireRoundTripPreservesSummaryStats(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	for i := 1; i <= 500; i++ {
		require.NoError(t, s.AddWithCount(float64(i)-250, float64(i%7+1)))
	}

	var b []byte
	s.Encode(&b)
	decoded, err := DecodeDDSketch(b, newTestDenseStore)
	require.NoError(t, err)

	assert.Equal(t, s.Count(), decoded.Count())
	assert.Equal(t, s.Sum(), decoded.Sum())
	assert.Equal(t, s.Min(), decoded.Min())
	assert.Equal(t, s.Max(), decoded.Max())
	assert.Equal(t, s.ZeroCount(), decoded.ZeroCount())

	for _, q := range []float64{0, 0.1, 0.5, 0.9, 0.99, 1} {
		assert.Equal(t, s.Quantile(q), decoded.Quantile(q))
	}

	var b2 []byte
	decoded.Encode(&b2)
	assert.Equal(t, len(b), len(b2))

	redecoded, err := DecodeDDSketch(b2, newTestDenseStore)
	require.NoError(t, err)
	assert.Equal(t, decoded.Count(), redecoded.Count())
	assert.Equal(t, decoded.Sum(), redecoded.Sum())
}

func TestSketchEmptyQuantileIsNaN(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Quantile(0.5)))
	assert.True(t, math.IsNaN(s.Quantile(-0.1)))
	assert.True(t, math.IsNaN(s.Quantile(1.1)))
}

func TestSketchAllZerosQuantileIsZero(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Add(0))
	}
	for _, q := range []float64{0, 0.25, 0.5, 0.75, 1} {
		assert.Zero(t, s.Quantile(q))
	}
}

func TestSketchRejectsNonPositiveWeight(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	assert.Equal(t, ErrNegativeWeight, s.AddWithCount(1, 0))
	assert.Equal(t, ErrNegativeWeight, s.AddWithCount(1, -1))
}

func TestSketchMergeRejectsUnequalParameters(t *testing.T) {
	a, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	b, err := NewDefaultDDSketch(0.02)
	require.NoError(t, err)
	require.NoError(t, a.Add(1))
	require.NoError(t, b.Add(1))
	assert.Equal(t, ErrUnequalSketchParameters, a.Merge(b))
}

func TestSketchCopyIsIndependent(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	require.NoError(t, s.Add(1))
	c := s.Copy()
	require.NoError(t, s.Add(2))
	assert.Equal(t, float64(1), c.Count())
	assert.Equal(t, float64(2), s.Count())
}

func TestSketchReweight(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	require.NoError(t, s.Add(1))
	require.NoError(t, s.Add(-1))
	require.NoError(t, s.Reweight(3))
	assert.Equal(t, float64(3), s.Count())
}

// TestSketchExponentialSamples mirrors the teacher's TestExponential,
// generating samples the same way its dataset.Exponential generator does
// (rand.ExpFloat64()/rate) without introducing a Generator abstraction.
func TestSketchExponentialSamples(t *testing.T) {
	s, err := NewDefaultDDSketch(0.02)
	require.NoError(t, err)
	rnd := rand.New(rand.NewSource(7))
	const rate = 5.0
	n := 10000
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		v := rnd.ExpFloat64() / rate
		values[i] = v
		require.NoError(t, s.Add(v))
	}
	for _, q := range []float64{0.5, 0.9, 0.99} {
		withinRelativeAccuracy(t, exactQuantile(values, q), s.Quantile(q), 0.02)
	}
}

// TestSketchLognormalSamples mirrors the teacher's TestLognormal, generating
// samples the same way its dataset.Lognormal generator does
// (math.Exp(rand.NormFloat64()*sigma+mu)).
func TestSketchLognormalSamples(t *testing.T) {
	s, err := NewDefaultDDSketch(0.02)
	require.NoError(t, err)
	rnd := rand.New(rand.NewSource(11))
	const mu, sigma = 0.0, 1.0
	n := 10000
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		v := math.Exp(rnd.NormFloat64()*sigma + mu)
		values[i] = v
		require.NoError(t, s.Add(v))
	}
	for _, q := range []float64{0.5, 0.9, 0.99} {
		withinRelativeAccuracy(t, exactQuantile(values, q), s.Quantile(q), 0.02)
	}
}

// TestSketchMergeMixedDistributions mirrors the teacher's TestMergeMixed:
// sketches built from different distributions (normal, two exponentials at
// different rates) are merged and the combined sketch is checked for
// accuracy against the union of the underlying samples.
func TestSketchMergeMixedDistributions(t *testing.T) {
	const alpha = 0.02
	rnd := rand.New(rand.NewSource(21))

	normalSketch, err := NewDefaultDDSketch(alpha)
	require.NoError(t, err)
	fastExpSketch, err := NewDefaultDDSketch(alpha)
	require.NoError(t, err)
	slowExpSketch, err := NewDefaultDDSketch(alpha)
	require.NoError(t, err)

	var all []float64
	for i := 0; i < 5000; i++ {
		v := rnd.NormFloat64()*1 + 100
		all = append(all, v)
		require.NoError(t, normalSketch.Add(v))
	}
	for i := 0; i < 3000; i++ {
		v := rnd.ExpFloat64() / 5
		all = append(all, v)
		require.NoError(t, fastExpSketch.Add(v))
	}
	for i := 0; i < 3000; i++ {
		v := rnd.ExpFloat64() / 0.1
		all = append(all, v)
		require.NoError(t, slowExpSketch.Add(v))
	}

	require.NoError(t, normalSketch.Merge(fastExpSketch))
	require.NoError(t, normalSketch.Merge(slowExpSketch))

	assert.Equal(t, float64(len(all)), normalSketch.Count())
	for _, q := range []float64{0.1, 0.5, 0.9, 0.99} {
		withinRelativeAccuracy(t, exactQuantile(all, q), normalSketch.Quantile(q), alpha)
	}
}

func TestSketchForEachCoversZeroBucket(t *testing.T) {
	s, err := NewDefaultDDSketch(0.01)
	require.NoError(t, err)
	require.NoError(t, s.Add(0))
	require.NoError(t, s.Add(5))
	seenZero := false
	s.ForEach(func(value, count float64) bool {
		if value == 0 {
			seenZero = true
		}
		return false
	})
	assert.True(t, seenZero)
}
