// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package encoding

import (
	"io"
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
)

func TestFloat64LERoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, -2, math.Pi, math.Inf(1), math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64}
	for _, v := range cases {
		var b []byte
		EncodeFloat64LE(&b, v)
		assert.Len(t, b, 8)
		got, err := DecodeFloat64LE(&b)
		assert.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Zero(t, len(b))
	}
}

func TestDecodeFloat64LEShort(t *testing.T) {
	_, err := DecodeFloat64LE(&[]byte{})
	assert.Equal(t, io.EOF, err)
	_, err = DecodeFloat64LE(&[]byte{0, 0, 0})
	assert.Equal(t, io.EOF, err)
}

func TestVarfloat64RoundTrip(t *testing.T) {
	cases := []float64{0, 1, 2, 3, 4, 5, 1000, 0.5, 0.1, math.Pi, 1e300, math.SmallestNonzeroFloat64}
	for _, v := range cases {
		var b []byte
		EncodeVarfloat64(&b, v)
		assert.Equal(t, Varfloat64Size(v), len(b))
		got, err := DecodeVarfloat64(&b)
		assert.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Zero(t, len(b))
	}
}

func TestVarfloat64CompactForIntegers(t *testing.T) {
	// Small integral counts, by far the common case for bin counts, must
	// encode more compactly than the fixed-width 8 byte float64LE form.
	for _, v := range []float64{1, 2, 3, 4, 5, 10, 100} {
		var b []byte
		EncodeVarfloat64(&b, v)
		assert.Less(t, len(b), 8)
	}
}

func TestVarfloat64Fuzz(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 1000; i++ {
		var u uint64
		f.Fuzz(&u)
		v := float64(u >> 11) // keep within the exactly-representable integer range
		var b []byte
		EncodeVarfloat64(&b, v)
		got, err := DecodeVarfloat64(&b)
		assert.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
