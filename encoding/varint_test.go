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

type uint64TestCase struct {
	decoded uint64
	encoded []byte
}

var varuint64TestCases = []uint64TestCase{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{127, []byte{0x7F}},
	{128, []byte{0x80, 0x01}},
	{129, []byte{0x81, 0x01}},
	{255, []byte{0xFF, 0x01}},
	{256, []byte{0x80, 0x02}},
	{16383, []byte{0xFF, 0x7F}},
	{16384, []byte{0x80, 0x80, 0x01}},
	{math.MaxUint64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
}

func TestEncodeUvarint64(t *testing.T) {
	for _, tc := range varuint64TestCases {
		var encoded []byte
		EncodeUvarint64(&encoded, tc.decoded)
		assert.Equal(t, tc.encoded, encoded)
		assert.Equal(t, len(tc.encoded), Uvarint64Size(tc.decoded))
	}
}

func TestDecodeUvarint64(t *testing.T) {
	for _, tc := range varuint64TestCases {
		enc := append([]byte{}, tc.encoded...)
		decoded, err := DecodeUvarint64(&enc)
		assert.NoError(t, err)
		assert.Equal(t, tc.decoded, decoded)
		assert.Zero(t, len(enc))
	}
	_, err := DecodeUvarint64(&[]byte{})
	assert.Equal(t, io.EOF, err)
	_, err = DecodeUvarint64(&[]byte{0x80})
	assert.Equal(t, io.EOF, err)
}

func TestVarint64RoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 1000; i++ {
		var v int64
		f.Fuzz(&v)
		var b []byte
		EncodeVarint64(&b, v)
		assert.Equal(t, Varint64Size(v), len(b))
		got, err := DecodeVarint64(&b)
		assert.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Zero(t, len(b))
	}
}

func TestVarint64SmallValues(t *testing.T) {
	cases := []int64{0, 1, -1, 63, -63, 64, -64, 1000, -1000}
	for _, v := range cases {
		var b []byte
		EncodeVarint64(&b, v)
		got, err := DecodeVarint64(&b)
		assert.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecodeVarint32Overflow(t *testing.T) {
	var b []byte
	EncodeVarint64(&b, int64(math.MaxInt32)+1)
	_, err := DecodeVarint32(&b)
	assert.Equal(t, errVarint32Overflow, err)
}

func TestDecodeVarint32InRange(t *testing.T) {
	for _, v := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32} {
		var b []byte
		EncodeVarint64(&b, int64(v))
		got, err := DecodeVarint32(&b)
		assert.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
