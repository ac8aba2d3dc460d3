// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package encoding

import (
	"encoding/binary"
	"io"
	"math"
)

// EncodeFloat64LE appends the IEEE-754 little-endian encoding of v to *b.
func EncodeFloat64LE(b *[]byte, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	*b = append(*b, buf[:]...)
}

// DecodeFloat64LE reads an IEEE-754 little-endian float64 from the front of
// *b and advances *b past the bytes consumed.
func DecodeFloat64LE(b *[]byte) (float64, error) {
	if len(*b) < 8 {
		return 0, io.EOF
	}
	bits := binary.LittleEndian.Uint64((*b)[:8])
	*b = (*b)[8:]
	return math.Float64frombits(bits), nil
}

// varfloat64 encodes non-negative float64 values (bin counts, zeroCount)
// compactly by stripping the trailing zero bits that dominate the bit
// pattern of common values such as small integers: the IEEE-754 bit
// pattern is shifted right by its trailing-zero-bit count, and that count
// is written alongside the shifted (now odd, or zero) remainder. Both
// halves are varint-encoded, so values whose mantissa is mostly trailing
// zeroes (exact integers and simple fractions, the overwhelming majority of
// bin counts in practice) serialize in just a few bytes instead of 8.
//
// EncodeVarfloat64 appends the varfloat64 encoding of v (v >= 0) to *b.
func EncodeVarfloat64(b *[]byte, v float64) {
	tz, shifted := varfloat64Parts(v)
	EncodeUvarint64(b, tz)
	EncodeUvarint64(b, shifted)
}

// DecodeVarfloat64 reads a varfloat64-encoded float64 from the front of *b.
func DecodeVarfloat64(b *[]byte) (float64, error) {
	tz, err := DecodeUvarint64(b)
	if err != nil {
		return 0, err
	}
	shifted, err := DecodeUvarint64(b)
	if err != nil {
		return 0, err
	}
	if tz >= 64 {
		return 0, nil
	}
	return math.Float64frombits(shifted << tz), nil
}

// Varfloat64Size returns the number of bytes EncodeVarfloat64 would emit for v.
func Varfloat64Size(v float64) int {
	tz, shifted := varfloat64Parts(v)
	return Uvarint64Size(tz) + Uvarint64Size(shifted)
}

func varfloat64Parts(v float64) (trailingZeroBits, shifted uint64) {
	bits := math.Float64bits(v)
	if bits == 0 {
		return 64, 0
	}
	tz := uint64(0)
	for bits&1 == 0 {
		bits >>= 1
		tz++
	}
	return tz, bits
}
