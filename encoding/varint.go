// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

// Package encoding implements the primitives of the sketch's binary wire
// format: unsigned and zig-zag varints, little-endian float64, and the
// self-describing "flag" byte that makes the format field-tagged and
// order-independent (see Flag).
package encoding

import "io"

// EncodeUvarint64 appends the LEB128 (base-128) varint encoding of v to *b.
func EncodeUvarint64(b *[]byte, v uint64) {
	for v >= 0x80 {
		*b = append(*b, byte(v)|0x80)
		v >>= 7
	}
	*b = append(*b, byte(v))
}

// DecodeUvarint64 reads a varint-encoded uint64 from the front of *b and
// advances *b past the bytes consumed.
func DecodeUvarint64(b *[]byte) (uint64, error) {
	var v uint64
	var shift uint
	for {
		if len(*b) == 0 {
			return 0, io.EOF
		}
		c := (*b)[0]
		*b = (*b)[1:]
		v |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

// Uvarint64Size returns the number of bytes EncodeUvarint64 would emit for v.
func Uvarint64Size(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// EncodeVarint64 appends the zig-zag varint encoding of v to *b.
func EncodeVarint64(b *[]byte, v int64) {
	EncodeUvarint64(b, zigZagEncode64(v))
}

// DecodeVarint64 reads a zig-zag varint-encoded int64 from the front of *b.
func DecodeVarint64(b *[]byte) (int64, error) {
	uv, err := DecodeUvarint64(b)
	if err != nil {
		return 0, err
	}
	return zigZagDecode64(uv), nil
}

// Varint64Size returns the number of bytes EncodeVarint64 would emit for v.
func Varint64Size(v int64) int {
	return Uvarint64Size(zigZagEncode64(v))
}

// DecodeVarint32 reads a zig-zag varint-encoded int32 from the front of *b.
// It returns errVarint32Overflow if the decoded value does not fit in 32
// bits, leaving *b positioned just past the offending varint.
func DecodeVarint32(b *[]byte) (int32, error) {
	v, err := DecodeVarint64(b)
	if err != nil {
		return 0, err
	}
	if v < minInt32AsInt64 || v > maxInt32AsInt64 {
		return 0, errVarint32Overflow
	}
	return int32(v), nil
}

const (
	minInt32AsInt64 = int64(-1) << 31
	maxInt32AsInt64 = int64(1)<<31 - 1
)

func zigZagEncode64(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func zigZagDecode64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
