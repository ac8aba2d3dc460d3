// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.

package encoding

import "errors"

var errVarint32Overflow = errors.New("varint overflows a 32-bit integer")

// Flag is the self-describing tag that precedes every field in the wire
// format (Section 6). It packs a 2-bit FlagType (what kind of field
// follows: a store, an index mapping, or a scalar sketch field) and a
// 5-bit SubFlag (which field, or which sub-encoding, within that type).
// Because every flag fits in a single byte below 0x80, flags round-trip
// through the plain varint primitives unchanged. Each field carries its
// own flag, so fields may appear in any order. Unknown flags are not
// skipped: the decoders in this module return an error on a flag (or a
// store bin encoding, or an interpolation kind) they do not recognize.
type Flag byte

// FlagType identifies what category of field a Flag introduces.
type FlagType byte

// SubFlag further qualifies a Flag within its FlagType: for store fields,
// which bin encoding follows; for index mapping fields, which
// interpolation kind; for sketch-scalar fields, which scalar.
type SubFlag byte

const (
	FlagTypePositiveStore FlagType = 0
	FlagTypeNegativeStore FlagType = 1
	FlagTypeIndexMapping  FlagType = 2
	FlagTypeSketchScalar  FlagType = 3
)

func newFlag(t FlagType, sf SubFlag) Flag {
	return Flag(byte(sf)<<2 | byte(t)&0x3)
}

// Type returns the FlagType of f.
func (f Flag) Type() FlagType { return FlagType(f & 0x3) }

// SubFlag returns the SubFlag of f.
func (f Flag) SubFlag() SubFlag { return SubFlag(f >> 2) }

// Bin encodings, used as the SubFlag of a FlagTypePositiveStore or
// FlagTypeNegativeStore flag: they describe how the bins that follow are
// laid out on the wire.
const (
	// BinEncodingIndexDeltasAndCounts: a sparse run of (index delta, count)
	// pairs, corresponds to the wire format's binCounts field.
	BinEncodingIndexDeltasAndCounts SubFlag = 1
	// BinEncodingIndexDeltas: a sparse run of index deltas, each an
	// implicit unit-weight add.
	BinEncodingIndexDeltas SubFlag = 2
	// BinEncodingContiguousCounts: a dense run of counts starting at a
	// base index with a fixed stride, corresponds to the wire format's
	// contiguousBinCounts/contiguousBinIndexOffset fields.
	BinEncodingContiguousCounts SubFlag = 3
)

// Index mapping interpolation kinds, used as the SubFlag of a
// FlagTypeIndexMapping flag. Values match the wire enum of Section 6.
const (
	InterpolationNone  SubFlag = 0
	InterpolationLinear SubFlag = 1
	InterpolationCubic  SubFlag = 2
)

var (
	FlagIndexMappingBaseLogarithmic = newFlag(FlagTypeIndexMapping, InterpolationNone)
	FlagIndexMappingLinearInterp    = newFlag(FlagTypeIndexMapping, InterpolationLinear)
	FlagIndexMappingCubicInterp     = newFlag(FlagTypeIndexMapping, InterpolationCubic)
)

// Sketch-scalar flags: fields of the Sketch itself rather than of a store
// or mapping. Each is followed by its own self-delimited payload (a
// varfloat64 for the zero count, a fixed-width float64LE for count and the
// exact summary statistics), so a decoder that does not recognize a given
// scalar subflag can still safely fail rather than silently misinterpret
// the stream; unknown *flags* (as opposed to unknown bytes within a known
// flag's payload) are a decode error, by design: a producer and consumer
// must at least agree on the flag vocabulary of this package version.
const (
	subFlagZeroCount SubFlag = 0
	subFlagCount     SubFlag = 1
	subFlagSum       SubFlag = 2
	subFlagMin       SubFlag = 3
	subFlagMax       SubFlag = 4
)

var (
	FlagZeroCountVarFloat = newFlag(FlagTypeSketchScalar, subFlagZeroCount)
	FlagCount             = newFlag(FlagTypeSketchScalar, subFlagCount)
	FlagSum               = newFlag(FlagTypeSketchScalar, subFlagSum)
	FlagMin               = newFlag(FlagTypeSketchScalar, subFlagMin)
	FlagMax               = newFlag(FlagTypeSketchScalar, subFlagMax)
)

// NewStoreFlag builds the Flag that introduces a store's bins, encoded
// with the given bin encoding, for the positive or negative store
// identified by t.
func NewStoreFlag(t FlagType, binEncoding SubFlag) Flag {
	return newFlag(t, binEncoding)
}

// EncodeFlag appends the encoding of f to *b.
func EncodeFlag(b *[]byte, f Flag) {
	EncodeUvarint64(b, uint64(f))
}

// DecodeFlag reads a Flag from the front of *b.
func DecodeFlag(b *[]byte) (Flag, error) {
	v, err := DecodeUvarint64(b)
	if err != nil {
		return 0, err
	}
	return Flag(v), nil
}
