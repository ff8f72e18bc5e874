package codec

import "encoding/binary"

// Encoder accumulates the byte-exact wire encoding of a value tree.
// Encoding is total: unlike decoding, it cannot fail on well-formed Go
// values, so Encoder exposes no error returns (mismatched fixed-length
// slices are caught at the one place they're checked — see PutFixed).
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder ready to accept Put* calls.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte { return e.buf }

// PutRaw appends b verbatim (used for byte arrays copied directly).
func (e *Encoder) PutRaw(b []byte) {
	e.buf = append(e.buf, b...)
}

// PutBool encodes a boolean as a single 0/1 byte.
func (e *Encoder) PutBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// PutUint8 encodes a fixed-width 8-bit unsigned integer.
func (e *Encoder) PutUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// PutUint16 encodes a fixed-width 16-bit little-endian unsigned integer.
func (e *Encoder) PutUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// PutUint32 encodes a fixed-width 32-bit little-endian unsigned integer.
func (e *Encoder) PutUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// PutUint64 encodes a fixed-width 64-bit little-endian unsigned integer.
func (e *Encoder) PutUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// PutVarint encodes v using the variable-length natural-number scheme.
func (e *Encoder) PutVarint(v uint64) {
	e.buf = append(e.buf, EncodeVarint(v)...)
}

// PutFixed copies a byte array directly, panicking if its length does
// not match want — this is an encoder-internal invariant violation
// (spec.md §7 "internal errors"), never a protocol-data condition,
// because callers always pass a Go array/slice of the schema-declared
// fixed width.
func (e *Encoder) PutFixed(b []byte, want int) {
	if len(b) != want {
		panic("codec: fixed-width field has wrong length")
	}
	e.buf = append(e.buf, b...)
}

// PutOptional encodes presence (0 absent, 1 present) followed by encode
// if present is true.
func (e *Encoder) PutOptional(present bool, encode func(*Encoder)) {
	if present {
		e.buf = append(e.buf, 1)
		encode(e)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// PutSequenceLen writes the varint length prefix for a length-prefixed
// sequence; callers then encode each element themselves.
func (e *Encoder) PutSequenceLen(n int) {
	e.PutVarint(uint64(n))
}

// PutUnionTag encodes a tagged-union discriminant.
func (e *Encoder) PutUnionTag(tag uint64) {
	e.PutVarint(tag)
}

// PutEnumOrdinal encodes an enum discriminant.
func (e *Encoder) PutEnumOrdinal(ordinal uint64) {
	e.PutVarint(ordinal)
}
