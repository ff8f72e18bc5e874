package codec

import "encoding/binary"

// EncodeVarint serialises v using JAM's variable-length natural-number
// encoding (spec.md §4.1): zero and 1..127 are single literal bytes;
// larger values use a one-byte length-prefix (a unary run of `l` set
// bits followed by a zero bit, holding the top 7-l bits of the value)
// followed by the low l bytes of the value, little-endian. Values
// needing the full 8-byte tail use prefix 0xFF.
//
// The distilled spec described the prefix as "0xFF − ⌊2⁷/2ˡ⌋ + hi"; that
// formula does not partition the byte space 128..255 without overlap
// (see DESIGN.md "Open Question decisions", varint prefix-partition
// formula). This implementation instead uses the partition
// base(l) = 0x100 − 2^(8−l), which is the only choice that makes every
// prefix byte map to exactly one l — required for the round-trip and
// canonical-form invariants of spec.md §8.
func EncodeVarint(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	if v <= 127 {
		return []byte{byte(v)}
	}
	for l := 1; l <= 7; l++ {
		hi := v >> uint(8*l)
		if hi < uint64(1)<<uint(7-l) {
			prefix := byte(0x100 - (1 << uint(8-l)) + hi)
			out := make([]byte, 1+l)
			out[0] = prefix
			for i := 0; i < l; i++ {
				out[1+i] = byte(v >> uint(8*i))
			}
			return out
		}
	}
	out := make([]byte, 9)
	out[0] = 0xFF
	binary.LittleEndian.PutUint64(out[1:], v)
	return out
}

// leadingOnes counts the number of leading set bits in b (0..8).
func leadingOnes(b byte) int {
	n := 0
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) == 0 {
			break
		}
		n++
	}
	return n
}

// DecodeVarint inverts EncodeVarint, returning the decoded value and the
// number of bytes consumed from data[0:]. It rejects truncated input and
// non-canonical (non-minimal) encodings.
func DecodeVarint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrUnexpectedEndOfStream
	}
	b0 := data[0]
	if b0 == 0 {
		return 0, 1, nil
	}
	if b0 <= 127 {
		return uint64(b0), 1, nil
	}
	if b0 == 0xFF {
		if len(data) < 9 {
			return 0, 0, ErrUnexpectedEndOfStream
		}
		v := binary.LittleEndian.Uint64(data[1:9])
		if v < uint64(1)<<56 {
			return 0, 0, ErrNonCanonicalVarint
		}
		return v, 9, nil
	}
	l := leadingOnes(b0)
	if l < 1 || l > 7 {
		return 0, 0, ErrVarintPrefixOutOfRange
	}
	if len(data) < 1+l {
		return 0, 0, ErrUnexpectedEndOfStream
	}
	base := byte(0x100 - (uint(1) << uint(8-l)))
	hi := uint64(b0 - base)
	var low uint64
	for i := 0; i < l; i++ {
		low |= uint64(data[1+i]) << uint(8*i)
	}
	value := (hi << uint(8*l)) | low
	// Canonical form check: re-encoding value must reproduce exactly
	// this prefix and these l tail bytes.
	canon := EncodeVarint(value)
	if len(canon) != 1+l || canon[0] != b0 {
		return 0, 0, ErrNonCanonicalVarint
	}
	for i := 0; i < l; i++ {
		if canon[1+i] != data[1+i] {
			return 0, 0, ErrNonCanonicalVarint
		}
	}
	return value, 1 + l, nil
}
