package codec

import "encoding/binary"

// Decoder walks a byte slice and recovers typed values, keeping a path
// for diagnostics (spec.md §4.1). It never keeps the fully materialised
// path as strings on the happy path — pathContext only builds a string
// when an error is constructed.
type Decoder struct {
	data []byte
	off  int
	ctx  pathContext
}

// NewDecoder returns a Decoder over data, positioned at offset 0.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Offset returns the current byte offset into the original input.
func (d *Decoder) Offset() int { return d.off }

// Remaining returns the number of undecoded bytes left.
func (d *Decoder) Remaining() int { return len(d.data) - d.off }

// Push enters a named field/variant/index for diagnostics; pair with Pop.
func (d *Decoder) Push(segment string) { d.ctx.push(segment) }

// Pop leaves the most recently pushed segment.
func (d *Decoder) Pop() { d.ctx.pop() }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, wrap(d, ErrUnexpectedEndOfStream)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

// GetBool decodes a single-byte boolean.
func (d *Decoder) GetBool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, wrap(d, ErrInvalidBool)
	}
}

// GetUint8 decodes a fixed-width 8-bit unsigned integer.
func (d *Decoder) GetUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// GetUint16 decodes a fixed-width little-endian 16-bit unsigned integer.
func (d *Decoder) GetUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// GetUint32 decodes a fixed-width little-endian 32-bit unsigned integer.
func (d *Decoder) GetUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// GetUint64 decodes a fixed-width little-endian 64-bit unsigned integer.
func (d *Decoder) GetUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// GetVarint decodes the variable-length natural-number scheme.
func (d *Decoder) GetVarint() (uint64, error) {
	v, n, err := DecodeVarint(d.data[d.off:])
	if err != nil {
		return 0, wrap(d, err)
	}
	d.off += n
	return v, nil
}

// GetFixed reads exactly n raw bytes (used for hashes and other
// byte arrays copied directly, with no further structure).
func (d *Decoder) GetFixed(n int) ([]byte, error) {
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// GetOptional reads the presence byte and, if present, invokes decode.
// It returns whether the value was present.
func (d *Decoder) GetOptional(decode func(*Decoder) error) (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		if err := decode(d); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, wrap(d, ErrInvalidOptional)
	}
}

// GetSequenceLen reads a varint sequence length prefix.
func (d *Decoder) GetSequenceLen() (uint64, error) {
	return d.GetVarint()
}

// GetUnionTag reads a tagged-union discriminant.
func (d *Decoder) GetUnionTag() (uint64, error) {
	return d.GetVarint()
}

// GetEnumOrdinal reads an enum discriminant, rejecting values >= count.
func (d *Decoder) GetEnumOrdinal(count uint64) (uint64, error) {
	v, err := d.GetVarint()
	if err != nil {
		return 0, err
	}
	if v >= count {
		return 0, wrap(d, ErrInvalidEnumTag)
	}
	return v, nil
}

// CheckFixedSliceLen validates that a field declared with a
// compile-time-known size() function decoded to exactly want elements.
func (d *Decoder) CheckFixedSliceLen(got, want int) error {
	if got != want {
		return wrap(d, ErrSliceLengthMismatch)
	}
	return nil
}
