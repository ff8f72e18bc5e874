package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sample exercises every structural primitive the codec exposes: a
// bool, a fixed uint32, an optional uint8, a fixed 4-byte array, a
// length-prefixed sequence of varints, and a 2-variant union.
type sample struct {
	Flag     bool
	Count    uint32
	Maybe    *uint8
	Tag      [4]byte
	Items    []uint64
	Variant  uint64 // union tag
	VariantA uint64
	VariantB []byte
}

func (s *sample) encode(e *Encoder) {
	e.PutBool(s.Flag)
	e.PutUint32(s.Count)
	e.PutOptional(s.Maybe != nil, func(e *Encoder) {
		e.PutUint8(*s.Maybe)
	})
	e.PutFixed(s.Tag[:], 4)
	e.PutSequenceLen(len(s.Items))
	for _, it := range s.Items {
		e.PutVarint(it)
	}
	e.PutUnionTag(s.Variant)
	switch s.Variant {
	case 0:
		e.PutVarint(s.VariantA)
	case 1:
		e.PutSequenceLen(len(s.VariantB))
		e.PutRaw(s.VariantB)
	}
}

func (s *sample) decode(d *Decoder) error {
	var err error
	if s.Flag, err = d.GetBool(); err != nil {
		return err
	}
	if s.Count, err = d.GetUint32(); err != nil {
		return err
	}
	present, err := d.GetOptional(func(d *Decoder) error {
		v, err := d.GetUint8()
		if err != nil {
			return err
		}
		s.Maybe = &v
		return nil
	})
	if err != nil {
		return err
	}
	if !present {
		s.Maybe = nil
	}
	tag, err := d.GetFixed(4)
	if err != nil {
		return err
	}
	copy(s.Tag[:], tag)
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	s.Items = make([]uint64, n)
	for i := range s.Items {
		if s.Items[i], err = d.GetVarint(); err != nil {
			return err
		}
	}
	if s.Variant, err = d.GetUnionTag(); err != nil {
		return err
	}
	switch s.Variant {
	case 0:
		if s.VariantA, err = d.GetVarint(); err != nil {
			return err
		}
	case 1:
		bn, err := d.GetSequenceLen()
		if err != nil {
			return err
		}
		s.VariantB, err = d.GetFixed(int(bn))
		if err != nil {
			return err
		}
	default:
		return wrap(d, ErrInvalidUnionTag)
	}
	return nil
}

func TestStructuralRoundTrip(t *testing.T) {
	maybe := uint8(42)
	in := &sample{
		Flag:    true,
		Count:   0xDEADBEEF,
		Maybe:   &maybe,
		Tag:     [4]byte{1, 2, 3, 4},
		Items:   []uint64{0, 1, 127, 128, 1 << 40},
		Variant: 1,
		VariantB: []byte("hello"),
	}
	e := NewEncoder()
	in.encode(e)

	out := &sample{}
	d := NewDecoder(e.Bytes())
	require.NoError(t, out.decode(d))
	require.Equal(t, 0, d.Remaining())
	require.Equal(t, in.Flag, out.Flag)
	require.Equal(t, in.Count, out.Count)
	require.Equal(t, *in.Maybe, *out.Maybe)
	require.Equal(t, in.Tag, out.Tag)
	require.Equal(t, in.Items, out.Items)
	require.Equal(t, in.Variant, out.Variant)
	require.Equal(t, in.VariantB, out.VariantB)
}

func TestOptionalAbsent(t *testing.T) {
	in := &sample{Variant: 0, VariantA: 7, Items: []uint64{}}
	e := NewEncoder()
	in.encode(e)
	out := &sample{}
	require.NoError(t, out.decode(NewDecoder(e.Bytes())))
	require.Nil(t, out.Maybe)
	require.Equal(t, uint64(7), out.VariantA)
}

func TestInvalidOptionalByte(t *testing.T) {
	raw := []byte{0, 0, 0, 0, 0, 2 /* bad presence byte */}
	_, err := NewDecoder(raw[5:]).GetOptional(func(d *Decoder) error { return nil })
	require.ErrorIs(t, err, ErrInvalidOptional)
}

func TestInvalidUnionTag(t *testing.T) {
	in := &sample{Variant: 0, VariantA: 1, Items: nil}
	e := NewEncoder()
	in.encode(e)
	raw := e.Bytes()
	raw[len(raw)-2] = 5 // corrupt the union tag to an out-of-range value
	out := &sample{}
	err := out.decode(NewDecoder(raw))
	require.ErrorIs(t, err, ErrInvalidUnionTag)
}
