package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 2, 63, 64, 127, 128, 129, 255, 256, 16383, 16384, 65535, 65536,
		1 << 20, 1 << 27, 1 << 34, 1 << 41, 1 << 48, 1 << 55, 1 << 56, 1<<56 + 1,
		1 << 63, ^uint64(0),
	}
	for _, v := range values {
		enc := EncodeVarint(v)
		got, n, err := DecodeVarint(enc)
		require.NoError(t, err, "value %d", v)
		require.Equal(t, len(enc), n, "value %d", v)
		require.Equal(t, v, got, "value %d", v)
	}
}

func TestVarintMinimalPrefixPartition(t *testing.T) {
	// Every prefix byte in [128,255] must map to exactly one tail length.
	seen := map[int]int{}
	for b := 128; b <= 255; b++ {
		l := leadingOnes(byte(b))
		seen[b] = l
	}
	require.Len(t, seen, 128)
}

func TestVarintRejectsTruncated(t *testing.T) {
	enc := EncodeVarint(1 << 20)
	_, _, err := DecodeVarint(enc[:len(enc)-1])
	require.ErrorIs(t, err, ErrUnexpectedEndOfStream)
}

func TestVarintRejectsNonCanonical(t *testing.T) {
	// Hand-build a non-minimal 3-byte encoding of the value 5 (which
	// canonically fits in a single literal byte).
	nonCanonical := []byte{0xC0, 0x05, 0x00}
	_, _, err := DecodeVarint(nonCanonical)
	require.ErrorIs(t, err, ErrNonCanonicalVarint)
}

func TestVarintEmptyInput(t *testing.T) {
	_, _, err := DecodeVarint(nil)
	require.ErrorIs(t, err, ErrUnexpectedEndOfStream)
}
