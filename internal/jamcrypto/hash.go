package jamcrypto

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// stdHasher is the concrete Hasher backed by golang.org/x/crypto.
type stdHasher struct{}

// NewHasher returns the standard Blake2b-256/Keccak-256 Hasher.
func NewHasher() Hasher { return stdHasher{} }

func (stdHasher) Blake2b256(data ...[]byte) Hash32 {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for a non-nil key of the wrong
		// length; we never pass one, so this is an invariant violation.
		panic("jamcrypto: blake2b.New256 failed: " + err.Error())
	}
	for _, d := range data {
		h.Write(d)
	}
	var out Hash32
	copy(out[:], h.Sum(nil))
	return out
}

func (stdHasher) Keccak256(data ...[]byte) Hash32 {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash32
	copy(out[:], h.Sum(nil))
	return out
}
