package jamcrypto

import (
	"crypto/ed25519"
	"fmt"
)

// stdEd25519 is the concrete Signer/Verifier backed by the standard
// library's crypto/ed25519 — the curve JAM uses for author keys,
// guarantor signatures, and offender keys (spec.md §3).
type stdEd25519 struct{}

// NewEd25519 returns the standard Ed25519 Signer/Verifier pair.
func NewEd25519() interface {
	Signer
	Verifier
} {
	return stdEd25519{}
}

func (stdEd25519) Sign(privateKey, message []byte) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("jamcrypto: ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(privateKey))
	}
	sig := ed25519.Sign(ed25519.PrivateKey(privateKey), message)
	return sig, nil
}

func (stdEd25519) PublicKey(privateKey []byte) []byte {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil
	}
	pub := make([]byte, ed25519.PublicKeySize)
	copy(pub, ed25519.PrivateKey(privateKey).Public().(ed25519.PublicKey))
	return pub
}

func (stdEd25519) Verify(publicKey, message, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}
