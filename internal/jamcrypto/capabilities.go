// Package jamcrypto defines the capability set the STF consumes
// cryptographic primitives through (spec.md §1): hashing, Ed25519
// sign/verify, BLS aggregation, and Bandersnatch ring-VRF prove/verify.
// The STF core never imports a curve library directly — every component
// that needs crypto takes one of these interfaces as an explicit
// collaborator (spec.md §9 "no module-level singleton").
package jamcrypto

// Hash32 is a 32-byte digest, used for both Blake2b-256 and Keccak-256
// outputs (spec.md §6 names both hash functions by algorithm, never by
// a shared width-only type, but both happen to be 32 bytes).
type Hash32 [32]byte

// Hasher produces domain-specific 32-byte digests.
type Hasher interface {
	// Blake2b256 hashes data with Blake2b-256 (state root, entropy
	// accumulator, service-account preimage keys).
	Blake2b256(data ...[]byte) Hash32
	// Keccak256 hashes data with Keccak-256 (accumulate root).
	Keccak256(data ...[]byte) Hash32
}

// Signer produces an Ed25519 signature over a message. It takes no
// context tag; the seal and entropy-source VRF contexts (spec.md
// §4.6/§4.11) are ring-VRF and go through RingProver below.
type Signer interface {
	Sign(privateKey []byte, message []byte) (signature []byte, err error)
	PublicKey(privateKey []byte) []byte
}

// Verifier checks an Ed25519 signature.
type Verifier interface {
	Verify(publicKey, message, signature []byte) bool
}

// BLSAggregator validates BLS12-381 public key material carried in
// validator metadata (spec.md §3 ValidatorKey.bls). The STF does not
// require BLS signature verification in its own hot path — no
// work-item in spec.md gates on a BLS check — and no STF component,
// invariant check or test calls this capability; it is available for
// any future consumer.
type BLSAggregator interface {
	ValidatePublicKey(pub []byte) error
	Aggregate(pubs [][]byte) ([]byte, error)
}

// RingProver produces an anonymous ring-VRF signature over a context
// and message, proving membership in a validator ring without
// identifying which member signed (spec.md §4.6 ticket submission,
// §4.11 seal/entropy-source verification).
type RingProver interface {
	RingProve(ring [][]byte, privateKey []byte, context, message []byte) (output Hash32, proof []byte, err error)
}

// RingVerifier verifies a ring-VRF proof against a ring commitment,
// recovering the VRF output without learning the signer's identity.
type RingVerifier interface {
	RingVerify(ringCommitment []byte, context, message []byte, proof []byte) (output Hash32, err error)
}

// Capabilities bundles everything a component might need; components
// that only need a subset take the narrower interface directly instead
// (e.g. internal/merkle only needs Hasher).
type Capabilities interface {
	Hasher
	Signer
	Verifier
	BLSAggregator
	RingProver
	RingVerifier
}
