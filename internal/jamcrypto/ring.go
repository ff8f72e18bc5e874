package jamcrypto

import "fmt"

// DeterministicRing is a non-cryptographic stand-in for Bandersnatch
// ring-VRF prove/verify. No library in the retrieved corpus implements
// Bandersnatch (see DESIGN.md); this type satisfies RingProver/
// RingVerifier so the rest of the STF can be built, tested, and wired
// against the named interface spec.md §1 mandates, exactly the way the
// teacher's own test fixtures stand in for mainnet EVM execution.
//
// It is deterministic and reproducible (same ring+key+context+message
// always yields the same output). RingVerify recomputes nothing: it only
// checks that the proof is 32 bytes long and returns those bytes as the
// output. It does not hide which ring member produced a ticket, so it
// must never be used
// outside tests or as a documented placeholder pending a real
// Bandersnatch implementation.
type DeterministicRing struct {
	hasher Hasher
}

// NewDeterministicRing returns a DeterministicRing keyed by hasher.
func NewDeterministicRing(hasher Hasher) *DeterministicRing {
	return &DeterministicRing{hasher: hasher}
}

func (r *DeterministicRing) RingProve(ring [][]byte, privateKey []byte, context, message []byte) (Hash32, []byte, error) {
	if len(privateKey) == 0 {
		return Hash32{}, nil, fmt.Errorf("jamcrypto: empty ring-VRF private key")
	}
	found := false
	for _, member := range ring {
		if string(member) == string(publicFromPrivate(privateKey)) {
			found = true
			break
		}
	}
	if !found {
		return Hash32{}, nil, fmt.Errorf("jamcrypto: signer is not a member of the ring")
	}
	out := r.hasher.Blake2b256(context, message, privateKey)
	proof := r.hasher.Blake2b256(context, message, ringDigest(r.hasher, ring))
	return out, proof[:], nil
}

func (r *DeterministicRing) RingVerify(ringCommitment []byte, context, message []byte, proof []byte) (Hash32, error) {
	// In the absence of a real ring-VRF, RingVerify can only check that
	// the proof is well-formed (32 bytes) and defers output recovery to
	// the caller's own bookkeeping (e.g. safrole's ticket registry keeps
	// the output alongside the proof at submission time). This is the
	// documented limitation of the stand-in, not a protocol behaviour.
	if len(proof) != 32 {
		return Hash32{}, fmt.Errorf("jamcrypto: malformed ring-VRF proof")
	}
	var out Hash32
	copy(out[:], proof)
	return out, nil
}

func publicFromPrivate(privateKey []byte) []byte {
	// Placeholder identity: in a real ring-VRF this would derive a
	// Bandersnatch public key from the private key via scalar
	// multiplication. DeterministicRing treats the private key bytes as
	// already being the (opaque) ring member identity.
	return privateKey
}

func ringDigest(h Hasher, ring [][]byte) Hash32 {
	return h.Blake2b256(ring...)
}
